package llm

// Provider identifiers for the built-in catalog.
const (
	ProviderAliyun    ProviderID = "aliyun"
	ProviderHuoshan   ProviderID = "huoshan"
	ProviderQCloud    ProviderID = "qcloud"
	ProviderAnthropic ProviderID = "anthropic"
	ProviderGemini    ProviderID = "gemini"
)

// Default endpoints. Anthropic and Gemini use their SDK defaults when empty.
const (
	AliyunBaseURL  = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	HuoshanBaseURL = "https://ark.cn-beijing.volces.com/api/v3"
	QCloudBaseURL  = "https://api.hunyuan.cloud.tencent.com/v1"
)

// Model identifiers served by the built-in catalog.
const (
	// ModelQwenMax is Qwen Max (January 2025 snapshot) on Aliyun DashScope.
	ModelQwenMax = "qwen-max-2025-01-25"
	// ModelQwQPlus is the QwQ Plus thinking model on Aliyun DashScope.
	ModelQwQPlus = "qwq-plus-2025-03-05"
	// ModelDeepSeekR1 is DeepSeek R1 hosted on Aliyun DashScope.
	ModelDeepSeekR1 = "deepseek-r1"
	// ModelDoubaoPro is Doubao 1.5 Pro 32k on Volcengine Ark.
	ModelDoubaoPro = "doubao-1.5-pro-32k-250115"
	// ModelHunyuanTurboS is Hunyuan TurboS on Tencent Cloud.
	ModelHunyuanTurboS = "hunyuan-turbos-20250313"
	// ModelClaudeSonnet4 is Claude Sonnet 4.
	ModelClaudeSonnet4 = "claude-sonnet-4-20250514"
	// ModelGeminiFlash25 is Gemini 2.5 Flash.
	ModelGeminiFlash25 = "gemini-2.5-flash"
)

// DefaultProviders returns the built-in providers with no credentials set.
func DefaultProviders() []Provider {
	return []Provider{
		{ID: ProviderAliyun, BaseURL: AliyunBaseURL, Kind: TransportOpenAICompatible},
		{ID: ProviderHuoshan, BaseURL: HuoshanBaseURL, Kind: TransportArk},
		{
			ID:      ProviderQCloud,
			BaseURL: QCloudBaseURL,
			Kind:    TransportOpenAICompatible,
			ExtraBody: map[string]any{
				"enable_enhancement": true,
				"enable_deep_search": true,
			},
		},
		{ID: ProviderAnthropic, Kind: TransportAnthropic, ThinkingBudget: 2048},
		{ID: ProviderGemini, Kind: TransportGemini},
	}
}

// DefaultModels returns the built-in models in presentation order.
func DefaultModels() []Model {
	return []Model{
		{ID: ModelQwenMax, Provider: ProviderAliyun, Nickname: "Violet"},
		{ID: ModelQwQPlus, Provider: ProviderAliyun, Nickname: "Ding"},
		{ID: ModelDeepSeekR1, Provider: ProviderAliyun, Nickname: "Azure"},
		{ID: ModelDoubaoPro, Provider: ProviderHuoshan, Nickname: "Bean"},
		{ID: ModelHunyuanTurboS, Provider: ProviderQCloud, Nickname: "Goose"},
		{ID: ModelClaudeSonnet4, Provider: ProviderAnthropic, Nickname: "Sonnet"},
		{ID: ModelGeminiFlash25, Provider: ProviderGemini, Nickname: "Flash"},
	}
}
