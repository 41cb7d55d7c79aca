// Package main provides the liarsbar CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/richinex/liarsbar/cli"
)

var (
	// Global flags
	logLevel    string
	logFormat   string
	catalogPath string
	maxDuration string
	debug       bool
	metricsAddr string
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:   "liarsbar",
		Short: "Streaming chat across model vendors for multi-agent games",
		Long: `A CLI for talking to the language models that sit at the liar's bar table.

Every model answers through one streaming contract: its answer and, when the
vendor surfaces it, its reasoning. Supported transports:
- openai_compatible: Aliyun DashScope, Tencent Hunyuan and any OpenAI-style endpoint
- ark: Volcengine Ark native streaming
- anthropic: Claude with extended thinking
- gemini: Gemini with thought summaries

Credentials are read from ALIYUN_API_KEY, HUOSHAN_API_KEY, QCLOUD_API_KEY,
ANTHROPIC_API_KEY and GEMINI_API_KEY (a .env file is loaded if present).`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default from LIARSBAR_LOG_LEVEL or info)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: console or json (default from LIARSBAR_LOG_FORMAT or console)")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "YAML catalog with extra providers and models")
	rootCmd.PersistentFlags().StringVar(&maxDuration, "max-duration", "", "Upper bound per streamed request, e.g. 90s (default unbounded)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Echo reasoning and answer fragments as they stream")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")

	rootCmd.AddCommand(askCmd(ctx))
	rootCmd.AddCommand(chatCmd(ctx))
	rootCmd.AddCommand(benchCmd(ctx))
	rootCmd.AddCommand(modelsCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(sessionsCmd(ctx))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func globalOptions() cli.Options {
	return cli.Options{
		LogLevel:    logLevel,
		LogFormat:   logFormat,
		CatalogPath: catalogPath,
		MaxDuration: maxDuration,
		Debug:       debug,
		MetricsAddr: metricsAddr,
	}
}

func askCmd(ctx context.Context) *cobra.Command {
	var model string
	var system string

	cmd := &cobra.Command{
		Use:   "ask [prompt]",
		Short: "Send one prompt to a model and print its reasoning and answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Ask(ctx, model, system, strings.Join(args, " "), globalOptions())
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "Model identifier (see 'liarsbar models')")
	cmd.Flags().StringVar(&system, "system", "", "Optional system prompt")
	_ = cmd.MarkFlagRequired("model")

	return cmd
}

func chatCmd(ctx context.Context) *cobra.Command {
	var model string
	var system string
	var sessionID string
	var dbPath string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session with a model",
		Long: `Start an interactive chat session. Every turn, including the model's
reasoning, is stored in SQLite; pass --session to resume a conversation.
Pass --db :memory: for a session that is discarded on exit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Chat(ctx, model, system, sessionID, dbPath, globalOptions())
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "Model identifier (see 'liarsbar models')")
	cmd.Flags().StringVar(&system, "system", "", "Optional system prompt")
	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID for conversation persistence (default: new session)")
	cmd.Flags().StringVar(&dbPath, "db", ".liarsbar/liarsbar.db", "Database path for storage")
	_ = cmd.MarkFlagRequired("model")

	return cmd
}

func benchCmd(ctx context.Context) *cobra.Command {
	var opts cli.BenchOptions

	cmd := &cobra.Command{
		Use:   "bench [prompt]",
		Short: "Ask several models the same prompt over many games and save game records",
		Long: `Seat one player per --model and play --games polls. Each poll sends the
prompt to every player concurrently and saves the answers and reasoning as a
JSON game record. A failing poll is logged and counted; the batch continues.
Convert the records to text with 'liarsbar report'.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Prompt = strings.Join(args, " ")
			return cli.Bench(ctx, opts, globalOptions())
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Models, "model", "m", nil, "Model identifiers, one player each (repeatable)")
	cmd.Flags().IntVarP(&opts.Games, "games", "n", 10, "Number of games to play")
	cmd.Flags().StringVar(&opts.OutDir, "out", "game_records", "Directory for JSON game records")
	cmd.Flags().BoolVar(&opts.Shuffle, "shuffle", true, "Shuffle the seating once before the first game")
	_ = cmd.MarkFlagRequired("model")

	return cmd
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List known models, their nicknames, providers and credential status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Models(globalOptions())
		},
	}
}

func reportCmd() *cobra.Command {
	var inDir string
	var outDir string
	var reasoning bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Convert JSON game records into readable text transcripts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Report(inDir, outDir, reasoning, globalOptions())
		},
	}

	cmd.Flags().StringVar(&inDir, "in", "game_records", "Directory containing JSON game records")
	cmd.Flags().StringVar(&outDir, "out", "converted_game_records", "Directory for text transcripts")
	cmd.Flags().BoolVar(&reasoning, "reasoning", false, "Include each model's reasoning in the transcript")

	return cmd
}

func sessionsCmd(ctx context.Context) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List stored chat sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Sessions(ctx, dbPath, globalOptions())
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", ".liarsbar/liarsbar.db", "Database path for storage")

	return cmd
}
