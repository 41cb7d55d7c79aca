// Shared setup for CLI commands.
//
// Information Hiding:
// - Flag values layered over the process environment
// - Registry assembly from built-in catalog, settings and YAML catalog
// - Logger, metrics and chat client construction

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/richinex/liarsbar/config"
	"github.com/richinex/liarsbar/internal/logging"
	"github.com/richinex/liarsbar/llm"
)

// Options holds CLI execution options. Empty flag values fall back to the
// environment.
type Options struct {
	LogLevel    string
	LogFormat   string
	CatalogPath string
	MaxDuration string
	Debug       bool
	MetricsAddr string

	// Lookup reads environment variables. Defaults to os.LookupEnv.
	Lookup config.LookupFunc
	// Out receives command output. Defaults to os.Stdout.
	Out io.Writer
	// In is read by interactive commands. Defaults to os.Stdin.
	In io.Reader
}

func (o Options) lookup() config.LookupFunc {
	base := o.Lookup
	if base == nil {
		base = os.LookupEnv
	}
	overrides := map[string]string{
		config.EnvLogLevel:    o.LogLevel,
		config.EnvLogFormat:   o.LogFormat,
		config.EnvCatalog:     o.CatalogPath,
		config.EnvMaxDuration: o.MaxDuration,
	}
	if o.Debug {
		overrides[config.EnvDebug] = "true"
	}
	return config.Overlay(overrides, base)
}

// app bundles everything a command needs.
type app struct {
	settings config.Settings
	logger   *zap.Logger
	registry *llm.Registry
	client   *llm.Client
	out      io.Writer
	in       io.Reader

	metricsServer *http.Server
}

func newApp(opts Options) (*app, error) {
	settings, err := config.New(opts.lookup())
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(settings.Log)
	if err != nil {
		return nil, err
	}

	registry, err := BuildRegistry(settings)
	if err != nil {
		return nil, err
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	in := opts.In
	if in == nil {
		in = os.Stdin
	}

	promRegistry := prometheus.NewRegistry()
	clientOpts := []llm.ClientOption{
		llm.WithLogger(logger),
		llm.WithMetrics(llm.NewMetrics(promRegistry)),
		llm.WithMaxDuration(settings.Stream.MaxDuration),
	}
	if settings.Stream.Debug {
		clientOpts = append(clientOpts, llm.WithObserver(llm.NewEchoObserver(out)))
	}
	factory := llm.NewFactory(registry, llm.WithMaxTokens(settings.Stream.MaxTokens))

	a := &app{
		settings: settings,
		logger:   logger,
		registry: registry,
		client:   llm.NewClient(factory, clientOpts...),
		out:      out,
		in:       in,
	}

	if opts.MetricsAddr != "" {
		if err := a.serveMetrics(opts.MetricsAddr, promRegistry); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// serveMetrics exposes the chat counters on addr until Close.
func (a *app) serveMetrics(addr string, reg *prometheus.Registry) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen for metrics on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	a.metricsServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := a.metricsServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	a.logger.Info("metrics server started", zap.String("addr", listener.Addr().String()))
	return nil
}

func (a *app) Close() {
	if a.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.metricsServer.Shutdown(ctx)
	}
	_ = a.logger.Sync()
}

// BuildRegistry merges settings and the optional catalog into the built-in
// providers and models. Catalog entries replace built-ins with the same id.
func BuildRegistry(settings config.Settings) (*llm.Registry, error) {
	providers := llm.DefaultProviders()
	index := make(map[llm.ProviderID]int, len(providers))
	for i, p := range providers {
		index[p.ID] = i
	}

	for _, cp := range settings.Catalog.Providers {
		kind, err := llm.ParseTransportKind(cp.Kind)
		if err != nil {
			return nil, fmt.Errorf("catalog provider %s: %w", cp.ID, err)
		}
		p := llm.Provider{
			ID:             llm.ProviderID(cp.ID),
			BaseURL:        cp.BaseURL,
			Kind:           kind,
			ExtraBody:      cp.ExtraBody,
			ThinkingBudget: cp.ThinkingBudget,
		}
		if i, ok := index[p.ID]; ok {
			providers[i] = p
		} else {
			index[p.ID] = len(providers)
			providers = append(providers, p)
		}
	}

	for i := range providers {
		ps, ok := settings.Providers[string(providers[i].ID)]
		if !ok {
			continue
		}
		providers[i].APIKey = ps.APIKey
		if ps.BaseURL != "" {
			providers[i].BaseURL = ps.BaseURL
		}
	}

	models := llm.DefaultModels()
	modelIndex := make(map[string]int, len(models))
	for i, m := range models {
		modelIndex[m.ID] = i
	}
	for _, cm := range settings.Catalog.Models {
		m := llm.Model{ID: cm.ID, Provider: llm.ProviderID(cm.Provider), Nickname: cm.Nickname}
		if i, ok := modelIndex[m.ID]; ok {
			models[i] = m
		} else {
			modelIndex[m.ID] = len(models)
			models = append(models, m)
		}
	}

	return llm.NewRegistry(providers, models)
}
