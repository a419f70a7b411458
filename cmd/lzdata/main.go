// Package main implements lzdata, which assembles region data for genome
// browser panels from configured sources, either as a one-shot query or as an
// HTTP service.
package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/statgen/locuszoom-sub005/adapter"
	"github.com/statgen/locuszoom-sub005/chain"
	"github.com/statgen/locuszoom-sub005/config"
	httpgateway "github.com/statgen/locuszoom-sub005/gateway/http"
	"github.com/statgen/locuszoom-sub005/health"
	"github.com/statgen/locuszoom-sub005/metric"
	"github.com/statgen/locuszoom-sub005/natsclient"
	"github.com/statgen/locuszoom-sub005/requester"
	"github.com/statgen/locuszoom-sub005/sourceregistry"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "lzdata"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	cliCfg, err := parseFlags(fs, args)
	if stderrors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		_, _ = fmt.Fprintf(stdout, "%s version %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp(stdout, fs)
		return nil
	}

	logger := setupLogger(stderr, cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	cfg, err := config.NewLoader().LoadFile(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	registry, err := sourceregistry.NewRegistry()
	if err != nil {
		return fmt.Errorf("register adapters: %w", err)
	}
	if err := checkSourceTypes(cfg, registry); err != nil {
		return err
	}
	if cliCfg.Validate {
		logger.Info("Configuration is valid", "sources", cfg.SourceIDs())
		return nil
	}

	a, err := newApp(ctx, cfg, registry, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cliCfg.ShutdownTimeout)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			logger.Warn("Shutdown incomplete", "error", err)
		}
	}()

	if cliCfg.Serve {
		return a.serve(ctx, cfg, cliCfg.ShutdownTimeout)
	}

	chr, start, end, err := parseRegion(cliCfg.Region)
	if err != nil {
		return err
	}
	state := chain.State{Chr: chr, Start: start, End: end}
	if cliCfg.LDRefVar != "" {
		state.Params = map[string]any{"ldrefvar": cliCfg.LDRefVar}
	}
	return a.query(ctx, state, splitFields(cliCfg.Fields), stdout)
}

// checkSourceTypes fails on a source whose type has no registered adapter.
func checkSourceTypes(cfg *config.Config, registry *adapter.Registry) error {
	for _, id := range cfg.SourceIDs() {
		spec := cfg.Sources[id]
		if _, ok := registry.Registration(spec.Type); !ok {
			return fmt.Errorf("source %q: unknown adapter type %q (known: %v)", id, spec.Type, registry.Types())
		}
	}
	return nil
}

// app holds the long-lived pieces shared by both modes.
type app struct {
	logger    *slog.Logger
	metrics   *metric.MetricsRegistry
	nats      *natsclient.Client
	requester *requester.Requester
}

func newApp(ctx context.Context, cfg *config.Config, registry *adapter.Registry, logger *slog.Logger) (*app, error) {
	a := &app{logger: logger, metrics: metric.NewMetricsRegistry()}

	if cfg.NATS.Enabled() {
		client, err := connectToNATS(ctx, cfg.NATS, a.metrics, logger)
		if err != nil {
			return nil, err
		}
		a.nats = client
	}

	deps := adapter.Dependencies{
		Logger:          logger,
		MetricsRegistry: a.metrics,
		NATSClient:      a.nats,
	}
	sources, err := requester.FromSpecs(registry, cfg.Sources, deps)
	if err != nil {
		if a.nats != nil {
			_ = a.nats.Close(ctx)
		}
		return nil, fmt.Errorf("create sources: %w", err)
	}
	logger.Info("Sources configured", "namespaces", sources.Keys())

	a.requester = requester.New(sources,
		requester.WithLogger(logger),
		requester.WithMetrics(a.metrics))
	return a, nil
}

func connectToNATS(ctx context.Context, cfg config.NATSConfig, registry *metric.MetricsRegistry, logger *slog.Logger) (*natsclient.Client, error) {
	wait, err := cfg.ReconnectWaitDuration()
	if err != nil {
		return nil, fmt.Errorf("nats reconnect_wait: %w", err)
	}
	opts := []natsclient.ClientOption{
		natsclient.WithClientName(appName),
		natsclient.WithLogger(logger),
		natsclient.WithMetrics(registry),
		natsclient.WithReconnectWait(wait),
		natsclient.WithCredentials(cfg.Username, cfg.Password, cfg.Token),
	}
	if cfg.MaxReconnects != 0 {
		opts = append(opts, natsclient.WithMaxReconnects(cfg.MaxReconnects))
	}

	client, err := natsclient.NewClient(cfg.URLs[0], opts...)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	logger.Info("Connecting to NATS", "url", cfg.URLs[0])
	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Connect(connCtx); err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return client, nil
}

// query runs one request and writes the result as JSON.
func (a *app) query(ctx context.Context, state chain.State, tokens []string, w io.Writer) error {
	c, runID, err := a.requester.Run(ctx, state, tokens)
	if err != nil {
		return fmt.Errorf("run %s: %w", runID, err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(httpgateway.Response{RunID: runID, Header: c.Header, Body: c.Body})
}

// serve runs the gateway, and the metrics server when enabled, until ctx is
// cancelled.
func (a *app) serve(ctx context.Context, cfg *config.Config, shutdownTimeout time.Duration) error {
	gw, err := httpgateway.New(cfg.Gateway, a.requester,
		httpgateway.WithLogger(a.logger),
		httpgateway.WithMetrics(a.metrics),
		httpgateway.WithHealth(a.healthChecker()))
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Metrics.Enabled {
		srv := metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, a.metrics)
		g.Go(srv.Start)
		g.Go(func() error {
			<-gctx.Done()
			return srv.Stop()
		})
		a.logger.Info("Metrics server started", "address", srv.Address())
	}
	g.Go(func() error { return gw.Start(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Shutting down gateway")
		if err := gw.Stop(shutdownTimeout); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Info("lzdata shutdown complete")
	return nil
}

// healthChecker reports the source table and, when configured, NATS.
func (a *app) healthChecker() *health.Checker {
	checker := health.NewChecker(appName)
	checker.Register("sources", func(context.Context) health.Status {
		n := len(a.requester.Sources().Keys())
		if n == 0 {
			return health.NewUnhealthy("sources", "no sources configured")
		}
		return health.NewHealthy("sources", fmt.Sprintf("%d sources", n))
	})
	if a.nats != nil {
		checker.Register("nats", func(context.Context) health.Status {
			switch status := a.nats.Status(); status {
			case natsclient.StatusConnected:
				return health.NewHealthy("nats", status.String())
			case natsclient.StatusReconnecting, natsclient.StatusConnecting:
				return health.NewDegraded("nats", status.String())
			default:
				return health.NewUnhealthy("nats", status.String())
			}
		})
	}
	return checker
}

// Close releases sources and the NATS connection.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	if err := a.requester.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.nats != nil {
		if err := a.nats.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
