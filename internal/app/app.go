// Package app implements the application layer for filesentry.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/filesentry/internal/adapters/fs"                 //nolint:depguard // Wired in app layer
	"go.trai.ch/filesentry/internal/adapters/logger"             //nolint:depguard // Wired in app layer
	"go.trai.ch/filesentry/internal/adapters/metrics"            //nolint:depguard // Wired in app layer
	"go.trai.ch/filesentry/internal/adapters/telemetry"          //nolint:depguard // Wired in app layer
	"go.trai.ch/filesentry/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in app layer
	"go.trai.ch/filesentry/internal/core/domain"
	"go.trai.ch/filesentry/internal/core/ports"
	"go.trai.ch/filesentry/internal/engine/observer"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	filters      ports.FilterBuilder
	observer     *observer.Observer
	walker       *fs.Walker
	logger       ports.Logger
	metrics      *metrics.Prometheus
	recorder     *progrock.Recorder
	stdout       io.Writer
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	filters ports.FilterBuilder,
	obs *observer.Observer,
	walker *fs.Walker,
	log ports.Logger,
	prom *metrics.Prometheus,
) *App {
	return &App{
		configLoader: loader,
		filters:      filters,
		observer:     obs,
		walker:       walker,
		logger:       log,
		metrics:      prom,
		stdout:       os.Stdout,
	}
}

// WithOutput redirects event and listing output to w.
func (a *App) WithOutput(w io.Writer) *App {
	a.stdout = w
	return a
}

// WithRecorder records traced crawls and recoveries as Progrock vertices
// when Watch runs with tracing enabled.
func (a *App) WithRecorder(rec *progrock.Recorder) *App {
	a.recorder = rec
	return a
}

// WatchOptions configuration for the Watch method.
type WatchOptions struct {
	Paths       []string
	ConfigPath  string
	NoRecurse   bool
	Ignore      domain.IgnoreOptions
	Settle      time.Duration
	MaxDelay    time.Duration
	JSON        bool
	MetricsAddr string
	Trace       bool
}

// Watch watches the configured roots and prints every settled batch until
// ctx is canceled.
func (a *App) Watch(ctx context.Context, opts WatchOptions) error {
	cfg, err := a.resolveConfig(opts)
	if err != nil {
		return err
	}

	if opts.Trace {
		processors := []sdktrace.SpanProcessor{telemetry.NewBridge(a.logger)}
		if a.recorder != nil {
			processors = append(processors, a.recorder)
		}
		shutdown := telemetry.Setup(processors...)
		defer func() { _ = shutdown(context.WithoutCancel(ctx)) }()
	}

	for _, root := range cfg.Roots {
		if err := a.watchRoot(ctx, cfg, root); err != nil {
			_ = a.observer.Close()
			return err
		}
	}

	printer := NewPrinter(a.stdout, opts.JSON)
	g, ctx := errgroup.WithContext(ctx)

	if opts.MetricsAddr != "" {
		g.Go(func() error {
			return a.serveMetrics(ctx, opts.MetricsAddr)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		return a.observer.Close()
	})

	g.Go(func() error {
		for batch := range a.observer.Batches() {
			if err := printer.Print(batch); err != nil {
				return zerr.Wrap(err, "failed to print events")
			}
		}
		return nil
	})

	return g.Wait()
}

func (a *App) watchRoot(ctx context.Context, cfg *domain.Config, root domain.RootConfig) error {
	abs, err := filepath.Abs(root.Path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to resolve watch root"), "path", root.Path)
	}

	filter, err := a.filters.Build(abs, root.Ignore)
	if err != nil {
		return err
	}

	_, err = a.observer.Watch(ctx, abs, observer.Options{
		Recursive:    root.Recursive,
		Filter:       filter,
		SettlePeriod: cfg.SettlePeriod,
		MaxDelay:     cfg.MaxDelay,
	})
	return err
}

// resolveConfig merges the watch file with the command line. Paths given on
// the command line are added to the roots of the file.
func (a *App) resolveConfig(opts WatchOptions) (*domain.Config, error) {
	cfg := &domain.Config{SettlePeriod: domain.DefaultSettlePeriod}

	path := opts.ConfigPath
	if path == "" && len(opts.Paths) == 0 {
		if _, err := os.Stat(domain.DefaultConfigFile); err == nil {
			path = domain.DefaultConfigFile
		}
	}
	if path != "" {
		loaded, err := a.configLoader.Load(path)
		if err != nil {
			return nil, zerr.Wrap(err, "failed to load configuration")
		}
		cfg = loaded
	}

	for _, p := range opts.Paths {
		cfg.Roots = append(cfg.Roots, domain.RootConfig{
			Path:      p,
			Recursive: !opts.NoRecurse,
			Ignore:    opts.Ignore,
		})
	}

	if opts.Settle > 0 {
		cfg.SettlePeriod = opts.Settle
	}
	if opts.MaxDelay > 0 {
		cfg.MaxDelay = opts.MaxDelay
	}

	if len(cfg.Roots) == 0 {
		return nil, domain.ErrNoWatchRoots
	}
	return cfg, nil
}

func (a *App) serveMetrics(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.metrics.Handler(),
		ReadHeaderTimeout: shutdownTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	a.logger.Info(fmt.Sprintf("serving metrics on %s", addr))

	select {
	case err := <-errCh:
		return zerr.With(zerr.Wrap(domain.ErrMetricsServerFailed, err.Error()), "addr", addr)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return zerr.With(zerr.Wrap(domain.ErrMetricsServerFailed, err.Error()), "addr", addr)
	}
	return nil
}

// ListOptions configuration for the List method.
type ListOptions struct {
	Path      string
	NoRecurse bool
	Ignore    domain.IgnoreOptions
}

// List prints the files a watch of opts.Path would track, one per line.
func (a *App) List(_ context.Context, opts ListOptions) error {
	root, err := filepath.Abs(opts.Path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to resolve list root"), "path", opts.Path)
	}
	info, err := os.Stat(root)
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrRootNotFound, "list"), "path", root)
	}
	if !info.IsDir() {
		return zerr.With(zerr.Wrap(domain.ErrRootNotDirectory, "list"), "path", root)
	}

	filter, err := a.filters.Build(root, opts.Ignore)
	if err != nil {
		return err
	}

	for file := range a.walker.WalkFiles(root, filter, !opts.NoRecurse) {
		rel, err := filepath.Rel(root, file)
		if err != nil {
			rel = file
		}
		if _, err := fmt.Fprintln(a.stdout, filepath.ToSlash(rel)); err != nil {
			return zerr.Wrap(err, "failed to print file list")
		}
	}
	return nil
}

// LogOptions configuration for ConfigureLogging.
type LogOptions struct {
	Level domain.LogLevel
	JSON  bool
	File  string
}

// logSettings is implemented by loggers whose output can be reconfigured.
type logSettings interface {
	SetLevel(level domain.LogLevel)
	SetJSON(enable bool)
	SetOutput(w io.Writer)
}

// ConfigureLogging applies the logging flags. The returned function closes
// the log file, if any.
func (a *App) ConfigureLogging(opts LogOptions) func() error {
	settings, ok := a.logger.(logSettings)
	if !ok {
		return func() error { return nil }
	}

	settings.SetLevel(opts.Level)
	settings.SetJSON(opts.JSON)
	if opts.File == "" {
		return func() error { return nil }
	}

	w := logger.OpenFile(opts.File)
	settings.SetOutput(w)
	return func() error {
		settings.SetOutput(nil)
		return w.Close()
	}
}
