package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.trai.ch/filesentry/internal/adapters/fs"
	"go.trai.ch/filesentry/internal/adapters/ignore"
	"go.trai.ch/filesentry/internal/adapters/logger"
	"go.trai.ch/filesentry/internal/adapters/metrics"
	"go.trai.ch/filesentry/internal/adapters/telemetry"
	"go.trai.ch/filesentry/internal/adapters/telemetry/progrock"
	"go.trai.ch/filesentry/internal/app"
	"go.trai.ch/filesentry/internal/core/domain"
	"go.trai.ch/filesentry/internal/core/ports/mocks"
	"go.trai.ch/filesentry/internal/engine/enginetest"
	"go.trai.ch/filesentry/internal/engine/observer"
	"go.uber.org/mock/gomock"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func tempRoot(t *testing.T) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return root
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func newApp(t *testing.T, loader *mocks.MockConfigLoader) (*app.App, *enginetest.Backend, *lockedBuffer) {
	t.Helper()
	backend := enginetest.NewBackend(64)
	log := &enginetest.Logger{}
	obs := observer.New(backend, fs.NewFileSystem(), log, telemetry.NewNoOpTracer(), metrics.NoOp{})
	t.Cleanup(func() { _ = obs.Close() })

	out := &lockedBuffer{}
	a := app.New(loader, ignore.NewBuilder(), obs, fs.NewWalker(), log, metrics.NewPrometheus()).WithOutput(out)
	return a, backend, out
}

func TestApp_List(t *testing.T) {
	root := tempRoot(t)
	write(t, filepath.Join(root, "a.txt"), "a")
	write(t, filepath.Join(root, "sub", "b.txt"), "b")
	write(t, filepath.Join(root, "build", "out.bin"), "o")
	write(t, filepath.Join(root, ".hidden"), "h")

	a, _, out := newApp(t, nil)

	err := a.List(context.Background(), app.ListOptions{
		Path:   root,
		Ignore: domain.IgnoreOptions{Patterns: []string{"build/"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "a.txt\nsub/b.txt\n", out.String())
}

func TestApp_ListNoRecurse(t *testing.T) {
	root := tempRoot(t)
	write(t, filepath.Join(root, "a.txt"), "a")
	write(t, filepath.Join(root, "sub", "b.txt"), "b")

	a, _, out := newApp(t, nil)

	require.NoError(t, a.List(context.Background(), app.ListOptions{Path: root, NoRecurse: true}))
	assert.Equal(t, "a.txt\n", out.String())
}

func TestApp_ListErrors(t *testing.T) {
	root := tempRoot(t)
	file := filepath.Join(root, "f.txt")
	write(t, file, "f")

	a, _, _ := newApp(t, nil)

	err := a.List(context.Background(), app.ListOptions{Path: filepath.Join(root, "missing")})
	require.ErrorIs(t, err, domain.ErrRootNotFound)

	err = a.List(context.Background(), app.ListOptions{Path: file})
	require.ErrorIs(t, err, domain.ErrRootNotDirectory)
}

func TestApp_ResolveConfig(t *testing.T) {
	ctrl := gomock.NewController(t)
	loader := mocks.NewMockConfigLoader(ctrl)
	a, _, _ := newApp(t, loader)

	loader.EXPECT().Load("watch.yaml").Return(&domain.Config{
		SettlePeriod: time.Second,
		Roots:        []domain.RootConfig{{Path: "src", Recursive: true}},
	}, nil)

	cfg, err := app.ResolveConfig(a, app.WatchOptions{
		ConfigPath: "watch.yaml",
		Paths:      []string{"docs"},
		NoRecurse:  true,
		Ignore:     domain.IgnoreOptions{Hidden: true},
		MaxDelay:   5 * time.Second,
	})
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.SettlePeriod)
	assert.Equal(t, 5*time.Second, cfg.MaxDelay)
	assert.Equal(t, []domain.RootConfig{
		{Path: "src", Recursive: true},
		{Path: "docs", Recursive: false, Ignore: domain.IgnoreOptions{Hidden: true}},
	}, cfg.Roots)
}

func TestApp_ResolveConfigFlagsOnly(t *testing.T) {
	a, _, _ := newApp(t, nil)

	cfg, err := app.ResolveConfig(a, app.WatchOptions{Paths: []string{"."}, Settle: time.Second})
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.SettlePeriod)
	assert.Equal(t, []domain.RootConfig{{Path: ".", Recursive: true}}, cfg.Roots)
}

func TestApp_WatchErrors(t *testing.T) {
	t.Run("no roots", func(t *testing.T) {
		a, _, _ := newApp(t, nil)
		err := a.Watch(context.Background(), app.WatchOptions{})
		require.ErrorIs(t, err, domain.ErrNoWatchRoots)
	})

	t.Run("config error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		loader := mocks.NewMockConfigLoader(ctrl)
		a, _, _ := newApp(t, loader)

		loader.EXPECT().Load("bad.yaml").Return(nil, domain.ErrConfigParseFailed)

		err := a.Watch(context.Background(), app.WatchOptions{ConfigPath: "bad.yaml"})
		require.ErrorIs(t, err, domain.ErrConfigParseFailed)
	})

	t.Run("missing root", func(t *testing.T) {
		a, _, _ := newApp(t, nil)
		err := a.Watch(context.Background(), app.WatchOptions{Paths: []string{filepath.Join(tempRoot(t), "nope")}})
		require.ErrorIs(t, err, domain.ErrRootNotFound)
	})

	t.Run("invalid pattern", func(t *testing.T) {
		a, _, _ := newApp(t, nil)
		err := a.Watch(context.Background(), app.WatchOptions{
			Paths:  []string{tempRoot(t)},
			Ignore: domain.IgnoreOptions{Patterns: []string{"[unclosed"}},
		})
		require.ErrorIs(t, err, domain.ErrInvalidIgnorePattern)
	})
}

func TestApp_WatchPrintsJSON(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		root := tempRoot(t)
		a, backend, out := newApp(t, nil)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() {
			errCh <- a.Watch(ctx, app.WatchOptions{
				Paths:  []string{root},
				Settle: 50 * time.Millisecond,
				JSON:   true,
			})
		}()
		synctest.Wait()

		write(t, filepath.Join(root, "a.txt"), "a")
		backend.Send(root, "a.txt")
		time.Sleep(time.Second)
		synctest.Wait()

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 1)

		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &got))
		assert.Equal(t, root, got["root"])
		assert.Equal(t, filepath.Join(root, "a.txt"), got["path"])
		assert.Equal(t, "created", got["kind"])

		cancel()
		require.NoError(t, <-errCh)
	})
}

func TestApp_ConfigureLogging(t *testing.T) {
	t.Run("unconfigurable logger", func(t *testing.T) {
		a, _, _ := newApp(t, nil)
		closeLog := a.ConfigureLogging(app.LogOptions{File: filepath.Join(t.TempDir(), "x.log")})
		require.NoError(t, closeLog())
	})

	t.Run("log file", func(t *testing.T) {
		log := logger.New()
		a := app.New(nil, nil, nil, nil, log, nil)
		path := filepath.Join(t.TempDir(), "filesentry.log")

		closeLog := a.ConfigureLogging(app.LogOptions{Level: domain.LogLevelInfo, JSON: true, File: path})
		log.Info("watching /tmp")
		require.NoError(t, closeLog())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"watching /tmp"`)
	})
}

func TestApp_WatchMetricsAddrInUse(t *testing.T) {
	root := tempRoot(t)
	a, _, _ := newApp(t, nil)

	err := a.Watch(context.Background(), app.WatchOptions{Paths: []string{root}, MetricsAddr: "256.0.0.1:0"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMetricsServerFailed))
}

func TestApp_WatchTraceRecordsVertices(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	root := tempRoot(t)
	write(t, filepath.Join(root, "sub", "a.txt"), "a")

	backend := enginetest.NewBackend(64)
	log := &enginetest.Logger{}
	tracer := telemetry.NewOTelTracer(telemetry.InstrumentationName)
	obs := observer.New(backend, fs.NewFileSystem(), log, tracer, metrics.NoOp{})
	t.Cleanup(func() { _ = obs.Close() })

	rec := progrock.New()
	a := app.New(nil, ignore.NewBuilder(), obs, fs.NewWalker(), log, metrics.NewPrometheus()).
		WithOutput(&lockedBuffer{}).
		WithRecorder(rec)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Watch(ctx, app.WatchOptions{Paths: []string{root}, Trace: true})
	}()

	assert.Eventually(t, func() bool {
		for _, l := range log.Lines() {
			if strings.HasPrefix(l, "DEBUG watch took") {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)
	assert.Zero(t, rec.Open())

	cancel()
	require.NoError(t, <-errCh)
	assert.Zero(t, rec.Open())
}
