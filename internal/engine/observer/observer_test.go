package observer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/filesentry/internal/adapters/fs"
	"go.trai.ch/filesentry/internal/adapters/metrics"
	"go.trai.ch/filesentry/internal/adapters/telemetry"
	"go.trai.ch/filesentry/internal/core/domain"
	"go.trai.ch/filesentry/internal/engine/enginetest"
	"go.trai.ch/filesentry/internal/engine/observer"
)

const settle = 50 * time.Millisecond

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

func newObserver(t *testing.T) (*observer.Observer, *enginetest.Backend) {
	t.Helper()
	backend := enginetest.NewBackend(64)
	obs := observer.New(backend, fs.NewFileSystem(), &enginetest.Logger{}, telemetry.NewNoOpTracer(), metrics.NoOp{})
	t.Cleanup(func() { _ = obs.Close() })
	return obs, backend
}

func next(t *testing.T, obs *observer.Observer) domain.Batch {
	t.Helper()
	select {
	case b := <-obs.Batches():
		return b
	case <-time.After(time.Minute):
		t.Fatal("no batch delivered")
		return domain.Batch{}
	}
}

func TestObserver_Scenario(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		root := tempRoot(t)
		obs, backend := newObserver(t)

		id, err := obs.Watch(context.Background(), root, observer.Options{Recursive: true, SettlePeriod: settle})
		require.NoError(t, err)

		a := filepath.Join(root, "a.txt")
		write(t, a, "x")
		backend.Send(root, "a.txt")

		b := next(t, obs)
		assert.Equal(t, id, b.Scope)
		assert.Equal(t, root, b.Root)
		assert.Equal(t, []domain.Event{{Path: a, Kind: domain.EventCreated}}, b.Events)

		require.NoError(t, os.Remove(a))
		backend.Send(root, "a.txt")
		write(t, a, "replacement")
		backend.Send(root, "a.txt")

		b = next(t, obs)
		assert.Equal(t, []domain.Event{{Path: a, Kind: domain.EventModified}}, b.Events)

		require.NoError(t, os.Remove(a))
		backend.Send(root, "a.txt")

		b = next(t, obs)
		assert.Equal(t, []domain.Event{{Path: a, Kind: domain.EventDeleted}}, b.Events)
	})
}

func TestObserver_InitialCrawlIsSilent(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		root := tempRoot(t)
		write(t, filepath.Join(root, "existing.txt"), "e")
		write(t, filepath.Join(root, "sub", "nested.txt"), "n")
		obs, backend := newObserver(t)

		id, err := obs.Watch(context.Background(), root, observer.Options{Recursive: true, SettlePeriod: settle})
		require.NoError(t, err)

		files, err := obs.Snapshot(id)
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(root, "existing.txt"),
			filepath.Join(root, "sub", "nested.txt"),
		}, files)

		backend.Send(root, "existing.txt")
		time.Sleep(2 * settle)
		synctest.Wait()

		select {
		case b := <-obs.Batches():
			t.Fatalf("unexpected batch %v", b)
		default:
		}
	})
}

func TestObserver_Debounce(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		root := tempRoot(t)
		obs, backend := newObserver(t)
		_, err := obs.Watch(context.Background(), root, observer.Options{Recursive: true, SettlePeriod: settle})
		require.NoError(t, err)

		p := filepath.Join(root, "log.txt")
		for i := range 25 {
			write(t, p, string(make([]byte, i+1)))
			backend.Send(root, "log.txt")
			time.Sleep(settle / 5)
		}

		b := next(t, obs)
		assert.Equal(t, []domain.Event{{Path: p, Kind: domain.EventCreated}}, b.Events)
	})
}

func TestObserver_WatchErrors(t *testing.T) {
	root := tempRoot(t)
	file := filepath.Join(root, "plain.txt")
	write(t, file, "p")

	obs, backend := newObserver(t)
	ctx := context.Background()

	_, err := obs.Watch(ctx, filepath.Join(root, "missing"), observer.Options{})
	require.ErrorIs(t, err, domain.ErrRootNotFound)

	_, err = obs.Watch(ctx, file, observer.Options{})
	require.ErrorIs(t, err, domain.ErrRootNotDirectory)

	_, err = obs.Watch(ctx, root, observer.Options{SettlePeriod: -time.Second})
	require.ErrorIs(t, err, domain.ErrInvalidSettlePeriod)

	backend.Fail(root, errors.New("inotify watch limit reached"))
	_, err = obs.Watch(ctx, root, observer.Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrWatchRegistration)
	assert.Zero(t, obs.Stats().Scopes)
	assert.Zero(t, backend.Live())
}

func TestObserver_OverflowRecovery(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		root := tempRoot(t)
		write(t, filepath.Join(root, "stay.txt"), "s")
		write(t, filepath.Join(root, "edit.txt"), "e")
		write(t, filepath.Join(root, "old", "gone.txt"), "g")

		obs, backend := newObserver(t)
		id, err := obs.Watch(context.Background(), root, observer.Options{Recursive: true, SettlePeriod: settle})
		require.NoError(t, err)

		write(t, filepath.Join(root, "edit.txt"), "edited")
		require.NoError(t, os.RemoveAll(filepath.Join(root, "old")))
		write(t, filepath.Join(root, "fresh", "one.txt"), "1")
		write(t, filepath.Join(root, "fresh", "two.txt"), "2")
		backend.Overflow()

		b := next(t, obs)
		assert.ElementsMatch(t, []domain.Event{
			{Path: filepath.Join(root, "edit.txt"), Kind: domain.EventModified},
			{Path: filepath.Join(root, "old", "gone.txt"), Kind: domain.EventDeleted},
			{Path: filepath.Join(root, "fresh", "one.txt"), Kind: domain.EventCreated},
			{Path: filepath.Join(root, "fresh", "two.txt"), Kind: domain.EventCreated},
		}, b.Events)

		files, err := obs.Snapshot(id)
		require.NoError(t, err)
		assert.Equal(t, slices.Sorted(fs.NewWalker().WalkFiles(root, nil, true)), files)

		stats := obs.Stats()
		assert.Equal(t, uint64(1), stats.Overflows)
		assert.Equal(t, uint64(1), stats.Recrawls)
	})
}

func TestObserver_RemovedRootReturnsOnlyThroughOverflow(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		base := tempRoot(t)
		root := filepath.Join(base, "w")
		write(t, filepath.Join(root, "a.txt"), "a")

		obs, backend := newObserver(t)
		id, err := obs.Watch(context.Background(), root, observer.Options{Recursive: true, SettlePeriod: settle})
		require.NoError(t, err)

		require.NoError(t, os.RemoveAll(root))
		backend.Send(root, "")
		b := next(t, obs)
		assert.Equal(t, []domain.Event{{Path: filepath.Join(root, "a.txt"), Kind: domain.EventDeleted}}, b.Events)

		_, ok := backend.Handle(root)
		require.False(t, ok)
		assert.Equal(t, 1, obs.Stats().Scopes)

		write(t, filepath.Join(root, "b.txt"), "b")
		backend.Overflow()
		b = next(t, obs)
		assert.Equal(t, []domain.Event{{Path: filepath.Join(root, "b.txt"), Kind: domain.EventCreated}}, b.Events)

		files, err := obs.Snapshot(id)
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(root, "b.txt")}, files)
	})
}

func TestObserver_Unwatch(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		root := tempRoot(t)
		write(t, filepath.Join(root, "sub", "a.txt"), "a")
		obs, backend := newObserver(t)

		id, err := obs.Watch(context.Background(), root, observer.Options{Recursive: true, SettlePeriod: settle})
		require.NoError(t, err)
		require.Equal(t, 2, backend.Live())

		write(t, filepath.Join(root, "pending.txt"), "p")
		backend.Send(root, "pending.txt")
		synctest.Wait()

		require.NoError(t, obs.Unwatch(id))
		assert.Zero(t, backend.Live())
		assert.Zero(t, obs.Stats().Scopes)

		_, err = obs.Snapshot(id)
		require.ErrorIs(t, err, domain.ErrScopeNotFound)
		require.ErrorIs(t, obs.Unwatch(id), domain.ErrScopeNotFound)

		time.Sleep(2 * settle)
		synctest.Wait()
		select {
		case b := <-obs.Batches():
			t.Fatalf("pending events of a stopped scope were delivered: %v", b)
		default:
		}
	})
}

func TestObserver_IndependentScopes(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		first, second := tempRoot(t), tempRoot(t)
		obs, backend := newObserver(t)

		id1, err := obs.Watch(context.Background(), first, observer.Options{SettlePeriod: settle})
		require.NoError(t, err)
		id2, err := obs.Watch(context.Background(), second, observer.Options{SettlePeriod: 4 * settle})
		require.NoError(t, err)
		require.NotEqual(t, id1, id2)

		write(t, filepath.Join(first, "one.txt"), "1")
		backend.Send(first, "one.txt")
		write(t, filepath.Join(second, "two.txt"), "2")
		backend.Send(second, "two.txt")

		b := next(t, obs)
		assert.Equal(t, id1, b.Scope)
		b = next(t, obs)
		assert.Equal(t, id2, b.Scope)
		assert.Equal(t, 2, obs.Stats().Scopes)
	})
}

func TestObserver_Close(t *testing.T) {
	root := tempRoot(t)
	obs, backend := newObserver(t)
	_, err := obs.Watch(context.Background(), root, observer.Options{})
	require.NoError(t, err)

	require.NoError(t, obs.Close())
	_, ok := <-obs.Batches()
	assert.False(t, ok)
	require.NoError(t, obs.Close())

	_, err = obs.Watch(context.Background(), root, observer.Options{})
	require.ErrorIs(t, err, domain.ErrObserverClosed)

	_, err = backend.Register(root)
	require.ErrorIs(t, err, domain.ErrBackendClosed)
}
