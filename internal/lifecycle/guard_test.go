package lifecycle

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingWakeHold struct {
	acquired   atomic.Int64
	released   atomic.Int64
	acquireErr error
}

func (w *countingWakeHold) Acquire() error {
	if w.acquireErr != nil {
		return w.acquireErr
	}
	w.acquired.Add(1)
	return nil
}

func (w *countingWakeHold) Release() error {
	w.released.Add(1)
	return nil
}

type fakePool struct {
	mu        sync.Mutex
	calls     []string
	drainErr  error
	cancelled bool
}

func (p *fakePool) Drain(time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, "drain")
	return p.drainErr
}

func (p *fakePool) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, "cancel")
	p.cancelled = true
}

type recordingNotice struct {
	events []string
}

func (n *recordingNotice) Announce(lines ...string) {
	n.events = append(n.events, lines...)
}

func (n *recordingNotice) ClearNotice() {
	n.events = append(n.events, "<clear>")
}

type fixture struct {
	guard    *Guard
	wake     *countingWakeHold
	pool     *fakePool
	notice   *recordingNotice
	scratch  string
	finished atomic.Bool
	cancels  atomic.Int64
	stopped  atomic.Int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		wake:    &countingWakeHold{},
		pool:    &fakePool{},
		notice:  &recordingNotice{},
		scratch: filepath.Join(t.TempDir(), "scratch"),
	}
	require.NoError(t, os.MkdirAll(f.scratch, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(f.scratch, "a.part"), []byte("x"), 0644))

	f.guard = NewGuard(Config{
		WakeHold:     f.wake,
		Pool:         f.pool,
		Notice:       f.notice,
		ScratchDir:   f.scratch,
		DrainTimeout: time.Second,
		Finished:     f.finished.Load,
		Cancel:       func() { f.cancels.Add(1) },
		OnStopped:    func() { f.stopped.Add(1) },
	})
	return f
}

func TestGuard_StartIsIdempotent(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.guard.Start())
	require.NoError(t, f.guard.Start())

	assert.Equal(t, StateRunning, f.guard.State())
	assert.Equal(t, int64(1), f.wake.acquired.Load())
}

func TestGuard_StartFailsWithoutWakeHold(t *testing.T) {
	f := newFixture(t)
	f.wake.acquireErr = errors.New("no bus")

	err := f.guard.Start()
	assert.ErrorContains(t, err, "no bus")
	assert.Equal(t, StateIdle, f.guard.State())
}

func TestGuard_OnAllJobsObservedWaitsForPredicate(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.guard.Start())

	require.NoError(t, f.guard.OnAllJobsObserved())
	assert.Equal(t, StateRunning, f.guard.State())
	assert.Empty(t, f.pool.calls)

	f.finished.Store(true)
	require.NoError(t, f.guard.OnAllJobsObserved())

	assert.Equal(t, StateStopped, f.guard.State())
	assert.Equal(t, []string{"drain"}, f.pool.calls, "natural completion drains without cancelling")
	assert.Equal(t, []string{CleaningLine, "<clear>"}, f.notice.events)
	assert.NoDirExists(t, f.scratch)
	assert.Equal(t, int64(1), f.wake.released.Load())
	assert.Equal(t, int64(1), f.cancels.Load())
	assert.Equal(t, int64(1), f.stopped.Load())

	select {
	case <-f.guard.Done():
	default:
		t.Fatal("Done not closed")
	}
}

func TestGuard_OnAllJobsObservedIgnoredWhenIdle(t *testing.T) {
	f := newFixture(t)
	f.finished.Store(true)

	require.NoError(t, f.guard.OnAllJobsObserved())
	assert.Equal(t, StateIdle, f.guard.State())
}

func TestGuard_RequestStopIsUnconditional(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.guard.Start())

	require.NoError(t, f.guard.RequestStop())

	assert.Equal(t, StateStopped, f.guard.State())
	assert.Equal(t, []string{"cancel", "drain"}, f.pool.calls)
	assert.Equal(t, int64(1), f.wake.released.Load())
	assert.NoDirExists(t, f.scratch)
}

func TestGuard_TeardownRunsOnce(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.guard.Start())
	f.finished.Store(true)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = f.guard.RequestStop()
		}()
		go func() {
			defer wg.Done()
			_ = f.guard.OnAllJobsObserved()
		}()
	}
	wg.Wait()
	<-f.guard.Done()

	assert.NoError(t, f.guard.RequestStop())
	assert.Equal(t, int64(1), f.wake.released.Load())
	assert.Equal(t, int64(1), f.stopped.Load())
	assert.ErrorIs(t, f.guard.Start(), ErrStopped)
}

func TestGuard_TeardownCollectsErrors(t *testing.T) {
	f := newFixture(t)
	f.pool.drainErr = errors.New("stuck")
	require.NoError(t, f.guard.Start())

	err := f.guard.RequestStop()

	assert.ErrorContains(t, err, "stuck")
	assert.Equal(t, err, f.guard.Err())
	assert.Equal(t, int64(1), f.wake.released.Load(), "later steps still run")
}

func TestLogindInhibitor_ReleaseWithoutAcquire(t *testing.T) {
	l := NewLogindInhibitor()
	assert.NoError(t, l.Release())
	assert.NoError(t, l.Release())
}

func TestNewWakeHold(t *testing.T) {
	hold, err := NewWakeHold("none", nil)
	require.NoError(t, err)
	assert.IsType(t, NopWakeHold{}, hold)

	hold, err = NewWakeHold("auto", nil)
	require.NoError(t, err)
	fb, ok := hold.(*fallbackWakeHold)
	require.True(t, ok)

	fb.primary = &countingWakeHold{acquireErr: errors.New("no logind")}
	assert.NoError(t, fb.Acquire(), "auto degrades instead of failing")
	assert.NoError(t, fb.Release())

	_, err = NewWakeHold("bogus", nil)
	assert.ErrorIs(t, err, ErrUnknownWakeHold)
}
