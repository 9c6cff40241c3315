package lifecycle

import (
	"errors"
	"fmt"
	"sync"
	"time"

	ioutils "github.com/handiism/trackflyer/internal/io"
	"github.com/handiism/trackflyer/internal/logging"
	"github.com/phuslu/log"
)

// CleaningLine is shown while teardown runs.
const CleaningLine = "Cleaning and exiting"

// ErrStopped is returned by Start once the guard left Running.
var ErrStopped = errors.New("lifecycle stopped")

// State is the guard's position in Idle → Running → Stopping → Stopped.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Drainer is the worker pool as seen by teardown.
type Drainer interface {
	Drain(timeout time.Duration) error
	Cancel()
}

// Notifier is the notice surface as seen by teardown.
type Notifier interface {
	Announce(lines ...string)
	ClearNotice()
}

// Config wires a Guard. Only Pool is required.
type Config struct {
	WakeHold     WakeHold
	Pool         Drainer
	Notice       Notifier
	ScratchDir   string
	DrainTimeout time.Duration

	// Finished is the finish predicate consulted by OnAllJobsObserved.
	Finished func() bool

	// Cancel cancels the root context of every internal task.
	Cancel func()

	// OnStopped runs last, before Done is closed.
	OnStopped func()

	Logger *log.Logger
}

// Guard owns the wake hold and the scratch directory and tears everything
// down exactly once.
//
// Teardown drains the pool, so RequestStop and OnAllJobsObserved must not be
// called from a pool unit.
type Guard struct {
	cfg    Config
	logger *log.Logger

	mu    sync.Mutex
	state State
	err   error
	done  chan struct{}
}

// NewGuard creates an Idle guard.
func NewGuard(cfg Config) *Guard {
	if cfg.WakeHold == nil {
		cfg.WakeHold = NopWakeHold{}
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 30 * time.Second
	}
	return &Guard{
		cfg:    cfg,
		logger: logging.OrDiscard(cfg.Logger),
		done:   make(chan struct{}),
	}
}

// Start acquires the wake hold and enters Running. Starting while Running is
// a no-op. A guard that stopped cannot be restarted.
func (g *Guard) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state {
	case StateRunning:
		g.logger.Info().Str("state", g.state.String()).Msg("already running")
		return nil
	case StateStopping, StateStopped:
		return ErrStopped
	}

	if err := g.cfg.WakeHold.Acquire(); err != nil {
		return fmt.Errorf("acquire wake hold: %w", err)
	}
	g.state = StateRunning
	g.logger.Info().Str("state", g.state.String()).Msg("lifecycle started")
	return nil
}

// RequestStop cancels every job and tears down, whatever the finish
// predicate says. It blocks until teardown completes and returns its error.
// Only the first call tears down; later calls wait and return nil.
func (g *Guard) RequestStop() error {
	if !g.enterStopping(StateIdle, StateRunning) {
		<-g.done
		return nil
	}
	g.logger.Info().Str("state", StateStopping.String()).Msg("stop requested")
	g.cfg.Pool.Cancel()
	return g.teardown()
}

// OnAllJobsObserved tears down when Running and the finish predicate holds,
// and is a no-op otherwise.
func (g *Guard) OnAllJobsObserved() error {
	if g.cfg.Finished != nil && !g.cfg.Finished() {
		return nil
	}
	if !g.enterStopping(StateRunning) {
		return nil
	}
	g.logger.Info().Str("state", StateStopping.String()).Msg("all jobs finished")
	return g.teardown()
}

// State returns the current state.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Done is closed once the guard reaches Stopped.
func (g *Guard) Done() <-chan struct{} {
	return g.done
}

// Err returns the teardown error after Done is closed.
func (g *Guard) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

func (g *Guard) enterStopping(from ...State) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, s := range from {
		if g.state == s {
			g.state = StateStopping
			return true
		}
	}
	return false
}

func (g *Guard) teardown() error {
	var errs []error

	if err := g.cfg.Pool.Drain(g.cfg.DrainTimeout); err != nil {
		g.logger.Warn().Err(err).Msg("jobs did not finish in time")
		errs = append(errs, fmt.Errorf("drain: %w", err))
	}

	if n := g.cfg.Notice; n != nil {
		n.Announce(CleaningLine)
		n.ClearNotice()
	}

	if err := ioutils.CleanScratch(g.cfg.ScratchDir); err != nil {
		errs = append(errs, fmt.Errorf("clean scratch dir: %w", err))
	}

	if err := g.cfg.WakeHold.Release(); err != nil {
		errs = append(errs, fmt.Errorf("release wake hold: %w", err))
	}

	if g.cfg.Cancel != nil {
		g.cfg.Cancel()
	}
	if g.cfg.OnStopped != nil {
		g.cfg.OnStopped()
	}

	err := errors.Join(errs...)

	g.mu.Lock()
	g.state = StateStopped
	g.err = err
	g.mu.Unlock()
	close(g.done)

	g.logger.Info().Str("state", StateStopped.String()).Err(err).Msg("lifecycle stopped")
	return err
}
