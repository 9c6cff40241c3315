package lifecycle

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/handiism/trackflyer/internal/config"
	"github.com/handiism/trackflyer/internal/logging"
	"github.com/phuslu/log"
)

const (
	logindDest      = "org.freedesktop.login1"
	logindPath      = dbus.ObjectPath("/org/freedesktop/login1")
	logindInhibit   = "org.freedesktop.login1.Manager.Inhibit"
	inhibitWhat     = "sleep"
	inhibitWho      = "trackflyer"
	inhibitWhy      = "downloads in progress"
	inhibitBlocking = "block"
)

// WakeHold keeps the host from suspending while held. Release must be safe to
// call more than once.
type WakeHold interface {
	Acquire() error
	Release() error
}

// NopWakeHold holds nothing.
type NopWakeHold struct{}

func (NopWakeHold) Acquire() error { return nil }
func (NopWakeHold) Release() error { return nil }

// LogindInhibitor takes a systemd-logind sleep inhibitor lock. The lock lives
// as long as the file descriptor logind hands back stays open.
type LogindInhibitor struct {
	connect func() (*dbus.Conn, error)

	mu   sync.Mutex
	lock *os.File
}

// NewLogindInhibitor creates an inhibitor on the system bus.
func NewLogindInhibitor() *LogindInhibitor {
	return &LogindInhibitor{connect: dbus.SystemBus}
}

// Acquire takes the inhibitor lock. Acquiring while held is a no-op.
func (l *LogindInhibitor) Acquire() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.lock != nil {
		return nil
	}

	conn, err := l.connect()
	if err != nil {
		return fmt.Errorf("connect system bus: %w", err)
	}

	var fd dbus.UnixFD
	obj := conn.Object(logindDest, logindPath)
	if err := obj.Call(logindInhibit, 0, inhibitWhat, inhibitWho, inhibitWhy, inhibitBlocking).Store(&fd); err != nil {
		return fmt.Errorf("logind inhibit: %w", err)
	}

	l.lock = os.NewFile(uintptr(fd), "logind-inhibit")
	return nil
}

// Release closes the lock. Releasing when not held is a no-op.
func (l *LogindInhibitor) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.lock == nil {
		return nil
	}
	err := l.lock.Close()
	l.lock = nil
	return err
}

// fallbackWakeHold tries primary and degrades to holding nothing when it
// cannot be acquired.
type fallbackWakeHold struct {
	primary WakeHold
	logger  *log.Logger
}

func (f *fallbackWakeHold) Acquire() error {
	if err := f.primary.Acquire(); err != nil {
		f.logger.Warn().Err(err).Msg("wake hold unavailable, host may suspend during downloads")
		f.primary = NopWakeHold{}
	}
	return nil
}

func (f *fallbackWakeHold) Release() error {
	return f.primary.Release()
}

// ErrUnknownWakeHold is returned by NewWakeHold for an unsupported mode.
var ErrUnknownWakeHold = errors.New("unknown wake hold mode")

// NewWakeHold returns the wake hold for mode: "logind" requires the inhibitor,
// "auto" uses it when available, "none" holds nothing.
func NewWakeHold(mode string, logger *log.Logger) (WakeHold, error) {
	switch mode {
	case config.WakeHoldLogind:
		return NewLogindInhibitor(), nil
	case config.WakeHoldAuto, "":
		return &fallbackWakeHold{primary: NewLogindInhibitor(), logger: logging.OrDiscard(logger)}, nil
	case config.WakeHoldNone:
		return NopWakeHold{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownWakeHold, mode)
	}
}
