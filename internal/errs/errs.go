// Package errs defines the error kinds shared across the render toolbox
// and a small recorder that keeps the most recent one for callers that
// need to poll rather than propagate (mirroring the frame-time failure
// policy in which errors never throw).
package errs

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

// Kind classifies an error the way the toolbox's failure semantics do.
type Kind int

const (
	OutOfRange Kind = iota
	BadSize
	NullPointer
	NotInitialized
	NotAllowed
	DivByZero
	CaseNotDefined
	FileError
	Warning
)

func (k Kind) String() string {
	switch k {
	case OutOfRange:
		return "OutOfRange"
	case BadSize:
		return "BadSize"
	case NullPointer:
		return "NullPointer"
	case NotInitialized:
		return "NotInitialized"
	case NotAllowed:
		return "NotAllowed"
	case DivByZero:
		return "DivByZero"
	case CaseNotDefined:
		return "CaseNotDefined"
	case FileError:
		return "FileError"
	case Warning:
		return "Warning"
	default:
		return "Unknown"
	}
}

// Sentinel errors for errors.Is comparisons; wrap with fmt.Errorf("...: %w", ErrX).
var (
	ErrOutOfRange     = errors.New("out of range")
	ErrBadSize        = errors.New("bad size")
	ErrNullPointer    = errors.New("null pointer")
	ErrNotInitialized = errors.New("not initialized")
	ErrNotAllowed     = errors.New("not allowed")
	ErrDivByZero      = errors.New("division by zero")
	ErrCaseNotDefined = errors.New("case not defined")
	ErrFileError      = errors.New("file error")
)

func sentinelFor(k Kind) error {
	switch k {
	case OutOfRange:
		return ErrOutOfRange
	case BadSize:
		return ErrBadSize
	case NullPointer:
		return ErrNullPointer
	case NotInitialized:
		return ErrNotInitialized
	case NotAllowed:
		return ErrNotAllowed
	case DivByZero:
		return ErrDivByZero
	case CaseNotDefined:
		return ErrCaseNotDefined
	case FileError:
		return ErrFileError
	default:
		return nil
	}
}

// New wraps msg with the sentinel for kind so callers can errors.Is it.
func New(k Kind, msg string) error {
	if s := sentinelFor(k); s != nil {
		return fmt.Errorf("%s: %w", msg, s)
	}
	return fmt.Errorf("%s: %s", k, msg)
}

// Recorder keeps the most recently recorded error plus an optional log
// sink, standing in for the process-wide handler in spec.md §7. One
// Recorder is normally constructed per process and threaded down to
// every service/processor at construction, never reached through a
// global.
type Recorder struct {
	mu     sync.Mutex
	last   error
	logger *log.Logger
}

// NewRecorder builds a Recorder logging to logger. A nil logger disables logging.
func NewRecorder(logger *log.Logger) *Recorder {
	return &Recorder{logger: logger}
}

// Record stores err as the most recent error and, for Warning-or-above
// kinds, logs it once. It never panics and never blocks the caller.
func (r *Recorder) Record(k Kind, err error) {
	r.mu.Lock()
	r.last = err
	r.mu.Unlock()

	if r.logger == nil || err == nil {
		return
	}
	if k == Warning {
		r.logger.Warn(err.Error())
	} else {
		r.logger.Error(err.Error(), "kind", k.String())
	}
}

// Last returns the most recently recorded error, or nil if none.
func (r *Recorder) Last() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}
