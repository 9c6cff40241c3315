package download

import (
	"errors"
	"fmt"
)

// Failure kinds. A failed job's stage carries a *JobError matching exactly one
// of them with errors.Is.
var (
	ErrResolve    = errors.New("resolve failure")
	ErrTransport  = errors.New("transport failure")
	ErrProcessing = errors.New("processing failure")
)

var errStreamEnded = errors.New("stream ended without a result")

// JobError is the cause published with a Failed stage.
type JobError struct {
	Kind error
	Key  string
	Err  error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *JobError) Unwrap() error {
	return e.Err
}

// Is matches the failure kind.
func (e *JobError) Is(target error) bool {
	return target == e.Kind
}
