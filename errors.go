package bufz

import (
	"errors"
	"fmt"
	"time"
)

// Buffer state errors.
var (
	// ErrInsufficientData indicates a read-side operation requested more
	// bytes than are currently available. Recoverable: the caller may retry
	// with a smaller count or wait for more data.
	ErrInsufficientData = errors.New("insufficient data available")

	// ErrClosed indicates the buffer is closed: writes are rejected, and
	// reads fail once buffered data is exhausted.
	ErrClosed = errors.New("buffer is closed")

	// ErrErrored indicates the buffer is in its error state. Unrecoverable
	// for that buffer instance; all reads and writes fail until a new
	// buffer is constructed.
	ErrErrored = errors.New("buffer in error state")
)

// Pipeline and adapter errors.
var (
	// ErrPipelineBusy indicates Process was called while a previous run's
	// stages were still in flight. Wait for the prior run before starting
	// another.
	ErrPipelineBusy = errors.New("pipeline run already in flight")

	// ErrNoReadFunc indicates a Forwarder was asked to read without a read
	// function configured.
	ErrNoReadFunc = errors.New("no read function defined")

	// ErrNoWriteFunc indicates a Forwarder was asked to write without a
	// write function configured.
	ErrNoWriteFunc = errors.New("no write function defined")
)

// StageError provides context about a pipeline stage failure: which stage
// failed, where it sat in the pipeline, and when and how long it ran.
// It wraps the error returned by the stage function.
type StageError struct {
	Timestamp time.Time
	Err       error
	Pipeline  Name
	Stage     Name
	Index     int
	Duration  time.Duration
}

// Error implements the error interface, providing a detailed error message.
func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline %q stage %q (index %d) failed after %v: %v",
		e.Pipeline, e.Stage, e.Index, e.Duration, e.Err)
}

// Unwrap returns the underlying error, supporting error wrapping patterns.
func (e *StageError) Unwrap() error {
	return e.Err
}
