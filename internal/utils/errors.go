package utils

import "fmt"

// Op names the pipeline stage an error came from.
type Op string

const (
	OpAsk      Op = "ask"
	OpClassify Op = "classify"
	OpOptimize Op = "optimize"
	OpRetrieve Op = "retrieve"
	OpGround   Op = "ground"
	OpComplete Op = "complete"
)

// AppError ties a failure to the pipeline stage that produced it. Invalid
// marks caller mistakes; the transport layer reports those back to the
// client instead of treating them as internal failures.
type AppError struct {
	Op      Op
	Msg     string
	Invalid bool
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError wraps err with the originating stage and a human-facing message.
func NewAppError(op Op, msg string, err error) error {
	return &AppError{Op: op, Msg: msg, Err: err}
}

// NewInvalidInput builds a caller-mistake error for op.
func NewInvalidInput(op Op, msg string) error {
	return &AppError{Op: op, Msg: msg, Invalid: true}
}
