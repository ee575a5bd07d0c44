package sage

import (
	"errors"
	"fmt"
)

var (
	// ErrPoolTimeout means no session became available within the acquire
	// timeout. The pool is busy, not broken.
	ErrPoolTimeout = errors.New("session pool: acquire timed out")

	// ErrPoolClosed is returned by Acquire after Close
	ErrPoolClosed = errors.New("session pool: closed")

	// ErrSessionCorrupted marks a session handle as unusable. Operations
	// wrap their underlying failure with it to route the handle to
	// invalidation instead of release.
	ErrSessionCorrupted = errors.New("session corrupted")
)

// Create stages, in the order session construction performs them
const (
	StageEngineInit  = "engine-init"
	StageSessionOpen = "session-open"
	StageAuth        = "auth"
	StageCompany     = "company-select"
)

// CreateError reports which stage of session construction failed
type CreateError struct {
	Stage string
	Msg   string
	Err   error
}

func (e *CreateError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("session create failed at %s: %s", e.Stage, e.Msg)
	}
	return fmt.Sprintf("session create failed at %s: %v", e.Stage, e.Err)
}

func (e *CreateError) Unwrap() error { return e.Err }

// CallError is the typed form of a numeric-zero result from the external
// system, captured together with its side-channel message at the adapter
// boundary so callers never inspect raw codes.
type CallError struct {
	Object string
	Op     string
	Msg    string
}

func (e *CallError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: %s failed", e.Object, e.Op)
	}
	return fmt.Sprintf("%s: %s failed: %s", e.Object, e.Op, e.Msg)
}

// Check translates a call result into a typed error, reading the message
// side channel only on failure
func Check(obj Object, object, op string, code int) error {
	if code != 0 {
		return nil
	}
	return &CallError{Object: object, Op: op, Msg: obj.LastErrorMsg()}
}

// Corrupted wraps err so the sessioned-operation wrapper invalidates the
// handle instead of releasing it
func Corrupted(err error) error {
	return fmt.Errorf("%w: %w", ErrSessionCorrupted, err)
}
