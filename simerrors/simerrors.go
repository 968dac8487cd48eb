// Package simerrors defines the error taxonomy the simulator core uses to
// classify failures as unrecoverable (scene load) or recoverable (everything
// once the event loop is running), per the engine's error-handling contract.
package simerrors

import "github.com/pkg/errors"

// Kind classifies an error for the purposes of the core's propagation
// policy: Kind determines whether a failure aborts the run or is logged
// and absorbed by the event loop.
type Kind int

const (
	// KindSceneInvalid means the scene topology or parameters violate a
	// data-model invariant. scene.Load returns it before any loop exists;
	// cmd/lorasim then aborts through simlog.FatalIfError without sending
	// an Alert, so the run never starts.
	KindSceneInvalid Kind = iota
	// KindQueueSaturated means persistent backpressure on a node's queue.
	KindQueueSaturated
	// KindPayloadOverflow means firmware produced a payload over 255 bytes.
	KindPayloadOverflow
	// KindSpeedOutOfRange means a requested speed percent was clamped.
	KindSpeedOutOfRange
	// KindInternal means an inconsistency was detected inside the event
	// loop (e.g. an airtime window ending before it started). The
	// offending packet is dropped and the loop continues.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindSceneInvalid:
		return "SceneInvalid"
	case KindQueueSaturated:
		return "QueueSaturated"
	case KindPayloadOverflow:
		return "PayloadOverflow"
	case KindSpeedOutOfRange:
		return "SpeedOutOfRange"
	case KindInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// SimError is a classified, wrapped error carrying a Kind so callers
// (the UI bridge, mainly) can decide whether to abort or just warn.
type SimError struct {
	Kind Kind
	err  error
}

func (e *SimError) Error() string {
	return e.Kind.String() + ": " + e.err.Error()
}

func (e *SimError) Unwrap() error {
	return e.err
}

// New wraps msg as a SimError of the given kind.
func New(kind Kind, msg string) *SimError {
	return &SimError{Kind: kind, err: errors.New(msg)}
}

// Wrap wraps an existing error as a SimError of the given kind, attaching
// msg as additional context (github.com/pkg/errors style).
func Wrap(kind Kind, err error, msg string) *SimError {
	return &SimError{Kind: kind, err: errors.Wrap(err, msg)}
}

// Wrapf is the formatted variant of Wrap.
func Wrapf(kind Kind, err error, format string, args ...interface{}) *SimError {
	return &SimError{Kind: kind, err: errors.Wrapf(err, format, args...)}
}

// Is reports whether err is a *SimError of the given kind.
func Is(err error, kind Kind) bool {
	se, ok := err.(*SimError)
	return ok && se.Kind == kind
}

// Recoverable reports whether err should be logged and absorbed by the
// event loop rather than aborting the run.
func Recoverable(err error) bool {
	se, ok := err.(*SimError)
	return ok && se.Kind != KindSceneInvalid
}
