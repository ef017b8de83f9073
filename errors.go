// Package gitnative provides a safe, Go-idiomatic wrapper around a
// handle-based native git engine. It owns every handle it hands out, turning
// the engine's status codes and most-recent-error slot into structured Go
// errors, and fails fast on use of released handles instead of touching the
// engine with stale state.
package gitnative

import (
	"errors"
	"fmt"

	"github.com/input-output-hk/catalyst-forge-libs/gitnative/native"
)

// ErrorCode is a stable, programmatic identifier for a failure condition.
// Codes survive engine upgrades; messages do not.
type ErrorCode string

const (
	// CodeNotFound means the requested object, reference, or entry does not
	// exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeExists means the target already exists and force was not requested.
	CodeExists ErrorCode = "EXISTS"

	// CodeAmbiguous means a short identifier matched more than one object.
	CodeAmbiguous ErrorCode = "AMBIGUOUS"

	// CodeInvalidSpec means a name or revision specifier is malformed.
	CodeInvalidSpec ErrorCode = "INVALID_SPEC"

	// CodeTypeMismatch means an object exists but has a different kind than
	// the caller required.
	CodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// CodeIndexConflict means the index holds unresolved conflict entries.
	CodeIndexConflict ErrorCode = "INDEX_CONFLICT"

	// CodeReferenceInvalid means a symbolic reference chain is cyclic or
	// exceeds the resolution hop bound.
	CodeReferenceInvalid ErrorCode = "REFERENCE_INVALID"

	// CodeUnbornBranch means HEAD points at a branch that has no commits yet.
	CodeUnbornBranch ErrorCode = "UNBORN_BRANCH"

	// CodeNonFastForward means a reference update was not a fast-forward.
	CodeNonFastForward ErrorCode = "NON_FAST_FORWARD"

	// CodeAuthFailed means authentication was missing or rejected.
	CodeAuthFailed ErrorCode = "AUTH_FAILED"

	// CodeNetwork means a transport-level failure.
	CodeNetwork ErrorCode = "NETWORK"

	// CodeCancelled means a caller-supplied callback or context aborted the
	// operation.
	CodeCancelled ErrorCode = "CANCELLED"

	// CodeHandleReleased means a wrapper was used after it, or the owner it
	// was borrowed from, was closed. The engine is never called in this case.
	CodeHandleReleased ErrorCode = "HANDLE_RELEASED"

	// CodeIterOver signals ordinary end of iteration.
	CodeIterOver ErrorCode = "ITER_OVER"

	// CodeUnknown covers failures the translator could not classify.
	CodeUnknown ErrorCode = "UNKNOWN"
)

// Error is a translated engine failure. Class names the engine subsystem,
// Code the stable condition, Message the human-readable detail captured from
// the engine's error slot at the moment of failure.
type Error struct {
	Class   native.ErrorClass
	Code    ErrorCode
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("git: %s [%s]", e.Code, e.Class)
	}
	return fmt.Sprintf("git: %s [%s]: %s", e.Code, e.Class, e.Message)
}

// Is reports whether target is an *Error with the same Code, so sentinel
// comparisons via errors.Is match on the stable code alone.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// Sentinel errors for errors.Is checks. Each matches any *Error carrying the
// same code regardless of class and message.
var (
	ErrNotFound         = &Error{Code: CodeNotFound}
	ErrExists           = &Error{Code: CodeExists}
	ErrAmbiguous        = &Error{Code: CodeAmbiguous}
	ErrInvalidSpec      = &Error{Code: CodeInvalidSpec}
	ErrTypeMismatch     = &Error{Code: CodeTypeMismatch}
	ErrIndexConflict    = &Error{Code: CodeIndexConflict}
	ErrReferenceInvalid = &Error{Code: CodeReferenceInvalid}
	ErrUnbornBranch     = &Error{Code: CodeUnbornBranch}
	ErrNonFastForward   = &Error{Code: CodeNonFastForward}
	ErrAuthFailed       = &Error{Code: CodeAuthFailed}
	ErrNetwork          = &Error{Code: CodeNetwork}
	ErrCancelled        = &Error{Code: CodeCancelled}
	ErrHandleReleased   = &Error{Code: CodeHandleReleased}
	ErrIterOver         = &Error{Code: CodeIterOver}
	ErrUnknown          = &Error{Code: CodeUnknown}
)

// WrapError wraps an error with additional context while preserving the
// ability to check against sentinel errors using errors.Is().
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// WrapErrorf wraps an error with formatted additional context while
// preserving the ability to check against sentinel errors using errors.Is().
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// codeFromStatus maps an engine status to the stable error code. The class
// disambiguates ErrGeneric, whose meaning depends on the failing subsystem.
func codeFromStatus(st native.Status, class native.ErrorClass) ErrorCode {
	switch st {
	case native.ErrNotFound:
		return CodeNotFound
	case native.ErrExists:
		return CodeExists
	case native.ErrAmbiguous:
		return CodeAmbiguous
	case native.ErrInvalidSpec:
		return CodeInvalidSpec
	case native.ErrTypeMismatch:
		return CodeTypeMismatch
	case native.ErrUnmerged, native.ErrConflict:
		return CodeIndexConflict
	case native.ErrUnbornBranch:
		return CodeUnbornBranch
	case native.ErrNonFastForward:
		return CodeNonFastForward
	case native.ErrAuth:
		return CodeAuthFailed
	case native.ErrCancelled:
		return CodeCancelled
	case native.ErrIterOver:
		return CodeIterOver
	}
	if class == native.ClassNet {
		return CodeNetwork
	}
	return CodeUnknown
}

// translate converts a failing call's status into an *Error by reading the
// engine's error slot, then clears the slot: once translated, the failure
// lives in the returned error and a stale triple must not survive to the next
// read. It must run immediately after the failing call, before any other call
// on the same engine, because the next call overwrites the slot. A nil is
// returned for OK; ErrIterOver is returned for iteration end without
// consulting the slot.
func translate(eng native.Engine, st native.Status) error {
	if st == native.OK {
		return nil
	}
	if st == native.ErrIterOver {
		return ErrIterOver
	}
	class, code, msg, ok := eng.LastError()
	if !ok {
		// Slot empty despite a failing status; fall back to the status alone.
		return &Error{Class: native.ClassNone, Code: codeFromStatus(st, native.ClassNone)}
	}
	eng.ClearError()
	return &Error{Class: class, Code: codeFromStatus(code, class), Message: msg}
}
