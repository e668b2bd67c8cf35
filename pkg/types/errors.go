// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures so callers can decide whether a
// same-stage retry makes sense.
type ErrorKind string

const (
	KindInvalidInput        ErrorKind = "invalid_input"
	KindPreconditionNotMet  ErrorKind = "precondition_not_met"
	KindGenerationFailed    ErrorKind = "generation_failed"
	KindPartialFetchFailure ErrorKind = "partial_fetch_failure"
	KindPublishFailed       ErrorKind = "publish_failed"
)

// Error is a tagged pipeline error. Op names the operation that failed,
// Detail adds a human-readable explanation, and Err is the underlying cause.
type Error struct {
	Kind   ErrorKind
	Op     string
	Detail string
	Err    error
}

// Sentinels for errors.Is matching by kind.
var (
	ErrInvalidInput        = &Error{Kind: KindInvalidInput}
	ErrPreconditionNotMet  = &Error{Kind: KindPreconditionNotMet}
	ErrGenerationFailed    = &Error{Kind: KindGenerationFailed}
	ErrPartialFetchFailure = &Error{Kind: KindPartialFetchFailure}
	ErrPublishFailed       = &Error{Kind: KindPublishFailed}
)

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrGenerationFailed)
// holds for every generation failure regardless of Op or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or "" when
// err is nil or untagged.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// GenerationFailed wraps cause as a generation failure for op.
func GenerationFailed(op string, cause error) error {
	return &Error{Kind: KindGenerationFailed, Op: op, Err: cause}
}

// PreconditionNotMet reports that op needs the named artifact.
func PreconditionNotMet(op, missing string) error {
	return &Error{Kind: KindPreconditionNotMet, Op: op, Detail: fmt.Sprintf("missing %s", missing)}
}

// InvalidInput reports a malformed input for op.
func InvalidInput(op, detail string) error {
	return &Error{Kind: KindInvalidInput, Op: op, Detail: detail}
}
