package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindValidation       ErrorKind = "validation"
	KindNotFound         ErrorKind = "not_found"
	KindInvalidReference ErrorKind = "invalid_reference"
	KindUnsupported      ErrorKind = "unsupported"
	KindConflict         ErrorKind = "conflict"
	KindInternal         ErrorKind = "internal"
)

// Error is the typed failure returned by the poll engine and query service.
// Two errors match under errors.Is when their codes are equal, so callers can
// compare against the sentinels below even after the message was specialised.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// Withf returns a copy of e carrying a more specific message.
func (e *Error) Withf(format string, args ...any) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrTooManyOptions   = &Error{KindValidation, "too_many_options", fmt.Sprintf("a poll accepts at most %d options", MaxOptions)}
	ErrNoOptions        = &Error{KindValidation, "no_options", "a poll needs at least one option"}
	ErrEmptyPollID      = &Error{KindValidation, "empty_poll_id", "poll id is required"}
	ErrInvalidPrincipal = &Error{KindValidation, "invalid_principal", "invalid principal"}

	ErrPollNotFound = &Error{KindNotFound, "poll_not_found", "poll not found"}

	ErrInvalidOption = &Error{KindInvalidReference, "invalid_option", "invalid option for this poll"}

	ErrNotSupported = &Error{KindUnsupported, "not_supported", "operation not supported"}

	ErrAlreadyInitialized = &Error{KindConflict, "already_initialized", "contract already initialized"}

	ErrTallyCorrupted = &Error{KindInternal, "tally_corrupted", "stored tally is inconsistent with ballots"}
)

// KindOf reports the kind of err, or KindInternal for anything that is not a
// domain error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
