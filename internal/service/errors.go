package service

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure for transport-level translation.
type Kind int

const (
	KindBadRequest Kind = iota + 1
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Error is an expected, client-facing failure with a stable message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// BadRequest builds a KindBadRequest error.
func BadRequest(format string, args ...any) *Error {
	return &Error{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds a KindNotFound error.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Conflict builds a KindConflict error.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// KindOf extracts the Kind of err, or 0 when err is not a service error.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return 0
}

const (
	MsgUserNotFound      = "User not found"
	MsgBookNotFound      = "Book not found"
	MsgUserNameTaken     = "User with this name already exists"
	MsgBookNameTaken     = "Book with this name already exists"
	MsgBookAlreadyLent   = "This book is currently borrowed by another user"
	MsgNoActiveBorrowing = "No active borrowing found for this book"
)
