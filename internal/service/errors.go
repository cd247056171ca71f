package service

import (
	"errors"
	"fmt"
)

// Kind classifies service errors so handlers can pick a status code.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuth
	KindInvalidToken
	KindPermission
	KindNotFound
	KindConflict
)

// Error is a client-facing failure with a message safe to return.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ValidationError reports malformed or semantically invalid input.
func ValidationError(format string, args ...any) error {
	return newError(KindValidation, format, args...)
}

// NotFoundError reports a resource that is absent or outside the caller's scope.
func NotFoundError(what string) error {
	return newError(KindNotFound, "%s not found", what)
}

var (
	ErrInvalidCredentials  = &Error{Kind: KindAuth, Message: "Invalid credentials."}
	ErrInvalidRefreshToken = &Error{Kind: KindAuth, Message: "Token is invalid or expired"}
	ErrInvalidResetToken   = &Error{Kind: KindInvalidToken, Message: "Invalid or expired token"}
	ErrForbidden           = &Error{Kind: KindPermission, Message: "You do not have permission to perform this action."}
	ErrStudentSelfEnroll   = &Error{Kind: KindPermission, Message: "Only students can self-enroll; use admin to create enrollments for others."}
	ErrDuplicateEnrollment = &Error{Kind: KindConflict, Message: "Already enrolled in this course."}
	ErrEmailTaken          = &Error{Kind: KindValidation, Message: "A user with this email already exists."}
	ErrUsernameTaken       = &Error{Kind: KindValidation, Message: "A user with that username already exists."}
	ErrProfileNotFound     = &Error{Kind: KindNotFound, Message: "Profile not found"}
)

// KindOf returns the kind of a service error, or 0 for unexpected failures.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}
