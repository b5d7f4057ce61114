package models

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindConfiguration    ErrorKind = "configuration"
	KindConcurrentRun    ErrorKind = "concurrent_run"
	KindAdapterExecution ErrorKind = "adapter_execution"
	KindPolicyLimit      ErrorKind = "policy_limit"
	KindRender           ErrorKind = "render"
)

// Error tags a failure with the kind the UI dispatches on, e.g. a policy
// abort renders a different banner than an automation failure.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func WrapError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the kind from anywhere in an error chain, or "" when the
// chain carries no tagged error.
func KindOf(err error) ErrorKind {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}
	return ""
}
