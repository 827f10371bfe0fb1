package domain

import (
	"errors"
	"fmt"
)

// ErrorClass partitions pipeline failures for retry routing: transient and
// validation failures both re-enter the retry queue (tagged differently so
// operators can tell "the API is down" from "the model keeps writing bad
// content"), fatal failures are terminal, and configuration failures are
// surfaced immediately and never retried.
type ErrorClass string

const (
	ClassTransient  ErrorClass = "transient"
	ClassValidation ErrorClass = "validation"
	ClassFatal      ErrorClass = "fatal"
	ClassConfig     ErrorClass = "config"
)

// ErrorCode identifies a specific failure reason.
type ErrorCode string

const (
	CodeLengthOutOfRange  ErrorCode = "LENGTH_OUT_OF_RANGE"
	CodeBannedPhrase      ErrorCode = "BANNED_PHRASE"
	CodeToneScoreTooLow   ErrorCode = "TONE_SCORE_TOO_LOW"
	CodeGenerationAPI     ErrorCode = "GENERATION_API_ERROR"
	CodeInvalidTransition ErrorCode = "INVALID_STATE_TRANSITION"
	CodeMaxAttempts       ErrorCode = "MAX_ATTEMPTS_EXCEEDED"
	CodeConfig            ErrorCode = "CONFIGURATION_ERROR"
)

// Error is a classified pipeline failure.
type Error struct {
	Class  ErrorClass
	Code   ErrorCode
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	switch {
	case e.Detail != "":
		return fmt.Sprintf("%s:%s", e.Code, e.Detail)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Cause)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// TransientError wraps a retryable transport-level failure.
func TransientError(code ErrorCode, cause error) *Error {
	return &Error{Class: ClassTransient, Code: code, Cause: cause}
}

// ValidationError reports a content-quality rejection.
func ValidationError(code ErrorCode, detail string) *Error {
	return &Error{Class: ClassValidation, Code: code, Detail: detail}
}

// FatalError reports a terminal, non-retryable failure.
func FatalError(code ErrorCode, detail string) *Error {
	return &Error{Class: ClassFatal, Code: code, Detail: detail}
}

// ConfigError reports a missing or invalid settings field at the point of
// use.
func ConfigError(cause error) *Error {
	return &Error{Class: ClassConfig, Code: CodeConfig, Cause: cause}
}

// ClassOf resolves the class of an arbitrary error; anything that is not a
// classified pipeline error is assumed transient.
func ClassOf(err error) ErrorClass {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Class
	}
	return ClassTransient
}

// CodeOf resolves the code of an arbitrary error, if it carries one.
func CodeOf(err error) ErrorCode {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
