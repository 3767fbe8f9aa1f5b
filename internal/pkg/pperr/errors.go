package pperr

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

const (
	CodeNotFound       = "NOT_FOUND"
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeSessionClosed  = "SESSION_CLOSED"
	CodeInvalidConfig  = "INVALID_SESSION_CONFIG"
	CodeInternalError  = "INTERNAL_ERROR"
)

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = New(fiber.StatusBadRequest, CodeNotFound, "resource not found with given parameters")

	// ErrInvalidReq is returned when a request is invalid.
	ErrInvalidReq = New(fiber.StatusBadRequest, CodeInvalidRequest, "invalid request: some or all request parameters are invalid")

	// ErrSessionClosed is returned when an operation requires an open session.
	ErrSessionClosed = New(fiber.StatusConflict, CodeSessionClosed, "session is closed and no longer accepts traffic")

	// ErrInvalidConfig is returned when a session configuration fails engine validation.
	ErrInvalidConfig = New(fiber.StatusBadRequest, CodeInvalidConfig, "session configuration failed validation")

	// ErrInternalError is returned when an internal error occurs.
	ErrInternalError = New(fiber.StatusInternalServerError, CodeInternalError, "internal server error occurred")
)

type Extras map[string]interface{}

type PulseError struct {
	StatusCode int    `example:"400"`
	ErrorCode  string `example:"INVALID_REQUEST"`
	Message    string `example:"invalid request: some or all request parameters are invalid"`
	Extras     *Extras
}

func New(statusCode int, errorCode string, message string) *PulseError {
	return &PulseError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

func (e PulseError) Msg(format string, parts ...interface{}) *PulseError {
	e.Message = fmt.Sprintf(format, parts...)
	return &e
}

func (e PulseError) WithExtras(extras Extras) *PulseError {
	e.Extras = &extras
	return &e
}

func NewInvalidViolations(violations interface{}) *PulseError {
	e := *ErrInvalidReq
	e.Extras = &Extras{
		"violations": violations,
	}
	return &e
}

func (e *PulseError) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrorCode, e.Message)
}
