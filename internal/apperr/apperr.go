package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	// KindGeneration marks a description that could not be produced.
	KindGeneration
	// KindAIValidation marks a validation call that never reached the model.
	KindAIValidation
	// KindUpstreamParse marks a model reply that could not be decoded. It is
	// recovered where it happens and never rendered.
	KindUpstreamParse
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindGeneration:
		return "generation"
	case KindAIValidation:
		return "ai_validation"
	case KindUpstreamParse:
		return "upstream_parse"
	default:
		return "internal"
	}
}

// Error is the error type returned across service boundaries.
type Error struct {
	Kind    Kind
	Message string
	// Fields carries per-field messages for validation failures.
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Conflict(msg string, err error) *Error {
	return &Error{Kind: KindConflict, Message: msg, Err: err}
}

func Unauthorized(msg string, err error) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg, Err: err}
}

func Generation(msg string, err error) *Error {
	return &Error{Kind: KindGeneration, Message: msg, Err: err}
}

func AIValidation(msg string, err error) *Error {
	return &Error{Kind: KindAIValidation, Message: msg, Err: err}
}

func UpstreamParse(msg string, err error) *Error {
	return &Error{Kind: KindUpstreamParse, Message: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries an *Error of the given kind.
func Is(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// Status maps an error to the HTTP status it is rendered with.
func Status(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	switch KindOf(err) {
	case KindValidation:
		return fiber.StatusBadRequest
	case KindNotFound:
		return fiber.StatusNotFound
	case KindConflict:
		return fiber.StatusConflict
	case KindUnauthorized:
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// Handler renders errors returned from fiber handlers. Causes are logged and
// never sent to the client.
func Handler(log *zap.Logger) fiber.ErrorHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *fiber.Ctx, err error) error {
		status := Status(err)
		body := fiber.Map{"status": "error"}

		var e *Error
		var fe *fiber.Error
		switch {
		case errors.As(err, &e):
			body["message"] = e.Message
			if len(e.Fields) > 0 {
				body["errors"] = e.Fields
			}
		case errors.As(err, &fe):
			body["message"] = fe.Message
		default:
			body["message"] = "internal server error"
		}

		if status >= fiber.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Int("status", status),
				zap.Error(err))
		} else {
			log.Debug("request rejected",
				zap.String("path", c.Path()),
				zap.Int("status", status),
				zap.Error(err))
		}
		return c.Status(status).JSON(body)
	}
}
