package httpserver

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"github.com/pulsepoll/backend/internal/pkg/flog"
	"github.com/pulsepoll/backend/internal/pkg/pperr"
)

type errorResponse struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Extras  *pperr.Extras `json:"extras,omitempty"`
}

// ErrorHandler renders every handler error as a structured JSON body. Domain
// errors carry their own status code; anything unrecognized becomes a 500
// without leaking internals.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	var pe *pperr.PulseError
	if errors.As(err, &pe) {
		return ctx.Status(pe.StatusCode).JSON(errorResponse{
			Code:    pe.ErrorCode,
			Message: pe.Message,
			Extras:  pe.Extras,
		})
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return ctx.Status(fe.Code).JSON(errorResponse{
			Code:    pperr.CodeInvalidRequest,
			Message: fe.Message,
		})
	}

	flog.FromFiberCtx(ctx).Error().
		Str("component", "httpsrv").
		Err(err).
		Msg("unhandled error in request handler")

	return ctx.Status(pperr.ErrInternalError.StatusCode).JSON(errorResponse{
		Code:    pperr.ErrInternalError.ErrorCode,
		Message: pperr.ErrInternalError.Message,
	})
}
