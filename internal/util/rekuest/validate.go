package rekuest

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/pulsepoll/backend/internal/pkg/pperr"
)

var Validate = validator.New()

// ValidBody parses the request body into dest and validates it against its
// struct tags, reporting violations to the client.
func ValidBody(ctx *fiber.Ctx, dest interface{}) error {
	if err := ctx.BodyParser(dest); err != nil {
		return pperr.ErrInvalidReq.Msg("invalid request body: %s", err)
	}
	if err := Validate.Struct(dest); err != nil {
		if violations, ok := err.(validator.ValidationErrors); ok {
			return pperr.NewInvalidViolations(violations.Error())
		}
		return pperr.ErrInvalidReq
	}
	return nil
}
