package svr

import (
	"github.com/gofiber/fiber/v2"
)

// V1 is the stable public API group. Endpoints registered here are
// versioned under /api/v1.
type V1 struct {
	fiber.Router
}

// Meta groups operational endpoints that sit outside API versioning.
type Meta struct {
	fiber.Router
}

func CreateEndpointGroups(app *fiber.App) (*V1, *Meta) {
	v1 := app.Group("/api/v1")
	meta := app.Group("/api/_")
	return &V1{Router: v1}, &Meta{Router: meta}
}
