package v1

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"

	"github.com/pulsepoll/backend/internal/model/types"
	"github.com/pulsepoll/backend/internal/server/svr"
	"github.com/pulsepoll/backend/internal/service"
	"github.com/pulsepoll/backend/internal/util/rekuest"
)

type SessionController struct {
	fx.In

	SessionManager *service.SessionManager
	LayoutService  *service.Layout
}

func RegisterSession(v1 *svr.V1, c SessionController) {
	v1.Post("/sessions", c.Create)
	v1.Get("/sessions", c.List)
	v1.Get("/sessions/:sessionId", c.Get)
	v1.Post("/sessions/:sessionId/close", c.Close)
	v1.Get("/sessions/:sessionId/statistics", c.Statistics)
	v1.Get("/sessions/:sessionId/views", c.Views)
	v1.Get("/sessions/:sessionId/views/aggregate", c.AggregateView)
	v1.Get("/sessions/:sessionId/layout", c.Layout)
}

func (c *SessionController) Create(ctx *fiber.Ctx) error {
	var request types.CreateSessionRequest
	if err := rekuest.ValidBody(ctx, &request); err != nil {
		return err
	}

	session, err := c.SessionManager.CreateSession(ctx.UserContext(), &request)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(session)
}

func (c *SessionController) List(ctx *fiber.Ctx) error {
	ids, err := c.SessionManager.OpenSessionIDsList(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"sessions": ids,
	})
}

func (c *SessionController) Get(ctx *fiber.Ctx) error {
	session, err := c.SessionManager.GetSession(ctx.UserContext(), ctx.Params("sessionId"))
	if err != nil {
		return err
	}
	return ctx.JSON(session)
}

func (c *SessionController) Close(ctx *fiber.Ctx) error {
	if err := c.SessionManager.CloseSession(ctx.UserContext(), ctx.Params("sessionId")); err != nil {
		return err
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

func (c *SessionController) Statistics(ctx *fiber.Ctx) error {
	view, err := c.SessionManager.Statistics(ctx.UserContext(), ctx.Params("sessionId"))
	if err != nil {
		return err
	}
	return ctx.JSON(view)
}

func (c *SessionController) Views(ctx *fiber.Ctx) error {
	views, err := c.SessionManager.Views(ctx.UserContext(), ctx.Params("sessionId"))
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"views": views,
	})
}

// AggregateView serves the partial splits of one view. The empty view id is
// valid and denotes the fully aggregated view, so absence of the query
// parameter aggregates everything.
func (c *SessionController) AggregateView(ctx *fiber.Ctx) error {
	viewID := ctx.Query("view")
	splits, err := c.SessionManager.AggregateView(ctx.UserContext(), ctx.Params("sessionId"), viewID)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"view":   viewID,
		"splits": splits,
	})
}

func (c *SessionController) Layout(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("sessionId")
	config, err := c.SessionManager.SessionConfig(ctx.UserContext(), sessionID)
	if err != nil {
		return err
	}
	view, err := c.SessionManager.Statistics(ctx.UserContext(), sessionID)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"layout": config.Layout,
		"splits": c.LayoutService.Grid(&config.Layout, view.Splits),
	})
}
