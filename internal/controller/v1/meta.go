package v1

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"

	"github.com/pulsepoll/backend/internal/model/cache"
	"github.com/pulsepoll/backend/internal/pkg/bininfo"
	"github.com/pulsepoll/backend/internal/pkg/pperr"
	"github.com/pulsepoll/backend/internal/server/svr"
	"github.com/pulsepoll/backend/internal/service"
)

type MetaController struct {
	fx.In

	HealthService *service.Health
}

func RegisterMeta(meta *svr.Meta, c MetaController) {
	meta.Get("/health", c.Health)
	meta.Get("/bininfo", c.BinInfo)
	meta.Post("/caches/:name/purge", c.PurgeCache)
}

func (c *MetaController) Health(ctx *fiber.Ctx) error {
	if err := c.HealthService.Ping(ctx.UserContext()); err != nil {
		return pperr.ErrInternalError.Msg("service unhealthy: %s", err)
	}
	return ctx.SendStatus(fiber.StatusOK)
}

func (c *MetaController) BinInfo(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{
		"version":   bininfo.Version,
		"buildTime": bininfo.BuildTime,
	})
}

// PurgeCache evicts one entry (or a whole single-value cache) by registry
// name, for operational cache invalidation without a restart.
func (c *MetaController) PurgeCache(ctx *fiber.Ctx) error {
	if err := cache.Delete(ctx.Params("name"), ctx.Query("key")); err != nil {
		return pperr.ErrInvalidReq.Msg("failed to purge cache: %s", err)
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}
