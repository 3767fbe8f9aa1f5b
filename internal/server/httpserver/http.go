package httpserver

import (
	"fmt"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	"github.com/pulsepoll/backend/internal/app/appconfig"
	"github.com/pulsepoll/backend/internal/pkg/bininfo"
	"github.com/pulsepoll/backend/internal/pkg/flog"
	"github.com/pulsepoll/backend/internal/pkg/middlewares"
	"github.com/pulsepoll/backend/internal/pkg/observability"
)

func Create(conf *appconfig.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "PulsePoll Backend",
		ServerHeader: fmt.Sprintf("Pulse/%s", bininfo.Version),
		// NOTICE: This will also affect WebSocket. Be aware if this fiber instance service is re-used
		//         for long connection services.
		ReadTimeout:  time.Second * 20,
		WriteTimeout: time.Second * 20,
		IdleTimeout:  conf.HTTPServerShutdownTimeout,

		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,

		ErrorHandler: ErrorHandler,
		// immutable since we will be storing json bodies in the closures of SSE stream writers
		Immutable: true,
	})

	app.Use(cors.New(cors.Config{
		AllowMethods: "GET, POST, OPTIONS",
		AllowHeaders: "Content-Type, X-Pulse-Request-ID",
	}))

	middlewares.Logger(app)
	app.Use(middlewares.RequestID())

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			flog.FromFiberCtx(c).Error().
				Str("component", "httpsrv").
				Interface("panic", e).
				Msg("panic in request handler")
		},
	}))

	if conf.DevMode {
		log.Info().Msg("running in DEV mode")
		app.Use(pprof.New())
	}

	fiberprom := fiberprometheus.New(observability.ServiceName)
	fiberprom.RegisterAt(app, "/metrics")
	app.Use(fiberprom.Middleware)

	return app
}
