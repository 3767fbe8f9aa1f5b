package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"github.com/pulsepoll/backend/internal/app/appconfig"
	"github.com/pulsepoll/backend/internal/app/appcontext"
	"github.com/pulsepoll/backend/internal/controller"
	"github.com/pulsepoll/backend/internal/infra"
	modelcache "github.com/pulsepoll/backend/internal/model/cache"
	"github.com/pulsepoll/backend/internal/pkg/logger"
	"github.com/pulsepoll/backend/internal/repo"
	"github.com/pulsepoll/backend/internal/server"
	"github.com/pulsepoll/backend/internal/service"
	"github.com/pulsepoll/backend/internal/workers/pollwkr"
	"github.com/pulsepoll/backend/internal/workers/snapshotwkr"
)

func options(conf *appconfig.Config, additionalOpts ...fx.Option) []fx.Option {
	baseOpts := []fx.Option{
		fx.Supply(conf),
		fx.WithLogger(logger.Fx),
		fx.StartTimeout(time.Minute),
		fx.StopTimeout(conf.HTTPServerShutdownTimeout + time.Second*15),
		infra.Module(),
		repo.Module(),
		service.Module(),
		server.Module(),
		fx.Invoke(modelcache.Initialize),
		controller.Module(),
		fx.Invoke(pollwkr.Start),
		fx.Invoke(snapshotwkr.Start),
		fx.Invoke(warmSessions),
	}
	return append(baseOpts, additionalOpts...)
}

func New(ctx appcontext.Ctx, additionalOpts ...fx.Option) *fx.App {
	conf, err := appconfig.Parse(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse application configuration")
	}

	logger.Configure(conf)

	return fx.New(options(conf, additionalOpts...)...)
}

// warmSessions loads every open session's engine on startup, after the rest of
// the app graph is ready, so the first request or batch never pays the
// rehydration cost.
func warmSessions(lc fx.Lifecycle, manager *service.SessionManager) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := manager.LoadOpenSessions(context.Background()); err != nil {
					log.Error().Err(err).Msg("failed to warm open sessions")
				}
			}()
			return nil
		},
	})
}
