package snapshotwkr

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"github.com/pulsepoll/backend/internal/app/appconfig"
	"github.com/pulsepoll/backend/internal/service"
)

type WorkerDeps struct {
	fx.In
	SessionManager *service.SessionManager
}

// Start runs the periodic snapshot loop: every SnapshotInterval, the current
// basis-split state of each loaded session is persisted so a restart resumes
// from a recent snapshot instead of a full history replay at serve time.
func Start(conf *appconfig.Config, deps WorkerDeps) {
	if conf.SnapshotInterval <= 0 {
		log.Info().Msg("worker: snapshot: periodic snapshots are disabled due to configuration")
		return
	}

	go func() {
		ticker := time.NewTicker(conf.SnapshotInterval)
		defer ticker.Stop()
		for range ticker.C {
			start := time.Now()
			deps.SessionManager.SnapshotLoaded(context.Background())
			log.Debug().Dur("elapsed", time.Since(start)).Msg("worker: snapshot: sweep finished")
		}
	}()
	log.Info().Dur("interval", conf.SnapshotInterval).Msg("worker: snapshot: worker started")
}
