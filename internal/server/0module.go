package server

import (
	"go.uber.org/fx"

	"github.com/pulsepoll/backend/internal/server/httpserver"
	"github.com/pulsepoll/backend/internal/server/svr"
)

func Module() fx.Option {
	return fx.Module("server", fx.Provide(
		httpserver.Create,
		svr.CreateEndpointGroups,
	))
}
