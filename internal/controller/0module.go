package controller

import (
	"go.uber.org/fx"

	controllerv1 "github.com/pulsepoll/backend/internal/controller/v1"
)

func Module() fx.Option {
	return fx.Module("controller", controllerv1.Module())
}
