package app

import (
	"go.trai.ch/hops/internal/core/domain"
	"go.trai.ch/hops/internal/core/ports"
)

// Components contains all the initialized application components.
type Components struct {
	App    *App
	Logger ports.Logger
	Config domain.Config
}
