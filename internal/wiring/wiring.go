// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/hops/internal/adapters/build"
	_ "go.trai.ch/hops/internal/adapters/bundle"
	_ "go.trai.ch/hops/internal/adapters/catalog"
	_ "go.trai.ch/hops/internal/adapters/cellar"
	_ "go.trai.ch/hops/internal/adapters/fetch"
	_ "go.trai.ch/hops/internal/adapters/layout"
	_ "go.trai.ch/hops/internal/adapters/link"
	_ "go.trai.ch/hops/internal/adapters/logger"
	_ "go.trai.ch/hops/internal/adapters/macho"
	_ "go.trai.ch/hops/internal/adapters/telemetry"
	// Register app and engine nodes.
	_ "go.trai.ch/hops/internal/app"
	_ "go.trai.ch/hops/internal/engine/resolver"
	_ "go.trai.ch/hops/internal/engine/scheduler"
)
