package scheduler

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/hops/internal/adapters/build"     //nolint:depguard // Wired in engine wiring
	"go.trai.ch/hops/internal/adapters/bundle"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/hops/internal/adapters/cellar"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/hops/internal/adapters/fetch"     //nolint:depguard // Wired in engine wiring
	"go.trai.ch/hops/internal/adapters/layout"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/hops/internal/adapters/link"      //nolint:depguard // Wired in engine wiring
	"go.trai.ch/hops/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/hops/internal/adapters/macho"     //nolint:depguard // Wired in engine wiring
	"go.trai.ch/hops/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/hops/internal/core/domain"
	"go.trai.ch/hops/internal/core/ports"
)

// NodeID is the unique identifier for the scheduler Graft node.
const NodeID graft.ID = "engine.scheduler"

func init() {
	graft.Register(graft.Node[*Scheduler]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			fetch.NodeID,
			build.NodeID,
			cellar.InstallerNodeID,
			cellar.StoreNodeID,
			macho.NodeID,
			link.NodeID,
			bundle.NodeID,
			telemetry.NodeID,
			logger.NodeID,
			layout.NodeID,
		},
		Run: func(ctx context.Context) (*Scheduler, error) {
			fetcher, err := graft.Dep[ports.Fetcher](ctx)
			if err != nil {
				return nil, err
			}

			builder, err := graft.Dep[ports.Builder](ctx)
			if err != nil {
				return nil, err
			}

			cell, err := graft.Dep[ports.Cellar](ctx)
			if err != nil {
				return nil, err
			}

			receipts, err := graft.Dep[ports.ReceiptStore](ctx)
			if err != nil {
				return nil, err
			}

			patcher, err := graft.Dep[ports.Patcher](ctx)
			if err != nil {
				return nil, err
			}

			linker, err := graft.Dep[ports.Linker](ctx)
			if err != nil {
				return nil, err
			}

			bundles, err := graft.Dep[ports.BundleInstaller](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			cfg, err := graft.Dep[domain.Config](ctx)
			if err != nil {
				return nil, err
			}

			return New(fetcher, builder, cell, receipts, patcher, linker, bundles, tracer, log, cfg), nil
		},
	})
}
