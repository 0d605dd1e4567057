package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/hops/internal/adapters/catalog" //nolint:depguard // Wired in app layer
	"go.trai.ch/hops/internal/adapters/cellar"  //nolint:depguard // Wired in app layer
	"go.trai.ch/hops/internal/adapters/layout"  //nolint:depguard // Wired in app layer
	"go.trai.ch/hops/internal/adapters/link"    //nolint:depguard // Wired in app layer
	"go.trai.ch/hops/internal/adapters/logger"  //nolint:depguard // Wired in app layer
	"go.trai.ch/hops/internal/core/domain"
	"go.trai.ch/hops/internal/core/ports"
	"go.trai.ch/hops/internal/engine/resolver"
	"go.trai.ch/hops/internal/engine/scheduler"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			resolver.NodeID,
			scheduler.NodeID,
			catalog.NodeID,
			cellar.InstallerNodeID,
			cellar.StoreNodeID,
			link.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			res, err := graft.Dep[*resolver.Resolver](ctx)
			if err != nil {
				return nil, err
			}

			sched, err := graft.Dep[*scheduler.Scheduler](ctx)
			if err != nil {
				return nil, err
			}

			cat, err := graft.Dep[ports.Catalog](ctx)
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

			linker, err := graft.Dep[ports.Linker](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return New(res, sched, cat, cell, receipts, linker, log), nil
		},
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			layout.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	application, err := graft.Dep[*App](ctx)
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

	return &Components{
		App:    application,
		Logger: log,
		Config: cfg,
	}, nil
}
