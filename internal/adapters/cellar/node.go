package cellar

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/hops/internal/adapters/layout"
	"go.trai.ch/hops/internal/adapters/logger"
	"go.trai.ch/hops/internal/core/domain"
	"go.trai.ch/hops/internal/core/ports"
)

// StoreNodeID is the unique identifier for the receipt store Graft node.
const StoreNodeID graft.ID = "adapter.receipts"

// InstallerNodeID is the unique identifier for the cellar installer Graft node.
const InstallerNodeID graft.ID = "adapter.cellar"

func init() {
	graft.Register(graft.Node[ports.ReceiptStore]{
		ID:        StoreNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{layout.NodeID},
		Run: func(ctx context.Context) (ports.ReceiptStore, error) {
			cfg, err := graft.Dep[domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			return NewStore(cfg), nil
		},
	})

	graft.Register(graft.Node[ports.Cellar]{
		ID:        InstallerNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{layout.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (ports.Cellar, error) {
			cfg, err := graft.Dep[domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewInstaller(cfg, log), nil
		},
	})
}
