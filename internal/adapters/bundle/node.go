package bundle

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/hops/internal/adapters/layout"
	"go.trai.ch/hops/internal/adapters/logger"
	"go.trai.ch/hops/internal/core/domain"
	"go.trai.ch/hops/internal/core/ports"
)

// NodeID is the unique identifier for the bundle installer Graft node.
const NodeID graft.ID = "adapter.bundles"

func init() {
	graft.Register(graft.Node[ports.BundleInstaller]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{layout.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (ports.BundleInstaller, error) {
			cfg, err := graft.Dep[domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(cfg, log), nil
		},
	})
}
