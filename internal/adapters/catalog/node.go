package catalog

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/hops/internal/adapters/layout"
	"go.trai.ch/hops/internal/core/domain"
	"go.trai.ch/hops/internal/core/ports"
)

// NodeID is the unique identifier for the catalog Graft node.
const NodeID graft.ID = "adapter.catalog"

func init() {
	graft.Register(graft.Node[ports.Catalog]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{layout.NodeID},
		Run: func(ctx context.Context) (ports.Catalog, error) {
			cfg, err := graft.Dep[domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			return Load(cfg.CatalogDir)
		},
	})
}
