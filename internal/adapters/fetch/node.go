package fetch

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/hops/internal/adapters/layout"
	"go.trai.ch/hops/internal/adapters/logger"
	"go.trai.ch/hops/internal/core/domain"
	"go.trai.ch/hops/internal/core/ports"
)

// NodeID is the unique identifier for the fetcher Graft node.
const NodeID graft.ID = "adapter.fetcher"

func init() {
	graft.Register(graft.Node[ports.Fetcher]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{layout.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (ports.Fetcher, error) {
			cfg, err := graft.Dep[domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewDownloader(cfg, log), nil
		},
	})
}
