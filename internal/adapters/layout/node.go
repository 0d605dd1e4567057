package layout

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/hops/internal/core/domain"
)

// NodeID is the unique identifier for the layout Graft node.
const NodeID graft.ID = "adapter.layout"

func init() {
	graft.Register(graft.Node[domain.Config]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (domain.Config, error) {
			return Detect(), nil
		},
	})
}
