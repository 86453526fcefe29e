package ignore

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/filesentry/internal/core/ports"
)

// NodeID is the unique identifier for the filter builder Graft node.
const NodeID graft.ID = "adapter.ignore"

func init() {
	graft.Register(graft.Node[ports.FilterBuilder]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.FilterBuilder, error) {
			return NewBuilder(), nil
		},
	})
}
