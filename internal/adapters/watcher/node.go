package watcher

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/filesentry/internal/adapters/logger"
	"go.trai.ch/filesentry/internal/core/ports"
)

// NodeID is the unique identifier for the watch backend Graft node.
const NodeID graft.ID = "adapter.watcher"

func init() {
	graft.Register(graft.Node[ports.Backend]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.Backend, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewWatcher(log)
		},
	})
}
