package observer

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/filesentry/internal/adapters/fs"        //nolint:depguard // Wired in engine wiring
	"go.trai.ch/filesentry/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/filesentry/internal/adapters/metrics"   //nolint:depguard // Wired in engine wiring
	"go.trai.ch/filesentry/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/filesentry/internal/adapters/watcher"   //nolint:depguard // Wired in engine wiring
	"go.trai.ch/filesentry/internal/core/ports"
)

// NodeID is the unique identifier for the observer Graft node.
const NodeID graft.ID = "engine.observer"

func init() {
	graft.Register(graft.Node[*Observer]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			watcher.NodeID,
			fs.FileSystemNodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
			metrics.NodeID,
		},
		Run: func(ctx context.Context) (*Observer, error) {
			backend, err := graft.Dep[ports.Backend](ctx)
			if err != nil {
				return nil, err
			}

			fsys, err := graft.Dep[ports.FileSystem](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			prom, err := graft.Dep[*metrics.Prometheus](ctx)
			if err != nil {
				return nil, err
			}

			return New(backend, fsys, log, tracer, prom), nil
		},
	})
}
