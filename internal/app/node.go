package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/filesentry/internal/adapters/config"             //nolint:depguard // Wired in app layer
	"go.trai.ch/filesentry/internal/adapters/fs"                 //nolint:depguard // Wired in app layer
	"go.trai.ch/filesentry/internal/adapters/ignore"             //nolint:depguard // Wired in app layer
	"go.trai.ch/filesentry/internal/adapters/logger"             //nolint:depguard // Wired in app layer
	"go.trai.ch/filesentry/internal/adapters/metrics"            //nolint:depguard // Wired in app layer
	"go.trai.ch/filesentry/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in app layer
	"go.trai.ch/filesentry/internal/core/ports"
	"go.trai.ch/filesentry/internal/engine/observer"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components bundles what the command line needs from the graph.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			ignore.NodeID,
			observer.NodeID,
			fs.WalkerNodeID,
			logger.NodeID,
			metrics.NodeID,
			progrock.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			a, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{App: a, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	filters, err := graft.Dep[ports.FilterBuilder](ctx)
	if err != nil {
		return nil, err
	}

	obs, err := graft.Dep[*observer.Observer](ctx)
	if err != nil {
		return nil, err
	}

	walker, err := graft.Dep[*fs.Walker](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	prom, err := graft.Dep[*metrics.Prometheus](ctx)
	if err != nil {
		return nil, err
	}

	rec, err := graft.Dep[*progrock.Recorder](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, filters, obs, walker, log, prom).WithRecorder(rec), nil
}
