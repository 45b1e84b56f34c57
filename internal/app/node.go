package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/smake/internal/adapters/cas"      //nolint:depguard // Wired in app layer
	"go.trai.ch/smake/internal/adapters/config"   //nolint:depguard // Wired in app layer
	"go.trai.ch/smake/internal/adapters/detector" //nolint:depguard // Wired in app layer
	"go.trai.ch/smake/internal/adapters/fs"       //nolint:depguard // Wired in app layer
	"go.trai.ch/smake/internal/adapters/logger"   //nolint:depguard // Wired in app layer
	"go.trai.ch/smake/internal/core/ports"
	"go.trai.ch/smake/internal/engine/scheduler"
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
			config.NodeID,
			scheduler.NodeID,
			detector.NodeID,
			cas.NodeID,
			fs.HasherNodeID,
			logger.NodeID,
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
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewComponents(app, log), nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.GraphLoader](ctx)
	if err != nil {
		return nil, err
	}

	sched, err := graft.Dep[*scheduler.Scheduler](ctx)
	if err != nil {
		return nil, err
	}

	display, err := graft.Dep[ports.Display](ctx)
	if err != nil {
		return nil, err
	}

	journal, err := graft.Dep[ports.JournalOpener](ctx)
	if err != nil {
		return nil, err
	}

	hasher, err := graft.Dep[ports.Hasher](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, sched, display, journal, hasher, log), nil
}
