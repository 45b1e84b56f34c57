package detector

import (
	"context"
	"os"

	"github.com/grindlemire/graft"
	"go.trai.ch/smake/internal/adapters/logger"
	"go.trai.ch/smake/internal/adapters/tui"
	"go.trai.ch/smake/internal/core/ports"
)

// NodeID is the unique identifier for the display Graft node.
const NodeID graft.ID = "adapter.display"

func init() {
	graft.Register(graft.Node[ports.Display]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.Display, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			display := NewDisplay(os.Stdout, os.Stderr)
			if sink, ok := log.(tui.LogSink); ok {
				display.WithLogSink(sink)
			}
			return display, nil
		},
	})
}
