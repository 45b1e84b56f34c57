package progrock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vito/progrock"
	telemetry "go.trai.ch/smake/internal/adapters/telemetry/progrock"
	"go.trai.ch/smake/internal/core/domain"
	"google.golang.org/protobuf/types/known/timestamppb"
)

func vertexUpdate(v *progrock.Vertex) *progrock.StatusUpdate {
	return &progrock.StatusUpdate{Vertexes: []*progrock.Vertex{v}}
}

var t0 = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func TestBoard_Apply(t *testing.T) {
	board := telemetry.NewBoard()

	changed := board.Apply(vertexUpdate(&progrock.Vertex{Id: "x", Name: "↱ x", Started: timestamppb.New(t0)}))
	if assert.Len(t, changed, 1) {
		assert.Equal(t, domain.UnitStatusQueued, changed[0].Status)
	}
	assert.False(t, board.Done())

	start := t0.Add(2 * time.Second)
	changed = board.Apply(vertexUpdate(&progrock.Vertex{Id: "x", Name: "↱ x", Started: timestamppb.New(start)}))
	if assert.Len(t, changed, 1) {
		assert.Equal(t, domain.UnitStatusRunning, changed[0].Status)
		assert.Equal(t, 3*time.Second, changed[0].Elapsed(start.Add(3*time.Second)))
	}

	changed = board.Apply(&progrock.StatusUpdate{})
	assert.Empty(t, changed)

	changed = board.Apply(vertexUpdate(&progrock.Vertex{
		Id:        "x",
		Name:      "↱ x",
		Started:   timestamppb.New(start),
		Completed: timestamppb.New(start.Add(5 * time.Second)),
	}))
	if assert.Len(t, changed, 1) {
		assert.Equal(t, domain.UnitStatusCompleted, changed[0].Status)
		assert.Equal(t, 5*time.Second, changed[0].Elapsed(start.Add(time.Hour)), "elapsed is frozen once completed")
	}
	assert.True(t, board.Done())
}

func TestBoard_Apply_ErrorUpdateBeforeCompletion(t *testing.T) {
	board := telemetry.NewBoard()
	board.Apply(vertexUpdate(&progrock.Vertex{Id: "x", Name: "x", Started: timestamppb.New(t0)}))

	msg := domain.ErrDependencyFailed.Error()
	changed := board.Apply(vertexUpdate(&progrock.Vertex{Id: "x", Name: "x", Started: timestamppb.New(t0), Error: &msg}))
	assert.Empty(t, changed, "an error without completion is not a start")

	changed = board.Apply(vertexUpdate(&progrock.Vertex{
		Id:        "x",
		Name:      "x",
		Started:   timestamppb.New(t0),
		Completed: timestamppb.New(t0.Add(time.Second)),
		Error:     &msg,
	}))
	if assert.Len(t, changed, 1) {
		assert.Equal(t, domain.UnitStatusSkipped, changed[0].Status)
		assert.Zero(t, changed[0].Elapsed(t0.Add(time.Hour)))
	}
}

func TestBoard_Apply_Canceled(t *testing.T) {
	tests := []struct {
		name    string
		started bool
		want    domain.UnitStatus
	}{
		{"never started", false, domain.UnitStatusSkipped},
		{"running", true, domain.UnitStatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			board := telemetry.NewBoard()
			board.Apply(vertexUpdate(&progrock.Vertex{Id: "x", Name: "x", Started: timestamppb.New(t0)}))
			if tt.started {
				board.Apply(vertexUpdate(&progrock.Vertex{Id: "x", Name: "x", Started: timestamppb.New(t0)}))
			}

			board.Apply(vertexUpdate(&progrock.Vertex{Id: "x", Name: "x", Started: timestamppb.New(t0), Canceled: true}))
			board.Apply(vertexUpdate(&progrock.Vertex{
				Id:        "x",
				Name:      "x",
				Started:   timestamppb.New(t0),
				Completed: timestamppb.New(t0.Add(time.Second)),
				Canceled:  true,
			}))

			units := board.Units()
			require.Len(t, units, 1)
			assert.Equal(t, tt.want, units[0].Status)
			assert.Equal(t, "canceled", units[0].Err)
		})
	}
}
