package progrock

import (
	"time"

	"github.com/vito/progrock"
	"go.trai.ch/smake/internal/core/domain"
)

// Unit is the rendered state of one execution unit.
type Unit struct {
	ID        string
	Label     string
	Status    domain.UnitStatus
	Started   time.Time
	Completed time.Time
	Err       string
}

// Target returns the target name of the unit.
func (u *Unit) Target() string {
	return TargetOf(u.Label)
}

// Elapsed returns how long the recipe has been running, or ran, as of now.
// It is zero for units whose recipe never started.
func (u *Unit) Elapsed(now time.Time) time.Duration {
	if u.Started.IsZero() {
		return 0
	}
	if !u.Completed.IsZero() {
		return u.Completed.Sub(u.Started)
	}
	return now.Sub(u.Started)
}

// Board folds a stream of status updates into the current state of every unit,
// in the order units were queued.
type Board struct {
	units []*Unit
	byID  map[string]*Unit
}

// NewBoard creates an empty Board.
func NewBoard() *Board {
	return &Board{byID: make(map[string]*Unit)}
}

// Units returns the units in queue order.
func (b *Board) Units() []*Unit {
	return b.units
}

// Apply folds update into the board and returns the units whose status changed.
func (b *Board) Apply(update *progrock.StatusUpdate) []*Unit {
	var changed []*Unit
	for _, v := range update.Vertexes {
		u, seen := b.byID[v.Id]
		if !seen {
			u = &Unit{ID: v.Id, Label: v.Name, Status: domain.UnitStatusQueued}
			b.byID[v.Id] = u
			b.units = append(b.units, u)
		}
		before := u.Status

		switch {
		case v.Completed != nil:
			if u.Status == domain.UnitStatusRunning && v.Started != nil {
				u.Started = v.Started.AsTime()
			}
			u.Completed = v.Completed.AsTime()
			u.Status = completedStatus(u, v)
			switch {
			case v.Error != nil:
				u.Err = *v.Error
			case v.Canceled:
				u.Err = canceledReason
			}
		case v.Error != nil || v.Canceled:
			// Done reports the error in its own update before completing.
		case seen && !u.Status.IsTerminal():
			u.Status = domain.UnitStatusRunning
			if v.Started != nil {
				u.Started = v.Started.AsTime()
			}
		}

		if !seen || u.Status != before {
			changed = append(changed, u)
		}
	}
	return changed
}

// Done reports whether every unit on the board has finished.
func (b *Board) Done() bool {
	for _, u := range b.units {
		if !u.Status.IsTerminal() {
			return false
		}
	}
	return true
}

// canceledReason is the error shown for units stopped by cancellation.
const canceledReason = "canceled"

// completedStatus maps a completed vertex to a final status. A unit that ends
// with an error before its recipe started was skipped.
func completedStatus(u *Unit, v *progrock.Vertex) domain.UnitStatus {
	switch {
	case v.Error == nil && !v.Canceled:
		return domain.UnitStatusCompleted
	case u.Status != domain.UnitStatusRunning:
		return domain.UnitStatusSkipped
	default:
		return domain.UnitStatusFailed
	}
}
