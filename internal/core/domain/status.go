package domain

import "strings"

// UnitStatus represents the lifecycle state of an execution unit.
type UnitStatus string

const (
	// UnitStatusQueued indicates the unit exists but some dependencies are still unresolved.
	UnitStatusQueued UnitStatus = "queued"
	// UnitStatusRunning indicates all dependencies resolved and the recipe is executing.
	UnitStatusRunning UnitStatus = "running"
	// UnitStatusCompleted indicates the recipe returned.
	UnitStatusCompleted UnitStatus = "completed"
	// UnitStatusFailed indicates the recipe could not be launched, or exited non-zero in strict mode.
	UnitStatusFailed UnitStatus = "failed"
	// UnitStatusSkipped indicates the recipe was never run because a dependency failed.
	UnitStatusSkipped UnitStatus = "skipped"
)

// IsTerminal checks if a status is a terminal state (Completed, Failed, Skipped).
func (s UnitStatus) IsTerminal() bool {
	switch s {
	case UnitStatusCompleted, UnitStatusFailed, UnitStatusSkipped:
		return true
	default:
		return false
	}
}

// NormalizeUnitStatus converts a string to a UnitStatus, defaulting to queued if unknown.
// This is used when decoding journal entries written by other versions.
func NormalizeUnitStatus(s string) UnitStatus {
	switch strings.ToLower(s) {
	case string(UnitStatusRunning):
		return UnitStatusRunning
	case string(UnitStatusCompleted):
		return UnitStatusCompleted
	case string(UnitStatusFailed):
		return UnitStatusFailed
	case string(UnitStatusSkipped):
		return UnitStatusSkipped
	default:
		return UnitStatusQueued
	}
}
