package domain

import "time"

// Recipe is a request to build exactly one target with the external build tool.
type Recipe struct {
	// Target is the target to build.
	Target TargetName
	// Dependencies are the direct dependencies, already built by the scheduler.
	Dependencies []TargetName
	// Source is the path of the build description the target was read from.
	Source string
	// Tool overrides the external build tool. Empty selects the executor default.
	Tool string
}

// UnitResult is the outcome of one execution unit.
type UnitResult struct {
	Target   TargetName
	Status   UnitStatus
	Duration time.Duration
	// ExitCode is the exit status of the recipe, or -1 if it never ran.
	ExitCode int
	Err      error
}

// BuildSummary is returned by the scheduler once the root target and its
// transitive dependencies have completed.
type BuildSummary struct {
	Root         TargetName
	TargetsBuilt int
	Elapsed      time.Duration
	// Results holds one entry per execution unit, in registration order.
	Results []UnitResult
}

// Failed returns the results whose recipe exited with a non-zero status.
func (s BuildSummary) Failed() []UnitResult {
	var failed []UnitResult
	for _, r := range s.Results {
		if r.ExitCode > 0 {
			failed = append(failed, r)
		}
	}
	return failed
}
