package domain

import "go.trai.ch/zerr"

var (
	// ErrConfigRead is returned when the build description file cannot be read.
	ErrConfigRead = zerr.New("could not read build description")

	// ErrParse is returned when the build description is malformed.
	ErrParse = zerr.New("could not parse build description")

	// ErrUnknownTarget is returned when a requested or referenced target is not in the graph.
	ErrUnknownTarget = zerr.New("unknown target specified")

	// ErrEmptyGraph is returned when no target is specified and the graph has no default target.
	ErrEmptyGraph = zerr.New("no target specified and no default target available")

	// ErrTargetAlreadyExists is returned when attempting to add a target that already exists.
	ErrTargetAlreadyExists = zerr.New("target already exists")

	// ErrMissingDependency is returned when a target references a dependency that is not in the graph.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrCycleDetected is returned when a cycle is detected in the target graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrSpawnFailed is returned when the external build tool could not be launched.
	ErrSpawnFailed = zerr.New("failed to launch recipe")

	// ErrRecipeFailed is returned when a launched recipe exits with a non-zero status.
	ErrRecipeFailed = zerr.New("recipe failed")

	// ErrDependencyFailed marks a target that was skipped because a dependency failed.
	ErrDependencyFailed = zerr.New("skipped: dependency failed")

	// ErrBuildExecutionFailed is returned when the build finished with failed targets.
	ErrBuildExecutionFailed = zerr.New("build execution failed")

	// ErrInvalidOutputMode is returned for an output mode other than auto, tui or linear.
	ErrInvalidOutputMode = zerr.New("invalid output mode")

	// ErrJournalRead is returned when the build journal cannot be read.
	ErrJournalRead = zerr.New("failed to read build journal")

	// ErrJournalWrite is returned when the build journal cannot be written.
	ErrJournalWrite = zerr.New("failed to write build journal")
)
