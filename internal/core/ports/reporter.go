package ports

import (
	"context"
	"io"

	"go.trai.ch/smake/internal/core/domain"
)

//go:generate go run go.uber.org/mock/mockgen -source=reporter.go -destination=mocks/mock_reporter.go -package=mocks

// Reporter creates one progress indicator per execution unit.
// Implementations must be safe for concurrent use.
type Reporter interface {
	// Queue registers a unit for target with its direct dependencies.
	// depth is the depth at which the target was first discovered, 0 for the root.
	Queue(target domain.TargetName, deps []domain.TargetName, depth int) Indicator
	// Close flushes pending updates and ends the report.
	Close() error
}

// Indicator tracks the lifecycle of a single execution unit.
type Indicator interface {
	// Start marks the unit as running.
	Start()
	// Stdout returns a writer for the recipe's standard output.
	Stdout() io.Writer
	// Stderr returns a writer for the recipe's standard error.
	Stderr() io.Writer
	// Complete marks the unit as finished. A nil error means Completed. An error
	// means Failed once Start was called, and Skipped otherwise.
	Complete(err error)
}

// Renderer draws the progress of a build until the report it consumes is closed.
type Renderer interface {
	// Run blocks until the report has been fully drawn or ctx is cancelled.
	Run(ctx context.Context) error
}

// Display opens the progress report of one build together with the renderer
// that draws it.
type Display interface {
	// Open creates a reporter and its renderer. mode is "auto", "tui" or "linear".
	Open(mode string) (Reporter, Renderer, error)
}
