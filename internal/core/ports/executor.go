// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"

	"go.trai.ch/smake/internal/core/domain"
)

// Executor defines the interface for executing the recipe of a single target.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute builds exactly recipe.Target, treating its dependencies as already built.
	// It blocks until the recipe has finished.
	//
	// It returns domain.ErrSpawnFailed if the recipe could not be launched and
	// domain.ErrRecipeFailed if it exited with a non-zero status.
	Execute(ctx context.Context, recipe domain.Recipe, stdout, stderr io.Writer) error
}
