// Package shell provides the recipe executor adapter backed by an external make.
package shell

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.trai.ch/smake/internal/core/domain"
	"go.trai.ch/smake/internal/core/ports"
	"go.trai.ch/zerr"
)

// DefaultTool is the build tool used when neither the recipe nor $MAKE names one.
const DefaultTool = "make"

const waitDelay = 2 * time.Second

// Executor implements ports.Executor by invoking make once per target.
type Executor struct {
	logger ports.Logger
	tool   string
}

// NewExecutor creates a new Executor. The tool defaults to $MAKE, then to make.
func NewExecutor(logger ports.Logger) *Executor {
	tool := os.Getenv("MAKE")
	if tool == "" {
		tool = DefaultTool
	}
	return &Executor{
		logger: logger,
		tool:   tool,
	}
}

// Execute runs `<tool> -f <source> <target> -o <dep>...`.
// Dependencies are passed with -o so that make treats them as up to date and
// only the recipe of the requested target runs.
// A nil stdout or stderr sends that stream to the logger, for callers that run
// a recipe without a progress indicator.
func (e *Executor) Execute(ctx context.Context, recipe domain.Recipe, stdout, stderr io.Writer) error {
	tool := recipe.Tool
	if tool == "" {
		tool = e.tool
	}

	cmd := exec.CommandContext(ctx, tool, Args(recipe)...) //nolint:gosec // user provided build tool

	if stdout == nil {
		stdout = &logWriter{logger: e.logger, level: "info"}
	}
	if stderr == nil {
		stderr = &logWriter{logger: e.logger, level: "error"}
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	// Children of the recipe may keep the output pipes open after it is killed.
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return zerr.With(zerr.Wrap(ctxErr, "recipe interrupted"), "target", recipe.Target.String())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		failure := zerr.With(zerr.Wrap(domain.ErrRecipeFailed, "building "+recipe.Target.String()), "target", recipe.Target.String())
		return zerr.With(failure, "exit_code", exitErr.ExitCode())
	}

	spawnErr := zerr.With(zerr.Wrap(domain.ErrSpawnFailed, "building "+recipe.Target.String()), "tool", tool)
	return zerr.With(zerr.With(spawnErr, "target", recipe.Target.String()), "reason", err.Error())
}

// Args returns the command line arguments used to build recipe.Target.
func Args(recipe domain.Recipe) []string {
	args := make([]string, 0, 3+2*len(recipe.Dependencies))
	if recipe.Source != "" {
		args = append(args, "-f", recipe.Source)
	}
	args = append(args, recipe.Target.String())
	for _, dep := range recipe.Dependencies {
		args = append(args, "-o", dep.String())
	}
	return args
}

type logWriter struct {
	logger ports.Logger
	level  string
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	lines := strings.Split(strings.TrimSuffix(string(p), "\n"), "\n")
	for _, line := range lines {
		if w.level == "info" {
			w.logger.Info(line)
		} else {
			w.logger.Warn(line)
		}
	}
	return len(p), nil
}
