// Package scheduler implements the target execution scheduler.
package scheduler

import (
	"context"
	"errors"
	"os/exec"
	"sync"
	"time"

	"go.trai.ch/smake/internal/adapters/telemetry" //nolint:depguard // Default reporter
	"go.trai.ch/smake/internal/core/domain"
	"go.trai.ch/smake/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/semaphore"
)

// Options configures a single build.
type Options struct {
	// Jobs bounds the number of recipes running at once. Zero means unbounded.
	Jobs int
	// Strict turns a non-zero recipe exit into a failure that skips every dependent.
	Strict bool
	// Source is the path of the build description, handed to the executor.
	Source string
	// Tool overrides the external build tool handed to the executor.
	Tool string
	// Reporter receives one indicator per execution unit. Nil discards progress.
	Reporter ports.Reporter
}

// Scheduler builds a root target and its transitive dependencies, running every
// recipe at most once and never before the recipes of its dependencies.
type Scheduler struct {
	executor ports.Executor
}

// NewScheduler creates a new Scheduler with the given executor.
func NewScheduler(executor ports.Executor) *Scheduler {
	return &Scheduler{
		executor: executor,
	}
}

// Build executes root and everything it depends on, and blocks until root has completed.
//
// The graph is not checked for cycles. A cycle makes Build wait until ctx is done.
func (s *Scheduler) Build(
	ctx context.Context,
	graph *domain.Graph,
	root domain.TargetName,
	opts Options,
) (domain.BuildSummary, error) {
	started := time.Now()
	summary := domain.BuildSummary{Root: root}

	cache := newExecutionCache()
	rootUnit, err := expand(cache, graph, root)
	if err != nil {
		return summary, err
	}

	reporter := opts.Reporter
	if reporter == nil {
		reporter = telemetry.NewNoOpReporter()
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	state := &buildState{
		ctx:      runCtx,
		cancel:   cancel,
		executor: s.executor,
		opts:     opts,
	}
	if opts.Jobs > 0 {
		state.slots = semaphore.NewWeighted(int64(opts.Jobs))
	}

	var wg sync.WaitGroup
	units := cache.snapshot()
	for _, u := range units {
		u.indicator = reporter.Queue(u.target, u.dependencyNames(), u.depth)
		wg.Go(func() {
			state.run(u)
		})
	}
	wg.Wait()

	summary.Elapsed = time.Since(started)
	summary.Results = make([]domain.UnitResult, 0, len(units))
	var failures []error
	for _, u := range units {
		summary.Results = append(summary.Results, u.result)
		if u.result.Status == domain.UnitStatusCompleted {
			summary.TargetsBuilt++
		}
		if u.result.Status == domain.UnitStatusFailed {
			failures = append(failures, zerr.With(u.result.Err, "target", u.target.String()))
		}
	}

	if rootUnit.result.Status != domain.UnitStatusCompleted {
		if cause := context.Cause(runCtx); cause != nil {
			return summary, cause
		}
	}
	if len(failures) > 0 {
		return summary, errors.Join(append([]error{domain.ErrBuildExecutionFailed}, failures...)...)
	}
	return summary, nil
}

// frame is a target whose dependencies are being requested.
type frame struct {
	unit *unit
	deps []domain.TargetName
	next int
}

// expand reserves a unit for root and every target reachable from it, walking the
// graph depth-first with an explicit stack. A unit is registered once all of its
// dependencies have been requested.
func expand(cache *executionCache, graph *domain.Graph, root domain.TargetName) (*unit, error) {
	deps, ok := graph.Dependencies(root)
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrUnknownTarget, "cannot build target"), "target", root.String())
	}
	rootUnit, _ := cache.reserve(root, 0)
	stack := []frame{{unit: rootUnit, deps: deps}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next == len(top.deps) {
			cache.register(top.unit)
			stack = stack[:len(stack)-1]
			continue
		}

		name := top.deps[top.next]
		top.next++

		child, fresh := cache.reserve(name, top.unit.depth+1)
		top.unit.deps = append(top.unit.deps, child)
		if !fresh {
			continue
		}

		childDeps, ok := graph.Dependencies(name)
		if !ok {
			return nil, zerr.With(
				zerr.With(zerr.Wrap(domain.ErrUnknownTarget, "cannot build dependency"), "target", name.String()),
				"dependent", top.unit.target.String(),
			)
		}
		stack = append(stack, frame{unit: child, deps: childDeps})
	}

	return rootUnit, nil
}

type buildState struct {
	ctx      context.Context
	cancel   context.CancelCauseFunc
	executor ports.Executor
	opts     Options
	slots    *semaphore.Weighted
}

// run is the body of an execution unit.
func (b *buildState) run(u *unit) {
	defer close(u.done)

	for _, dep := range u.deps {
		select {
		case <-dep.done:
		case <-b.ctx.Done():
			b.finish(u, domain.UnitStatusSkipped, context.Cause(b.ctx))
			return
		}
		// Without Strict a dependency only fails when its recipe could not run at all.
		if dep.result.Status == domain.UnitStatusFailed || dep.result.Status == domain.UnitStatusSkipped {
			b.finish(u, domain.UnitStatusSkipped, domain.ErrDependencyFailed)
			return
		}
	}
	if b.ctx.Err() != nil {
		b.finish(u, domain.UnitStatusSkipped, context.Cause(b.ctx))
		return
	}

	if b.slots != nil {
		if err := b.slots.Acquire(b.ctx, 1); err != nil {
			b.finish(u, domain.UnitStatusSkipped, context.Cause(b.ctx))
			return
		}
		defer b.slots.Release(1)
	}

	u.result.Status = domain.UnitStatusRunning
	u.indicator.Start()

	start := time.Now()
	err := b.executor.Execute(b.ctx, domain.Recipe{
		Target:       u.target,
		Dependencies: u.dependencyNames(),
		Source:       b.opts.Source,
		Tool:         b.opts.Tool,
	}, u.indicator.Stdout(), u.indicator.Stderr())
	u.result.Duration = time.Since(start)

	switch {
	case err == nil:
		u.result.ExitCode = 0
		b.finish(u, domain.UnitStatusCompleted, nil)
	case errors.Is(err, domain.ErrRecipeFailed):
		u.result.ExitCode = exitCode(err)
		if b.opts.Strict {
			b.finish(u, domain.UnitStatusFailed, err)
			return
		}
		// The recipe ran; a non-zero exit is recorded but does not stop dependents.
		u.result.Err = err
		u.result.Status = domain.UnitStatusCompleted
		u.indicator.Complete(nil)
	default:
		b.finish(u, domain.UnitStatusFailed, err)
		if b.ctx.Err() == nil {
			b.cancel(zerr.With(err, "target", u.target.String()))
		}
	}
}

func (b *buildState) finish(u *unit, status domain.UnitStatus, err error) {
	u.result.Status = status
	u.result.Err = err
	u.indicator.Complete(err)
}

// exitCode extracts the exit status carried by a recipe failure.
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		if z, ok := e.(*zerr.Error); ok {
			if code, ok := z.Metadata()["exit_code"].(int); ok {
				return code
			}
		}
	}
	return 1
}
