// Package app implements the application layer for smake.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"go.trai.ch/smake/internal/core/domain"
	"go.trai.ch/smake/internal/core/ports"
	"go.trai.ch/smake/internal/engine/scheduler"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// BuildOptions configures a single invocation of Build.
type BuildOptions struct {
	// Makefile is the path of the build description.
	Makefile string
	// Target is the root target. Empty selects the first target of the graph.
	Target string
	// Jobs bounds the number of recipes running at once. Zero means unbounded.
	Jobs int
	// Strict makes a non-zero recipe exit fail the build.
	Strict bool
	// CheckCycles validates the graph before anything runs.
	CheckCycles bool
	// Tool overrides the external build tool.
	Tool string
	// Output is the output mode: "auto", "tui" or "linear".
	Output string
	// Journal is the path of the build journal.
	Journal string
	// NoJournal disables recording the run.
	NoJournal bool
}

// App represents the main application logic.
type App struct {
	loader    ports.GraphLoader
	scheduler *scheduler.Scheduler
	display   ports.Display
	journal   ports.JournalOpener
	hasher    ports.Hasher
	logger    ports.Logger
	out       io.Writer
	now       func() time.Time
}

// New creates a new App instance.
func New(
	loader ports.GraphLoader,
	sched *scheduler.Scheduler,
	display ports.Display,
	journal ports.JournalOpener,
	hasher ports.Hasher,
	logger ports.Logger,
) *App {
	return &App{
		loader:    loader,
		scheduler: sched,
		display:   display,
		journal:   journal,
		hasher:    hasher,
		logger:    logger,
		out:       os.Stdout,
		now:       time.Now,
	}
}

// WithOutput sets the writer for graphs, summaries and history. It defaults to stdout.
func (a *App) WithOutput(w io.Writer) *App {
	a.out = w
	return a
}

// Build loads the build description, builds the requested target and records the run.
func (a *App) Build(ctx context.Context, opts BuildOptions) (domain.BuildSummary, error) {
	graph, err := a.loader.Load(opts.Makefile)
	if err != nil {
		return domain.BuildSummary{}, zerr.Wrap(err, "failed to load build description")
	}

	root, err := resolveRoot(graph, opts.Target)
	if err != nil {
		return domain.BuildSummary{}, err
	}

	if opts.CheckCycles {
		if err := graph.Validate(); err != nil {
			return domain.BuildSummary{}, err
		}
	}

	reporter, renderer, err := a.display.Open(opts.Output)
	if err != nil {
		return domain.BuildSummary{}, err
	}

	var (
		summary  domain.BuildSummary
		buildErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return renderer.Run(gctx)
	})
	g.Go(func() error {
		defer func() {
			if err := reporter.Close(); err != nil {
				a.logger.Warn("closing progress report: " + err.Error())
			}
		}()
		summary, buildErr = a.scheduler.Build(gctx, graph, root, scheduler.Options{
			Jobs:     opts.Jobs,
			Strict:   opts.Strict,
			Source:   opts.Makefile,
			Tool:     opts.Tool,
			Reporter: reporter,
		})
		return buildErr
	})
	err = g.Wait()
	if buildErr != nil {
		err = buildErr
	}

	a.warnNonZeroExits(summary)
	if err == nil {
		_, _ = fmt.Fprintf(a.out, "Built %d targets in %s\n",
			summary.TargetsBuilt, summary.Elapsed.Round(time.Millisecond))
	}

	if !opts.NoJournal && len(summary.Results) > 0 {
		if jerr := a.record(opts, summary); jerr != nil {
			a.logger.Error(jerr)
		}
	}

	return summary, err
}

// resolveRoot returns the requested target, or the default target when none is requested.
func resolveRoot(graph *domain.Graph, target string) (domain.TargetName, error) {
	if target == "" {
		return graph.DefaultTarget()
	}
	name := domain.NewTargetName(target)
	if !graph.HasTarget(name) {
		return domain.TargetName{}, zerr.With(
			zerr.Wrap(domain.ErrUnknownTarget, "no rule to make target"), "target", target,
		)
	}
	return name, nil
}

// warnNonZeroExits reports recipes that exited non-zero without failing the build.
func (a *App) warnNonZeroExits(summary domain.BuildSummary) {
	for _, r := range summary.Failed() {
		if r.Status != domain.UnitStatusCompleted {
			continue
		}
		a.logger.Warn(fmt.Sprintf("%s: recipe exited with status %d", r.Target, r.ExitCode))
	}
}

// record appends the outcome of every unit to the build journal.
func (a *App) record(opts BuildOptions, summary domain.BuildSummary) error {
	store, err := a.journal.Open(opts.Journal)
	if err != nil {
		return err
	}

	sourceHash, err := a.hasher.HashFile(opts.Makefile)
	if err != nil {
		a.logger.Warn("hashing build description: " + err.Error())
		sourceHash = ""
	}

	runID := uuid.NewString()
	finished := a.now()
	records := make([]domain.BuildRecord, 0, len(summary.Results))
	for _, r := range summary.Results {
		records = append(records, domain.BuildRecord{
			RunID:      runID,
			Target:     r.Target.String(),
			Root:       summary.Root.String(),
			Status:     r.Status,
			Duration:   r.Duration,
			ExitCode:   r.ExitCode,
			FinishedAt: finished,
			SourceHash: sourceHash,
		})
	}
	return store.Put(records...)
}

// PrintGraph writes the graph of the build description as indented JSON.
func (a *App) PrintGraph(makefile string) error {
	graph, err := a.loader.Load(makefile)
	if err != nil {
		return zerr.Wrap(err, "failed to load build description")
	}

	data, err := json.MarshalIndent(graph, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to encode graph")
	}
	_, err = fmt.Fprintf(a.out, "%s\n", data)
	return err
}

// History prints the last journal entry of every target and whether the build
// description changed since that entry was written.
func (a *App) History(makefile, journal string) error {
	store, err := a.journal.Open(journal)
	if err != nil {
		return err
	}
	records, err := store.List()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		_, err = fmt.Fprintln(a.out, "No builds recorded.")
		return err
	}

	current, err := a.hasher.HashFile(makefile)
	if err != nil {
		a.logger.Warn("hashing build description: " + err.Error())
		current = ""
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TARGET\tSTATUS\tEXIT\tDURATION\tFINISHED\tDESCRIPTION")
	for _, r := range records {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
			r.Target,
			r.Status,
			r.ExitCode,
			r.Duration.Round(time.Millisecond),
			r.FinishedAt.Local().Format(time.DateTime),
			descriptionState(r.SourceHash, current),
		)
	}
	return tw.Flush()
}

func descriptionState(recorded, current string) string {
	switch {
	case recorded == "" || current == "":
		return "unknown"
	case recorded == current:
		return "unchanged"
	default:
		return "changed"
	}
}
