package app_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/smake/internal/adapters/telemetry"
	"go.trai.ch/smake/internal/app"
	"go.trai.ch/smake/internal/core/domain"
	"go.trai.ch/smake/internal/core/ports/mocks"
	"go.trai.ch/smake/internal/engine/scheduler"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	loader   *mocks.MockGraphLoader
	executor *mocks.MockExecutor
	display  *mocks.MockDisplay
	renderer *mocks.MockRenderer
	journal  *mocks.MockJournalOpener
	store    *mocks.MockBuildRecordStore
	hasher   *mocks.MockHasher
	logger   *mocks.MockLogger
	out      *bytes.Buffer
	app      *app.App
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &fixture{
		loader:   mocks.NewMockGraphLoader(ctrl),
		executor: mocks.NewMockExecutor(ctrl),
		display:  mocks.NewMockDisplay(ctrl),
		renderer: mocks.NewMockRenderer(ctrl),
		journal:  mocks.NewMockJournalOpener(ctrl),
		store:    mocks.NewMockBuildRecordStore(ctrl),
		hasher:   mocks.NewMockHasher(ctrl),
		logger:   mocks.NewMockLogger(ctrl),
		out:      &bytes.Buffer{},
	}
	f.app = app.New(
		f.loader,
		scheduler.NewScheduler(f.executor),
		f.display,
		f.journal,
		f.hasher,
		f.logger,
	).WithOutput(f.out)
	return f
}

// expectDisplay makes the display hand out a silent reporter and a renderer that
// returns immediately.
func (f *fixture) expectDisplay(mode string) {
	f.display.EXPECT().Open(mode).Return(telemetry.NewNoOpReporter(), f.renderer, nil)
	f.renderer.EXPECT().Run(gomock.Any()).Return(nil)
}

func newGraph(t *testing.T, edges ...[]string) *domain.Graph {
	t.Helper()
	g := domain.NewGraph()
	for _, e := range edges {
		require.NoError(t, g.AddTarget(domain.NewTargetName(e[0]), domain.TargetNames(e[1:]...)))
	}
	return g
}

func TestApp_Build(t *testing.T) {
	f := newFixture(t)
	g := newGraph(t, []string{"all", "lib"}, []string{"lib"})

	f.loader.EXPECT().Load("Makefile").Return(g, nil)
	f.expectDisplay("auto")
	f.executor.EXPECT().
		Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, recipe domain.Recipe, _, _ any) error {
			assert.Equal(t, "Makefile", recipe.Source)
			return nil
		}).
		Times(2)
	f.journal.EXPECT().Open(domain.DefaultJournalPath).Return(f.store, nil)
	f.hasher.EXPECT().HashFile("Makefile").Return("ef46db3751d8e999", nil)

	var records []domain.BuildRecord
	f.store.EXPECT().Put(gomock.Any()).DoAndReturn(func(recs ...domain.BuildRecord) error {
		records = recs
		return nil
	})

	summary, err := f.app.Build(context.Background(), app.BuildOptions{
		Makefile: "Makefile",
		Output:   "auto",
		Journal:  domain.DefaultJournalPath,
	})

	require.NoError(t, err)
	assert.Equal(t, 2, summary.TargetsBuilt)
	assert.Contains(t, f.out.String(), "Built 2 targets in ")

	require.Len(t, records, 2)
	assert.Equal(t, "lib", records[0].Target)
	assert.Equal(t, "all", records[1].Target)
	for _, r := range records {
		assert.Equal(t, "all", r.Root)
		assert.Equal(t, domain.UnitStatusCompleted, r.Status)
		assert.Equal(t, "ef46db3751d8e999", r.SourceHash)
		assert.NotEmpty(t, r.RunID)
		assert.Equal(t, records[0].RunID, r.RunID, "one run id per build")
	}
}

func TestApp_Build_RequestedTarget(t *testing.T) {
	f := newFixture(t)
	g := newGraph(t, []string{"all", "lib", "docs"}, []string{"lib"}, []string{"docs"})

	f.loader.EXPECT().Load("Makefile").Return(g, nil)
	f.expectDisplay("linear")
	f.executor.EXPECT().
		Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, recipe domain.Recipe, _, _ any) error {
			assert.Equal(t, "docs", recipe.Target.String())
			assert.Equal(t, "gmake", recipe.Tool)
			return nil
		})

	summary, err := f.app.Build(context.Background(), app.BuildOptions{
		Makefile:  "Makefile",
		Target:    "docs",
		Tool:      "gmake",
		Output:    "linear",
		NoJournal: true,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, summary.TargetsBuilt)
}

func TestApp_Build_UnknownTarget(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load("Makefile").Return(newGraph(t, []string{"all"}), nil)

	_, err := f.app.Build(context.Background(), app.BuildOptions{Makefile: "Makefile", Target: "nope"})

	require.ErrorIs(t, err, domain.ErrUnknownTarget)
	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "nope", zErr.Metadata()["target"])
	assert.Empty(t, f.out.String())
}

func TestApp_Build_EmptyGraph(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load("Makefile").Return(domain.NewGraph(), nil)

	_, err := f.app.Build(context.Background(), app.BuildOptions{Makefile: "Makefile"})

	require.ErrorIs(t, err, domain.ErrEmptyGraph)
}

func TestApp_Build_LoadError(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load("missing.mk").Return(nil, zerr.Wrap(domain.ErrConfigRead, "open missing.mk"))

	_, err := f.app.Build(context.Background(), app.BuildOptions{Makefile: "missing.mk"})

	require.ErrorIs(t, err, domain.ErrConfigRead)
}

func TestApp_Build_CheckCycles(t *testing.T) {
	f := newFixture(t)
	g := newGraph(t, []string{"A", "B"}, []string{"B", "A"})
	f.loader.EXPECT().Load("Makefile").Return(g, nil)

	_, err := f.app.Build(context.Background(), app.BuildOptions{Makefile: "Makefile", CheckCycles: true})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle detected")
}

func TestApp_Build_WarnsOnNonZeroExit(t *testing.T) {
	f := newFixture(t)
	g := newGraph(t, []string{"all", "lib"}, []string{"lib"})

	f.loader.EXPECT().Load("Makefile").Return(g, nil)
	f.expectDisplay("auto")
	f.executor.EXPECT().
		Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, recipe domain.Recipe, _, _ any) error {
			if recipe.Target.String() == "lib" {
				return zerr.With(zerr.Wrap(domain.ErrRecipeFailed, "building lib"), "exit_code", 2)
			}
			return nil
		}).
		Times(2)
	f.logger.EXPECT().Warn("lib: recipe exited with status 2")

	summary, err := f.app.Build(context.Background(), app.BuildOptions{
		Makefile:  "Makefile",
		Output:    "auto",
		NoJournal: true,
	})

	require.NoError(t, err)
	assert.Equal(t, 2, summary.TargetsBuilt)
}

func TestApp_Build_StrictFailure(t *testing.T) {
	f := newFixture(t)
	g := newGraph(t, []string{"all", "lib"}, []string{"lib"})

	f.loader.EXPECT().Load("Makefile").Return(g, nil)
	f.expectDisplay("auto")
	f.executor.EXPECT().
		Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(zerr.With(zerr.Wrap(domain.ErrRecipeFailed, "building lib"), "exit_code", 1))
	f.journal.EXPECT().Open("journal.json").Return(f.store, nil)
	f.hasher.EXPECT().HashFile("Makefile").Return("", errors.New("gone"))
	f.logger.EXPECT().Warn("hashing build description: gone")

	var records []domain.BuildRecord
	f.store.EXPECT().Put(gomock.Any()).DoAndReturn(func(recs ...domain.BuildRecord) error {
		records = recs
		return nil
	})

	_, err := f.app.Build(context.Background(), app.BuildOptions{
		Makefile: "Makefile",
		Output:   "auto",
		Strict:   true,
		Journal:  "journal.json",
	})

	require.ErrorIs(t, err, domain.ErrBuildExecutionFailed)
	assert.NotContains(t, f.out.String(), "Built")
	require.Len(t, records, 2)
	assert.Equal(t, domain.UnitStatusFailed, records[0].Status)
	assert.Equal(t, domain.UnitStatusSkipped, records[1].Status)
}

func TestApp_Build_JournalErrorIsLogged(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load("Makefile").Return(newGraph(t, []string{"all"}), nil)
	f.expectDisplay("auto")
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.journal.EXPECT().Open("journal.json").Return(nil, domain.ErrJournalRead)
	f.logger.EXPECT().Error(domain.ErrJournalRead)

	_, err := f.app.Build(context.Background(), app.BuildOptions{
		Makefile: "Makefile",
		Output:   "auto",
		Journal:  "journal.json",
	})

	require.NoError(t, err)
}

func TestApp_PrintGraph(t *testing.T) {
	f := newFixture(t)
	g := newGraph(t, []string{"A", "B", "C"}, []string{"B"}, []string{"C"})
	f.loader.EXPECT().Load("Makefile").Return(g, nil)

	require.NoError(t, f.app.PrintGraph("Makefile"))

	assert.Equal(t, `{
  "A": [
    "B",
    "C"
  ],
  "B": [],
  "C": []
}
`, f.out.String())
}

func TestApp_History(t *testing.T) {
	f := newFixture(t)
	finished := time.Date(2026, 5, 1, 10, 0, 0, 0, time.Local)

	f.journal.EXPECT().Open("journal.json").Return(f.store, nil)
	f.store.EXPECT().List().Return([]domain.BuildRecord{
		{Target: "all", Status: domain.UnitStatusCompleted, Duration: 1500 * time.Millisecond, FinishedAt: finished, SourceHash: "new"},
		{Target: "lib", Status: domain.UnitStatusFailed, ExitCode: 2, FinishedAt: finished, SourceHash: "old"},
	}, nil)
	f.hasher.EXPECT().HashFile("Makefile").Return("new", nil)

	require.NoError(t, f.app.History("Makefile", "journal.json"))

	out := f.out.String()
	assert.Contains(t, out, "TARGET")
	assert.Regexp(t, `all\s+completed\s+0\s+1.5s\s+2026-05-01 10:00:00\s+unchanged`, out)
	assert.Regexp(t, `lib\s+failed\s+2\s+0s\s+2026-05-01 10:00:00\s+changed`, out)
}

func TestApp_History_Empty(t *testing.T) {
	f := newFixture(t)
	f.journal.EXPECT().Open("journal.json").Return(f.store, nil)
	f.store.EXPECT().List().Return(nil, nil)

	require.NoError(t, f.app.History("Makefile", "journal.json"))

	assert.Equal(t, "No builds recorded.\n", f.out.String())
}
