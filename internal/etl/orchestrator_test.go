package etl_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/statsetl/internal/etl"
	"github.com/JonMunkholm/statsetl/internal/load"
	"github.com/JonMunkholm/statsetl/internal/stats"
	"github.com/JonMunkholm/statsetl/internal/stats/statstest"
	"github.com/JonMunkholm/statsetl/internal/store/memory"
	"github.com/JonMunkholm/statsetl/internal/validation"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// staticReader returns the same sheets for every path.
type staticReader struct {
	sheets []stats.RawSheetRecord
	err    error
}

func (r staticReader) Read(string) ([]stats.RawSheetRecord, error) {
	if r.err != nil {
		return nil, r.err
	}
	// callers may mutate records, so hand out copies
	return append([]stats.RawSheetRecord(nil), r.sheets...), nil
}

func sheets(recs ...*stats.RawSheetRecord) staticReader {
	out := make([]stats.RawSheetRecord, len(recs))
	for i, r := range recs {
		out[i] = *r
	}
	return staticReader{sheets: out}
}

func batchSheet(number int) *stats.RawSheetRecord {
	return statstest.NamedSheet(fmt.Sprintf("%02d. League vs %s %02d.09.25", number, statstest.Opponent, number))
}

func newOrchestrator(reader etl.SheetReader, loader etl.UnitLoader) *etl.Orchestrator {
	return etl.NewOrchestrator(reader, validation.NewPipeline(validation.DefaultConfig()), loader, quietLogger())
}

func newStoreLoader(store load.Store) *load.Loader {
	return load.NewLoader(store, load.WithLogger(quietLogger()))
}

func codes(issues []validation.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, is := range issues {
		out = append(out, is.Code)
	}
	return out
}

func TestProcess_ConcreteExample(t *testing.T) {
	store := memory.New()
	orch := newOrchestrator(sheets(statstest.Sheet()), newStoreLoader(store))

	res := orch.Process(context.Background(), "stats.xlsx")

	require.True(t, res.Success, "errors: %v", res.Errors)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, 1, res.SheetsRead)
	assert.Equal(t, 1, res.UnitsProcessed)
	// season + competition + 2 teams + 20 players + match + 6 periods + 20 player rows
	assert.Equal(t, 51, res.RowsCreated)

	c := store.Counts()
	assert.Equal(t, 1, c.Matches)
	assert.Equal(t, statstest.Players, c.Players)
	assert.Equal(t, stats.TeamRowsPerMatch, c.TeamPeriods)
	assert.Equal(t, []int{9}, store.MatchNumbers())

	var names []string
	for _, team := range store.Teams() {
		names = append(names, team.Name)
	}
	assert.ElementsMatch(t, []string{"Drum", "Slaughtmanus"}, names)
}

func TestProcess_RejectedSheetDoesNotBlockOthers(t *testing.T) {
	store := memory.New()
	broken := batchSheet(2)
	broken.TeamRows = nil
	orch := newOrchestrator(sheets(batchSheet(1), broken, batchSheet(3)), newStoreLoader(store))

	res := orch.Process(context.Background(), "batch.xlsx")

	assert.False(t, res.Success)
	assert.Equal(t, 2, res.UnitsProcessed)
	require.Len(t, res.Errors, 1)
	e := res.Errors[0]
	assert.Equal(t, etl.CodeSheetRejected, e.Code)
	assert.Contains(t, e.Message, "match 2")
	assert.Equal(t, broken.SheetName, e.Context.Sheet)
	assert.Contains(t, codes(e.Details), validation.CodeTeamRowCount)
	assert.Equal(t, []int{1, 3}, store.MatchNumbers())
}

func TestProcess_SecondLoadIsIdempotent(t *testing.T) {
	store := memory.New()
	orch := newOrchestrator(sheets(statstest.Sheet()), newStoreLoader(store))

	first := orch.Process(context.Background(), "stats.xlsx")
	require.True(t, first.Success)
	before := store.Counts()

	second := orch.Process(context.Background(), "stats.xlsx")

	assert.False(t, second.Success)
	assert.Zero(t, second.UnitsProcessed)
	assert.Zero(t, second.RowsCreated)
	require.Len(t, second.Errors, 1)
	assert.Equal(t, "DB001", second.Errors[0].Code)
	assert.Equal(t, etl.LayerLoad, second.Errors[0].Layer)
	assert.Contains(t, second.Errors[0].Message, "already exists")
	assert.Equal(t, before, store.Counts())
}

func TestProcess_WarningsDoNotAffectSuccess(t *testing.T) {
	rec := statstest.Sheet()
	statstest.FindPlayer(rec, 10).Cells[stats.FieldAssistsTotal] = "4"
	orch := newOrchestrator(sheets(rec), newStoreLoader(memory.New()))

	res := orch.Process(context.Background(), "stats.xlsx")

	assert.True(t, res.Success)
	assert.Equal(t, 1, res.UnitsProcessed)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, validation.CodeTotalMismatch, res.Warnings[0].Code)
	assert.Equal(t, stats.FieldAssistsTotal, res.Warnings[0].Context.Field)
}

func TestProcess_BusinessRuleRejects(t *testing.T) {
	store := memory.New()
	rec := statstest.Sheet()
	statstest.FindPlayer(rec, 4).Cells[stats.FieldRedCards] = "2"
	orch := newOrchestrator(sheets(rec), newStoreLoader(store))

	res := orch.Process(context.Background(), "stats.xlsx")

	assert.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, codes(res.Errors[0].Details), validation.CodeRedCards)
	assert.Zero(t, store.Counts().Total())
}

func TestProcess_ReadFailure(t *testing.T) {
	orch := newOrchestrator(staticReader{err: errors.New("zip: not a valid zip file")}, newStoreLoader(memory.New()))

	res := orch.Process(context.Background(), "broken.xlsx")

	assert.False(t, res.Success)
	assert.Equal(t, []string{etl.CodeReadFailed}, codes(res.Errors))
	assert.Contains(t, res.Errors[0].Message, "not a valid zip")
}

func TestProcess_NoMatchSheets(t *testing.T) {
	orch := newOrchestrator(staticReader{}, newStoreLoader(memory.New()))

	res := orch.Process(context.Background(), "empty.xlsx")

	assert.False(t, res.Success)
	assert.Equal(t, []string{etl.CodeNoSheets}, codes(res.Errors))
}

// cancellingLoader cancels the run after the first unit it loads.
type cancellingLoader struct {
	inner  etl.UnitLoader
	cancel context.CancelFunc
}

func (l cancellingLoader) LoadUnit(ctx context.Context, unit stats.MatchUnit) load.LoadResult {
	res := l.inner.LoadUnit(ctx, unit)
	l.cancel()
	return res
}

func TestProcess_CancelledBetweenSheets(t *testing.T) {
	store := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loader := cancellingLoader{inner: newStoreLoader(store), cancel: cancel}
	orch := newOrchestrator(sheets(batchSheet(1), batchSheet(2), batchSheet(3)), loader)

	res := orch.Process(ctx, "batch.xlsx")

	assert.True(t, res.Cancelled)
	assert.False(t, res.Success)
	// the unit in flight when cancel fired still committed
	assert.Equal(t, 1, res.UnitsProcessed)
	assert.Equal(t, []int{1}, store.MatchNumbers())
	require.Len(t, res.Errors, 1)
	assert.Equal(t, etl.CodeCancelled, res.Errors[0].Code)
	assert.Contains(t, res.Errors[0].Message, "after 1 of 3 sheets")
}

func TestProcess_UnitFailureRollsBackOnlyThatUnit(t *testing.T) {
	store := memory.New()
	store.FailNext("InsertPlayerStatistics", errors.New("connection reset by peer"))
	orch := newOrchestrator(sheets(batchSheet(1), batchSheet(2)), newStoreLoader(store))

	res := orch.Process(context.Background(), "batch.xlsx")

	assert.False(t, res.Success)
	assert.Equal(t, 1, res.UnitsProcessed)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "DB004", res.Errors[0].Code)
	assert.Contains(t, res.Errors[0].Message, "match 1")
	assert.Equal(t, []int{2}, store.MatchNumbers())
}

func TestDryRun(t *testing.T) {
	store := memory.New()
	orch := newOrchestrator(sheets(statstest.Sheet()), newStoreLoader(store))

	res := orch.DryRun(context.Background(), "stats.xlsx")

	assert.True(t, res.Success)
	assert.True(t, res.DryRun)
	assert.Equal(t, 1, res.UnitsValid)
	assert.Zero(t, res.UnitsProcessed)
	assert.Zero(t, store.Counts().Total())
}

func TestRun_ReportsProgress(t *testing.T) {
	orch := newOrchestrator(sheets(batchSheet(1), batchSheet(2)), newStoreLoader(memory.New()))

	var phases []etl.RunPhase
	var last etl.Progress
	orch.Run(context.Background(), "batch.xlsx", false, func(p etl.Progress) {
		phases = append(phases, p.Phase)
		last = p
	})

	assert.Equal(t, []etl.RunPhase{
		etl.PhaseReading,
		etl.PhaseValidating, etl.PhaseLoading,
		etl.PhaseValidating, etl.PhaseLoading,
		etl.PhaseComplete,
	}, phases)
	assert.Equal(t, 2, last.SheetsDone)
	assert.Equal(t, 2, last.UnitsProcessed)
}

func TestLoadUnits(t *testing.T) {
	store := memory.New()
	orch := newOrchestrator(staticReader{}, newStoreLoader(store))
	units := []stats.MatchUnit{
		statstest.Unit(1, "League", "Kilrea", 3),
		statstest.Unit(2, "League", "Kilrea", 3),
		statstest.Unit(1, "League", "Kilrea", 3),
	}

	res := orch.LoadUnits(context.Background(), units)

	assert.False(t, res.Success)
	assert.Equal(t, 2, res.UnitsProcessed)
	assert.Equal(t, []string{"DB001"}, codes(res.Errors))
	assert.Equal(t, 2, store.Counts().Matches)
}
