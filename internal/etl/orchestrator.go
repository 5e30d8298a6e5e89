package etl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/statsetl/internal/load"
	"github.com/JonMunkholm/statsetl/internal/logging"
	"github.com/JonMunkholm/statsetl/internal/stats"
	"github.com/JonMunkholm/statsetl/internal/validation"
)

// SheetReader reads the match sheets of a workbook.
type SheetReader interface {
	Read(path string) ([]stats.RawSheetRecord, error)
}

// UnitLoader persists one match unit atomically.
type UnitLoader interface {
	LoadUnit(ctx context.Context, unit stats.MatchUnit) load.LoadResult
}

// Progress is a snapshot reported while a run advances.
type Progress struct {
	Phase          RunPhase
	Sheet          string
	SheetsTotal    int
	SheetsDone     int
	UnitsProcessed int
	RowsCreated    int
}

// ProgressFunc receives progress snapshots. It is called on the run goroutine.
type ProgressFunc func(Progress)

// Orchestrator reads, validates, transforms and loads workbooks.
//
// A run handles one sheet at a time. A sheet with validation errors is
// reported and skipped; other sheets still load. A unit that fails to load
// rolls back alone. Cancellation is checked between sheets, never inside a
// unit transaction.
type Orchestrator struct {
	reader   SheetReader
	pipeline *validation.Pipeline
	loader   UnitLoader
	logger   *slog.Logger
}

// NewOrchestrator wires the run stages. A nil logger uses slog.Default.
func NewOrchestrator(reader SheetReader, pipeline *validation.Pipeline, loader UnitLoader, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		reader:   reader,
		pipeline: pipeline,
		loader:   loader,
		logger:   logger,
	}
}

// Process loads every match sheet of the workbook at path.
func (o *Orchestrator) Process(ctx context.Context, path string) Result {
	return o.Run(ctx, path, false, nil)
}

// DryRun validates and transforms every match sheet without loading.
func (o *Orchestrator) DryRun(ctx context.Context, path string) Result {
	return o.Run(ctx, path, true, nil)
}

// Run reads the workbook at path and processes its sheets, reporting
// progress to onProgress when it is non-nil.
func (o *Orchestrator) Run(ctx context.Context, path string, dryRun bool, onProgress ProgressFunc) Result {
	start := time.Now()
	report := func(p Progress) {
		if onProgress != nil {
			onProgress(p)
		}
	}

	report(Progress{Phase: PhaseReading})
	sheets, err := o.reader.Read(path)
	if err != nil {
		res := newResult(dryRun)
		res.addError(LayerETL, CodeReadFailed, validation.Context{}, "read workbook: %v", err)
		res.finish()
		res.DurationMs = time.Since(start).Milliseconds()
		logging.Enrich(ctx, o.logger).Error("workbook read failed", "path", path, "error", err)
		return res
	}

	res := o.ProcessSheets(ctx, sheets, dryRun, onProgress)
	res.DurationMs = time.Since(start).Milliseconds()
	return res
}

// ProcessSheets validates sheets and loads the ones that pass.
func (o *Orchestrator) ProcessSheets(ctx context.Context, sheets []stats.RawSheetRecord, dryRun bool, onProgress ProgressFunc) Result {
	start := time.Now()
	logger := logging.Enrich(ctx, o.logger)
	res := newResult(dryRun)
	res.SheetsRead = len(sheets)
	progress := Progress{SheetsTotal: len(sheets)}
	report := func(phase RunPhase, sheet string) {
		if onProgress == nil {
			return
		}
		progress.Phase = phase
		progress.Sheet = sheet
		progress.UnitsProcessed = res.UnitsProcessed
		progress.RowsCreated = res.RowsCreated
		onProgress(progress)
	}

	if len(sheets) == 0 {
		res.addError(LayerETL, CodeNoSheets, validation.Context{},
			"workbook has no match sheets named like \"NN. Competition vs Opponent DD.MM.YY\"")
	}

	for i := range sheets {
		rec := &sheets[i]
		if err := ctx.Err(); err != nil {
			res.Cancelled = true
			res.addError(LayerETL, CodeCancelled, validation.Context{},
				"run cancelled after %d of %d sheets: %v", i, len(sheets), err)
			logger.Warn("run cancelled", "sheets_done", i, "sheets_total", len(sheets))
			break
		}

		report(PhaseValidating, rec.SheetName)
		unit, ok := o.prepare(logger, rec, &res)
		progress.SheetsDone = i + 1
		if !ok {
			continue
		}
		res.UnitsValid++
		if dryRun {
			continue
		}

		report(PhaseLoading, rec.SheetName)
		o.loadUnit(ctx, unit, &res)
	}

	res.finish()
	res.DurationMs = time.Since(start).Milliseconds()
	report(finalPhase(res), "")

	logger.Info("run finished",
		"dry_run", dryRun,
		"success", res.Success,
		"sheets", res.SheetsRead,
		"units_processed", res.UnitsProcessed,
		"rows", res.RowsCreated,
		"warnings", len(res.Warnings),
		"errors", len(res.Errors),
		"duration_ms", res.DurationMs,
	)
	return res
}

// prepare validates one sheet and builds its unit. A rejected sheet adds one
// ETL001 error whose details carry the validation errors.
func (o *Orchestrator) prepare(logger *slog.Logger, rec *stats.RawSheetRecord, res *Result) (stats.MatchUnit, bool) {
	vr := o.pipeline.Validate(rec)
	res.Warnings = append(res.Warnings, vr.Warnings...)
	sheet := validation.Context{Sheet: rec.SheetName}

	if !vr.IsValid() {
		issue := res.addError(LayerETL, CodeSheetRejected, sheet, "%s rejected with %d validation error(s): %s",
			describeSheet(rec), len(vr.Errors), vr.Errors[0].Message)
		issue.Details = vr.Errors
		logger.Warn("sheet rejected",
			"sheet", rec.SheetName,
			"errors", len(vr.Errors),
			"warnings", len(vr.Warnings),
			"first_code", vr.Errors[0].Code,
		)
		return stats.MatchUnit{}, false
	}

	unit, err := BuildUnit(rec, o.pipeline.Config().HomeTeam)
	if err != nil {
		res.addError(LayerETL, CodeTransform, sheet, "%s could not be converted: %v", describeSheet(rec), err)
		logger.Error("sheet transform failed", "sheet", rec.SheetName, "error", err)
		return stats.MatchUnit{}, false
	}
	return unit, true
}

func (o *Orchestrator) loadUnit(ctx context.Context, unit stats.MatchUnit, res *Result) {
	lr := o.loader.LoadUnit(ctx, unit)
	if lr.Success {
		res.UnitsProcessed++
		res.RowsCreated += lr.RowsCreated
		return
	}
	msg := MapError(lr.Err)
	res.addError(LayerLoad, msg.Code, validation.Context{Sheet: unit.Match.SheetName},
		"match %d: %v", unit.Match.Number, lr.Err)
}

// LoadUnits loads already-transformed units in order. Cancellation is
// checked between units.
func (o *Orchestrator) LoadUnits(ctx context.Context, units []stats.MatchUnit) Result {
	start := time.Now()
	res := newResult(false)
	res.UnitsValid = len(units)

	for i, unit := range units {
		if err := ctx.Err(); err != nil {
			res.Cancelled = true
			res.addError(LayerETL, CodeCancelled, validation.Context{},
				"run cancelled after %d of %d units: %v", i, len(units), err)
			break
		}
		o.loadUnit(ctx, unit, &res)
	}

	res.finish()
	res.DurationMs = time.Since(start).Milliseconds()
	return res
}

func describeSheet(rec *stats.RawSheetRecord) string {
	if rec.MatchErr != nil {
		return fmt.Sprintf("sheet %q", rec.SheetName)
	}
	return fmt.Sprintf("match %d (%s)", rec.Match.Number, rec.SheetName)
}

// finalPhase is complete when every sheet was handled, even if some were
// rejected; failed means nothing could be processed at all.
func finalPhase(res Result) RunPhase {
	switch {
	case res.Cancelled:
		return PhaseCancelled
	case res.SheetsRead == 0 && !res.Success:
		return PhaseFailed
	default:
		return PhaseComplete
	}
}
