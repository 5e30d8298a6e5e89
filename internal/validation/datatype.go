package validation

import (
	"errors"

	"github.com/JonMunkholm/statsetl/internal/stats"
)

// CheckDataTypes validates every numeric cell in player and team rows
// against its catalog kind. Blank cells are treated as zero and accepted.
func CheckDataTypes(rec *stats.RawSheetRecord, cfg Config) Result {
	var r Result
	for _, row := range rec.PlayerRows {
		checkRowTypes(&r, playerContext(rec, row), row, stats.PlayerFields, cfg.CountMax, cfg)
	}
	for _, row := range rec.TeamRows {
		checkRowTypes(&r, teamContext(rec, row), row, stats.TeamFields, cfg.TeamCountMax, cfg)
	}
	return r
}

func checkRowTypes(r *Result, base Context, row stats.RawRow, specs []stats.FieldSpec,
	countMax func(key string) float64, cfg Config) {
	for _, spec := range specs {
		if spec.Kind == stats.KindText {
			continue
		}
		raw := row.Cell(spec.Key)
		v, err := stats.ParseValue(spec.Kind, raw)
		if errors.Is(err, stats.ErrBlank) {
			continue
		}
		ctx := base.WithField(spec.Key)
		if err != nil {
			r.AddError(LayerDataType, CodeNotNumeric, ctx, "%q is not a valid %s: %v", raw, spec.Kind, err)
			continue
		}

		switch spec.Kind {
		case stats.KindCount:
			checkCount(r, ctx, v, countMax(spec.Key))
		case stats.KindPercentage:
			checkPercentage(r, ctx, v, cfg)
		}
	}
}

func checkCount(r *Result, ctx Context, v, limit float64) {
	if v < 0 {
		r.AddError(LayerDataType, CodeNegative, ctx, "count %g must not be negative", v)
		return
	}
	if v > limit {
		r.AddWarning(LayerDataType, CodeCountHigh, ctx, "count %g exceeds expected maximum %g", v, limit)
	}
}

func checkPercentage(r *Result, ctx Context, v float64, cfg Config) {
	switch {
	case v < 0:
		r.AddError(LayerDataType, CodePercentRange, ctx, "percentage %g must not be negative", v)
	case v > cfg.PercentageMax+1e-9:
		r.AddError(LayerDataType, CodePercentRange, ctx, "percentage %g exceeds %g", v, cfg.PercentageMax)
	case v > 1+1e-9:
		r.AddWarning(LayerDataType, CodePercentRounding, ctx, "percentage %g above 1.0 within rounding tolerance", v)
	}
}
