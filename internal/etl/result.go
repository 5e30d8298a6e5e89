package etl

import (
	"fmt"

	"github.com/JonMunkholm/statsetl/internal/validation"
)

// Layers for issues raised outside the validation pipeline.
const (
	LayerETL  validation.Layer = "etl"
	LayerLoad validation.Layer = "load"
)

// ETL issue codes.
const (
	CodeSheetRejected = "ETL001" // a sheet failed validation and was not loaded
	CodeReadFailed    = "ETL002" // the workbook could not be read
	CodeTransform     = "ETL003" // a validated sheet could not be converted to a unit
	CodeCancelled     = "ETL004" // the run stopped before every sheet was handled
	CodeNoSheets      = "ETL005" // the workbook holds no match sheets
)

// Result summarises one run.
type Result struct {
	Success        bool               `json:"success"`
	DryRun         bool               `json:"dryRun,omitempty"`
	Cancelled      bool               `json:"cancelled,omitempty"`
	SheetsRead     int                `json:"sheetsRead"`
	UnitsValid     int                `json:"unitsValid"`
	UnitsProcessed int                `json:"unitsProcessed"`
	RowsCreated    int                `json:"rowsCreated"`
	Warnings       []validation.Issue `json:"warnings"`
	Errors         []validation.Issue `json:"errors"`
	DurationMs     int64              `json:"durationMs"`
}

func newResult(dryRun bool) Result {
	return Result{
		DryRun:   dryRun,
		Warnings: []validation.Issue{},
		Errors:   []validation.Issue{},
	}
}

func (r *Result) addError(layer validation.Layer, code string, ctx validation.Context, format string, args ...any) *validation.Issue {
	r.Errors = append(r.Errors, validation.Issue{
		Layer:   layer,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Context: ctx,
	})
	return &r.Errors[len(r.Errors)-1]
}

// finish sets Success. Warnings never affect it.
func (r *Result) finish() {
	r.Success = len(r.Errors) == 0
}
