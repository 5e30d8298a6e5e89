package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/JonMunkholm/statsetl/internal/etl"
	"github.com/JonMunkholm/statsetl/internal/load"
	"github.com/JonMunkholm/statsetl/internal/validation"
)

var (
	_ load.Observer   = (*Metrics)(nil)
	_ etl.RunObserver = (*Metrics)(nil)
)

func TestUnitLoaded(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.UnitLoaded(load.LoadResult{Success: true, RowsCreated: 21, Duration: 40 * time.Millisecond})
	m.UnitLoaded(load.LoadResult{Success: false, FailedStage: load.StageCheckDuplicate, Err: load.ErrMatchExists})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.UnitsTotal.WithLabelValues("success", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UnitsTotal.WithLabelValues("error", string(load.StageCheckDuplicate))))
	assert.Equal(t, 21.0, testutil.ToFloat64(m.RowsCreatedTotal))
}

func TestRunFinished(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RunFinished(etl.Result{
		Success: false,
		Warnings: []validation.Issue{
			{Layer: validation.LayerCrossField, Code: validation.CodeTotalMismatch},
		},
		Errors: []validation.Issue{{
			Layer: etl.LayerETL,
			Code:  etl.CodeSheetRejected,
			Details: []validation.Issue{
				{Layer: validation.LayerBusinessRule, Code: validation.CodeRedCards},
			},
		}},
		DurationMs: 1500,
	})
	m.RunFinished(etl.Result{Success: true, DryRun: true})
	m.RunFinished(etl.Result{Cancelled: true})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("error", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("success", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("cancelled", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IssuesTotal.WithLabelValues("cross_field", "CRS001", "warning")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IssuesTotal.WithLabelValues("etl", "ETL001", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IssuesTotal.WithLabelValues("business_rule", "BUS001", "error")))
}

func TestNew_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	assert.Panics(t, func() { New(reg) })
}
