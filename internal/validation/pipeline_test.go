package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/statsetl/internal/stats"
	"github.com/JonMunkholm/statsetl/internal/stats/statstest"
)

func codes(issues []Issue) []string {
	out := make([]string, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Code)
	}
	return out
}

func TestPipeline_CleanSheet(t *testing.T) {
	p := NewPipeline(DefaultConfig())
	result := p.Validate(statstest.Sheet())

	assert.True(t, result.IsValid(), "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings, "warnings: %v", result.Warnings)
}

func TestPipeline_TotalOffByThree(t *testing.T) {
	rec := statstest.Sheet()
	row := statstest.FindPlayer(rec, 12)
	require.NotNil(t, row)
	row.Cells[stats.FieldAssistsTotal] = "4" // breakdown sums to 1

	result := NewPipeline(DefaultConfig()).Validate(rec)

	require.True(t, result.IsValid())
	require.Len(t, result.Warnings, 1)
	w := result.Warnings[0]
	assert.Equal(t, LayerCrossField, w.Layer)
	assert.Equal(t, CodeTotalMismatch, w.Code)
	assert.Equal(t, stats.FieldAssistsTotal, w.Context.Field)
	assert.Equal(t, 12, w.Context.Jersey)
	assert.Equal(t, statstest.PlayerName(12), w.Context.Player)
	assert.Equal(t, statstest.SheetName, w.Context.Sheet)
	assert.Contains(t, w.Message, stats.FieldAssistsTotal)
}

func TestPipeline_TotalWithinTolerance(t *testing.T) {
	rec := statstest.Sheet()
	statstest.FindPlayer(rec, 12).Cells[stats.FieldAssistsTotal] = "3" // off by two

	result := NewPipeline(DefaultConfig()).Validate(rec)
	assert.Empty(t, result.Warnings)
}

func TestPipeline_TwoRedCards(t *testing.T) {
	rec := statstest.Sheet()
	statstest.FindPlayer(rec, 4).Cells[stats.FieldRedCards] = "2"

	result := NewPipeline(DefaultConfig()).Validate(rec)

	require.False(t, result.IsValid())
	require.Len(t, result.Errors, 1)
	e := result.Errors[0]
	assert.Equal(t, LayerBusinessRule, e.Layer)
	assert.Equal(t, CodeRedCards, e.Code)
	assert.Contains(t, e.Message, "maximum 1 per match")
	assert.Equal(t, 4, e.Context.Jersey)
	assert.Equal(t, stats.FieldRedCards, e.Context.Field)
}

func TestPipeline_StructureShortCircuits(t *testing.T) {
	rec := statstest.NamedSheet("Championship vs Slaughtmanus")
	statstest.FindPlayer(rec, 3).Cells[stats.FieldRedCards] = "3"

	result := NewPipeline(DefaultConfig()).Validate(rec)

	require.False(t, result.IsValid())
	for _, e := range result.Errors {
		assert.Equal(t, LayerStructure, e.Layer)
	}
	assert.Contains(t, codes(result.Errors), CodeSheetName)
	assert.NotContains(t, codes(result.Errors), CodeRedCards)
}

func TestPipeline_IdentificationShortCircuits(t *testing.T) {
	rec := statstest.Sheet()
	statstest.FindPlayer(rec, 5).Cells[stats.FieldPlayerName] = ""
	statstest.FindPlayer(rec, 6).Cells[stats.FieldRedCards] = "2"

	result := NewPipeline(DefaultConfig()).Validate(rec)

	assert.Equal(t, []string{CodePlayerName}, codes(result.Errors))
	assert.Empty(t, result.Warnings)
}

func TestPipeline_EmptyTeamStatistics(t *testing.T) {
	rec := statstest.Sheet()
	rec.TeamRows = nil

	result := NewPipeline(DefaultConfig()).Validate(rec)

	require.False(t, result.IsValid())
	assert.Equal(t, []string{CodeTeamRowCount}, codes(result.Errors))
}

func TestPipeline_ThresholdsAreInjected(t *testing.T) {
	rec := statstest.Sheet()
	statstest.FindPlayer(rec, 12).Cells[stats.FieldAssistsTotal] = "4"

	cfg := DefaultConfig()
	cfg.CountTolerance = 5
	result := NewPipeline(cfg).Validate(rec)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, 5.0, NewPipeline(cfg).Config().CountTolerance)
}

func TestResultMerge(t *testing.T) {
	var a, b Result
	a.AddError(LayerStructure, "A1", Context{}, "first")
	b.AddError(LayerDataType, "B1", Context{}, "second")
	b.AddWarning(LayerDataType, "B2", Context{}, "warn")

	a.Merge(b)
	assert.Equal(t, []string{"A1", "B1"}, codes(a.Errors))
	assert.Equal(t, []string{"B2"}, codes(a.Warnings))
	assert.False(t, a.IsValid())
}

func TestIssueError(t *testing.T) {
	i := Issue{
		Code:    CodeRedCards,
		Message: "2 red cards, maximum 1 per match",
		Context: Context{Sheet: "S", Row: 4, Jersey: 7, Player: "Sean", Field: "red_cards"},
	}
	assert.Equal(t, `BUS001: 2 red cards, maximum 1 per match (sheet "S", row 4, #7 Sean, field red_cards)`, i.Error())
	assert.Equal(t, "X: m", Issue{Code: "X", Message: "m"}.Error())
}
