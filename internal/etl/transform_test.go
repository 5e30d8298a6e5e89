package etl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/statsetl/internal/stats"
	"github.com/JonMunkholm/statsetl/internal/stats/statstest"
)

func TestBuildUnit(t *testing.T) {
	unit, err := BuildUnit(statstest.Sheet(), " drum ")
	require.NoError(t, err)

	m := unit.Match
	assert.Equal(t, "Championship", m.Competition)
	assert.Equal(t, 2025, m.Season)
	assert.Equal(t, 9, m.Number)
	assert.Equal(t, "Slaughtmanus", m.Opponent)
	assert.Equal(t, time.Date(2025, time.September, 26, 0, 0, 0, 0, time.UTC), m.Date)
	assert.Equal(t, "drum", m.HomeTeam)
	assert.Equal(t, "1-11", m.HomeScore)
	assert.Equal(t, "0-9", m.AwayScore)
	assert.Equal(t, statstest.SheetName, m.SheetName)

	require.Len(t, unit.Players, statstest.Players)
	keeper := unit.Players[0]
	assert.Equal(t, 1, keeper.Jersey)
	assert.Equal(t, statstest.PlayerName(1), keeper.FullName)
	assert.Equal(t, stats.PositionGoalkeeper, keeper.Position)
	assert.Equal(t, 60, keeper.Minutes)
	assert.Equal(t, 3, keeper.Line)

	outfield := unit.Players[9]
	assert.Equal(t, 10.0, outfield.Value(stats.FieldTotalPossessions))
	assert.InDelta(t, 0.5, outfield.Value("attack_shot_pct"), 1e-9)
	assert.InDelta(t, 1.0, outfield.Value("hand_pass_pct"), 1e-9)
	assert.Equal(t, "0-1", outfield.Text[stats.FieldScore])

	require.Len(t, unit.Periods, stats.TeamRowsPerMatch)
	first := unit.Periods[0]
	assert.Equal(t, stats.PeriodFirstHalf, first.Period)
	assert.True(t, first.IsHome)
	assert.Equal(t, "drum", first.Team)
	assert.Equal(t, "0-6", first.Scoreline)
	assert.InDelta(t, 0.55, first.Value(stats.FieldTeamPossession), 1e-9)

	away := unit.Periods[3]
	assert.False(t, away.IsHome)
	assert.Equal(t, "Slaughtmanus", away.Team)
	assert.InDelta(t, 0.48, away.Value(stats.FieldTeamPossession), 1e-9)
}

func TestBuildUnit_ScorelineFromColumns(t *testing.T) {
	rec := statstest.Sheet()
	for i := range rec.TeamRows {
		delete(rec.TeamRows[i].Cells, stats.FieldTeamScoreline)
	}

	unit, err := BuildUnit(rec, statstest.HomeTeam)
	require.NoError(t, err)
	assert.Equal(t, "1-11", unit.Match.HomeScore)
	assert.Equal(t, "0-9", unit.Match.AwayScore)
}

func TestBuildUnit_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*stats.RawSheetRecord)
		wantErr string
	}{
		{
			name:    "bad sheet name",
			mutate:  func(r *stats.RawSheetRecord) { *r = stats.NewRawSheetRecord("Summary") },
			wantErr: "does not match",
		},
		{
			name:    "non-numeric statistic",
			mutate:  func(r *stats.RawSheetRecord) { statstest.FindPlayer(r, 5).Cells[stats.FieldTacklesTotal] = "lots" },
			wantErr: stats.FieldTacklesTotal,
		},
		{
			name:    "unknown team",
			mutate:  func(r *stats.RawSheetRecord) { r.TeamRows[1].Cells[stats.FieldTeam] = "Kilrea" },
			wantErr: "unknown team",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := statstest.Sheet()
			tt.mutate(rec)

			_, err := BuildUnit(rec, statstest.HomeTeam)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
