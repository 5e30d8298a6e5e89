package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSheetName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    MatchMetadata
		wantErr bool
	}{
		{
			name:  "championship fixture",
			input: "09. Championship vs Slaughtmanus 26.09.25",
			want: MatchMetadata{
				Number:      9,
				Competition: "Championship",
				Opponent:    "Slaughtmanus",
				Date:        time.Date(2025, time.September, 26, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name:  "four digit year and dotted vs",
			input: "1. League Division 2 vs. Na Magha 02.03.2024",
			want: MatchMetadata{
				Number:      1,
				Competition: "League Division 2",
				Opponent:    "Na Magha",
				Date:        time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name:  "extra whitespace collapsed",
			input: "  12.   Ulster  Club   vs   Kilrea   5.7.25 ",
			want: MatchMetadata{
				Number:      12,
				Competition: "Ulster Club",
				Opponent:    "Kilrea",
				Date:        time.Date(2025, time.July, 5, 0, 0, 0, 0, time.UTC),
			},
		},
		{name: "missing vs", input: "09. Championship Slaughtmanus 26.09.25", wantErr: true},
		{name: "missing date", input: "09. Championship vs Slaughtmanus", wantErr: true},
		{name: "impossible date", input: "09. Championship vs Slaughtmanus 31.02.25", wantErr: true},
		{name: "zero match number", input: "00. Championship vs Slaughtmanus 26.09.25", wantErr: true},
		{name: "summary sheet", input: "Summary", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSheetName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Date.Year(), got.Season())
		})
	}
}

func TestIsMatchSheet(t *testing.T) {
	assert.True(t, IsMatchSheet("09. Championship vs Slaughtmanus 26.09.25"))
	assert.True(t, IsMatchSheet("3.bad name"))
	assert.False(t, IsMatchSheet("Summary"))
	assert.False(t, IsMatchSheet("Template"))
}

func TestNewRawSheetRecord(t *testing.T) {
	rec := NewRawSheetRecord("Summary")
	assert.Error(t, rec.MatchErr)
	assert.NotNil(t, rec.FieldMap)

	rec = NewRawSheetRecord("09. Championship vs Slaughtmanus 26.09.25")
	require.NoError(t, rec.MatchErr)
	assert.Equal(t, 9, rec.Match.Number)
}

func TestRawRow(t *testing.T) {
	row := RawRow{Line: 4, Cells: map[string]string{
		FieldPlayerName: "  Sean  ",
		FieldJersey:     `="7"`,
		FieldMinutes:    "",
	}}

	assert.Equal(t, "Sean", row.Cell(FieldPlayerName))
	assert.Equal(t, "7", row.Cell(FieldJersey))
	assert.True(t, row.Has(FieldJersey))
	assert.False(t, row.Has(FieldMinutes))
	assert.False(t, row.Has("missing"))
	assert.False(t, row.IsEmpty())

	blank := RawRow{Cells: map[string]string{"a": " ", "b": " "}}
	assert.True(t, blank.IsEmpty())
	assert.Equal(t, "", RawRow{}.Cell("anything"))
}
