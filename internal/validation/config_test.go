package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/statsetl/internal/stats"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 2.0, cfg.CountTolerance)
	assert.Equal(t, 1.05, cfg.PercentageMax)
	assert.Equal(t, 100.0, cfg.CountMax("saves"))
	assert.Equal(t, 5.0, cfg.CountMax(stats.FieldYellowCards))
	assert.Equal(t, 2.0, cfg.CountMax(stats.FieldRedCards))
	assert.Equal(t, 100.0, cfg.TeamCountMax(stats.FieldTeamRedCards))
	assert.Equal(t, 100.0, cfg.TeamCountMax(stats.FieldTeamYellowCards))
}

func TestParseConfig_TeamFieldMax(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
team_field_max:
  yellow_cards: 12
`))
	require.NoError(t, err)
	assert.Equal(t, 12.0, cfg.TeamCountMax(stats.FieldTeamYellowCards))
	assert.Equal(t, 5.0, cfg.CountMax(stats.FieldYellowCards))

	_, err = ParseConfig([]byte("team_field_max:\n  red_cards: 0\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "team_field_max.red_cards")
}

func TestParseConfig_OverridesKeepDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
home_team: Kilrea
count_tolerance: 3
field_max:
  saves: 40
`))
	require.NoError(t, err)

	assert.Equal(t, "Kilrea", cfg.HomeTeam)
	assert.Equal(t, 3.0, cfg.CountTolerance)
	assert.Equal(t, 0.05, cfg.RatioTolerance)
	assert.Equal(t, 40.0, cfg.CountMax("saves"))
	assert.Equal(t, 2.0, cfg.CountMax(stats.FieldRedCards))
	assert.Equal(t, 90, cfg.MaxMinutes)
}

func TestParseConfig_Invalid(t *testing.T) {
	_, err := ParseConfig([]byte("percentage_max: 0.9\nmin_players: 40\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "percentage_max")
	assert.Contains(t, err.Error(), "min_players")

	_, err = ParseConfig([]byte("count_tolerance: [1, 2]"))
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	path := filepath.Join(t.TempDir(), "thresholds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_minutes: 70\n"), 0o600))
	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 70, cfg.MaxMinutes)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
