package stats

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columnName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

func TestCatalogKeysAreUniqueColumns(t *testing.T) {
	for name, specs := range map[string][]FieldSpec{
		"identity": IdentityFields,
		"player":   PlayerFields,
		"team":     TeamFields,
	} {
		t.Run(name, func(t *testing.T) {
			seen := make(map[string]bool)
			for _, spec := range specs {
				assert.Regexp(t, columnName, spec.Key)
				assert.False(t, seen[spec.Key], "duplicate key %s", spec.Key)
				seen[spec.Key] = true
			}
		})
	}
}

func TestPlayerCatalogSize(t *testing.T) {
	assert.GreaterOrEqual(t, len(PlayerFields)+len(IdentityFields), 80)
}

func TestRulesReferenceCatalog(t *testing.T) {
	for _, rule := range PlayerSumRules {
		spec, ok := PlayerField(rule.Total)
		require.True(t, ok, "sum total %s", rule.Total)
		assert.Equal(t, KindCount, spec.Kind)
		for _, part := range rule.Parts {
			spec, ok := PlayerField(part)
			require.True(t, ok, "sum part %s", part)
			assert.Equal(t, KindCount, spec.Kind)
		}
	}
	for _, rule := range PlayerRatioRules {
		spec, ok := PlayerField(rule.Percentage)
		require.True(t, ok, "ratio %s", rule.Percentage)
		assert.Equal(t, KindPercentage, spec.Kind)
		_, ok = PlayerField(rule.Denominator)
		assert.True(t, ok, "denominator %s", rule.Denominator)
		for _, n := range rule.Numerator {
			_, ok := PlayerField(n)
			assert.True(t, ok, "numerator %s", n)
		}
	}
	for _, key := range TeamPeriodSumFields {
		spec, ok := TeamField(key)
		require.True(t, ok, "team field %s", key)
		assert.Equal(t, KindCount, spec.Kind)
	}
}

func TestHeaderIndexResolve(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"#", FieldJersey, true},
		{"Jersey Number", FieldJersey, true},
		{"PLAYER", FieldPlayerName, true},
		{" Min ", FieldMinutes, true},
		{"minutes_played", FieldMinutes, true},
		{"KO Won", FieldKickoutsWon, true},
		{"Red Cards", FieldRedCards, true},
		{"Shot %", "shooting_efficiency", true},
		{"Nonsense", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, ok := PlayerHeaders.Resolve(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	key, ok := TeamHeaders.Resolve("Half")
	assert.True(t, ok)
	assert.Equal(t, FieldPeriod, key)
	key, ok = TeamHeaders.Resolve("Score")
	assert.True(t, ok)
	assert.Equal(t, FieldTeamScoreline, key)
}
