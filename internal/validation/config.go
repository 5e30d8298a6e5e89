package validation

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/statsetl/internal/stats"
)

// Config holds every threshold used by the validation layers.
//
// The count tolerance and the 1.05 percentage ceiling were chosen from
// observed sheets and are business constants open to review.
type Config struct {
	// HomeTeam is the tracked team; team rows naming it are the home side.
	HomeTeam string `yaml:"home_team"`

	CountTolerance      float64 `yaml:"count_tolerance"`
	RatioTolerance      float64 `yaml:"ratio_tolerance"`
	PossessionTolerance float64 `yaml:"possession_tolerance"`
	PercentageMax       float64 `yaml:"percentage_max"`

	DefaultCountMax float64            `yaml:"default_count_max"`
	FieldMax        map[string]float64 `yaml:"field_max"`
	TeamFieldMax    map[string]float64 `yaml:"team_field_max"`

	MaxMinutes            int     `yaml:"max_minutes"`
	HeuristicMinMinutes   int     `yaml:"heuristic_min_minutes"`
	GoalkeeperAttackMax   float64 `yaml:"goalkeeper_attack_max"`
	ForwardScoringMinutes int     `yaml:"forward_scoring_minutes"`

	MaxRedCards    int `yaml:"max_red_cards"`
	MaxBlackCards  int `yaml:"max_black_cards"`
	MaxYellowCards int `yaml:"max_yellow_cards"`

	MinPlayers      int `yaml:"min_players"`
	MaxPlayers      int `yaml:"max_players"`
	MinSquadMinutes int `yaml:"min_squad_minutes"`
	MaxSquadMinutes int `yaml:"max_squad_minutes"`
}

// DefaultHomeTeam is used when no home team is configured.
const DefaultHomeTeam = "Drum"

// DefaultConfig returns the built-in thresholds.
func DefaultConfig() Config {
	return Config{
		HomeTeam:              DefaultHomeTeam,
		CountTolerance:        2,
		RatioTolerance:        0.05,
		PossessionTolerance:   0.05,
		PercentageMax:         1.05,
		DefaultCountMax:       100,
		FieldMax:              defaultFieldMax(),
		MaxMinutes:            90,
		HeuristicMinMinutes:   20,
		GoalkeeperAttackMax:   3,
		ForwardScoringMinutes: 40,
		MaxRedCards:           1,
		MaxBlackCards:         1,
		MaxYellowCards:        2,
		MinPlayers:            15,
		MaxPlayers:            35,
		MinSquadMinutes:       700,
		MaxSquadMinutes:       1400,
	}
}

func defaultFieldMax() map[string]float64 {
	return map[string]float64{
		stats.FieldYellowCards: 5,
		stats.FieldBlackCards:  5,
		stats.FieldRedCards:    2,
	}
}

// LoadConfig reads thresholds from a YAML file over the defaults. An empty
// path returns the defaults. Keys absent from the file keep their default.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read validation config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML thresholds over the defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	defaults := cfg.FieldMax
	cfg.FieldMax = nil

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse validation config: %w", err)
	}

	if cfg.FieldMax == nil {
		cfg.FieldMax = make(map[string]float64, len(defaults))
	}
	for k, v := range defaults {
		if _, ok := cfg.FieldMax[k]; !ok {
			cfg.FieldMax[k] = v
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// CountMax returns the warning ceiling for a count field on a player row.
func (c Config) CountMax(key string) float64 {
	if v, ok := c.FieldMax[key]; ok && v > 0 {
		return v
	}
	if spec, ok := stats.PlayerField(key); ok && spec.Max > 0 {
		return spec.Max
	}
	return c.DefaultCountMax
}

// TeamCountMax returns the warning ceiling for a count field on a team row.
// Player overrides such as the card limits do not apply to team totals.
func (c Config) TeamCountMax(key string) float64 {
	if v, ok := c.TeamFieldMax[key]; ok && v > 0 {
		return v
	}
	if spec, ok := stats.TeamField(key); ok && spec.Max > 0 {
		return spec.Max
	}
	return c.DefaultCountMax
}

// Validate checks the thresholds for internal consistency.
func (c Config) Validate() error {
	var errs []string

	if c.CountTolerance < 0 {
		errs = append(errs, "count_tolerance must not be negative")
	}
	if c.RatioTolerance < 0 || c.RatioTolerance >= 1 {
		errs = append(errs, "ratio_tolerance must be in [0, 1)")
	}
	if c.PossessionTolerance < 0 || c.PossessionTolerance >= 1 {
		errs = append(errs, "possession_tolerance must be in [0, 1)")
	}
	if c.PercentageMax < 1 {
		errs = append(errs, "percentage_max must be at least 1")
	}
	if c.DefaultCountMax <= 0 {
		errs = append(errs, "default_count_max must be positive")
	}
	for k, v := range c.FieldMax {
		if v <= 0 {
			errs = append(errs, fmt.Sprintf("field_max.%s must be positive", k))
		}
	}
	for k, v := range c.TeamFieldMax {
		if v <= 0 {
			errs = append(errs, fmt.Sprintf("team_field_max.%s must be positive", k))
		}
	}
	if c.MaxMinutes <= 0 {
		errs = append(errs, "max_minutes must be positive")
	}
	if c.MinPlayers > c.MaxPlayers {
		errs = append(errs, "min_players must not exceed max_players")
	}
	if c.MinSquadMinutes > c.MaxSquadMinutes {
		errs = append(errs, "min_squad_minutes must not exceed max_squad_minutes")
	}

	if len(errs) > 0 {
		return errors.New("validation config invalid:\n  - " + strings.Join(errs, "\n  - "))
	}
	return nil
}
