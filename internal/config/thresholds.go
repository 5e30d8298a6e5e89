package config

import "github.com/JonMunkholm/statsetl/internal/validation"

// Thresholds loads the validation thresholds file, if any, and applies the
// HOME_TEAM override.
func (c *Config) Thresholds() (validation.Config, error) {
	th, err := validation.LoadConfig(c.Validation.ConfigPath)
	if err != nil {
		return th, err
	}
	if c.Run.HomeTeam != "" {
		th.HomeTeam = c.Run.HomeTeam
	}
	return th, nil
}
