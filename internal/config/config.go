package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the ratingfit tool settings.
type Config struct {
	MatchesPath string
	Model       string
	SkillDims   int
	Fit         bool
	Tolerance   float64
	PriorVar    float64
	TopN        int
	LogLevel    string
	Env         string
}

// LoadConfig reads settings from an optional ratingfit.yaml in the working
// directory, overridden by GELO_* environment variables, with sane defaults
// for everything.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("matches_path", "matches.csv")
	v.SetDefault("model", "winloss")
	v.SetDefault("skill_dims", 1)
	v.SetDefault("fit", false)
	v.SetDefault("tolerance", 1e-3)
	v.SetDefault("prior_var", 1.0)
	v.SetDefault("top_n", 20)
	v.SetDefault("log_level", "info")
	v.SetDefault("env", "production")

	v.SetEnvPrefix("GELO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("ratingfit")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{
		MatchesPath: v.GetString("matches_path"),
		Model:       v.GetString("model"),
		SkillDims:   v.GetInt("skill_dims"),
		Fit:         v.GetBool("fit"),
		Tolerance:   v.GetFloat64("tolerance"),
		PriorVar:    v.GetFloat64("prior_var"),
		TopN:        v.GetInt("top_n"),
		LogLevel:    v.GetString("log_level"),
		Env:         v.GetString("env"),
	}

	switch cfg.Model {
	case "winloss", "margin":
	default:
		return nil, fmt.Errorf("unknown model %q (want winloss or margin)", cfg.Model)
	}
	if cfg.SkillDims < 1 {
		return nil, fmt.Errorf("skill_dims must be at least 1, got %d", cfg.SkillDims)
	}
	if cfg.PriorVar <= 0 {
		return nil, fmt.Errorf("prior_var must be positive, got %g", cfg.PriorVar)
	}

	return cfg, nil
}

// IsDevelopment reports whether the tool runs in a development environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
