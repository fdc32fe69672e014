// Package config resolves engine settings from an optional YAML file with
// built-in defaults. CLI flags override whatever is loaded here.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"promotion-core/payload"
)

// Config carries every tunable the promotion engine accepts.
type Config struct {
	Workers           int     `mapstructure:"workers"`
	Backend           string  `mapstructure:"backend"`
	StyleAnchor       string  `mapstructure:"style_anchor"`
	NegativePrompt    string  `mapstructure:"negative_prompt"`
	TargetAspectRatio float64 `mapstructure:"target_aspect_ratio"`
	DenoisingStrength float64 `mapstructure:"denoising_strength"`
	CFGScale          float64 `mapstructure:"cfg_scale"`
	Steps             int     `mapstructure:"steps"`
	SamplerName       string  `mapstructure:"sampler_name"`
	Scheduler         string  `mapstructure:"scheduler"`
	Model             string  `mapstructure:"model"`
	LedgerPath        string  `mapstructure:"ledger_path"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Workers:           0, // all CPUs
		Backend:           string(payload.BackendComfyUI),
		NegativePrompt:    "blurry, low quality, jpeg artifacts, watermark",
		TargetAspectRatio: 16.0 / 9.0,
		DenoisingStrength: payload.DefaultDenoisingStrength,
		CFGScale:          payload.DefaultCFGScale,
		Steps:             payload.DefaultSteps,
		SamplerName:       payload.DefaultSamplerName,
		Scheduler:         payload.DefaultScheduler,
	}
}

// Load reads a YAML config file into a Config. An empty path returns the
// defaults untouched.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("workers", cfg.Workers)
	v.SetDefault("backend", cfg.Backend)
	v.SetDefault("style_anchor", cfg.StyleAnchor)
	v.SetDefault("negative_prompt", cfg.NegativePrompt)
	v.SetDefault("target_aspect_ratio", cfg.TargetAspectRatio)
	v.SetDefault("denoising_strength", cfg.DenoisingStrength)
	v.SetDefault("cfg_scale", cfg.CFGScale)
	v.SetDefault("steps", cfg.Steps)
	v.SetDefault("sampler_name", cfg.SamplerName)
	v.SetDefault("scheduler", cfg.Scheduler)
	v.SetDefault("model", cfg.Model)
	v.SetDefault("ledger_path", cfg.LedgerPath)
}
