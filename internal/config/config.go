// Package config provides functionality for loading configuration
// parameters from a config file using the Viper library.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds user-configurable settings for the shell.
type Config struct {
	Terminal   Terminal         `mapstructure:"terminal"`
	Prompt     Prompt           `mapstructure:"prompt"`
	JobControl JobControlConfig `mapstructure:"job_control"`
	Debug      bool             `mapstructure:"debug"`
}

// Terminal holds readline-facing settings: history file/limit and the
// prompts readline shows on interrupt/EOF.
type Terminal struct {
	HistoryFile     string `mapstructure:"history_file"`
	HistoryLimit    int    `mapstructure:"history_limit"`
	InterruptPrompt string `mapstructure:"interrupt_prompt"`
	EOFPrompt       string `mapstructure:"exit_message"`
}

// Prompt holds painter-facing styling settings for the interactive prompt.
type Prompt struct {
	Theme               string `mapstructure:"theme"`
	PathColour          string `mapstructure:"path_colour"`
	PathColourBold      bool   `mapstructure:"path_colour_bold"`
	GitStatusColour     string `mapstructure:"git_status_colour"`
	GitStatusColourBold bool   `mapstructure:"git_status_colour_bold"`
	ShowLastReturnCode  bool   `mapstructure:"show_last_return_code"`
	ShowJobCount        bool   `mapstructure:"show_job_count"`
}

// JobControlConfig tunes the shutdown sequence and background-reap cadence
// documented in SPEC_FULL.md §5.3.
type JobControlConfig struct {
	// ReapAfterPipelines, if > 0, probes background jobs for state changes
	// every N executed commands instead of after every single one.
	ReapAfterPipelines int `mapstructure:"reap_after_pipelines"`
	// ShutdownGrace is how long the shell waits after SIGTERM before
	// escalating to SIGKILL when tearing down still-active jobs on exit.
	ShutdownGrace time.Duration `mapstructure:"shutdown_grace"`
}

// Load reads configuration from a file named "config" in the current
// directory using Viper and unmarshals it into a Config instance. If
// reading or unmarshaling fails an error is returned along with a partial
// Config (which may be zero-valued).
func Load() (*Config, error) {
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	cfg := new(Config)
	if err := viper.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("ebash: boot: failed to load config: %v", err)
	}
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("ebash: boot: failed to unmarshal config: %v", err)
	}
	return cfg, nil
}

// Default returns a Config populated with sensible defaults. This is used
// as a fallback when loading the configuration file fails.
func Default() *Config {
	return &Config{
		Terminal: Terminal{
			HistoryFile:     filepath.Join(os.Getenv("HOME"), ".ebash_history"),
			HistoryLimit:    1000,
			InterruptPrompt: "^C",
			EOFPrompt:       "\nexit",
		},
		Prompt: Prompt{
			Theme:              "ebash",
			ShowLastReturnCode: true,
			ShowJobCount:       true,
		},
		JobControl: JobControlConfig{
			ReapAfterPipelines: 1,
			ShutdownGrace:      10 * time.Millisecond,
		},
	}
}
