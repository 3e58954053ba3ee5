// Package config loads interleave settings from a YAML file, environment
// variables, and defaults, in that order of increasing precedence for env
// vars over file values.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Orientation values for the session split.
const (
	SplitVertical   = "vertical"
	SplitHorizontal = "horizontal"
)

// Config carries every recognized option.
type Config struct {
	// NotesSearchPath is the ordered list of directories searched for a
	// notes file; "." means the document's own directory.
	NotesSearchPath []string `mapstructure:"notes_search_path"`
	// SortOrder applied to note sections on session quit: "ascending" or
	// "descending".
	SortOrder string `mapstructure:"sort_order"`
	// SplitOrientation arranges the two panes: "vertical" puts them side by
	// side, "horizontal" stacks them.
	SplitOrientation string `mapstructure:"split_orientation"`
	// SplitAdjustment grows (positive) or shrinks (negative) the PDF pane by
	// that many columns or rows; zero splits evenly.
	SplitAdjustment int `mapstructure:"split_adjustment"`
	// DisableNarrowing scrolls the outline to the matched section instead of
	// narrowing the pane to its subtree.
	DisableNarrowing bool `mapstructure:"disable_narrowing"`
	// RelativePaths records newly created INTERLEAVE_PDF declarations
	// relative to the notes file when possible.
	RelativePaths bool `mapstructure:"relative_paths"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		NotesSearchPath:  []string{"."},
		SortOrder:        "ascending",
		SplitOrientation: SplitVertical,
		SplitAdjustment:  0,
		DisableNarrowing: false,
		RelativePaths:    true,
	}
}

// Load reads configuration from cfgFile when given, otherwise from
// config.yaml in the working directory or ~/.config/interleave. A missing
// file is not an error; a malformed one is.
func Load(cfgFile string) (Config, error) {
	v := viper.New()
	defaults := Default()
	v.SetDefault("notes_search_path", defaults.NotesSearchPath)
	v.SetDefault("sort_order", defaults.SortOrder)
	v.SetDefault("split_orientation", defaults.SplitOrientation)
	v.SetDefault("split_adjustment", defaults.SplitAdjustment)
	v.SetDefault("disable_narrowing", defaults.DisableNarrowing)
	v.SetDefault("relative_paths", defaults.RelativePaths)

	v.SetEnvPrefix("INTERLEAVE")
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/interleave")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	if len(c.NotesSearchPath) == 0 {
		c.NotesSearchPath = []string{"."}
	}
	c.SortOrder = strings.ToLower(strings.TrimSpace(c.SortOrder))
	if c.SortOrder != "descending" {
		c.SortOrder = "ascending"
	}
	c.SplitOrientation = strings.ToLower(strings.TrimSpace(c.SplitOrientation))
	if c.SplitOrientation != SplitHorizontal {
		c.SplitOrientation = SplitVertical
	}
}
