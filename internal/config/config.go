// Package config defines the YAML scenario configuration for the simulator,
// with defaults for every field and struct-tag validation.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/mergeworks/zipsim/internal/traits"
)

// Config is the full recognized option surface. A zero-value file (or no
// file at all) runs with the defaults from Default.
type Config struct {
	Lanes        int     `json:"lanes" yaml:"lanes" validate:"gte=2"`
	BlockedLanes int     `json:"blocked_lanes" yaml:"blocked_lanes" validate:"gte=1,ltfield=Lanes"`
	LaneLength   int     `json:"lane_length" yaml:"lane_length" validate:"gte=10"`
	BlockStart   int     `json:"block_start" yaml:"block_start" validate:"gte=1,ltfield=LaneLength"`
	CellFeet     float64 `json:"cell_feet" yaml:"cell_feet" validate:"gt=0"`

	SpawnIntervalS float64 `json:"spawn_interval_s" yaml:"spawn_interval_s" validate:"gt=0"`
	TickIntervalS  float64 `json:"tick_interval_s" yaml:"tick_interval_s" validate:"gt=0"`
	RunTimeS       float64 `json:"run_time_s" yaml:"run_time_s" validate:"gt=0"`
	RetentionS     float64 `json:"retention_s" yaml:"retention_s" validate:"gt=0"`
	Seed           int64   `json:"seed" yaml:"seed"`

	MergeTendency  traits.Dist `json:"merge_tendency" yaml:"merge_tendency"`
	Cooperation    traits.Dist `json:"cooperation" yaml:"cooperation"`
	Aggressiveness traits.Dist `json:"aggressiveness" yaml:"aggressiveness"`
}

// Default returns the stock scenario: a four-lane road losing one lane,
// 15-foot cells, middling traits with moderate spread.
func Default() Config {
	return Config{
		Lanes:          4,
		BlockedLanes:   1,
		LaneLength:     100,
		BlockStart:     60,
		CellFeet:       15,
		SpawnIntervalS: 1.5,
		TickIntervalS:  0.25,
		RunTimeS:       120,
		RetentionS:     30,
		Seed:           1,
		MergeTendency:  traits.Dist{Mean: 0.5, StdDev: 0.2},
		Cooperation:    traits.Dist{Mean: 0.5, StdDev: 0.2},
		Aggressiveness: traits.Dist{Mean: 0.5, StdDev: 0.2},
	}
}

// Validate checks the configuration against its struct tags.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Load reads a YAML scenario file over the defaults and validates the
// result. Fields absent from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
