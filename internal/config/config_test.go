package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestValidateRejectsBadShapes(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"one lane", func(c *Config) { c.Lanes = 1 }},
		{"zero blocked", func(c *Config) { c.BlockedLanes = 0 }},
		{"all blocked", func(c *Config) { c.BlockedLanes = c.Lanes }},
		{"block start past end", func(c *Config) { c.BlockStart = c.LaneLength }},
		{"zero cell length", func(c *Config) { c.CellFeet = 0 }},
		{"zero tick", func(c *Config) { c.TickIntervalS = 0 }},
		{"zero spawn interval", func(c *Config) { c.SpawnIntervalS = 0 }},
		{"zero retention", func(c *Config) { c.RetentionS = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
lanes: 5
blocked_lanes: 2
aggressiveness:
  mean: 0.8
  std_dev: 0.1
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Lanes)
	assert.Equal(t, 2, cfg.BlockedLanes)
	assert.InDelta(t, 0.8, cfg.Aggressiveness.Mean, 1e-9)

	// Everything the file omits keeps its default.
	def := Default()
	assert.Equal(t, def.LaneLength, cfg.LaneLength)
	assert.Equal(t, def.CellFeet, cfg.CellFeet)
	assert.Equal(t, def.MergeTendency, cfg.MergeTendency)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lanes: 1\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("lanes: [\n"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
