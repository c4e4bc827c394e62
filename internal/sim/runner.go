package sim

import (
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/mergeworks/zipsim/internal/config"
	"github.com/mergeworks/zipsim/internal/traits"
	"github.com/mergeworks/zipsim/internal/vehicle"
)

// ParamsFromConfig maps a scenario configuration onto road parameters.
func ParamsFromConfig(cfg config.Config) Params {
	return Params{
		Lanes:            cfg.Lanes,
		BlockedLanes:     cfg.BlockedLanes,
		LaneLength:       cfg.LaneLength,
		BlockStart:       cfg.BlockStart,
		CellFeet:         cfg.CellFeet,
		TickSeconds:      cfg.TickIntervalS,
		RetentionSeconds: cfg.RetentionS,
		Seed:             cfg.Seed,
	}
}

// Spawner draws vehicle traits from the configured distributions.
type Spawner struct {
	cfg     config.Config
	sampler *traits.Sampler
}

// NewSpawner returns a Spawner seeded independently of the road's RNG so
// spawn personalities do not perturb lane selection.
func NewSpawner(cfg config.Config) *Spawner {
	return &Spawner{
		cfg:     cfg,
		sampler: traits.NewSampler(rand.New(rand.NewSource(cfg.Seed + 1))),
	}
}

// Traits samples one vehicle personality.
func (s *Spawner) Traits() vehicle.Traits {
	return vehicle.Traits{
		MergeTendency:  s.sampler.Sample(s.cfg.MergeTendency),
		Cooperation:    s.sampler.Sample(s.cfg.Cooperation),
		Aggressiveness: s.sampler.Sample(s.cfg.Aggressiveness),
	}
}

// RunResult is the complete output of a headless simulation run.
type RunResult struct {
	Config    config.Config `json:"config"`
	Output    []Snapshot    `json:"output"`
	Completed int           `json:"completed_total"`
}

// Run executes a full headless simulation: vehicles spawn on the configured
// interval, the road ticks until the configured run time elapses, and every
// tick's snapshot is collected.
func Run(cfg config.Config) (RunResult, error) {
	if err := cfg.Validate(); err != nil {
		return RunResult{}, err
	}
	road, err := NewRoad(ParamsFromConfig(cfg))
	if err != nil {
		return RunResult{}, err
	}
	spawner := NewSpawner(cfg)

	result := RunResult{Config: cfg}
	nextSpawn := 0.0
	for road.Now() <= cfg.RunTimeS {
		if road.Now() >= nextSpawn {
			road.SpawnVehicle(spawner.Traits())
			nextSpawn += cfg.SpawnIntervalS
		}
		road.AdvanceTick()
		result.Output = append(result.Output, road.Snapshot())
	}
	result.Completed = road.TotalCompleted()
	return result, nil
}

// RunJSON is the entry point shared by the CLI and WASM targets. It accepts
// a JSON-encoded scenario configuration (unset fields take their defaults),
// runs the simulation, and returns the JSON-encoded RunResult.
func RunJSON(jsonInput string) (string, error) {
	cfg := config.Default()
	if err := json.Unmarshal([]byte(jsonInput), &cfg); err != nil {
		return "", fmt.Errorf("invalid input JSON: %w", err)
	}

	result, err := Run(cfg)
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("marshaling output: %w", err)
	}
	return string(out), nil
}
