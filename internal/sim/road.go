// Package sim implements the step-wise zipper-merge simulation engine.
//
// The simulation advances in fixed ticks. Each tick has three passes:
//
//  1. Order pass - vehicles are snapshotted and sorted by (lane ascending,
//     position ascending) so no vehicle is evaluated against a position an
//     already-processed vehicle ahead of it has vacated this tick.
//
//  2. Drive pass - every vehicle accrues elapsed time and distance, runs the
//     decision pipeline (speed control, merge-state transition, same-tick
//     lateral merge), then has its forward move clamped to the open run
//     ahead and committed to the grid.
//
//  3. Retire pass - vehicles carried past the grid end are removed from the
//     road and the grid, and completion/trail records are appended for the
//     metrics window.
//
// A Road is not safe for concurrent use: one tick is an atomic unit, and
// spawn calls must not interleave with an in-progress tick. Callers driving
// the road from timers serialize access themselves.
package sim

import (
	"fmt"
	"math/rand"

	"github.com/mergeworks/zipsim/internal/decision"
	"github.com/mergeworks/zipsim/internal/grid"
	"github.com/mergeworks/zipsim/internal/vehicle"
)

// Params are the structural parameters of a road.
type Params struct {
	Lanes        int     `json:"lanes"`
	BlockedLanes int     `json:"blocked_lanes"`
	LaneLength   int     `json:"lane_length"`
	BlockStart   int     `json:"block_start"`
	CellFeet     float64 `json:"cell_feet"`
	TickSeconds  float64 `json:"tick_seconds"`
	// RetentionSeconds is how long completion and trail records survive
	// before the metrics window drops them.
	RetentionSeconds float64 `json:"retention_seconds"`
	Seed             int64   `json:"seed"`
}

// Road is the simulation engine state: the occupancy grid, the live vehicle
// set, and the historical records the metrics derive from.
type Road struct {
	params   Params
	grid     *grid.Grid
	engine   *decision.Engine
	vehicles []*vehicle.Vehicle
	byID     map[grid.VehicleID]*vehicle.Vehicle
	rng      *rand.Rand
	now      float64

	completions    []Completion
	trails         []float64 // expiry timestamps
	totalCompleted int
}

// NewRoad constructs a road from p. Structural parameters are validated up
// front so callers can never operate on an unusable grid.
func NewRoad(p Params) (*Road, error) {
	if p.CellFeet <= 0 {
		return nil, fmt.Errorf("road: cell length %.2f ft must be positive", p.CellFeet)
	}
	if p.TickSeconds <= 0 {
		return nil, fmt.Errorf("road: tick interval %.3f s must be positive", p.TickSeconds)
	}
	if p.RetentionSeconds <= 0 {
		return nil, fmt.Errorf("road: retention window %.1f s must be positive", p.RetentionSeconds)
	}

	rng := rand.New(rand.NewSource(p.Seed))
	g, err := grid.New(p.Lanes, p.BlockedLanes, p.LaneLength, p.BlockStart, rng)
	if err != nil {
		return nil, fmt.Errorf("road: %w", err)
	}

	r := &Road{
		params: p,
		grid:   g,
		byID:   make(map[grid.VehicleID]*vehicle.Vehicle),
		rng:    rng,
	}
	r.engine = &decision.Engine{
		Grid:     g,
		CellFeet: p.CellFeet,
		Lookup:   func(id grid.VehicleID) *vehicle.Vehicle { return r.byID[id] },
	}
	return r, nil
}

// SpawnVehicle inserts a vehicle with the given traits at the entry cell of
// a uniformly chosen open lane. It reports false when every entry cell is
// occupied.
func (r *Road) SpawnVehicle(t vehicle.Traits) (*vehicle.Vehicle, bool) {
	lane, ok := r.grid.RandomOpenLane()
	if !ok {
		return nil, false
	}
	v := vehicle.New(t, lane, r.now, r.rng)
	if !r.grid.Place(v.ID, lane, 0) {
		return nil, false
	}
	r.vehicles = append(r.vehicles, v)
	r.byID[v.ID] = v
	return v, true
}

// Now returns the current simulation time in seconds.
func (r *Road) Now() float64 { return r.now }

// Params returns the road's structural parameters.
func (r *Road) Params() Params { return r.params }

// VehicleCount returns the number of vehicles currently on the road.
func (r *Road) VehicleCount() int { return len(r.vehicles) }

// TotalCompleted returns the number of vehicles that have completed the road
// since construction, independent of the metrics retention window.
func (r *Road) TotalCompleted() int { return r.totalCompleted }

// Grid exposes the occupancy substrate for read-only inspection.
func (r *Road) Grid() *grid.Grid { return r.grid }
