// Package vehicle defines the behavioral vehicle agent: fixed personality
// traits, the driving quantities derived from them, and the mutable
// kinematic state advanced by the simulation stepper.
package vehicle

import (
	"math"
	"math/rand"

	"github.com/google/uuid"

	"github.com/mergeworks/zipsim/internal/grid"
	"github.com/mergeworks/zipsim/internal/traits"
)

// MaxSpeed is the speed ceiling in feet per second.
const MaxSpeed = 88.0

// State describes the current behavioral mode of a vehicle.
type State string

const (
	StateDefault State = "default"
	StateMerge   State = "merge"

	// StateYield and StateRight are reserved. No decision logic assigns
	// them; they exist so externally recorded states round-trip intact.
	StateYield State = "yield"
	StateRight State = "right"
)

// Trait transform anchors. Each normalized trait maps through
// traits.Anchors (low at 0, mid at 0.5, high at 1) onto its quantity.
var (
	// followingSecondsAnchors: aggressiveness → following distance in
	// seconds. Aggressive drivers tailgate.
	followingSecondsAnchors = traits.Anchors{Low: 3.0, Mid: 2.0, High: 1.0}

	// mergeDistanceAnchors: merge tendency → distance to the blockage (in
	// cells) at which the vehicle begins attempting to merge. High-tendency
	// drivers start early.
	mergeDistanceAnchors = traits.Anchors{Low: 10, Mid: 25, High: 45}

	// minMergeSpaceAnchors: aggressiveness → the smallest gap (in cells)
	// the vehicle will ever accept for a merge.
	minMergeSpaceAnchors = traits.Anchors{Low: 4, Mid: 3, High: 2}

	// mergeGapSecondsAnchors: aggressiveness → desired time gap (seconds)
	// behind the vehicle ahead when merging.
	mergeGapSecondsAnchors = traits.Anchors{Low: 2.5, Mid: 1.8, High: 1.0}
)

var colorPalette = []string{
	"#e6194b", "#3cb44b", "#ffe119", "#4363d8", "#f58231",
	"#911eb4", "#46f0f0", "#f032e6", "#bcf60c", "#008080",
}

// Traits holds the fixed personality parameters, each normalized to [0, 1].
type Traits struct {
	MergeTendency  float64 `json:"merge_tendency" yaml:"merge_tendency"`
	Cooperation    float64 `json:"cooperation" yaml:"cooperation"`
	Aggressiveness float64 `json:"aggressiveness" yaml:"aggressiveness"`
}

// Vehicle is a single agent on the road.
type Vehicle struct {
	ID     grid.VehicleID
	Traits Traits

	// FollowingSeconds is derived from aggressiveness at construction and
	// cached for the vehicle's lifetime.
	FollowingSeconds float64

	Lane     int
	Pos      int
	Speed    float64 // feet per second, in [0, MaxSpeed]
	State    State
	Signal   bool    // turn indicator; mirrors State == StateMerge
	Distance float64 // cumulative feet traveled
	LetIn    int     // vehicles this one has let merge in front of it

	LastUpdate float64 // simulation seconds of the most recent step
	Created    float64 // simulation seconds at spawn
	OriginLane int     // lane at spawn, for fairness accounting
	Color      string
}

// New creates a vehicle at position 0 of lane with the given traits.
// now is the current simulation time in seconds.
func New(t Traits, lane int, now float64, rng *rand.Rand) *Vehicle {
	return &Vehicle{
		ID:               uuid.NewString(),
		Traits:           t,
		FollowingSeconds: followingSecondsAnchors.At(t.Aggressiveness),
		Lane:             lane,
		Pos:              0,
		Speed:            0,
		State:            StateDefault,
		LastUpdate:       now,
		Created:          now,
		OriginLane:       lane,
		Color:            colorPalette[rng.Intn(len(colorPalette))],
	}
}

// DesiredMergeDistance returns the distance to the blockage, in cells, at
// which this vehicle enters the Merge state.
func (v *Vehicle) DesiredMergeDistance() int {
	return int(math.Round(mergeDistanceAnchors.At(v.Traits.MergeTendency)))
}

// MinMergeSpace returns the smallest merge gap, in cells, this vehicle
// accepts regardless of speed.
func (v *Vehicle) MinMergeSpace() int {
	return int(math.Round(minMergeSpaceAnchors.At(v.Traits.Aggressiveness)))
}

// MergeGapSeconds returns the desired time gap used to size merge space.
func (v *Vehicle) MergeGapSeconds() float64 {
	return mergeGapSecondsAnchors.At(v.Traits.Aggressiveness)
}

// DesiredFollowingFeet returns the following distance this vehicle wants at
// its current speed.
func (v *Vehicle) DesiredFollowingFeet() float64 {
	return v.Speed * v.FollowingSeconds
}

// LetInQuota returns how many adjacent-lane vehicles this one is willing to
// yield to during a perfect zipper: round(cooperation × (blocked lane count −
// own lane index)), floored at zero.
func (v *Vehicle) LetInQuota(blockedLanes int) int {
	q := int(math.Round(v.Traits.Cooperation * float64(blockedLanes-v.Lane)))
	if q < 0 {
		return 0
	}
	return q
}

// ClampSpeed bounds s to [0, MaxSpeed].
func ClampSpeed(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > MaxSpeed {
		return MaxSpeed
	}
	return s
}
