// Package decision implements the per-tick negotiation core of the
// zipper-merge model.
//
// Each tick every vehicle runs the same pipeline:
//
//  1. Merge urgency from its distance to the blockage.
//  2. Desired merge space, scaled by urgency and clamped for stop-and-go
//     target-lane traffic.
//  3. Open-space survey of the lane to its left (ahead / behind / beside).
//  4. Advisory quota check on the vehicle guarding the survey window.
//  5. Gap acceptance: ahead + behind + beside ≥ desired space.
//  6. Let-in invitation scan (shrinks the merger's required following gap;
//     it never opens a gap by itself).
//  7. Speed control: following-distance delta, merge speed blending, and
//     the rubbernecking slowdown past the blockage start.
//  8. Merge-state transition, with the turn signal mirroring the state.
//  9. The lateral merge itself, committed to the grid in the same tick.
//
// Every helper degrades to a neutral, permissive default when handed a
// boundary condition (no left lane, scan past the lane end, unknown
// occupant). The engine never halts the simulation over a malformed query.
package decision

import (
	"math"

	"github.com/mergeworks/zipsim/internal/grid"
	"github.com/mergeworks/zipsim/internal/vehicle"
)

const (
	// Urgency bounds and distance thresholds (cells to the blockage).
	urgencyFloor = 0.3
	relaxedDist  = 20
	moderateDist = 10
	pressingDist = 5

	// Stop-and-go clamp: when nearby target-lane traffic averages at or
	// below this speed, desired merge space collapses to the clamp value.
	stopAndGoSpeed = 1.0
	stopAndGoSpace = 2

	// nearbyWindow is the half-width, in cells, of the target-lane window
	// used to average neighboring traffic speed.
	nearbyWindow = 6

	// mergeBlend is the base fraction of the speed difference to target-lane
	// traffic folded into the adjustment while merging.
	mergeBlend = 0.3

	// maxSpeedDelta bounds the per-tick speed change, feet per second.
	maxSpeedDelta = 10.0

	// Rubbernecking: vehicles in non-blocked lanes passing the blockage
	// start shed up to rubberneckSlow ft/s, fading linearly to zero across
	// rubberneckZone cells.
	rubberneckZone = 12
	rubberneckSlow = 6.0
)

// Engine evaluates the decision pipeline against one grid. Lookup resolves a
// grid cell's occupant ID to its vehicle record; it may return nil for
// unknown IDs, which the engine treats permissively.
type Engine struct {
	Grid     *grid.Grid
	CellFeet float64
	Lookup   func(grid.VehicleID) *vehicle.Vehicle
}

// Survey holds the three open-space quantities for a merge to the left.
// A non-empty beside cell zeroes all three and blocks the merge outright.
type Survey struct {
	Ahead  int  // contiguous empty run ahead of the beside cell
	Behind int  // contiguous empty run behind the beside cell
	Beside bool // whether the beside cell itself is empty
}

// Total returns the combined open space: ahead + behind + the beside cell.
func (s Survey) Total() int {
	if !s.Beside {
		return 0
	}
	return s.Ahead + s.Behind + 1
}

// Outcome records the artifacts of one vehicle's pipeline run, exposed for
// tests and observers.
type Outcome struct {
	Urgency       float64
	DesiredSpace  int
	Survey        Survey
	Accepted      bool
	QuotaWithheld bool // advisory only; never gates the merge (see DESIGN.md)
	Invited       bool
	Merged        bool
}

// Urgency maps the distance to the blockage along the vehicle's own lane to
// a gap multiplier in [0.3, 1.0]. Smaller distances shrink the multiplier,
// making the vehicle accept tighter gaps. A lane with no blockage ahead, or
// a scan from the lane boundary, reads as fully relaxed.
func Urgency(d grid.Distance) float64 {
	cells, ok := d.Found()
	if !ok {
		return 1.0
	}
	switch {
	case cells >= relaxedDist:
		return 1.0
	case cells >= moderateDist:
		return 0.7 + 0.3*float64(cells-moderateDist)/float64(relaxedDist-moderateDist)
	case cells >= pressingDist:
		return 0.5 + 0.2*float64(cells-pressingDist)/float64(moderateDist-pressingDist)
	default:
		return urgencyFloor + 0.2*float64(cells)/float64(pressingDist)
	}
}

// DesiredMergeSpace returns the gap, in cells, the vehicle wants before
// committing a merge. leftAvg/leftOK describe nearby target-lane traffic:
// near-stopped traffic clamps the requirement to stopAndGoSpace.
func DesiredMergeSpace(v *vehicle.Vehicle, urgency, cellFeet, leftAvg float64, leftOK bool) int {
	feet := v.Speed * v.MergeGapSeconds() * urgency
	space := int(math.Ceil(feet / cellFeet))
	if floor := v.MinMergeSpace(); space < floor {
		space = floor
	}
	if leftOK && leftAvg <= stopAndGoSpeed && space > stopAndGoSpace {
		space = stopAndGoSpace
	}
	return space
}

// SurveyLeft measures open space in the lane to the vehicle's left. A
// leftmost-lane vehicle, or one whose beside cell is occupied, gets the
// all-zero survey.
func (e *Engine) SurveyLeft(v *vehicle.Vehicle) Survey {
	left := v.Lane - 1
	if left < 0 || !e.Grid.IsEmpty(left, v.Pos) {
		return Survey{}
	}
	return Survey{
		Ahead:  e.Grid.EmptyRunAhead(left, v.Pos),
		Behind: e.Grid.EmptyRunBehind(left, v.Pos),
		Beside: true,
	}
}

// CanMerge applies the acceptance rule: the surveyed open space must cover
// the desired merge space.
func CanMerge(s Survey, desiredSpace int) bool {
	return s.Beside && s.Total() >= desiredSpace
}

// QuotaWithheld reports whether the vehicle guarding the survey window (the
// occupant of the cell immediately behind the surveyed run in the left lane)
// has already let in its full quota of mergers. The result is advisory: it
// is computed and observable but does not gate the merge decision.
func (e *Engine) QuotaWithheld(v *vehicle.Vehicle, s Survey) bool {
	if !s.Beside || v.Lane == 0 {
		return false
	}
	guardPos := v.Pos - s.Behind - 1
	kind, id := e.Grid.CellAt(v.Lane-1, guardPos)
	if kind != grid.CellVehicle {
		return false
	}
	guard := e.Lookup(id)
	if guard == nil {
		return false
	}
	return guard.LetIn >= guard.LetInQuota(e.Grid.BlockedLanes())
}

// Invited reports whether v is being let in by the left-lane vehicle it
// would slot in front of: the closest vehicle at or behind v's position.
// That vehicle extends the invitation only while under its quota and only
// when the signalling vehicle sits within its own distance to the nearest
// obstacle ahead. An invitation only shrinks the gap v maintains while
// merging; it does not open space.
func (e *Engine) Invited(v *vehicle.Vehicle) bool {
	left := v.Lane - 1
	if left < 0 || !v.Signal {
		return false
	}
	inviter := e.nearestBehind(left, v.Pos)
	if inviter == nil {
		return false
	}
	if inviter.LetIn >= inviter.LetInQuota(e.Grid.BlockedLanes()) {
		return false
	}
	reach := e.Grid.Scan(left, inviter.Pos, grid.TargetAny).Cells()
	return v.Pos-inviter.Pos <= reach
}

// nearestBehind returns the closest vehicle at or behind pos in lane,
// or nil when the stretch back to the lane entry is vehicle-free.
func (e *Engine) nearestBehind(lane, pos int) *vehicle.Vehicle {
	if pos >= e.Grid.LaneLength() {
		pos = e.Grid.LaneLength() - 1
	}
	for p := pos; p >= 0; p-- {
		kind, id := e.Grid.CellAt(lane, p)
		if kind == grid.CellVehicle {
			return e.Lookup(id)
		}
	}
	return nil
}

// LeftAverageSpeed averages the speed of left-lane vehicles within
// nearbyWindow cells of v's position. The second return is false when the
// window holds no vehicles (or there is no left lane).
func (e *Engine) LeftAverageSpeed(v *vehicle.Vehicle) (float64, bool) {
	left := v.Lane - 1
	if left < 0 {
		return 0, false
	}
	var sum float64
	var n int
	for p := v.Pos - nearbyWindow; p <= v.Pos+nearbyWindow; p++ {
		kind, id := e.Grid.CellAt(left, p)
		if kind != grid.CellVehicle {
			continue
		}
		if w := e.Lookup(id); w != nil {
			sum += w.Speed
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// adjustSpeed runs pipeline step 7: the signed following-distance delta,
// merge speed blending (weighted harder as urgency rises), and the
// rubbernecking slowdown, applied as a bounded change to v.Speed.
func (e *Engine) adjustSpeed(v *vehicle.Vehicle, urgency float64, leftAvg float64, leftOK, invited bool) {
	aheadFeet := float64(e.Grid.Scan(v.Lane, v.Pos, grid.TargetAny).Cells()) * e.CellFeet

	required := v.DesiredFollowingFeet()
	if invited {
		if inviteGap := float64(v.MinMergeSpace()) * e.CellFeet; inviteGap < required {
			required = inviteGap
		}
	}
	adj := aheadFeet - required

	if v.State == vehicle.StateMerge && leftOK {
		// Urgency below 1 means pressure; weight the synchronization term
		// harder the more urgent the merge is.
		weight := mergeBlend * (2.0 - urgency)
		adj += weight * (leftAvg - v.Speed)
	}

	if !e.Grid.IsBlockedLane(v.Lane) {
		start := e.Grid.BlockStart()
		if v.Pos >= start && v.Pos < start+rubberneckZone {
			fade := 1.0 - float64(v.Pos-start)/float64(rubberneckZone)
			adj -= rubberneckSlow * fade
		}
	}

	if adj > maxSpeedDelta {
		adj = maxSpeedDelta
	}
	if adj < -maxSpeedDelta {
		adj = -maxSpeedDelta
	}
	v.Speed = vehicle.ClampSpeed(v.Speed + adj)
}

// updateMergeState runs pipeline step 8: Default→Merge once the blockage is
// within the trait-derived desired merge distance, Merge→Default when it
// recedes. The turn signal mirrors the state exactly.
func (e *Engine) updateMergeState(v *vehicle.Vehicle) {
	cells, ok := e.Grid.Scan(v.Lane, v.Pos, grid.TargetBlockage).Found()
	if ok && cells <= v.DesiredMergeDistance() {
		v.State = vehicle.StateMerge
	} else if v.State == vehicle.StateMerge {
		v.State = vehicle.StateDefault
	}
	v.Signal = v.State == vehicle.StateMerge
}

// tryMerge runs pipeline step 9: if the vehicle is in the Merge state and
// the acceptance rule holds, move one lane toward the open side within this
// tick. The vehicle directly behind the landing cell is credited with the
// let-in.
func (e *Engine) tryMerge(v *vehicle.Vehicle, s Survey, desiredSpace int) bool {
	if v.State != vehicle.StateMerge || v.Lane == 0 || !CanMerge(s, desiredSpace) {
		return false
	}
	left := v.Lane - 1
	if !e.Grid.Place(v.ID, left, v.Pos) {
		return false
	}
	e.Grid.Vacate(v.Lane, v.Pos)
	v.Lane = left
	if v.Pos > 0 {
		if w := e.nearestBehind(left, v.Pos-1); w != nil {
			w.LetIn++
		}
	}
	return true
}

// Step runs the full pipeline for one vehicle and returns the decision
// artifacts. The vehicle's speed, state, signal, and (on a merge) lane are
// updated in place; the grid is updated for a committed merge.
func (e *Engine) Step(v *vehicle.Vehicle) Outcome {
	var out Outcome

	out.Urgency = Urgency(e.Grid.Scan(v.Lane, v.Pos, grid.TargetBlockage))
	leftAvg, leftOK := e.LeftAverageSpeed(v)
	out.DesiredSpace = DesiredMergeSpace(v, out.Urgency, e.CellFeet, leftAvg, leftOK)
	out.Survey = e.SurveyLeft(v)
	out.QuotaWithheld = e.QuotaWithheld(v, out.Survey)
	out.Accepted = CanMerge(out.Survey, out.DesiredSpace)
	out.Invited = e.Invited(v)

	e.adjustSpeed(v, out.Urgency, leftAvg, leftOK, out.Invited)
	e.updateMergeState(v)
	out.Merged = e.tryMerge(v, out.Survey, out.DesiredSpace)

	return out
}
