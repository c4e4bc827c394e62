// Package grid provides the discrete per-lane occupancy substrate for the
// zipper-merge simulation road.
//
// A Grid is a fixed number of lanes, each a fixed-length run of cells. Lane 0
// is the leftmost (open) side; higher indices sit toward the blocked side.
// Each cell holds exactly one of: nothing, a blockage, or the ID of the
// occupying vehicle. The grid never owns vehicle records — a cell carries a
// back-reference ID and the vehicle record carries its (lane, position), and
// the two are updated in lockstep by the simulation stepper.
package grid

import (
	"fmt"
	"math/rand"
)

// VehicleID is a unique string identifier for a vehicle occupying a cell.
type VehicleID = string

// CellKind classifies the content of a single cell.
type CellKind string

const (
	CellEmpty    CellKind = "empty"
	CellBlockage CellKind = "blockage"
	CellVehicle  CellKind = "vehicle"
)

type cell struct {
	kind    CellKind
	vehicle VehicleID
}

// Grid is the road occupancy model.
type Grid struct {
	lanes        [][]cell
	laneLen      int
	blockedLanes int
	blockStart   int
	rng          *rand.Rand
}

// New constructs a Grid with laneCount lanes of laneLen cells each.
// The highest blockedLanes lane indices carry a contiguous blockage from
// blockStart to the lane end.
func New(laneCount, blockedLanes, laneLen, blockStart int, rng *rand.Rand) (*Grid, error) {
	if laneCount < 2 {
		return nil, fmt.Errorf("grid: lane count %d below minimum of 2", laneCount)
	}
	if blockedLanes < 1 || blockedLanes >= laneCount {
		return nil, fmt.Errorf("grid: blocked lane count %d must be in [1, %d]", blockedLanes, laneCount-1)
	}
	if laneLen < 1 {
		return nil, fmt.Errorf("grid: lane length %d below minimum of 1", laneLen)
	}
	if blockStart < 1 || blockStart >= laneLen {
		return nil, fmt.Errorf("grid: blockage start %d must be in [1, %d]", blockStart, laneLen-1)
	}

	g := &Grid{
		lanes:        make([][]cell, laneCount),
		laneLen:      laneLen,
		blockedLanes: blockedLanes,
		blockStart:   blockStart,
		rng:          rng,
	}
	for lane := range g.lanes {
		g.lanes[lane] = make([]cell, laneLen)
		for pos := range g.lanes[lane] {
			g.lanes[lane][pos] = cell{kind: CellEmpty}
		}
		if g.IsBlockedLane(lane) {
			for pos := blockStart; pos < laneLen; pos++ {
				g.lanes[lane][pos] = cell{kind: CellBlockage}
			}
		}
	}
	return g, nil
}

// LaneCount returns the number of lanes.
func (g *Grid) LaneCount() int { return len(g.lanes) }

// LaneLength returns the number of cells per lane.
func (g *Grid) LaneLength() int { return g.laneLen }

// BlockedLanes returns the number of lanes carrying a blockage.
func (g *Grid) BlockedLanes() int { return g.blockedLanes }

// BlockStart returns the cell index where the blockage begins in blocked lanes.
func (g *Grid) BlockStart() int { return g.blockStart }

// IsBlockedLane reports whether the given lane index carries a blockage.
// Blocked lanes are the highest blockedLanes indices.
func (g *Grid) IsBlockedLane(lane int) bool {
	return lane >= len(g.lanes)-g.blockedLanes
}

// inBounds reports whether (lane, pos) addresses a real cell.
func (g *Grid) inBounds(lane, pos int) bool {
	return lane >= 0 && lane < len(g.lanes) && pos >= 0 && pos < g.laneLen
}

// CellAt returns the classification and occupant (if any) of a cell.
// Out-of-bounds coordinates classify as a blockage so callers treat the
// road edge like an obstacle rather than open space.
func (g *Grid) CellAt(lane, pos int) (CellKind, VehicleID) {
	if !g.inBounds(lane, pos) {
		return CellBlockage, ""
	}
	c := g.lanes[lane][pos]
	return c.kind, c.vehicle
}

// IsEmpty reports whether a cell exists and holds nothing.
func (g *Grid) IsEmpty(lane, pos int) bool {
	if !g.inBounds(lane, pos) {
		return false
	}
	return g.lanes[lane][pos].kind == CellEmpty
}

// Place occupies a cell with id. It reports false without modifying the grid
// if the cell is out of bounds or not empty.
func (g *Grid) Place(id VehicleID, lane, pos int) bool {
	if !g.IsEmpty(lane, pos) {
		return false
	}
	g.lanes[lane][pos] = cell{kind: CellVehicle, vehicle: id}
	return true
}

// Vacate clears a vehicle-occupied cell. Blockage cells and out-of-bounds
// coordinates are left untouched.
func (g *Grid) Vacate(lane, pos int) {
	if !g.inBounds(lane, pos) {
		return
	}
	if g.lanes[lane][pos].kind == CellVehicle {
		g.lanes[lane][pos] = cell{kind: CellEmpty}
	}
}

// RandomOpenLane returns a uniformly chosen lane whose entry cell (position 0)
// is empty. It reports false if every entry cell is occupied.
func (g *Grid) RandomOpenLane() (int, bool) {
	open := make([]int, 0, len(g.lanes))
	for lane := range g.lanes {
		if g.IsEmpty(lane, 0) {
			open = append(open, lane)
		}
	}
	if len(open) == 0 {
		return 0, false
	}
	return open[g.rng.Intn(len(open))], true
}

// EmptyRunAhead returns the number of contiguous empty cells starting at
// pos+1 and walking toward the lane end. Out-of-lane coordinates yield 0.
func (g *Grid) EmptyRunAhead(lane, pos int) int {
	n := 0
	for p := pos + 1; p < g.laneLen && g.IsEmpty(lane, p); p++ {
		n++
	}
	return n
}

// EmptyRunBehind returns the number of contiguous empty cells starting at
// pos-1 and walking toward the lane entry. Out-of-lane coordinates yield 0.
func (g *Grid) EmptyRunBehind(lane, pos int) int {
	n := 0
	for p := pos - 1; p >= 0 && g.IsEmpty(lane, p); p-- {
		n++
	}
	return n
}
