package sim

import (
	"sort"

	"github.com/mergeworks/zipsim/internal/grid"
	"github.com/mergeworks/zipsim/internal/vehicle"
)

// AdvanceTick runs one full simulation tick: the order, drive, and retire
// passes described in the package documentation. The tick, including
// removals and record retirement, completes before the method returns.
func (r *Road) AdvanceTick() {
	dt := r.params.TickSeconds

	// Order pass: rear vehicles first within each lane, so every vehicle
	// still sees the pre-move position of the traffic ahead of it.
	ordered := make([]*vehicleRef, 0, len(r.vehicles))
	for _, v := range r.vehicles {
		ordered = append(ordered, &vehicleRef{v: v})
	}
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i].v, ordered[j].v
		if a.Lane != b.Lane {
			return a.Lane < b.Lane
		}
		return a.Pos < b.Pos
	})

	// Drive pass.
	for _, ref := range ordered {
		v := ref.v
		v.LastUpdate = r.now
		v.Distance += v.Speed * dt

		r.engine.Step(v)

		desired := int(v.Distance/r.params.CellFeet) - 1
		if desired < 0 {
			desired = 0
		}
		if desired <= v.Pos {
			continue
		}

		// Never teleport past the first obstacle: the forward move is
		// clamped to the open run ahead in the (post-merge) lane.
		ahead := r.grid.Scan(v.Lane, v.Pos, grid.TargetAny)
		newPos := desired
		if run, ok := ahead.Found(); ok && v.Pos+run < newPos {
			newPos = v.Pos + run
		}
		if newPos == v.Pos {
			continue
		}

		if newPos >= r.params.LaneLength || ahead.IsOutOfBounds() {
			ref.exited = true
			continue
		}
		if !r.grid.Place(v.ID, v.Lane, newPos) {
			// Occupied destination reads as "reached the grid boundary".
			ref.exited = true
			continue
		}
		r.grid.Vacate(v.Lane, v.Pos)
		v.Pos = newPos
	}

	// Retire pass.
	for _, ref := range ordered {
		if ref.exited {
			r.retire(ref.v)
		}
	}
	r.purgeExpired()

	r.now += dt
}

type vehicleRef struct {
	v      *vehicle.Vehicle
	exited bool
}
