package sim

import (
	"github.com/mergeworks/zipsim/internal/grid"
	"github.com/mergeworks/zipsim/internal/vehicle"
)

// VehicleSnapshot is a point-in-time, read-only view of one vehicle, shaped
// for rendering consumers.
type VehicleSnapshot struct {
	ID       grid.VehicleID `json:"vehicle_id"`
	Lane     int            `json:"lane"`
	Position int            `json:"position"`
	Speed    float64        `json:"speed"`
	State    vehicle.State  `json:"state"`
	Signal   bool           `json:"signal"`
	Color    string         `json:"color"`
	Distance float64        `json:"distance_ft"`
	LetIn    int            `json:"let_in"`
}

// Snapshot is the state of the road at a single tick boundary: every
// vehicle, every cell classification, and the current metrics.
type Snapshot struct {
	Timestamp  float64           `json:"timestamp"` // seconds
	Vehicles   []VehicleSnapshot `json:"vehicles"`
	Cells      [][]grid.CellKind `json:"cells"`
	Throughput float64           `json:"throughput"`
	Fairness   float64           `json:"fairness"`
}

// Snapshot captures the current road state. The returned value shares
// nothing with the live simulation.
func (r *Road) Snapshot() Snapshot {
	vehicles := make([]VehicleSnapshot, len(r.vehicles))
	for i, v := range r.vehicles {
		vehicles[i] = VehicleSnapshot{
			ID:       v.ID,
			Lane:     v.Lane,
			Position: v.Pos,
			Speed:    v.Speed,
			State:    v.State,
			Signal:   v.Signal,
			Color:    v.Color,
			Distance: v.Distance,
			LetIn:    v.LetIn,
		}
	}

	cells := make([][]grid.CellKind, r.grid.LaneCount())
	for lane := range cells {
		cells[lane] = make([]grid.CellKind, r.grid.LaneLength())
		for pos := range cells[lane] {
			kind, _ := r.grid.CellAt(lane, pos)
			cells[lane][pos] = kind
		}
	}

	return Snapshot{
		Timestamp:  r.now,
		Vehicles:   vehicles,
		Cells:      cells,
		Throughput: r.Throughput(),
		Fairness:   r.Fairness(),
	}
}
