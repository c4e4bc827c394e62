package grid

// Target selects which cell class a scan is looking for.
type Target int

const (
	// TargetAny matches any occupied cell (vehicle or blockage).
	TargetAny Target = iota
	// TargetBlockage matches blockage cells only.
	TargetBlockage
	// TargetVehicle matches vehicle-occupied cells only.
	TargetVehicle
)

type scanKind int

const (
	scanFound scanKind = iota
	scanNotFound
	scanOutOfBounds
)

// Distance is the tagged result of a forward scan. It distinguishes a real
// measurement from "nothing matched before the lane end" and from "the scan
// started at or past the last cell", so call sites cannot mistake one for
// a measured offset.
type Distance struct {
	kind  scanKind
	cells int
}

// FoundAt constructs a measured distance of n cells.
func FoundAt(n int) Distance { return Distance{kind: scanFound, cells: n} }

// NotFound is the result of a scan that reached the lane end without a
// match. far is the flattened distance Cells reports for it; Scan passes the
// grid's lane length, so arithmetic treating the result as "a long way off"
// stays safe at any configured lane length.
func NotFound(far int) Distance { return Distance{kind: scanNotFound, cells: far} }

// OutOfBounds is the result of a scan starting at or past the last cell.
func OutOfBounds() Distance { return Distance{kind: scanOutOfBounds} }

// Found returns the measured offset and true, or (0, false) for the
// NotFound and OutOfBounds cases.
func (d Distance) Found() (int, bool) {
	if d.kind != scanFound {
		return 0, false
	}
	return d.cells, true
}

// IsOutOfBounds reports whether the scan started at or past the last cell.
func (d Distance) IsOutOfBounds() bool { return d.kind == scanOutOfBounds }

// Cells flattens the result for gap arithmetic: a measured offset is returned
// as-is, an exhausted scan reads as its far value, and an out-of-bounds scan
// reads as 0 (there is no room ahead of the last cell).
func (d Distance) Cells() int {
	if d.kind == scanOutOfBounds {
		return 0
	}
	return d.cells
}

// matches reports whether c satisfies the target class.
func (t Target) matches(c cell) bool {
	switch t {
	case TargetBlockage:
		return c.kind == CellBlockage
	case TargetVehicle:
		return c.kind == CellVehicle
	default:
		return c.kind != CellEmpty
	}
}

// Scan walks forward from pos+1 to the lane end and returns the 0-based
// offset of the first cell matching target. An offset of 0 means the cell
// immediately ahead matches. Scans from unknown lanes or from at-or-past the
// last cell report OutOfBounds.
func (g *Grid) Scan(lane, pos int, target Target) Distance {
	if lane < 0 || lane >= len(g.lanes) || pos < 0 || pos >= g.laneLen-1 {
		return OutOfBounds()
	}
	for p := pos + 1; p < g.laneLen; p++ {
		if target.matches(g.lanes[lane][p]) {
			return FoundAt(p - pos - 1)
		}
	}
	return NotFound(g.laneLen)
}
