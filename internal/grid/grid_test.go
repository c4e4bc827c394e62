package grid

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGrid(t *testing.T, lanes, blocked, laneLen, blockStart int) *Grid {
	t.Helper()
	g, err := New(lanes, blocked, laneLen, blockStart, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	return g
}

func TestNewRejectsInvalidShapes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	tests := []struct {
		name       string
		lanes      int
		blocked    int
		laneLen    int
		blockStart int
	}{
		{"one lane", 1, 1, 100, 60},
		{"all lanes blocked", 3, 3, 100, 60},
		{"more blocked than lanes", 2, 5, 100, 60},
		{"zero blocked", 4, 0, 100, 60},
		{"zero length", 4, 1, 0, 60},
		{"block start past lane end", 4, 1, 100, 100},
		{"block start at entry", 4, 1, 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.lanes, tt.blocked, tt.laneLen, tt.blockStart, rng)
			assert.Error(t, err)
		})
	}
}

func TestBlockageLayout(t *testing.T) {
	g := newTestGrid(t, 4, 2, 100, 60)

	assert.False(t, g.IsBlockedLane(0))
	assert.False(t, g.IsBlockedLane(1))
	assert.True(t, g.IsBlockedLane(2))
	assert.True(t, g.IsBlockedLane(3))

	kind, _ := g.CellAt(3, 59)
	assert.Equal(t, CellEmpty, kind)
	kind, _ = g.CellAt(3, 60)
	assert.Equal(t, CellBlockage, kind)
	kind, _ = g.CellAt(3, 99)
	assert.Equal(t, CellBlockage, kind)
	kind, _ = g.CellAt(0, 99)
	assert.Equal(t, CellEmpty, kind)
}

func TestPlaceAndVacate(t *testing.T) {
	g := newTestGrid(t, 2, 1, 100, 60)

	require.True(t, g.Place("a", 0, 10))
	kind, id := g.CellAt(0, 10)
	assert.Equal(t, CellVehicle, kind)
	assert.Equal(t, "a", id)

	// Occupied cell rejects a second placement without modifying it.
	assert.False(t, g.Place("b", 0, 10))
	_, id = g.CellAt(0, 10)
	assert.Equal(t, "a", id)

	// Blockage cells and out-of-bounds cells reject placement.
	assert.False(t, g.Place("b", 1, 70))
	assert.False(t, g.Place("b", 5, 0))
	assert.False(t, g.Place("b", 0, 100))

	g.Vacate(0, 10)
	assert.True(t, g.IsEmpty(0, 10))

	// Vacate never clears a blockage.
	g.Vacate(1, 70)
	kind, _ = g.CellAt(1, 70)
	assert.Equal(t, CellBlockage, kind)
}

func TestScanTaggedResults(t *testing.T) {
	g := newTestGrid(t, 2, 1, 100, 60)
	require.True(t, g.Place("a", 0, 5))

	// Offset 0 means the cell immediately ahead matches.
	d := g.Scan(0, 4, TargetAny)
	n, ok := d.Found()
	require.True(t, ok)
	assert.Equal(t, 0, n)

	d = g.Scan(0, 0, TargetVehicle)
	n, ok = d.Found()
	require.True(t, ok)
	assert.Equal(t, 4, n)

	// Vehicle-only scans skip blockages and vice versa. An exhausted scan
	// flattens to the lane length.
	d = g.Scan(0, 0, TargetBlockage)
	_, ok = d.Found()
	assert.False(t, ok)
	assert.Equal(t, 100, d.Cells())

	d = g.Scan(1, 0, TargetBlockage)
	n, ok = d.Found()
	require.True(t, ok)
	assert.Equal(t, 59, n)

	// Scans from at-or-past the last cell are a distinct boundary case.
	d = g.Scan(0, 99, TargetAny)
	assert.True(t, d.IsOutOfBounds())
	assert.Equal(t, 0, d.Cells())

	d = g.Scan(-1, 0, TargetAny)
	assert.True(t, d.IsOutOfBounds())
}

// The flattened far value tracks the configured lane length so it never
// undercuts gap arithmetic on roads longer than the default.
func TestScanFarTracksLaneLength(t *testing.T) {
	g := newTestGrid(t, 2, 1, 150, 90)

	d := g.Scan(0, 0, TargetVehicle)
	_, ok := d.Found()
	assert.False(t, ok)
	assert.Equal(t, 150, d.Cells())
}

func TestRandomOpenLane(t *testing.T) {
	g := newTestGrid(t, 3, 1, 100, 60)

	seen := make(map[int]bool)
	for i := 0; i < 200; i++ {
		lane, ok := g.RandomOpenLane()
		require.True(t, ok)
		seen[lane] = true
	}
	assert.Len(t, seen, 3, "all entry lanes should be chosen eventually")

	for lane := 0; lane < 3; lane++ {
		require.True(t, g.Place(VehicleID(rune('a'+lane)), lane, 0))
	}
	_, ok := g.RandomOpenLane()
	assert.False(t, ok)
}

func TestEmptyRuns(t *testing.T) {
	g := newTestGrid(t, 2, 1, 100, 60)
	require.True(t, g.Place("a", 0, 10))
	require.True(t, g.Place("b", 0, 14))

	assert.Equal(t, 3, g.EmptyRunAhead(0, 10))
	assert.Equal(t, 3, g.EmptyRunBehind(0, 14))
	assert.Equal(t, 10, g.EmptyRunBehind(0, 10))
}
