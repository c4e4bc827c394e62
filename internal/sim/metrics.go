package sim

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/mergeworks/zipsim/internal/vehicle"
)

// Completion records one vehicle's full traversal of the road. Records are
// dropped once their expiry passes; only the metrics read them.
type Completion struct {
	OriginLane int     `json:"origin_lane"`
	Duration   float64 `json:"duration_s"`
	Expiry     float64 `json:"expiry_s"`
}

// retire removes v from the road and the grid and appends its completion and
// trail records.
func (r *Road) retire(v *vehicle.Vehicle) {
	r.grid.Vacate(v.Lane, v.Pos)
	delete(r.byID, v.ID)
	for i, w := range r.vehicles {
		if w == v {
			r.vehicles = append(r.vehicles[:i], r.vehicles[i+1:]...)
			break
		}
	}

	r.totalCompleted++
	expiry := r.now + r.params.RetentionSeconds
	r.completions = append(r.completions, Completion{
		OriginLane: v.OriginLane,
		Duration:   r.now - v.Created,
		Expiry:     expiry,
	})
	r.trails = append(r.trails, expiry)
}

// purgeExpired drops completion and trail records whose expiry has passed.
func (r *Road) purgeExpired() {
	completions := r.completions[:0]
	for _, c := range r.completions {
		if c.Expiry > r.now {
			completions = append(completions, c)
		}
	}
	r.completions = completions

	trails := r.trails[:0]
	for _, t := range r.trails {
		if t > r.now {
			trails = append(trails, t)
		}
	}
	r.trails = trails
}

// Throughput returns the sliding-window completion rate in vehicles per
// second: unexpired trail records divided by the retention window.
func (r *Road) Throughput() float64 {
	return float64(len(r.trails)) / r.params.RetentionSeconds
}

// Fairness returns 1/(1+CV) over the travel durations of unexpired
// completion records, where CV is the population coefficient of variation.
// Fewer than two records, or a zero mean, read as perfectly fair (1).
func (r *Road) Fairness() float64 {
	n := len(r.completions)
	if n < 2 {
		return 1
	}
	durations := make([]float64, n)
	for i, c := range r.completions {
		durations[i] = c.Duration
	}

	mean := stat.Mean(durations, nil)
	if mean == 0 {
		return 1
	}
	// stat.Variance is the unbiased sample variance; rescale to the
	// population variance the fairness score is defined over.
	popVar := stat.Variance(durations, nil) * float64(n-1) / float64(n)
	cv := math.Sqrt(popVar) / mean
	return 1 / (1 + cv)
}

// Completions returns the unexpired completion records.
func (r *Road) Completions() []Completion {
	out := make([]Completion, len(r.completions))
	copy(out, r.completions)
	return out
}
