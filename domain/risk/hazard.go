package risk

import (
	"fmt"
)

// Hazard is a probabilistic event set. Intensity[e][c] is the intensity of
// event e at centroid c; Frequency[e] is its annual frequency.
type Hazard struct {
	Type          string      `json:"type"`
	IntensityUnit string      `json:"intensity_unit,omitempty"`
	EventIDs      []int       `json:"event_ids"`
	Frequency     []float64   `json:"frequency"`
	Intensity     [][]float64 `json:"intensity"`
}

// Events is the number of events
func (h *Hazard) Events() int { return len(h.EventIDs) }

// Centroids is the number of centroids
func (h *Hazard) Centroids() int {
	if len(h.Intensity) == 0 {
		return 0
	}
	return len(h.Intensity[0])
}

// Validate checks that event attributes are aligned and the intensity
// matrix is rectangular
func (h *Hazard) Validate() error {
	n := len(h.EventIDs)
	if len(h.Frequency) != n || len(h.Intensity) != n {
		return fmt.Errorf("hazard: %d event ids, %d frequencies, %d intensity rows", n, len(h.Frequency), len(h.Intensity))
	}
	c := h.Centroids()
	for e, row := range h.Intensity {
		if len(row) != c {
			return fmt.Errorf("hazard: event %d has %d centroids, want %d", h.EventIDs[e], len(row), c)
		}
	}
	for e, f := range h.Frequency {
		if f < 0 {
			return fmt.Errorf("hazard: event %d has negative frequency %g", h.EventIDs[e], f)
		}
	}
	return nil
}

// ScaledIntensity returns a copy with every intensity multiplied by x
func (h *Hazard) ScaledIntensity(x float64) *Hazard {
	out := *h
	out.Intensity = make([][]float64, len(h.Intensity))
	for e, row := range h.Intensity {
		scaled := make([]float64, len(row))
		for c, v := range row {
			scaled[c] = v * x
		}
		out.Intensity[e] = scaled
	}
	return &out
}

// ScaledFrequency returns a copy with every frequency multiplied by x
func (h *Hazard) ScaledFrequency(x float64) *Hazard {
	out := *h
	out.Frequency = make([]float64, len(h.Frequency))
	for e, f := range h.Frequency {
		out.Frequency[e] = f * x
	}
	return &out
}
