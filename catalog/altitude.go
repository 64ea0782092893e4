package catalog

import "math"

// AltitudeAdjustment is the hemoglobin correction (g/dL) subtracted from a
// reading taken at the given altitude. Below 1000 m no correction applies.
func AltitudeAdjustment(meters int) float64 {
	if meters < 1000 {
		return 0
	}
	// altitude in thousands of feet
	a := float64(meters) * 3.3 / 1000
	adj := -0.032*a + 0.022*a*a
	if adj < 0 {
		return 0
	}
	return math.Round(adj*10) / 10
}
