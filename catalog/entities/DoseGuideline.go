package entities

// DoseGuideline is an age-indexed dosing row. Both bounds are inclusive.
type DoseGuideline struct {
	SupplementID            string  `json:"supplement_id"`
	FromAgeDays             int     `json:"from_age_days"`
	ToAgeDays               int     `json:"to_age_days"`
	DoseAmountMgPerKgPerDay float64 `json:"dose_mg_per_kg_per_day"`
}

// Covers reports whether the age falls inside the interval
func (g DoseGuideline) Covers(ageDays int) bool {
	return ageDays >= g.FromAgeDays && ageDays <= g.ToAgeDays
}

// Overlaps reports whether two intervals share at least one day
func (g DoseGuideline) Overlaps(other DoseGuideline) bool {
	return g.FromAgeDays <= other.ToAgeDays && other.FromAgeDays <= g.ToAgeDays
}
