package entities

// Location is a named place of residence with its altitude and the
// hemoglobin correction (g/dL) applied to readings taken from residents
type Location struct {
	Department         string  `json:"department"`
	Province           string  `json:"province"`
	District           string  `json:"district"`
	AltitudeMeters     int     `json:"altitude_meters"`
	AltitudeAdjustment float64 `json:"altitude_adjustment"`
	NameNormalized     string  `json:"-"` // Pre-computed lookup key, see catalog.NormalizeName
}
