package diagnosis

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrIndeterminate is returned when no rule row matches the patient
	ErrIndeterminate = errors.New("no classification rule matches the patient state")
	// ErrInvalidInput is returned for readings or dates that cannot be classified
	ErrInvalidInput = errors.New("invalid classification input")
)

// Reading is an observed hemoglobin value with the altitude correction
// for the patient's residence, both in g/dL
type Reading struct {
	Observed           float64 `json:"observed"`
	AltitudeAdjustment float64 `json:"altitude_adjustment"`
}

// Adjusted is the value compared against thresholds
func (r Reading) Adjusted() float64 {
	return roundTo(r.Observed-r.AltitudeAdjustment, 2)
}

// Diagnosis is the outcome of a classification
type Diagnosis struct {
	AgeDays            int      `json:"age_days"`
	AdjustedHemoglobin float64  `json:"adjusted_hemoglobin"`
	Severity           Severity `json:"severity"`
	Label              string   `json:"label"`
}

// Anemic reports whether any degree of anemia was found
func (d Diagnosis) Anemic() bool {
	return d.Severity.IsAnemic()
}

// Classify evaluates the reading against today's age of the patient
func Classify(birthDate time.Time, state State, reading Reading) (Diagnosis, error) {
	return ClassifyAt(time.Now(), birthDate, state, reading)
}

// ClassifyAt evaluates the reading with an explicit reference date.
// When no rule row applies the returned Diagnosis carries
// SeverityIndeterminate and the error wraps ErrIndeterminate.
func ClassifyAt(today, birthDate time.Time, state State, reading Reading) (Diagnosis, error) {
	ageDays, err := AgeInDays(today, birthDate)
	if err != nil {
		return Diagnosis{}, err
	}
	if reading.Observed <= 0 || math.IsNaN(reading.Observed) || math.IsInf(reading.Observed, 0) {
		return Diagnosis{}, fmt.Errorf("%w: observed hemoglobin %v", ErrInvalidInput, reading.Observed)
	}
	if reading.AltitudeAdjustment < 0 || math.IsNaN(reading.AltitudeAdjustment) || math.IsInf(reading.AltitudeAdjustment, 0) {
		return Diagnosis{}, fmt.Errorf("%w: altitude adjustment %v", ErrInvalidInput, reading.AltitudeAdjustment)
	}

	adjusted := reading.Adjusted()
	if adjusted <= 0 {
		return Diagnosis{}, fmt.Errorf("%w: adjusted hemoglobin %v", ErrInvalidInput, adjusted)
	}
	diagnosis := Diagnosis{
		AgeDays:            ageDays,
		AdjustedHemoglobin: adjusted,
	}

	thresholds, ok := selectThresholds(ageDays, state)
	if !ok {
		diagnosis.Severity = SeverityIndeterminate
		diagnosis.Label = SeverityIndeterminate.Label()
		return diagnosis, fmt.Errorf("%w: age %d days, state %+v", ErrIndeterminate, ageDays, state)
	}

	diagnosis.Severity = Evaluate(thresholds, adjusted)
	diagnosis.Label = diagnosis.Severity.Label()
	return diagnosis, nil
}

// Evaluate scans thresholds in ascending order; the first limit at or
// above the value wins and no match means no anemia
func Evaluate(thresholds []Threshold, adjusted float64) Severity {
	for _, threshold := range thresholds {
		if adjusted <= threshold.Limit {
			return threshold.Severity
		}
	}
	return SeverityNone
}

func selectThresholds(ageDays int, state State) ([]Threshold, bool) {
	if ageDays < GenericAgeLimit {
		return bracketFor(genericBrackets, ageDays)
	}

	switch state.Kind {
	case StateAdultMale:
		return bracketFor(maleBrackets, ageDays)
	case StateAdultFemale:
		switch {
		case state.Postpartum:
			return postpartumThresholds, true
		case state.Pregnant:
			thresholds, ok := trimesterThresholds[state.Trimester]
			return thresholds, ok
		default:
			return bracketFor(femaleBrackets, ageDays)
		}
	}
	return nil, false
}

func bracketFor(brackets []AgeBracket, ageDays int) ([]Threshold, bool) {
	for _, bracket := range brackets {
		if ageDays < bracket.UpperBoundDays {
			return bracket.Thresholds, true
		}
	}
	return nil, false
}

// AgeInDays counts whole calendar days between birth and today. Both dates
// are reduced to their calendar day in UTC; a future birth date is an error.
func AgeInDays(today, birthDate time.Time) (int, error) {
	if birthDate.IsZero() {
		return 0, fmt.Errorf("%w: missing birth date", ErrInvalidInput)
	}
	from := calendarDay(birthDate)
	to := calendarDay(today)
	if from.After(to) {
		return 0, fmt.Errorf("%w: birth date %s is in the future", ErrInvalidInput, birthDate.Format(time.DateOnly))
	}
	return int(to.Sub(from).Hours() / 24), nil
}

func calendarDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func roundTo(value float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(value*factor) / factor
}
