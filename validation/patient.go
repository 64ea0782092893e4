package validation

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidPatient is returned when patient data fails boundary checks
var ErrInvalidPatient = errors.New("invalid patient data")

// MaxHemoglobin is the highest plausible reading in g/dL
const MaxHemoglobin = 25.0

// Patient holds the numeric inputs of a screening. Zero WeightKg and
// TreatmentMonths mean the caller only needs a diagnosis.
type Patient struct {
	BirthDate          time.Time
	Hemoglobin         float64
	AltitudeAdjustment float64
	WeightKg           float64
	TreatmentMonths    int
}

// ValidateReading checks the inputs the classifier needs
func ValidateReading(birthDate, today time.Time, hemoglobin, altitudeAdjustment float64) error {
	var errs []error

	if birthDate.IsZero() {
		errs = append(errs, fmt.Errorf("birth date is required"))
	} else if birthDate.After(today) {
		errs = append(errs, fmt.Errorf("birth date %s is in the future", birthDate.Format(time.DateOnly)))
	}

	if !isFinite(hemoglobin) || hemoglobin <= 0 {
		errs = append(errs, fmt.Errorf("hemoglobin must be positive, got %v", hemoglobin))
	} else if hemoglobin > MaxHemoglobin {
		errs = append(errs, fmt.Errorf("hemoglobin %v g/dL is above %v", hemoglobin, MaxHemoglobin))
	}

	if !isFinite(altitudeAdjustment) || altitudeAdjustment < 0 {
		errs = append(errs, fmt.Errorf("altitude adjustment must not be negative, got %v", altitudeAdjustment))
	}

	return wrapPatientErrors(errs)
}

// ValidatePatient checks a reading plus the inputs needed for dosing
func ValidatePatient(p Patient, today time.Time) error {
	var errs []error

	if err := ValidateReading(p.BirthDate, today, p.Hemoglobin, p.AltitudeAdjustment); err != nil {
		errs = append(errs, err)
	}
	if err := ValidateDosing(p.WeightKg, p.TreatmentMonths); err != nil {
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

// ValidateDosing checks weight and treatment duration
func ValidateDosing(weightKg float64, treatmentMonths int) error {
	var errs []error

	if !isFinite(weightKg) || weightKg <= 0 {
		errs = append(errs, fmt.Errorf("weight must be positive, got %v kg", weightKg))
	}
	if treatmentMonths <= 0 {
		errs = append(errs, fmt.Errorf("treatment must last at least one month, got %d", treatmentMonths))
	}

	return wrapPatientErrors(errs)
}

func wrapPatientErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidPatient, errors.Join(errs...))
}

func isFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}
