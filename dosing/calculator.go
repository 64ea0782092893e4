// Package dosing computes iron-supplement prescriptions: the per-intake
// dose, its unit and the number of containers that cover the treatment.
package dosing

import (
	"errors"
	"fmt"
	"math"

	"github.com/giygas/anemia-api/catalog/entities"
	"github.com/giygas/anemia-api/diagnosis"
)

// Dosing conventions
const (
	DropsPerML        = 20
	DaysPerMonth      = 30 // fixed month, not calendar-accurate
	TabletsPerBlister = 100
)

// ProphylacticFactor scales the therapeutic dose for non-anemic patients
const ProphylacticFactor = 2.0 / 3.0

const epsilon = 1e-9

var (
	ErrInvalidInput           = errors.New("invalid dosing input")
	ErrUnsupportedFormulation = errors.New("unsupported formulation")
)

var unitMeasures = map[entities.Formulation]string{
	entities.FormulationDrops:  "gotas",
	entities.FormulationSyrup:  "ml",
	entities.FormulationTablet: "tabletas",
	entities.FormulationPowder: "gramos",
}

// UnitMeasure returns the unit in which a formulation is prescribed
func UnitMeasure(formulation entities.Formulation) string {
	if unit, ok := unitMeasures[formulation]; ok {
		return unit
	}
	return "unidades"
}

// Prescription is the computed dose for one supplement and treatment
type Prescription struct {
	SupplementID          string               `json:"supplement_id"`
	Formulation           entities.Formulation `json:"formulation"`
	PrescribedDose        float64              `json:"prescribed_dose"`
	UnitMeasure           string               `json:"unit_measure"`
	DosesPerDay           int                  `json:"doses_per_day"`
	DailyAmount           float64              `json:"daily_amount"`
	TotalDose             float64              `json:"total_dose"`
	NumberOfContainers    int                  `json:"containers_needed"`
	TreatmentDurationDays int                  `json:"duration_days"`
	Prophylactic          bool                 `json:"prophylactic"`
}

// Calculate computes the prescription for a supplement. The guideline must
// already be matched to the patient's age (see MatchGuideline).
func Calculate(
	supplement entities.Supplement,
	weightKg float64,
	isAnemic bool,
	severity diagnosis.Severity,
	treatmentMonths int,
	guideline entities.DoseGuideline,
) (Prescription, error) {
	if weightKg <= 0 || math.IsNaN(weightKg) || math.IsInf(weightKg, 0) {
		return Prescription{}, fmt.Errorf("%w: weight %v kg", ErrInvalidInput, weightKg)
	}
	if treatmentMonths <= 0 {
		return Prescription{}, fmt.Errorf("%w: treatment of %d months", ErrInvalidInput, treatmentMonths)
	}
	if severity == diagnosis.SeverityIndeterminate {
		return Prescription{}, fmt.Errorf("%w: cannot dose an indeterminate classification", ErrInvalidInput)
	}
	if guideline.SupplementID != "" && guideline.SupplementID != supplement.ID {
		return Prescription{}, fmt.Errorf("%w: guideline for %q applied to %q", ErrInvalidInput, guideline.SupplementID, supplement.ID)
	}

	prescription := Prescription{
		SupplementID:          supplement.ID,
		Formulation:           supplement.Formulation,
		UnitMeasure:           UnitMeasure(supplement.Formulation),
		TreatmentDurationDays: treatmentMonths * DaysPerMonth,
	}

	switch supplement.Formulation {
	case entities.FormulationDrops, entities.FormulationSyrup, entities.FormulationPowder:
		return measuredDose(prescription, supplement, weightKg, isAnemic, guideline)
	case entities.FormulationTablet:
		return tabletDose(prescription, isAnemic, severity), nil
	}
	return prescription, fmt.Errorf("%w: %q", ErrUnsupportedFormulation, supplement.Formulation)
}

// DailyDose is the daily volume (mL) or mass (g) of a measured formulation.
// Non-anemic patients receive the prophylactic fraction.
func DailyDose(weightKg, doseMgPerKgPerDay, elementalIronPerUnit float64, isAnemic bool) float64 {
	if isAnemic {
		return weightKg * doseMgPerKgPerDay / elementalIronPerUnit
	}
	return weightKg * ProphylacticFactor * doseMgPerKgPerDay / elementalIronPerUnit
}

func measuredDose(p Prescription, supplement entities.Supplement, weightKg float64, isAnemic bool, guideline entities.DoseGuideline) (Prescription, error) {
	if supplement.ElementalIronPerUnit <= 0 {
		return Prescription{}, fmt.Errorf("%w: elemental iron %v for %s", ErrInvalidInput, supplement.ElementalIronPerUnit, supplement.ID)
	}
	if supplement.ContainerContent <= 0 {
		return Prescription{}, fmt.Errorf("%w: container content %v for %s", ErrInvalidInput, supplement.ContainerContent, supplement.ID)
	}
	if guideline.DoseAmountMgPerKgPerDay <= 0 {
		return Prescription{}, fmt.Errorf("%w: guideline dose %v mg/kg/day", ErrInvalidInput, guideline.DoseAmountMgPerKgPerDay)
	}

	daily := DailyDose(weightKg, guideline.DoseAmountMgPerKgPerDay, supplement.ElementalIronPerUnit, isAnemic)
	days := float64(p.TreatmentDurationDays)

	p.DosesPerDay = 1
	p.DailyAmount = daily
	p.Prophylactic = !isAnemic

	if supplement.Formulation == entities.FormulationDrops {
		perIntakeDrops := RoundHalfUp(daily * DropsPerML)
		totalDrops := perIntakeDrops * days
		p.PrescribedDose = perIntakeDrops
		p.TotalDose = totalDrops
		p.NumberOfContainers = CeilUnits(totalDrops / (supplement.ContainerContent * DropsPerML))
	} else {
		prescribed := RoundHalfUp(daily)
		p.PrescribedDose = prescribed
		p.TotalDose = prescribed * days
		// rounding down must not shrink the supply below the computed need
		p.NumberOfContainers = CeilUnits(math.Max(daily, prescribed) * days / supplement.ContainerContent)
	}

	if p.PrescribedDose <= 0 {
		return Prescription{}, fmt.Errorf("%w: dose of %.3f %s rounds to zero", ErrInvalidInput, daily, p.UnitMeasure)
	}
	return p, nil
}

func tabletDose(p Prescription, isAnemic bool, severity diagnosis.Severity) Prescription {
	dosesPerDay := 1
	if isAnemic || severity != diagnosis.SeverityNone {
		dosesPerDay = 2
	}
	totalTablets := dosesPerDay * p.TreatmentDurationDays

	p.DosesPerDay = dosesPerDay
	p.PrescribedDose = float64(dosesPerDay)
	p.DailyAmount = float64(dosesPerDay)
	p.TotalDose = float64(totalTablets)
	p.NumberOfContainers = CeilUnits(float64(totalTablets) / TabletsPerBlister)
	p.Prophylactic = dosesPerDay == 1
	return p
}

// RoundHalfUp rounds a non-negative dose to the nearest whole unit
func RoundHalfUp(value float64) float64 {
	return math.Floor(value + 0.5 + epsilon)
}

// CeilUnits rounds a container count up, ignoring float noise
func CeilUnits(value float64) int {
	return int(math.Ceil(value - epsilon))
}
