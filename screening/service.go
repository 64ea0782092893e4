// Package screening composes the classifier and the dose calculator with
// the catalog: it resolves the patient's altitude correction and the
// supplement and guideline to dose with, then runs the pure engines.
package screening

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/giygas/anemia-api/catalog"
	"github.com/giygas/anemia-api/catalog/entities"
	"github.com/giygas/anemia-api/diagnosis"
	"github.com/giygas/anemia-api/dosing"
	"github.com/giygas/anemia-api/interfaces"
	"github.com/giygas/anemia-api/logging"
	"github.com/giygas/anemia-api/metrics"
	"github.com/giygas/anemia-api/validation"
	"github.com/google/uuid"
)

var (
	ErrUnknownSupplement = errors.New("unknown supplement")
	ErrUnknownLocation   = errors.New("unknown location")
)

// Service runs screenings against the catalog currently held by the store
type Service struct {
	dataStore interfaces.DataStore
	now       func() time.Time
}

func NewService(dataStore interfaces.DataStore) *Service {
	return &Service{
		dataStore: dataStore,
		now:       time.Now,
	}
}

// PatientInput describes one hemoglobin reading. The altitude correction
// comes from Location when set, otherwise from AltitudeAdjustment, and is
// zero when neither is given. Sex may be empty for children.
type PatientInput struct {
	BirthDate          time.Time
	Sex                diagnosis.Sex
	Pregnancy          diagnosis.Pregnancy
	Hemoglobin         float64
	Location           string
	AltitudeAdjustment *float64
}

// DiagnosisResult is a classification with the location it was corrected for
type DiagnosisResult struct {
	diagnosis.Diagnosis
	ObservedHemoglobin float64            `json:"observed_hemoglobin"`
	AltitudeAdjustment float64            `json:"altitude_adjustment"`
	Location           *entities.Location `json:"location,omitempty"`
}

// PrescriptionInput selects what to dose. An inline Supplement or
// Guideline takes precedence over the catalog. Without an inline
// guideline the patient's age picks the catalog row.
type PrescriptionInput struct {
	SupplementID    string
	Supplement      *entities.Supplement
	Guideline       *entities.DoseGuideline
	BirthDate       time.Time
	WeightKg        float64
	Severity        diagnosis.Severity
	TreatmentMonths int
}

// ScreeningInput is a reading plus the dosing inputs. Adults without a
// SupplementID get the tablet chosen by dosing.SelectAdultSupplement;
// children without one are only diagnosed.
type ScreeningInput struct {
	PatientInput
	SupplementID    string
	WeightKg        float64
	TreatmentMonths int
}

// Screening is the stored outcome of a full screening
type Screening struct {
	ID           string               `json:"id"`
	CreatedAt    time.Time            `json:"created_at"`
	Diagnosis    DiagnosisResult      `json:"diagnosis"`
	Prescription *dosing.Prescription `json:"prescription,omitempty"`
}

// today is the current calendar date as a UTC midnight, the same form
// birth dates are parsed into
func (s *Service) today() time.Time {
	year, month, day := s.now().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// FindLocation looks a place up by name, ignoring case and accents
func (s *Service) FindLocation(name string) (entities.Location, error) {
	location, ok := s.dataStore.GetLocationsMap()[catalog.NormalizeName(name)]
	if !ok {
		return entities.Location{}, fmt.Errorf("%w: %q", ErrUnknownLocation, name)
	}
	return location, nil
}

// FindSupplement returns a catalog supplement by ID
func (s *Service) FindSupplement(id string) (entities.Supplement, error) {
	supplement, ok := s.dataStore.GetSupplementsMap()[id]
	if !ok {
		return entities.Supplement{}, fmt.Errorf("%w: %q", ErrUnknownSupplement, id)
	}
	return supplement, nil
}

// Diagnose classifies a reading. An indeterminate classification is
// returned together with diagnosis.ErrIndeterminate.
func (s *Service) Diagnose(in PatientInput) (DiagnosisResult, error) {
	result := DiagnosisResult{ObservedHemoglobin: in.Hemoglobin}

	switch {
	case in.Location != "":
		location, err := s.FindLocation(in.Location)
		if err != nil {
			return DiagnosisResult{}, err
		}
		result.Location = &location
		result.AltitudeAdjustment = location.AltitudeAdjustment
	case in.AltitudeAdjustment != nil:
		result.AltitudeAdjustment = *in.AltitudeAdjustment
	}

	today := s.today()
	if err := validation.ValidateReading(in.BirthDate, today, in.Hemoglobin, result.AltitudeAdjustment); err != nil {
		return DiagnosisResult{}, err
	}

	state := diagnosis.Generic()
	if in.Sex != "" {
		var err error
		if state, err = diagnosis.StateFor(in.Sex, in.Pregnancy); err != nil {
			return DiagnosisResult{}, err
		}
	}

	classified, err := diagnosis.ClassifyAt(today, in.BirthDate, state, diagnosis.Reading{
		Observed:           in.Hemoglobin,
		AltitudeAdjustment: result.AltitudeAdjustment,
	})
	if err != nil && !errors.Is(err, diagnosis.ErrIndeterminate) {
		return DiagnosisResult{}, err
	}

	result.Diagnosis = classified
	metrics.ClassificationsTotal.WithLabelValues(classified.Severity.String()).Inc()
	return result, err
}

// Prescribe computes the dose for one supplement
func (s *Service) Prescribe(in PrescriptionInput) (dosing.Prescription, error) {
	if err := validation.ValidateDosing(in.WeightKg, in.TreatmentMonths); err != nil {
		return dosing.Prescription{}, err
	}

	supplement, err := s.resolveSupplement(in)
	if err != nil {
		return dosing.Prescription{}, err
	}

	guideline, err := s.resolveGuideline(supplement, in)
	if err != nil {
		return dosing.Prescription{}, err
	}

	prescription, err := dosing.Calculate(supplement, in.WeightKg, in.Severity.IsAnemic(), in.Severity, in.TreatmentMonths, guideline)
	if err != nil {
		return dosing.Prescription{}, err
	}

	metrics.PrescriptionsTotal.WithLabelValues(string(prescription.Formulation)).Inc()
	return prescription, nil
}

func (s *Service) resolveSupplement(in PrescriptionInput) (entities.Supplement, error) {
	if in.Supplement != nil {
		return *in.Supplement, nil
	}
	if in.SupplementID == "" {
		return entities.Supplement{}, fmt.Errorf("%w: no supplement given", ErrUnknownSupplement)
	}
	return s.FindSupplement(in.SupplementID)
}

// resolveGuideline matches a catalog row by age. Tablets are dosed per
// intake and need no row when the supplement has none.
func (s *Service) resolveGuideline(supplement entities.Supplement, in PrescriptionInput) (entities.DoseGuideline, error) {
	if in.Guideline != nil {
		return *in.Guideline, nil
	}
	if supplement.Formulation == entities.FormulationTablet && len(supplement.Guidelines) == 0 {
		return entities.DoseGuideline{}, nil
	}

	ageDays, err := diagnosis.AgeInDays(s.today(), in.BirthDate)
	if err != nil {
		return entities.DoseGuideline{}, fmt.Errorf("%w: %w", validation.ErrInvalidPatient, err)
	}

	guideline, err := dosing.MatchGuideline(supplement.Guidelines, ageDays)
	if err != nil {
		return entities.DoseGuideline{}, fmt.Errorf("supplement %s: %w", supplement.ID, err)
	}
	return guideline, nil
}

// Screen diagnoses the patient and, when a supplement applies, prescribes
// it. Indeterminate classifications are returned without a prescription
// along with diagnosis.ErrIndeterminate.
func (s *Service) Screen(in ScreeningInput) (Screening, error) {
	result, err := s.Diagnose(in.PatientInput)
	screening := Screening{
		ID:        uuid.NewString(),
		CreatedAt: s.now().UTC(),
		Diagnosis: result,
	}
	if errors.Is(err, diagnosis.ErrIndeterminate) {
		logging.Warn("Screening left without prescription", "screening_id", screening.ID, "age_days", result.AgeDays)
		return screening, err
	}
	if err != nil {
		return Screening{}, err
	}

	supplementID := in.SupplementID
	if supplementID == "" {
		if result.AgeDays < diagnosis.GenericAgeLimit {
			return screening, nil
		}
		pregnantOrLactating := slices.Contains(
			[]diagnosis.PregnancyStatus{diagnosis.PregnancyPregnant, diagnosis.PregnancyPostpartum},
			in.Pregnancy.Status,
		)
		if supplementID, err = dosing.SelectAdultSupplement(in.Sex, result.Anemic(), pregnantOrLactating); err != nil {
			return Screening{}, err
		}
	}

	prescription, err := s.Prescribe(PrescriptionInput{
		SupplementID:    supplementID,
		BirthDate:       in.BirthDate,
		WeightKg:        in.WeightKg,
		Severity:        result.Severity,
		TreatmentMonths: in.TreatmentMonths,
	})
	if err != nil {
		return Screening{}, err
	}

	screening.Prescription = &prescription
	logging.Debug("Screening completed",
		"screening_id", screening.ID,
		"severity", result.Severity.String(),
		"supplement_id", prescription.SupplementID,
	)
	return screening, nil
}
