package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/giygas/anemia-api/catalog/entities"
	"github.com/giygas/anemia-api/diagnosis"
	"github.com/giygas/anemia-api/interfaces"
	"github.com/giygas/anemia-api/screening"
)

// PatientRequest is the JSON body of POST /v1/diagnosis
type PatientRequest struct {
	BirthDate          string              `json:"birth_date"`
	Sex                string              `json:"sex,omitempty"`
	Pregnancy          diagnosis.Pregnancy `json:"pregnancy"`
	Hemoglobin         float64             `json:"hemoglobin"`
	Location           string              `json:"location,omitempty"`
	AltitudeAdjustment *float64            `json:"altitude_adjustment,omitempty"`
}

// PrescriptionRequest is the JSON body of POST /v1/prescriptions
type PrescriptionRequest struct {
	SupplementID    string                  `json:"supplement_id,omitempty"`
	Supplement      *entities.Supplement    `json:"supplement,omitempty"`
	Guideline       *entities.DoseGuideline `json:"guideline,omitempty"`
	BirthDate       string                  `json:"birth_date,omitempty"`
	WeightKg        float64                 `json:"weight_kg"`
	Severity        *diagnosis.Severity     `json:"severity"`
	TreatmentMonths int                     `json:"treatment_months"`
}

// ScreeningRequest is the JSON body of POST /v1/screenings
type ScreeningRequest struct {
	PatientRequest
	SupplementID    string  `json:"supplement_id,omitempty"`
	WeightKg        float64 `json:"weight_kg"`
	TreatmentMonths int     `json:"treatment_months"`
}

// decodeJSON reads a single JSON object and rejects unknown fields
func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("request body too large")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if decoder.More() {
		return fmt.Errorf("request body must contain a single JSON object")
	}
	return nil
}

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%s is required", field)
	}
	parsed, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a YYYY-MM-DD date", field)
	}
	return parsed, nil
}

func (req PatientRequest) toInput(validator interfaces.DataValidator) (screening.PatientInput, error) {
	birthDate, err := parseDate("birth_date", req.BirthDate)
	if err != nil {
		return screening.PatientInput{}, err
	}

	input := screening.PatientInput{
		BirthDate:          birthDate,
		Hemoglobin:         req.Hemoglobin,
		AltitudeAdjustment: req.AltitudeAdjustment,
	}

	if req.Sex != "" {
		if input.Sex, err = diagnosis.ParseSex(req.Sex); err != nil {
			return screening.PatientInput{}, fmt.Errorf("sex must be MALE or FEMALE")
		}
	}

	input.Pregnancy = diagnosis.Pregnancy{
		Status:    diagnosis.PregnancyStatus(strings.ToLower(strings.TrimSpace(string(req.Pregnancy.Status)))),
		Trimester: req.Pregnancy.Trimester,
	}
	if !validPregnancyStatus(input.Pregnancy.Status) {
		return screening.PatientInput{}, fmt.Errorf("pregnancy.status must be none, pregnant or postpartum")
	}

	if req.Location != "" {
		if req.AltitudeAdjustment != nil {
			return screening.PatientInput{}, fmt.Errorf("give either location or altitude_adjustment, not both")
		}
		if err := validator.ValidateInput(req.Location); err != nil {
			return screening.PatientInput{}, fmt.Errorf("location: %w", err)
		}
		input.Location = req.Location
	}

	return input, nil
}

func (req PrescriptionRequest) toInput(validator interfaces.DataValidator) (screening.PrescriptionInput, error) {
	if req.Severity == nil {
		return screening.PrescriptionInput{}, fmt.Errorf("severity is required")
	}

	input := screening.PrescriptionInput{
		Supplement:      req.Supplement,
		Guideline:       req.Guideline,
		WeightKg:        req.WeightKg,
		Severity:        *req.Severity,
		TreatmentMonths: req.TreatmentMonths,
	}

	if req.Supplement == nil {
		id, err := validator.ValidateSupplementID(req.SupplementID)
		if err != nil {
			return screening.PrescriptionInput{}, fmt.Errorf("supplement_id: %w", err)
		}
		input.SupplementID = id
	} else if formulation, err := entities.ParseFormulation(string(req.Supplement.Formulation)); err == nil {
		supplement := *req.Supplement
		supplement.Formulation = formulation
		input.Supplement = &supplement
	}

	if req.Guideline == nil || req.BirthDate != "" {
		birthDate, err := parseDate("birth_date", req.BirthDate)
		if err != nil {
			return screening.PrescriptionInput{}, err
		}
		input.BirthDate = birthDate
	}

	return input, nil
}

func (req ScreeningRequest) toInput(validator interfaces.DataValidator) (screening.ScreeningInput, error) {
	patient, err := req.PatientRequest.toInput(validator)
	if err != nil {
		return screening.ScreeningInput{}, err
	}

	input := screening.ScreeningInput{
		PatientInput:    patient,
		WeightKg:        req.WeightKg,
		TreatmentMonths: req.TreatmentMonths,
	}

	if req.SupplementID != "" {
		if input.SupplementID, err = validator.ValidateSupplementID(req.SupplementID); err != nil {
			return screening.ScreeningInput{}, fmt.Errorf("supplement_id: %w", err)
		}
	}

	return input, nil
}
