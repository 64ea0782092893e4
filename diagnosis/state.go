package diagnosis

import (
	"fmt"
	"strings"
)

// StateKind selects the rule table used for a patient
type StateKind int

const (
	// StateGeneric is the age-only state used for children
	StateGeneric StateKind = iota
	StateAdultMale
	StateAdultFemale
)

// State is the physiological state of the patient. Exactly one kind is
// active; Pregnant, Trimester and Postpartum are only read for
// StateAdultFemale.
type State struct {
	Kind       StateKind
	Pregnant   bool
	Trimester  int
	Postpartum bool
}

// Generic returns the age-only state
func Generic() State {
	return State{Kind: StateGeneric}
}

// AdultMale returns the male state
func AdultMale() State {
	return State{Kind: StateAdultMale}
}

// AdultFemale returns the female state. A trimester of 0 means none.
func AdultFemale(pregnant bool, trimester int, postpartum bool) State {
	return State{
		Kind:       StateAdultFemale,
		Pregnant:   pregnant,
		Trimester:  trimester,
		Postpartum: postpartum,
	}
}

// Sex of the patient as recorded at the boundary
type Sex string

const (
	SexMale   Sex = "MALE"
	SexFemale Sex = "FEMALE"
)

// ParseSex accepts MALE/FEMALE and the M/F shorthands
func ParseSex(value string) (Sex, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "MALE", "M":
		return SexMale, nil
	case "FEMALE", "F":
		return SexFemale, nil
	}
	return "", fmt.Errorf("%w: unknown sex %q", ErrInvalidInput, value)
}

// PregnancyStatus is the boundary representation of pregnancy
type PregnancyStatus string

const (
	PregnancyNone       PregnancyStatus = "none"
	PregnancyPregnant   PregnancyStatus = "pregnant"
	PregnancyPostpartum PregnancyStatus = "postpartum"
)

// Pregnancy combines the status with the trimester when pregnant
type Pregnancy struct {
	Status    PregnancyStatus `json:"status"`
	Trimester int             `json:"trimester,omitempty"`
}

// StateFor maps the boundary inputs onto a State. Males with a pregnancy
// status other than none are rejected.
func StateFor(sex Sex, pregnancy Pregnancy) (State, error) {
	status := pregnancy.Status
	if status == "" {
		status = PregnancyNone
	}

	switch sex {
	case SexMale:
		if status != PregnancyNone {
			return State{}, fmt.Errorf("%w: pregnancy status %q for male patient", ErrInvalidInput, status)
		}
		return AdultMale(), nil
	case SexFemale:
		switch status {
		case PregnancyNone:
			return AdultFemale(false, 0, false), nil
		case PregnancyPregnant:
			return AdultFemale(true, pregnancy.Trimester, false), nil
		case PregnancyPostpartum:
			return AdultFemale(false, 0, true), nil
		}
		return State{}, fmt.Errorf("%w: unknown pregnancy status %q", ErrInvalidInput, status)
	}
	return State{}, fmt.Errorf("%w: unknown sex %q", ErrInvalidInput, sex)
}
