package dosing

import (
	"errors"
	"testing"

	"github.com/giygas/anemia-api/catalog/entities"
)

func TestMatchGuideline(t *testing.T) {
	guidelines := []entities.DoseGuideline{
		{SupplementID: "SF-JARABE", FromAgeDays: 730, ToAgeDays: 4379, DoseAmountMgPerKgPerDay: 3},
		{SupplementID: "SF-JARABE", FromAgeDays: 180, ToAgeDays: 729, DoseAmountMgPerKgPerDay: 2},
	}

	testCases := []struct {
		name     string
		age      int
		expected float64
		wantErr  error
	}{
		{"lower bound inclusive", 180, 2, nil},
		{"upper bound inclusive", 729, 2, nil},
		{"second row", 730, 3, nil},
		{"too young", 179, 0, ErrNoGuideline},
		{"too old", 4380, 0, ErrNoGuideline},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g, err := MatchGuideline(guidelines, tc.age)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Errorf("Expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if g.DoseAmountMgPerKgPerDay != tc.expected {
				t.Errorf("Expected %v mg/kg/day, got %v", tc.expected, g.DoseAmountMgPerKgPerDay)
			}
		})
	}
}

func TestValidateGuidelines(t *testing.T) {
	overlapping := []entities.DoseGuideline{
		{FromAgeDays: 0, ToAgeDays: 365},
		{FromAgeDays: 365, ToAgeDays: 700},
	}
	if err := ValidateGuidelines(overlapping); !errors.Is(err, ErrOverlappingGuidelines) {
		t.Errorf("Expected ErrOverlappingGuidelines, got %v", err)
	}
	if _, err := MatchGuideline(overlapping, 100); !errors.Is(err, ErrOverlappingGuidelines) {
		t.Errorf("MatchGuideline should refuse overlapping rows, got %v", err)
	}

	inverted := []entities.DoseGuideline{{FromAgeDays: 10, ToAgeDays: 5}}
	if err := ValidateGuidelines(inverted); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}

	if err := ValidateGuidelines(nil); err != nil {
		t.Errorf("Empty list should be valid, got %v", err)
	}
}
