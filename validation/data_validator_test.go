package validation

import (
	"slices"
	"strings"
	"testing"

	"github.com/giygas/anemia-api/catalog/entities"
	"github.com/giygas/anemia-api/dosing"
)

func validSupplement() entities.Supplement {
	return entities.Supplement{
		ID:                   "SF-JARABE",
		Name:                 "Sulfato ferroso jarabe",
		Formulation:          entities.FormulationSyrup,
		ElementalIronPerUnit: 3,
		ContainerContent:     180,
		Guidelines: []entities.DoseGuideline{
			{SupplementID: "SF-JARABE", FromAgeDays: 730, ToAgeDays: 4379, DoseAmountMgPerKgPerDay: 3},
		},
	}
}

func validLocation() entities.Location {
	return entities.Location{District: "Cusco", AltitudeMeters: 3399, AltitudeAdjustment: 2.4, NameNormalized: "cusco"}
}

func TestNewDataValidator(t *testing.T) {
	validator := NewDataValidator()

	if validator == nil {
		t.Fatal("NewDataValidator returned nil")
	}

	if _, ok := validator.(*DataValidatorImpl); !ok {
		t.Error("NewDataValidator should return *DataValidatorImpl")
	}
}

func TestValidateSupplement_Valid(t *testing.T) {
	validator := NewDataValidator()

	supplement := validSupplement()
	if err := validator.ValidateSupplement(&supplement); err != nil {
		t.Errorf("Expected no error for valid supplement, got: %v", err)
	}
}

func TestValidateSupplement_Nil(t *testing.T) {
	validator := NewDataValidator()

	err := validator.ValidateSupplement(nil)
	if err == nil {
		t.Fatal("Expected error for nil supplement")
	}

	expectedError := "supplement is nil"
	if err.Error() != expectedError {
		t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
	}
}

func TestValidateSupplement_Invalid(t *testing.T) {
	validator := NewDataValidator()

	testCases := []struct {
		name   string
		mutate func(s *entities.Supplement)
	}{
		{"empty ID", func(s *entities.Supplement) { s.ID = " " }},
		{"unknown formulation", func(s *entities.Supplement) { s.Formulation = "PATCH" }},
		{"zero iron", func(s *entities.Supplement) { s.ElementalIronPerUnit = 0 }},
		{"negative content", func(s *entities.Supplement) { s.ContainerContent = -1 }},
		{"name too long", func(s *entities.Supplement) { s.Name = strings.Repeat("x", 201) }},
		{"zero dose", func(s *entities.Supplement) { s.Guidelines[0].DoseAmountMgPerKgPerDay = 0 }},
		{"foreign guideline", func(s *entities.Supplement) { s.Guidelines[0].SupplementID = "OTHER" }},
		{"inverted interval", func(s *entities.Supplement) { s.Guidelines[0].FromAgeDays = 5000 }},
		{"overlapping intervals", func(s *entities.Supplement) {
			s.Guidelines = append(s.Guidelines, entities.DoseGuideline{
				SupplementID: s.ID, FromAgeDays: 4000, ToAgeDays: 5000, DoseAmountMgPerKgPerDay: 2,
			})
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			supplement := validSupplement()
			tc.mutate(&supplement)
			if err := validator.ValidateSupplement(&supplement); err == nil {
				t.Errorf("Expected error for %s", tc.name)
			}
		})
	}
}

func TestValidateLocation(t *testing.T) {
	validator := NewDataValidator()

	location := validLocation()
	if err := validator.ValidateLocation(&location); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	invalid := []entities.Location{
		{District: "", NameNormalized: ""},
		{District: "Nowhere", NameNormalized: "nowhere", AltitudeMeters: 9000},
		{District: "Nowhere", NameNormalized: "nowhere", AltitudeMeters: 100, AltitudeAdjustment: -1},
	}
	for _, l := range invalid {
		if err := validator.ValidateLocation(&l); err == nil {
			t.Errorf("Expected error for %+v", l)
		}
	}
}

func TestValidateDataIntegrity(t *testing.T) {
	validator := NewDataValidator()

	supplements := []entities.Supplement{validSupplement()}
	locations := []entities.Location{validLocation()}

	if err := validator.ValidateDataIntegrity(supplements, locations); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	if err := validator.ValidateDataIntegrity(nil, locations); err == nil {
		t.Error("Expected error for empty catalog")
	}

	if err := validator.ValidateDataIntegrity(supplements, nil); err == nil {
		t.Error("Expected error for empty altitude table")
	}

	duplicated := append(slices.Clone(supplements), validSupplement())
	err := validator.ValidateDataIntegrity(duplicated, locations)
	if err == nil || !strings.Contains(err.Error(), "duplicate supplement ID") {
		t.Errorf("Expected duplicate supplement error, got %v", err)
	}

	err = validator.ValidateDataIntegrity(supplements, []entities.Location{validLocation(), validLocation()})
	if err == nil || !strings.Contains(err.Error(), "duplicate location") {
		t.Errorf("Expected duplicate location error, got %v", err)
	}
}

func TestReportDataQuality(t *testing.T) {
	validator := NewDataValidator()

	bare := entities.Supplement{ID: "SF-60", Formulation: entities.FormulationTablet, ElementalIronPerUnit: 60, ContainerContent: 100}
	supplements := []entities.Supplement{validSupplement(), bare, bare}
	locations := []entities.Location{validLocation(), validLocation(), {District: "Callao", NameNormalized: "callao"}}

	report := validator.ReportDataQuality(supplements, locations)

	if !slices.Equal(report.DuplicateSupplementIDs, []string{"SF-60"}) {
		t.Errorf("Expected SF-60 duplicate, got %v", report.DuplicateSupplementIDs)
	}
	if !slices.Equal(report.DuplicateLocationKeys, []string{"cusco"}) {
		t.Errorf("Expected cusco duplicate, got %v", report.DuplicateLocationKeys)
	}
	if len(report.SupplementsWithoutGuidelines) != 2 {
		t.Errorf("Expected 2 supplements without guidelines, got %v", report.SupplementsWithoutGuidelines)
	}
	if !slices.Equal(report.MissingAdultSKUs, []string{dosing.SKUFerrousSulfate120, dosing.SKUFerrousSulfateFolic120}) {
		t.Errorf("Expected missing 120 mg SKUs, got %v", report.MissingAdultSKUs)
	}
	if report.LocationsWithoutAltitude != 1 {
		t.Errorf("Expected 1 location without altitude, got %d", report.LocationsWithoutAltitude)
	}

	LogReport(report)
	LogReport(nil)
}

func TestValidateInput_Valid(t *testing.T) {
	validator := NewDataValidator()

	validInputs := []string{
		"Cusco",
		"cerro de pasco",
		"Junín",
		"Apurímac",
		"San Román",
		"Huañec",
		"O'Higgins",
		"Dr. Pedro Ruiz",
	}

	for _, input := range validInputs {
		t.Run(input, func(t *testing.T) {
			if err := validator.ValidateInput(input); err != nil {
				t.Errorf("Expected no error for valid input '%s', got: %v", input, err)
			}
		})
	}
}

func TestValidateInput_Invalid(t *testing.T) {
	validator := NewDataValidator()

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "   ", "input cannot be empty"},
		{"too short", "ab", "input too short: minimum 3 characters"},
		{"too long", strings.Repeat("a", 51), "input too long: maximum 50 characters"},
		{"too many words", "a b c d e f g", "search query too complex: maximum 6 words allowed"},
		{"script", "<script>alert(1)</script>", "input contains potentially dangerous content"},
		{"sql", "lima' or 1=1", "input contains potentially dangerous content"},
		{"traversal", "../etc/passwd", "input contains potentially dangerous content"},
		{"repetition", "aaaaaaaaaaaa", "input contains excessive character repetition"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validator.ValidateInput(tc.input)
			if err == nil {
				t.Fatalf("Expected error for input '%s'", tc.input)
			}
			if err.Error() != tc.expected {
				t.Errorf("Expected error '%s', got '%s'", tc.expected, err.Error())
			}
		})
	}

	for _, input := range []string{"lima@peru", "cusco#1", "puno?x", "lima+callao"} {
		if err := validator.ValidateInput(input); err == nil {
			t.Errorf("Expected invalid character error for '%s'", input)
		}
	}
}

func TestValidateSupplementID(t *testing.T) {
	validator := NewDataValidator()

	testCases := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{"SF-120", "SF-120", false},
		{"sfaf-120", "SFAF-120", false},
		{"MMN", "MMN", false},
		{"", "", true},
		{" SF-60", "", true},
		{"-SF", "", true},
		{"SF_60", "", true},
		{"SF 60", "", true},
		{strings.Repeat("A", 33), "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			id, err := validator.ValidateSupplementID(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Errorf("Expected error for '%s'", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if id != tc.expected {
				t.Errorf("Expected %s, got %s", tc.expected, id)
			}
		})
	}
}

func TestHasExcessiveRepetition(t *testing.T) {
	v := &DataValidatorImpl{}

	if !v.hasExcessiveRepetition("xaaaaaaaaaaax") {
		t.Error("Expected 11 repeated characters to be flagged")
	}
	if v.hasExcessiveRepetition("aaaaaaaaaa") {
		t.Error("Expected 10 repeated characters to pass")
	}
}

func BenchmarkValidateInput(b *testing.B) {
	validator := NewDataValidator()
	for i := 0; i < b.N; i++ {
		_ = validator.ValidateInput("cerro de pasco")
	}
}
