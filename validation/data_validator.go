// Package validation provides catalog and input validation for the anemia API.
package validation

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/giygas/anemia-api/catalog/entities"
	"github.com/giygas/anemia-api/dosing"
	"github.com/giygas/anemia-api/interfaces"
	"github.com/giygas/anemia-api/logging"
)

// Pre-compiled regex patterns for performance optimization
// Compiled once at package initialization and reused for all validations
var (
	// Input validation: alphanumeric + Spanish accents + safe punctuation
	inputRegex = regexp.MustCompile(`^[a-zA-Z0-9\s\-\.'áéíóúüñÁÉÍÓÚÜÑ]+$`)

	// Catalog identifiers: upper case letters, digits and hyphens
	supplementIDRegex = regexp.MustCompile(`^[A-Z0-9][A-Z0-9\-]{1,31}$`)

	// Dangerous patterns as strings (faster than regex for simple substring matching)
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "onfocus=", "onblur=", "onchange=", "onsubmit=",
		"eval(", "expression(", "url(", "import ", "@import", "binding(", "behavior(",
		// SQL injection patterns
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"update set", "--", "/*", "*/", "xp_", "sp_", "exec(", "execute(",
		// Command injection patterns
		"; ", "| ", "& ", "`", "$(", "${",
		// Path traversal patterns
		"../", "..\\", "%2e%2e", "file://",
		// NoSQL injection patterns
		"{$ne:", "{$gt:", "{$where:", "{$or:", "{$regex:", "{$expr:",
	}
)

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{}
}

// ValidateSupplement checks if a supplement entity is valid
func (v *DataValidatorImpl) ValidateSupplement(s *entities.Supplement) error {
	if s == nil {
		return fmt.Errorf("supplement is nil")
	}

	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("empty supplement ID")
	}

	if len(s.Name) > 200 {
		return fmt.Errorf("name too long for supplement %s: %d characters", s.ID, len(s.Name))
	}

	if _, err := entities.ParseFormulation(string(s.Formulation)); err != nil {
		return fmt.Errorf("supplement %s: %w", s.ID, err)
	}

	if s.ElementalIronPerUnit <= 0 {
		return fmt.Errorf("non-positive elemental iron for supplement %s: %v", s.ID, s.ElementalIronPerUnit)
	}

	if s.ContainerContent <= 0 {
		return fmt.Errorf("non-positive container content for supplement %s: %v", s.ID, s.ContainerContent)
	}

	for _, g := range s.Guidelines {
		if g.SupplementID != s.ID {
			return fmt.Errorf("guideline for %s attached to supplement %s", g.SupplementID, s.ID)
		}
		if g.DoseAmountMgPerKgPerDay <= 0 {
			return fmt.Errorf("non-positive dose in guideline [%d, %d] of supplement %s", g.FromAgeDays, g.ToAgeDays, s.ID)
		}
	}

	if err := dosing.ValidateGuidelines(s.Guidelines); err != nil {
		return fmt.Errorf("supplement %s: %w", s.ID, err)
	}

	return nil
}

// ValidateLocation checks if a location entity is valid
func (v *DataValidatorImpl) ValidateLocation(l *entities.Location) error {
	if l == nil {
		return fmt.Errorf("location is nil")
	}

	if strings.TrimSpace(l.District) == "" || l.NameNormalized == "" {
		return fmt.Errorf("location without district name")
	}

	// Highest inhabited places are below 5500 m
	if l.AltitudeMeters < 0 || l.AltitudeMeters > 5500 {
		return fmt.Errorf("implausible altitude for %s: %d m", l.District, l.AltitudeMeters)
	}

	if l.AltitudeAdjustment < 0 || l.AltitudeAdjustment > 5 {
		return fmt.Errorf("implausible altitude adjustment for %s: %v g/dL", l.District, l.AltitudeAdjustment)
	}

	return nil
}

// ValidateDataIntegrity performs comprehensive catalog validation
func (v *DataValidatorImpl) ValidateDataIntegrity(supplements []entities.Supplement, locations []entities.Location) error {
	if len(supplements) == 0 {
		return fmt.Errorf("no supplements found")
	}

	ids := make(map[string]bool)
	for i := range supplements {
		if ids[supplements[i].ID] {
			return fmt.Errorf("duplicate supplement ID found: %s", supplements[i].ID)
		}
		ids[supplements[i].ID] = true

		if err := v.ValidateSupplement(&supplements[i]); err != nil {
			return fmt.Errorf("invalid supplement: %w", err)
		}
	}

	if len(locations) == 0 {
		return fmt.Errorf("no locations found")
	}

	keys := make(map[string]bool)
	for i := range locations {
		if keys[locations[i].NameNormalized] {
			return fmt.Errorf("duplicate location found: %s", locations[i].District)
		}
		keys[locations[i].NameNormalized] = true

		if err := v.ValidateLocation(&locations[i]); err != nil {
			return fmt.Errorf("invalid location: %w", err)
		}
	}

	return nil
}

// ReportDataQuality lists the issues that do not block serving the catalog
func (v *DataValidatorImpl) ReportDataQuality(
	supplements []entities.Supplement,
	locations []entities.Location,
) *interfaces.DataQualityReport {
	report := &interfaces.DataQualityReport{
		DuplicateSupplementIDs:       []string{},
		DuplicateLocationKeys:        []string{},
		SupplementsWithoutGuidelines: []string{},
		MissingAdultSKUs:             []string{},
	}

	// Check 1: duplicate supplement IDs
	ids := make(map[string]bool)
	for _, s := range supplements {
		if ids[s.ID] {
			report.DuplicateSupplementIDs = append(report.DuplicateSupplementIDs, s.ID)
		}
		ids[s.ID] = true
	}

	// Check 2: duplicate location keys
	keys := make(map[string]bool)
	for _, l := range locations {
		if keys[l.NameNormalized] {
			report.DuplicateLocationKeys = append(report.DuplicateLocationKeys, l.NameNormalized)
		}
		keys[l.NameNormalized] = true
	}

	// Check 3: supplements that can never be dosed
	for _, s := range supplements {
		if len(s.Guidelines) == 0 {
			report.SupplementsWithoutGuidelines = append(report.SupplementsWithoutGuidelines, s.ID)
		}
	}

	// Check 4: adult tablets the selector can return but the catalog lacks
	for _, sku := range dosing.AdultSKUs {
		if !ids[sku] {
			report.MissingAdultSKUs = append(report.MissingAdultSKUs, sku)
		}
	}

	// Check 5: locations without altitude data
	for _, l := range locations {
		if l.AltitudeMeters == 0 {
			report.LocationsWithoutAltitude++
		}
	}

	slices.Sort(report.SupplementsWithoutGuidelines)
	return report
}

// ValidateInput validates user input strings with enhanced security
func (v *DataValidatorImpl) ValidateInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("input cannot be empty")
	}

	if len(input) < 3 {
		return fmt.Errorf("input too short: minimum 3 characters")
	}

	if len(input) > 50 {
		return fmt.Errorf("input too long: maximum 50 characters")
	}

	// Word count validation to prevent DoS attacks with many short words
	words := strings.Fields(input)
	if len(words) > 6 {
		return fmt.Errorf("search query too complex: maximum 6 words allowed")
	}

	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			return fmt.Errorf("input contains potentially dangerous content")
		}
	}

	if !inputRegex.MatchString(input) {
		return fmt.Errorf("input contains invalid characters. Only letters, numbers, spaces, hyphens, apostrophes, periods, and Spanish accented characters are allowed")
	}

	if v.hasExcessiveRepetition(input) {
		return fmt.Errorf("input contains excessive character repetition")
	}

	return nil
}

// ValidateSupplementID validates catalog identifiers and returns them in
// canonical upper case
func (v *DataValidatorImpl) ValidateSupplementID(input string) (string, error) {
	trimmedInput := strings.TrimSpace(input)
	if trimmedInput == "" {
		return "", fmt.Errorf("input cannot be empty")
	}

	// Reject if original input contained whitespace (spaces, tabs, etc.)
	if len(input) != len(trimmedInput) {
		return "", fmt.Errorf("input contains invalid characters. Only letters, digits and hyphens are allowed")
	}

	id := strings.ToUpper(trimmedInput)
	if !supplementIDRegex.MatchString(id) {
		return "", fmt.Errorf("input contains invalid characters. Only letters, digits and hyphens are allowed")
	}

	return id, nil
}

// hasExcessiveRepetition checks for potential DoS patterns with excessive character repetition
func (v *DataValidatorImpl) hasExcessiveRepetition(input string) bool {
	// Check for the same character repeated more than 10 times consecutively
	for i := 0; i < len(input)-10; i++ {
		allSame := true
		for j := 1; j <= 10; j++ {
			if input[i] != input[i+j] {
				allSame = false
				break
			}
		}
		if allSame {
			return true
		}
	}
	return false
}

// LogReport writes the non-empty sections of a quality report
func LogReport(report *interfaces.DataQualityReport) {
	if report == nil {
		return
	}
	if len(report.DuplicateSupplementIDs) > 0 {
		logging.Warn("Duplicate supplement IDs detected", "ids", report.DuplicateSupplementIDs)
	}
	if len(report.DuplicateLocationKeys) > 0 {
		logging.Warn("Duplicate location names detected", "names", report.DuplicateLocationKeys)
	}
	if len(report.SupplementsWithoutGuidelines) > 0 {
		logging.Warn("Supplements without dosing guidelines",
			"count", len(report.SupplementsWithoutGuidelines),
			"ids", report.SupplementsWithoutGuidelines,
		)
	}
	if len(report.MissingAdultSKUs) > 0 {
		logging.Warn("Adult supplements missing from catalog", "skus", report.MissingAdultSKUs)
	}
	if report.LocationsWithoutAltitude > 0 {
		logging.Info("Locations without altitude", "count", report.LocationsWithoutAltitude)
	}
}
