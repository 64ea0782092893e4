package diagnosis

import "fmt"

// Age limits in days
const (
	DaysPerYear      = 365
	GenericAgeLimit  = 12 * DaysPerYear // 4380
	AdolescentLimit  = 15 * DaysPerYear // 5475
	noUpperBoundDays = int(^uint(0) >> 1)
	lowestTrimester  = 1
	highestTrimester = 3
)

// Threshold is one (limit, severity) pair. A reading at or below Limit
// (g/dL) receives Severity.
type Threshold struct {
	Limit    float64
	Severity Severity
}

// AgeBracket applies its thresholds to ages strictly below UpperBoundDays
type AgeBracket struct {
	UpperBoundDays int
	Thresholds     []Threshold
}

func graded(severe, moderate, mild float64) []Threshold {
	return []Threshold{
		{Limit: severe, Severity: SeveritySevere},
		{Limit: moderate, Severity: SeverityModerate},
		{Limit: mild, Severity: SeverityMild},
	}
}

func ungraded(limit float64) []Threshold {
	return []Threshold{{Limit: limit, Severity: SeverityAnemia}}
}

// genericBrackets covers the first week of life up to 12 years. Limits follow
// the WHO hemoglobin cut-offs as adopted by NTS 134-MINSA/2017, which grades
// severity from 6 months on.
var genericBrackets = []AgeBracket{
	{UpperBoundDays: 8, Thresholds: ungraded(12.99)},  // first week
	{UpperBoundDays: 29, Thresholds: ungraded(9.99)},  // weeks 2 to 4
	{UpperBoundDays: 57, Thresholds: ungraded(7.99)},  // weeks 5 to 8
	{UpperBoundDays: 180, Thresholds: ungraded(9.49)}, // 2 to 6 months
	{UpperBoundDays: 730, Thresholds: graded(6.99, 9.40, 10.40)},
	{UpperBoundDays: 1825, Thresholds: graded(6.99, 9.90, 10.90)},
	{UpperBoundDays: GenericAgeLimit, Thresholds: graded(7.99, 10.90, 11.40)},
}

var maleBrackets = []AgeBracket{
	{UpperBoundDays: AdolescentLimit, Thresholds: graded(7.99, 10.90, 11.90)},
	{UpperBoundDays: noUpperBoundDays, Thresholds: graded(7.99, 10.90, 12.90)},
}

var femaleBrackets = []AgeBracket{
	{UpperBoundDays: AdolescentLimit, Thresholds: graded(7.99, 10.90, 11.90)},
	{UpperBoundDays: noUpperBoundDays, Thresholds: graded(7.99, 10.90, 11.90)},
}

var trimesterThresholds = map[int][]Threshold{
	1: graded(6.99, 9.90, 10.90),
	2: graded(6.99, 9.40, 10.40),
	3: graded(6.99, 9.90, 10.90),
}

var postpartumThresholds = graded(7.99, 10.90, 11.90)

func init() {
	if err := validateTables(); err != nil {
		panic(err)
	}
}

// validateTables checks the ordering every rule table must hold
func validateTables() error {
	tables := map[string][]AgeBracket{
		"generic": genericBrackets,
		"male":    maleBrackets,
		"female":  femaleBrackets,
	}
	for name, brackets := range tables {
		if err := ValidateBrackets(brackets); err != nil {
			return fmt.Errorf("%s table: %w", name, err)
		}
	}
	for trimester := lowestTrimester; trimester <= highestTrimester; trimester++ {
		thresholds, ok := trimesterThresholds[trimester]
		if !ok {
			return fmt.Errorf("missing thresholds for trimester %d", trimester)
		}
		if err := ValidateThresholds(thresholds); err != nil {
			return fmt.Errorf("trimester %d: %w", trimester, err)
		}
	}
	if err := ValidateThresholds(postpartumThresholds); err != nil {
		return fmt.Errorf("postpartum: %w", err)
	}
	return nil
}

// ValidateBrackets requires strictly increasing upper bounds and valid
// thresholds in every bracket
func ValidateBrackets(brackets []AgeBracket) error {
	if len(brackets) == 0 {
		return fmt.Errorf("no brackets")
	}
	previous := 0
	for i, bracket := range brackets {
		if bracket.UpperBoundDays <= previous {
			return fmt.Errorf("bracket %d: upper bound %d not above %d", i, bracket.UpperBoundDays, previous)
		}
		if err := ValidateThresholds(bracket.Thresholds); err != nil {
			return fmt.Errorf("bracket %d: %w", i, err)
		}
		previous = bracket.UpperBoundDays
	}
	return nil
}

// ValidateThresholds requires positive, strictly increasing limits and
// severities that never get worse as the limit rises
func ValidateThresholds(thresholds []Threshold) error {
	if len(thresholds) == 0 {
		return fmt.Errorf("no thresholds")
	}
	for i, threshold := range thresholds {
		if threshold.Limit <= 0 {
			return fmt.Errorf("threshold %d: non-positive limit %.2f", i, threshold.Limit)
		}
		if !threshold.Severity.IsAnemic() {
			return fmt.Errorf("threshold %d: severity %s is not an anemia grade", i, threshold.Severity)
		}
		if i == 0 {
			continue
		}
		prev := thresholds[i-1]
		if threshold.Limit <= prev.Limit {
			return fmt.Errorf("threshold %d: limit %.2f not above %.2f", i, threshold.Limit, prev.Limit)
		}
		if threshold.Severity.Rank() > prev.Severity.Rank() {
			return fmt.Errorf("threshold %d: severity %s more severe than %s at a lower limit", i, threshold.Severity, prev.Severity)
		}
	}
	return nil
}
