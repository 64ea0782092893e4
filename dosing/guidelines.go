package dosing

import (
	"errors"
	"fmt"
	"slices"

	"github.com/giygas/anemia-api/catalog/entities"
)

var (
	// ErrNoGuideline means no dosing data covers the patient's age
	ErrNoGuideline = errors.New("no applicable dosing guideline")
	// ErrOverlappingGuidelines means a supplement's age intervals overlap
	ErrOverlappingGuidelines = errors.New("overlapping dosing guidelines")
)

// ValidateGuidelines checks the rows of one supplement: each interval must
// be well formed and no two intervals may share a day
func ValidateGuidelines(guidelines []entities.DoseGuideline) error {
	sorted := slices.Clone(guidelines)
	slices.SortFunc(sorted, func(a, b entities.DoseGuideline) int {
		return a.FromAgeDays - b.FromAgeDays
	})

	for i, g := range sorted {
		if g.FromAgeDays < 0 || g.ToAgeDays < g.FromAgeDays {
			return fmt.Errorf("%w: interval [%d, %d]", ErrInvalidInput, g.FromAgeDays, g.ToAgeDays)
		}
		if i > 0 && sorted[i-1].Overlaps(g) {
			return fmt.Errorf("%w: [%d, %d] and [%d, %d]", ErrOverlappingGuidelines,
				sorted[i-1].FromAgeDays, sorted[i-1].ToAgeDays, g.FromAgeDays, g.ToAgeDays)
		}
	}
	return nil
}

// MatchGuideline returns the single row whose interval contains the age
func MatchGuideline(guidelines []entities.DoseGuideline, ageDays int) (entities.DoseGuideline, error) {
	if err := ValidateGuidelines(guidelines); err != nil {
		return entities.DoseGuideline{}, err
	}
	for _, g := range guidelines {
		if g.Covers(ageDays) {
			return g, nil
		}
	}
	return entities.DoseGuideline{}, fmt.Errorf("%w: age %d days", ErrNoGuideline, ageDays)
}
