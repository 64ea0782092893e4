package dosing

import (
	"fmt"

	"github.com/giygas/anemia-api/diagnosis"
)

// Adult tablet SKUs
const (
	SKUFerrousSulfate60       = "SF-60"    // 60 mg elemental iron
	SKUFerrousSulfate120      = "SF-120"   // 120 mg elemental iron
	SKUFerrousSulfateFolic120 = "SFAF-120" // 120 mg elemental iron + 800 µg folic acid
)

// AdultSKUs lists every identifier SelectAdultSupplement can return
var AdultSKUs = []string{SKUFerrousSulfate60, SKUFerrousSulfate120, SKUFerrousSulfateFolic120}

// SelectAdultSupplement picks the adult tablet for a patient. Pregnancy or
// lactation only applies to women.
func SelectAdultSupplement(sex diagnosis.Sex, anemic, pregnantOrLactating bool) (string, error) {
	switch sex {
	case diagnosis.SexMale:
		if pregnantOrLactating {
			return "", fmt.Errorf("%w: pregnancy or lactation flag for male patient", ErrInvalidInput)
		}
		if anemic {
			return SKUFerrousSulfate120, nil
		}
		return SKUFerrousSulfate60, nil
	case diagnosis.SexFemale:
		if anemic || pregnantOrLactating {
			return SKUFerrousSulfateFolic120, nil
		}
		return SKUFerrousSulfate60, nil
	}
	return "", fmt.Errorf("%w: unknown sex %q", ErrInvalidInput, sex)
}
