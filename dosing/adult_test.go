package dosing

import (
	"errors"
	"testing"

	"github.com/giygas/anemia-api/diagnosis"
)

func TestSelectAdultSupplement(t *testing.T) {
	testCases := []struct {
		sex      diagnosis.Sex
		anemic   bool
		pregnant bool
		expected string
	}{
		{diagnosis.SexMale, false, false, SKUFerrousSulfate60},
		{diagnosis.SexMale, true, false, SKUFerrousSulfate120},
		{diagnosis.SexFemale, false, false, SKUFerrousSulfate60},
		{diagnosis.SexFemale, true, false, SKUFerrousSulfateFolic120},
		{diagnosis.SexFemale, false, true, SKUFerrousSulfateFolic120},
		{diagnosis.SexFemale, true, true, SKUFerrousSulfateFolic120},
	}

	for _, tc := range testCases {
		sku, err := SelectAdultSupplement(tc.sex, tc.anemic, tc.pregnant)
		if err != nil {
			t.Fatalf("%s anemic=%v pregnant=%v: unexpected error %v", tc.sex, tc.anemic, tc.pregnant, err)
		}
		if sku != tc.expected {
			t.Errorf("%s anemic=%v pregnant=%v: expected %s, got %s", tc.sex, tc.anemic, tc.pregnant, tc.expected, sku)
		}
	}

	if _, err := SelectAdultSupplement(diagnosis.SexMale, false, true); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for pregnant male, got %v", err)
	}
	if _, err := SelectAdultSupplement(diagnosis.Sex(""), false, false); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for missing sex, got %v", err)
	}
}
