package entities

import (
	"fmt"
	"strings"
)

// Formulation is the physical form of a supplement. It selects the dosing
// algorithm.
type Formulation string

const (
	FormulationTablet Formulation = "TABLET"
	FormulationSyrup  Formulation = "SYRUP"
	FormulationDrops  Formulation = "DROPS"
	FormulationPowder Formulation = "POWDER"
)

// ParseFormulation accepts the enum names and the Spanish catalog terms
func ParseFormulation(value string) (Formulation, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "TABLET", "TABLETA", "TABLETAS":
		return FormulationTablet, nil
	case "SYRUP", "JARABE":
		return FormulationSyrup, nil
	case "DROPS", "GOTAS":
		return FormulationDrops, nil
	case "POWDER", "POLVO":
		return FormulationPowder, nil
	}
	return "", fmt.Errorf("unknown formulation %q", value)
}

// IsLiquid reports whether doses are measured by volume
func (f Formulation) IsLiquid() bool {
	return f == FormulationDrops || f == FormulationSyrup
}

// Supplement is a catalog entry. ElementalIronPerUnit is mg of elemental
// iron per mL (liquids), per gram (powder) or per tablet. ContainerContent
// is the mL, grams or tablets in one bottle, box or blister.
type Supplement struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	Formulation          Formulation     `json:"formulation"`
	ElementalIronPerUnit float64         `json:"elemental_iron_per_unit"`
	ContainerContent     float64         `json:"container_content"`
	Guidelines           []DoseGuideline `json:"dosing_guidelines"`
}
