package schemas

import (
	"fmt"

	"atomflow/internal/structure"
)

// StrongestBond is one entry in a strongest-bonds table: the most negative
// ICOHP (or largest ICOBI/ICOOP) interaction for an element pair.
type StrongestBond struct {
	Value  float64 `json:"value"`
	Length float64 `json:"length"`
}

// StrongestBonds maps element pairs ("As-Ga") to their strongest interaction
// for one bond-strength measure.
type StrongestBonds struct {
	// WhichBonds is "all" or "cation-anion".
	WhichBonds string                   `json:"which_bonds"`
	Bonds      map[string]StrongestBond `json:"strongest_bonds"`
}

// GrossPopulation holds per-site Mulliken/Loewdin orbital populations.
type GrossPopulation struct {
	Element  string             `json:"element"`
	Mulliken map[string]float64 `json:"mulliken_gp,omitempty"`
	Loewdin  map[string]float64 `json:"loewdin_gp,omitempty"`
}

// LobsteroutSummary captures the run summary LOBSTER prints in lobsterout.
type LobsteroutSummary struct {
	Basis          []string  `json:"basis_used,omitempty"`
	ChargeSpilling []float64 `json:"charge_spilling,omitempty"`
	HasCOHPCAR     bool      `json:"has_cohpcar"`
	HasCOOPCAR     bool      `json:"has_coopcar"`
	HasCOBICAR     bool      `json:"has_cobicar"`
	HasChargeFile  bool      `json:"has_charge"`
	HasMadelung    bool      `json:"has_madelung"`
}

// LobsterinSummary captures the key input parameters from lobsterin.
type LobsterinSummary struct {
	COHPStartEnergy float64  `json:"cohpstartenergy"`
	COHPEndEnergy   float64  `json:"cohpendenergy"`
	BasisFunctions  []string `json:"basisfunctions,omitempty"`
}

// LobsterTaskDoc is the bonding-analysis record assembled from a LOBSTER
// calculation directory.
type LobsterTaskDoc struct {
	DirName   string               `json:"dir_name"`
	State     State                `json:"state"`
	Structure *structure.Structure `json:"structure,omitempty"`
	Chemsys   string               `json:"chemsys,omitempty"`

	Lobsterout LobsteroutSummary `json:"lobsterout"`
	Lobsterin  LobsterinSummary  `json:"lobsterin"`

	// Charges are per-site atomic charges keyed by scheme, "Mulliken" and
	// "Loewdin".
	Charges map[string][]float64 `json:"charges,omitempty"`
	// MadelungEnergies keyed by scheme.
	MadelungEnergies map[string]float64 `json:"madelung_energies,omitempty"`
	// SitePotentials keyed by scheme, plus the "Ewald_splitting" constant.
	SitePotentials   map[string][]float64 `json:"site_potentials,omitempty"`
	EwaldSplitting   float64              `json:"ewald_splitting,omitempty"`
	GrossPopulations []GrossPopulation    `json:"gross_populations,omitempty"`

	StrongestBondsICOHP *StrongestBonds `json:"strongest_bonds_icohp,omitempty"`
	StrongestBondsICOOP *StrongestBonds `json:"strongest_bonds_icoop,omitempty"`
	StrongestBondsICOBI *StrongestBonds `json:"strongest_bonds_icobi,omitempty"`
}

// Validate checks the document's required fields.
func (d *LobsterTaskDoc) Validate() error {
	if d.DirName == "" {
		return fmt.Errorf("lobster document missing dir_name")
	}
	switch d.State {
	case StateSuccessful, StateFailed:
	default:
		return fmt.Errorf("lobster document has invalid state %q", d.State)
	}
	for _, sb := range []*StrongestBonds{d.StrongestBondsICOHP, d.StrongestBondsICOOP, d.StrongestBondsICOBI} {
		if sb == nil {
			continue
		}
		if sb.WhichBonds != "all" && sb.WhichBonds != "cation-anion" {
			return fmt.Errorf("strongest bonds has invalid which_bonds %q", sb.WhichBonds)
		}
	}
	return nil
}
