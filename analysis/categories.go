package analysis

import (
	"fmt"
	"slices"
)

// Scheme selects the event categorisation.
type Scheme string

const (
	SchemeMVA      Scheme = "mva"
	SchemeCutBased Scheme = "cutbased"
)

// Era is the data-taking year.
type Era int

const (
	Era2011 Era = 2011
	Era2012 Era = 2012
)

// SqrtS returns the centre-of-mass energy in TeV.
func (e Era) SqrtS() int {
	if e == Era2011 {
		return 7
	}
	return 8
}

func (e Era) String() string {
	return fmt.Sprintf("%d", int(e))
}

// Cats is an ordered list of category indices.
type Cats []int

// Has reports whether c belongs to the list.
func (cs Cats) Has(c int) bool {
	return slices.Contains(cs, c)
}

// Index returns the position of c in the list, or -1.
func (cs Cats) Index(c int) int {
	return slices.Index(cs, c)
}

// Categories groups category indices by the tag that selected them.
// A category may appear in several groups (muon and electron tags share bins).
type Categories struct {
	Inclusive   Cats `yaml:"inclusive" json:"inclusive"`
	Dijet       Cats `yaml:"dijet" json:"dijet"`
	Muon        Cats `yaml:"muon" json:"muon"`
	Electron    Cats `yaml:"electron" json:"electron"`
	TightLepton Cats `yaml:"tight_lepton" json:"tight_lepton"`
	LooseLepton Cats `yaml:"loose_lepton" json:"loose_lepton"`
	MET         Cats `yaml:"met" json:"met"`
	TTHLepton   Cats `yaml:"tth_lepton" json:"tth_lepton"`
	TTHHadronic Cats `yaml:"tth_hadronic" json:"tth_hadronic"`
	TTH         Cats `yaml:"tth" json:"tth"`
	VHHadronic  Cats `yaml:"vh_hadronic" json:"vh_hadronic"`
}

// JetTagged returns the dijet categories followed by the VH hadronic ones,
// which is the row order of the pileup jet-id table.
func (c Categories) JetTagged() Cats {
	out := make(Cats, 0, len(c.Dijet)+len(c.VHHadronic))
	out = append(out, c.Dijet...)
	return append(out, c.VHHadronic...)
}

// Layout returns the category numbering for a scheme and era.
func Layout(scheme Scheme, era Era) Categories {
	if scheme == SchemeCutBased {
		c := Categories{
			Inclusive:   Cats{0, 1, 2, 3, 4, 5, 6, 7},
			Dijet:       Cats{8, 9},
			Muon:        Cats{10, 11},
			Electron:    Cats{10, 11},
			TightLepton: Cats{10},
			LooseLepton: Cats{11},
			MET:         Cats{12},
			TTHLepton:   Cats{13},
		}
		if era == Era2011 {
			c.TTH = Cats{13}
			c.VHHadronic = Cats{14}
		} else {
			c.TTHHadronic = Cats{14}
			c.TTH = Cats{13, 14}
			c.VHHadronic = Cats{15}
		}
		return c
	}

	if era == Era2011 {
		return Categories{
			Inclusive:   Cats{0, 1, 2, 3},
			Dijet:       Cats{4, 5},
			Muon:        Cats{6, 7},
			Electron:    Cats{6, 7},
			TightLepton: Cats{6},
			LooseLepton: Cats{7},
			MET:         Cats{8},
			TTHLepton:   Cats{9},
			TTH:         Cats{9},
			VHHadronic:  Cats{10},
		}
	}
	return Categories{
		Inclusive:   Cats{0, 1, 2, 3, 4},
		Dijet:       Cats{5, 6, 7},
		Muon:        Cats{8, 9},
		Electron:    Cats{8, 9},
		TightLepton: Cats{8},
		LooseLepton: Cats{9},
		MET:         Cats{10},
		TTHLepton:   Cats{11},
		TTHHadronic: Cats{12},
		TTH:         Cats{11, 12},
		VHHadronic:  Cats{13},
	}
}
