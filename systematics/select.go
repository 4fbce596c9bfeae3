package systematics

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/c360studio/hggcard/analysis"
)

// ErrInconsistent reports tables that do not fit the category layout.
var ErrInconsistent = errors.New("inconsistent systematics")

// ProcPair is a theory uncertainty attached to one process.
type ProcPair struct {
	Proc string  `yaml:"proc" json:"proc"`
	Up   float64 `yaml:"up" json:"up"`
	Down float64 `yaml:"down" json:"down"`
}

// Template is a resolved template systematic.
type Template struct {
	Name  string `yaml:"name" json:"name"`
	Param string `yaml:"param" json:"param"`
}

// IsPDFWeight reports whether the template is a ggH-only pdf/scale reweighting.
func (t Template) IsPDFWeight() bool {
	return strings.HasPrefix(t.Name, "pdfWeight")
}

// Set is the subset of tables that applies to one analysis setup.
type Set struct {
	PDF        []ProcPair           `yaml:"pdf"`
	Scale      []ProcPair           `yaml:"scale"`
	BR         Pair                 `yaml:"br"`
	Lumi       float64              `yaml:"lumi"`
	Vertex     float64              `yaml:"vertex"`
	R9         *R9                  `yaml:"r9,omitempty"`
	Templates  []Template           `yaml:"templates"`
	VBF        []VBFSyst            `yaml:"vbf"`
	PUJetID    []map[string]float64 `yaml:"pu_jet_id,omitempty"`
	Electron   map[string]Triple    `yaml:"electron"`
	Muon       map[string]Triple    `yaml:"muon"`
	MET        map[string]Triple    `yaml:"met"`
	BTag       map[string]Pair      `yaml:"btag"`
	GGHInTTH   []NamedValue         `yaml:"ggh_in_tth"`
	RateScales RateScales           `yaml:"rate_scales"`
}

// Select resolves the tables for setup and checks them against its layout.
func Select(t *Tables, setup *analysis.Setup) (*Set, error) {
	era, ok := t.Eras[int(setup.Era)]
	if !ok {
		return nil, fmt.Errorf("%w: no constants for era %d", ErrInconsistent, setup.Era)
	}

	s := &Set{
		BR:         t.BR,
		Lumi:       era.Lumi,
		Vertex:     era.Vertex,
		Electron:   t.Electron,
		Muon:       t.Muon,
		MET:        t.MET,
		BTag:       t.BTag,
		GGHInTTH:   t.GGHInTTH,
		RateScales: t.RateScales,
	}
	if setup.Scheme == analysis.SchemeCutBased {
		r9 := era.R9
		s.R9 = &r9
	}

	for _, p := range setup.SignalProcs() {
		pdf, ok := era.PDF[p]
		if !ok {
			return nil, fmt.Errorf("%w: no pdf uncertainty for %s in %d", ErrInconsistent, p, setup.Era)
		}
		scale, ok := era.Scale[p]
		if !ok {
			return nil, fmt.Errorf("%w: no QCD scale uncertainty for %s in %d", ErrInconsistent, p, setup.Era)
		}
		s.PDF = append(s.PDF, ProcPair{Proc: p, Up: pdf[0], Down: pdf[1]})
		s.Scale = append(s.Scale, ProcPair{Proc: p, Up: scale[0], Down: scale[1]})
	}

	s.Templates = selectTemplates(t.Templates, setup)

	for _, b := range t.VBF {
		if b.Scheme == string(setup.Scheme) && slices.Contains(b.Eras, int(setup.Era)) {
			s.VBF = b.Systematics
			break
		}
	}
	for _, v := range s.VBF {
		if len(v.Values) != len(setup.Cats.Dijet) {
			return nil, fmt.Errorf("%w: %s has %d migrations for %d dijet categories",
				ErrInconsistent, v.Name, len(v.Values), len(setup.Cats.Dijet))
		}
	}

	if setup.Era != analysis.Era2011 {
		for _, b := range t.PUJetID {
			if b.Scheme == string(setup.Scheme) && slices.Contains(b.Eras, int(setup.Era)) {
				s.PUJetID = b.Rows
				break
			}
		}
		if want := len(setup.Cats.JetTagged()); len(s.PUJetID) != want {
			return nil, fmt.Errorf("%w: %d pileup jet-id rows for %d dijet and VH hadronic categories",
				ErrInconsistent, len(s.PUJetID), want)
		}
	}

	return s, nil
}

func selectTemplates(rules []TemplateRule, setup *analysis.Setup) []Template {
	var out []Template
	for _, r := range rules {
		if len(r.Schemes) > 0 && !slices.Contains(r.Schemes, string(setup.Scheme)) {
			continue
		}
		if len(r.Eras) > 0 && !slices.Contains(r.Eras, int(setup.Era)) {
			continue
		}
		if r.Binned != nil && *r.Binned != setup.BinnedSignal {
			continue
		}
		if r.Repeat == 0 {
			out = append(out, Template{Name: r.Name, Param: r.Param})
			continue
		}
		for i := 1; i <= r.Repeat; i++ {
			out = append(out, Template{Name: fmt.Sprintf(r.Name, i), Param: fmt.Sprintf(r.Param, i)})
		}
	}
	return out
}
