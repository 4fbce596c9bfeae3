// Package systematics holds the systematic-uncertainty constants of the
// H→γγ analysis and selects the subset that applies to one run.
package systematics

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var builtinTables []byte

// Pair is an asymmetric uncertainty. Theory tables store [up, down]; VBF
// migration tables store [ggH, qqH].
type Pair [2]float64

// Triple holds lepton and MET efficiencies for [tight, loose, ttH leptonic].
type Triple [3]float64

// Tables is the full set of constants for both eras and schemes.
type Tables struct {
	BR         Pair              `yaml:"br"`
	Eras       map[int]EraTable  `yaml:"eras"`
	Templates  []TemplateRule    `yaml:"templates"`
	VBF        []VBFBlock        `yaml:"vbf"`
	PUJetID    []PUJetIDBlock    `yaml:"pu_jet_id"`
	Electron   map[string]Triple `yaml:"electron"`
	Muon       map[string]Triple `yaml:"muon"`
	MET        map[string]Triple `yaml:"met"`
	BTag       map[string]Pair   `yaml:"btag"`
	GGHInTTH   []NamedValue      `yaml:"ggh_in_tth"`
	RateScales RateScales        `yaml:"rate_scales"`
}

// EraTable holds the era dependent constants.
type EraTable struct {
	Lumi   float64         `yaml:"lumi"`
	Vertex float64         `yaml:"vertex"`
	R9     R9              `yaml:"r9"`
	PDF    map[string]Pair `yaml:"pdf"`
	Scale  map[string]Pair `yaml:"scale"`
}

// R9 holds the cut-based r9 categorisation uncertainties.
type R9 struct {
	Barrel float64 `yaml:"barrel"`
	Mixed  float64 `yaml:"mixed"`
}

// TemplateRule declares a systematic evaluated from up/down signal templates.
// Empty Schemes or Eras match everything; a nil Binned matches both modes.
// With Repeat > 0, Name and Param are format strings expanded for 1..Repeat.
type TemplateRule struct {
	Name    string   `yaml:"name"`
	Param   string   `yaml:"param"`
	Schemes []string `yaml:"schemes,omitempty"`
	Eras    []int    `yaml:"eras,omitempty"`
	Binned  *bool    `yaml:"binned,omitempty"`
	Repeat  int      `yaml:"repeat,omitempty"`
}

// VBFBlock lists the migration systematics of one scheme.
type VBFBlock struct {
	Scheme      string    `yaml:"scheme"`
	Eras        []int     `yaml:"eras"`
	Systematics []VBFSyst `yaml:"systematics"`
}

// VBFSyst is one named migration systematic with a [ggH, qqH] pair per migration.
type VBFSyst struct {
	Name   string `yaml:"name"`
	Values []Pair `yaml:"values"`
}

// PUJetIDBlock lists pileup jet-id rows keyed by process.
type PUJetIDBlock struct {
	Scheme string               `yaml:"scheme"`
	Eras   []int                `yaml:"eras"`
	Rows   []map[string]float64 `yaml:"rows"`
}

// NamedValue is a symmetric uncertainty with a fixed nuisance name.
type NamedValue struct {
	Name  string  `yaml:"name"`
	Value float64 `yaml:"value"`
}

// RateScales are signal rate corrections for lepton and ttH tagged categories.
type RateScales struct {
	LooseLepton float64 `yaml:"loose_lepton"`
	TightLepton float64 `yaml:"tight_lepton"`
	TTHLepton   float64 `yaml:"tth_lepton"`
	TTHHadronic float64 `yaml:"tth_hadronic"`
}

// Builtin returns the tables compiled into the binary.
func Builtin() (*Tables, error) {
	t, err := Parse(builtinTables)
	if err != nil {
		return nil, fmt.Errorf("builtin tables: %w", err)
	}
	return t, nil
}

// LoadFile reads tables from a YAML file.
func LoadFile(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read systematics file: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse decodes a tables document.
func Parse(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse systematics: %w", err)
	}
	if len(t.Eras) == 0 {
		return nil, fmt.Errorf("systematics document defines no eras")
	}
	return &t, nil
}
