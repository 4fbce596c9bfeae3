// Package config provides configuration loading and management for hggcard.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/hggcard/analysis"
)

// Config represents the complete run configuration of a datacard build
type Config struct {
	// Input is the yield source: a ROOT file of signal templates, or a YAML/JSON yield map
	Input string `yaml:"input" env:"INPUT"`
	// Output is the datacard path
	Output string `yaml:"output" env:"OUTPUT"`
	// Procs are the signal process tags (ggh, vbf, wzh, wh, zh, tth)
	Procs []string `yaml:"procs" env:"PROCS"`
	// NCats is the number of categories written to the card
	NCats int `yaml:"ncats" env:"NCATS"`

	PhotonNuisances PhotonNuisances `yaml:"photon_nuisances" envPrefix:"PHOTON_"`

	// ToSkip lists proc:cat cells dropped from the card (glob patterns allowed)
	ToSkip []string `yaml:"to_skip" env:"TO_SKIP"`

	CutBased     bool `yaml:"cut_based" env:"CUT_BASED"`
	MultiPdf     bool `yaml:"multi_pdf" env:"MULTI_PDF"`
	BinnedSignal bool `yaml:"binned_signal" env:"BINNED_SIGNAL"`
	Is2011       bool `yaml:"is_2011" env:"IS_2011"`

	// QuadInterpolate is the sigma the templates were produced at (0 = off)
	QuadInterpolate int `yaml:"quad_interpolate" env:"QUAD_INTERPOLATE"`
	// IntLumi is the integrated luminosity in pb^-1 (0 = take it from the yield source)
	IntLumi float64 `yaml:"int_lumi" env:"INT_LUMI"`

	// SystematicsFile replaces the built-in systematic tables
	SystematicsFile string `yaml:"systematics_file" env:"SYSTEMATICS_FILE"`

	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL"`
	MetricsFile string `yaml:"metrics_file" env:"METRICS_FILE"`
	XLSX        string `yaml:"xlsx" env:"XLSX"`
}

// PhotonNuisances names the photon energy nuisances written as param lines
type PhotonNuisances struct {
	// Scale nuisances are not correlated across eras
	Scale []string `yaml:"scale" env:"SCALE"`
	// Smear nuisances are not correlated across eras
	Smear []string `yaml:"smear" env:"SMEAR"`
	// Material nuisances are correlated across eras
	Material []string `yaml:"material" env:"MATERIAL"`
	// NonLinearity entries are name:width global scales
	NonLinearity []string `yaml:"non_linearity" env:"NON_LINEARITY"`
}

// NonLinearityEntry is a parsed name:width non-linearity nuisance.
type NonLinearityEntry struct {
	Name  string
	Width float64
}

// DefaultConfig returns a Config with the legacy analysis defaults
func DefaultConfig() *Config {
	return &Config{
		Output: "cms_hgg_datacard.txt",
		Procs:  []string{"ggh", "vbf", "wh", "zh", "tth"},
		NCats:  9,
		PhotonNuisances: PhotonNuisances{
			Scale:        []string{"EBlowR9", "EBhighR9", "EElowR9", "EEhighR9"},
			Smear:        []string{"EBlowR9", "EBhighR9", "EBlowR9Phi", "EBhighR9Phi", "EElowR9", "EEhighR9"},
			Material:     []string{"MaterialEBCentral", "MaterialEBOuter"},
			NonLinearity: []string{"NonLinearity:0.001"},
		},
		LogLevel: "info",
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("input is required")
	}
	if c.Output == "" {
		return fmt.Errorf("output is required")
	}
	if c.NCats < 1 {
		return fmt.Errorf("ncats must be at least 1")
	}
	if len(c.Procs) == 0 {
		return fmt.Errorf("procs must name at least one signal process")
	}
	for _, p := range c.Procs {
		if !analysis.IsGlobeProcess(strings.TrimSpace(p)) {
			return fmt.Errorf("unknown process %q in procs", p)
		}
	}
	hasWZH, hasSplit := false, false
	for _, p := range c.Procs {
		switch strings.TrimSpace(p) {
		case "wzh":
			hasWZH = true
		case "wh", "zh":
			hasSplit = true
		}
	}
	if hasWZH && hasSplit {
		return fmt.Errorf("procs cannot mix wzh with wh/zh")
	}
	if c.QuadInterpolate < 0 {
		return fmt.Errorf("quad_interpolate must not be negative")
	}
	if c.IntLumi < 0 {
		return fmt.Errorf("int_lumi must not be negative")
	}
	if _, err := c.NonLinearity(); err != nil {
		return err
	}
	for _, s := range c.ToSkip {
		if err := analysis.ParseSkip(s); err != nil {
			return err
		}
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error")
	}
	return nil
}

// NonLinearity parses the name:width non-linearity entries
func (c *Config) NonLinearity() ([]NonLinearityEntry, error) {
	out := make([]NonLinearityEntry, 0, len(c.PhotonNuisances.NonLinearity))
	for _, e := range c.PhotonNuisances.NonLinearity {
		name, width, ok := strings.Cut(e, ":")
		if !ok || name == "" {
			return nil, fmt.Errorf("non-linearity nuisance %q: want name:width", e)
		}
		w, err := strconv.ParseFloat(width, 64)
		if err != nil {
			return nil, fmt.Errorf("non-linearity nuisance %q: %w", e, err)
		}
		out = append(out, NonLinearityEntry{Name: name, Width: w})
	}
	return out, nil
}

// AnalysisOptions maps the configuration onto the analysis layout options
func (c *Config) AnalysisOptions() analysis.Options {
	return analysis.Options{
		Procs:        c.Procs,
		NCats:        c.NCats,
		CutBased:     c.CutBased,
		MultiPdf:     c.MultiPdf,
		BinnedSignal: c.BinnedSignal,
		Is2011:       c.Is2011,
		ToSkip:       c.ToSkip,
	}
}

// Layer is one configuration file. Nil fields were absent from the file and
// leave the value underneath unchanged.
type Layer struct {
	Input           *string          `yaml:"input"`
	Output          *string          `yaml:"output"`
	Procs           []string         `yaml:"procs"`
	NCats           *int             `yaml:"ncats"`
	PhotonNuisances *PhotonNuisances `yaml:"photon_nuisances"`
	ToSkip          []string         `yaml:"to_skip"`
	CutBased        *bool            `yaml:"cut_based"`
	MultiPdf        *bool            `yaml:"multi_pdf"`
	BinnedSignal    *bool            `yaml:"binned_signal"`
	Is2011          *bool            `yaml:"is_2011"`
	QuadInterpolate *int             `yaml:"quad_interpolate"`
	IntLumi         *float64         `yaml:"int_lumi"`
	SystematicsFile *string          `yaml:"systematics_file"`
	LogLevel        *string          `yaml:"log_level"`
	MetricsFile     *string          `yaml:"metrics_file"`
	XLSX            *string          `yaml:"xlsx"`
}

// LoadFromFile loads a YAML configuration file as a layer
func LoadFromFile(path string) (*Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var layer Layer
	if err := yaml.Unmarshal(data, &layer); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &layer, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge applies a layer on top of this config. Every key the layer sets wins,
// including false and zero values.
func (c *Config) Merge(l *Layer) {
	if l == nil {
		return
	}

	set(&c.Input, l.Input)
	set(&c.Output, l.Output)
	if l.Procs != nil {
		c.Procs = l.Procs
	}
	set(&c.NCats, l.NCats)

	// Photon nuisances
	if p := l.PhotonNuisances; p != nil {
		if p.Scale != nil {
			c.PhotonNuisances.Scale = p.Scale
		}
		if p.Smear != nil {
			c.PhotonNuisances.Smear = p.Smear
		}
		if p.Material != nil {
			c.PhotonNuisances.Material = p.Material
		}
		if p.NonLinearity != nil {
			c.PhotonNuisances.NonLinearity = p.NonLinearity
		}
	}

	if l.ToSkip != nil {
		c.ToSkip = l.ToSkip
	}

	set(&c.CutBased, l.CutBased)
	set(&c.MultiPdf, l.MultiPdf)
	set(&c.BinnedSignal, l.BinnedSignal)
	set(&c.Is2011, l.Is2011)
	set(&c.QuadInterpolate, l.QuadInterpolate)
	set(&c.IntLumi, l.IntLumi)
	set(&c.SystematicsFile, l.SystematicsFile)
	set(&c.LogLevel, l.LogLevel)
	set(&c.MetricsFile, l.MetricsFile)
	set(&c.XLSX, l.XLSX)
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
