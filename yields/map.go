package yields

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Map is an in-memory source, also used for the YAML/JSON yield file format:
//
//	int_lumi: 19620
//	histograms:
//	  th1f_sig_ggh_mass_m125_cat0: 41.2
type Map struct {
	Lumi       float64            `yaml:"int_lumi" json:"int_lumi"`
	Histograms map[string]float64 `yaml:"histograms" json:"histograms"`
}

// LoadMap reads a yield file. JSON is accepted as the YAML subset it is.
func LoadMap(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read yield file: %w", err)
	}
	var m Map
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse yield file %s: %w", path, err)
	}
	if m.Histograms == nil {
		m.Histograms = make(map[string]float64)
	}
	return &m, nil
}

// Integral returns the stored integral for name.
func (m *Map) Integral(name string) (float64, error) {
	v, ok := m.Histograms[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return v, nil
}

// IntLumi returns the recorded luminosity, if any.
func (m *Map) IntLumi() (float64, bool) {
	return m.Lumi, m.Lumi > 0
}

// Names lists the stored template names.
func (m *Map) Names() []string {
	names := make([]string, 0, len(m.Histograms))
	for n := range m.Histograms {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Close is a no-op.
func (m *Map) Close() error {
	return nil
}
