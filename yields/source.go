// Package yields reads signal template integrals. Templates follow the
// producer's naming: th1f_sig_<proc>_mass_m125_cat<N>, with systematic
// variations suffixed _<syst>Up01_sigma and _<syst>Down01_sigma.
package yields

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrNotFound is returned when a template is missing from the source.
var ErrNotFound = errors.New("template not found")

// Source provides template integrals by name.
type Source interface {
	Integral(name string) (float64, error)
	Close() error
}

// LumiSource is implemented by sources that also record the integrated
// luminosity the templates were normalised to.
type LumiSource interface {
	IntLumi() (float64, bool)
}

// Lister is implemented by sources that can enumerate their templates.
type Lister interface {
	Names() []string
}

// NominalName returns the nominal signal template name.
func NominalName(globe string, cat int) string {
	return fmt.Sprintf("th1f_sig_%s_mass_m125_cat%d", globe, cat)
}

// VariedName returns the name of a systematic variation template.
func VariedName(globe string, cat int, syst string, up bool) string {
	dir := "Down"
	if up {
		dir = "Up"
	}
	return fmt.Sprintf("%s_%s%s01_sigma", NominalName(globe, cat), syst, dir)
}

// ParseNominal splits a nominal template name into process tag and category.
func ParseNominal(name string) (globe string, cat int, ok bool) {
	rest, found := strings.CutPrefix(name, "th1f_sig_")
	if !found || strings.HasSuffix(name, "_sigma") {
		return "", 0, false
	}
	globe, catPart, found := strings.Cut(rest, "_mass_m125_cat")
	if !found || globe == "" {
		return "", 0, false
	}
	cat, err := strconv.Atoi(catPart)
	if err != nil || cat < 0 || strconv.Itoa(cat) != catPart {
		return "", 0, false
	}
	return globe, cat, true
}

// Open picks a source from the file extension: ROOT files are read with
// groot, YAML and JSON files hold a name → integral map.
func Open(path string, logger *slog.Logger) (Source, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".root":
		f, err := OpenROOT(path, logger)
		if err != nil {
			return nil, err
		}
		return f, nil
	case ".yaml", ".yml", ".json":
		m, err := LoadMap(path)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported yield source %q: want .root, .yaml or .json", path)
	}
}
