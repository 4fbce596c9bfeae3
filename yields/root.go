package yields

import (
	"fmt"
	"log/slog"
	"sort"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hbook/rootcnv"
)

// ROOTFile reads TH1 templates from a ROOT file.
type ROOTFile struct {
	path   string
	f      *groot.File
	cache  map[string]float64
	logger *slog.Logger
}

// OpenROOT opens a ROOT file for reading.
func OpenROOT(path string, logger *slog.Logger) (*ROOTFile, error) {
	f, err := groot.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ROOT file: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("Opened ROOT file", "path", path, "keys", len(f.Keys()))
	return &ROOTFile{
		path:   path,
		f:      f,
		cache:  make(map[string]float64),
		logger: logger,
	}, nil
}

// Integral returns the sum of in-range bin contents, matching TH1::Integral().
func (r *ROOTFile) Integral(name string) (float64, error) {
	if v, ok := r.cache[name]; ok {
		return v, nil
	}

	obj, err := r.f.Get(name)
	if err != nil {
		return 0, fmt.Errorf("%w: %s in %s: %v", ErrNotFound, name, r.path, err)
	}
	h, ok := obj.(rhist.H1)
	if !ok {
		return 0, fmt.Errorf("%s in %s is a %s, not a 1D histogram", name, r.path, obj.Class())
	}

	v := inRangeIntegral(rootcnv.H1D(h))
	r.cache[name] = v
	r.logger.Debug("Read template", "name", name, "integral", v)
	return v, nil
}

// Names lists the top-level keys of the file.
func (r *ROOTFile) Names() []string {
	keys := r.f.Keys()
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, k.Name())
	}
	sort.Strings(names)
	return names
}

// Close releases the file.
func (r *ROOTFile) Close() error {
	return r.f.Close()
}

func inRangeIntegral(h *hbook.H1D) float64 {
	return h.Integral(h.XMin(), h.XMax())
}
