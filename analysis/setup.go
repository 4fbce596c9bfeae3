// Package analysis derives the fixed layout of an H→γγ datacard (era,
// category numbering, processes, shape locations) from the run options.
package analysis

import (
	"fmt"
	"slices"
	"strings"
)

// Options are the run switches that shape the card layout.
type Options struct {
	// Procs are globe process tags; the background is appended automatically.
	Procs        []string
	NCats        int
	CutBased     bool
	MultiPdf     bool
	BinnedSignal bool
	Is2011       bool
	ToSkip       []string
}

// Column is one (category, process) cell of the rate table.
type Column struct {
	Cat  int    `json:"cat"`
	Proc string `json:"proc"`
}

// Setup is the resolved analysis layout shared by every card section.
type Setup struct {
	Era          Era
	Scheme       Scheme
	NCats        int
	Procs        []string
	SplitVH      bool
	MultiPdf     bool
	BinnedSignal bool
	Cats         Categories
	Shapes       []ShapeSource

	skip *skipper
}

// NewSetup validates opts and resolves the layout.
func NewSetup(opts Options) (*Setup, error) {
	if opts.NCats < 1 {
		return nil, fmt.Errorf("ncats must be positive, got %d", opts.NCats)
	}
	if len(opts.Procs) == 0 {
		return nil, fmt.Errorf("no signal processes requested")
	}

	procs := make([]string, 0, len(opts.Procs)+1)
	for _, p := range opts.Procs {
		p = strings.TrimSpace(p)
		if !IsGlobeProcess(p) {
			return nil, fmt.Errorf("unknown process %q (known: %s)", p, strings.Join(GlobeProcesses(), ","))
		}
		name, _ := CombineName(p)
		if slices.Contains(procs, name) {
			return nil, fmt.Errorf("process %q requested twice", p)
		}
		procs = append(procs, name)
	}

	hasVH := slices.Contains(procs, ProcVH)
	if hasVH && (slices.Contains(procs, ProcWH) || slices.Contains(procs, ProcZH)) {
		return nil, fmt.Errorf("wzh cannot be combined with wh or zh")
	}
	procs = append(procs, ProcBkg)

	skip, err := newSkipper(opts.ToSkip)
	if err != nil {
		return nil, err
	}

	s := &Setup{
		Era:          Era2012,
		Scheme:       SchemeMVA,
		NCats:        opts.NCats,
		Procs:        procs,
		SplitVH:      !hasVH,
		MultiPdf:     opts.MultiPdf,
		BinnedSignal: opts.BinnedSignal,
		skip:         skip,
	}
	if opts.Is2011 {
		s.Era = Era2011
	}
	if opts.CutBased {
		s.Scheme = SchemeCutBased
	}
	s.Cats = Layout(s.Scheme, s.Era)
	s.Shapes = shapeSources(s.Scheme, s.SqrtS(), s.MultiPdf, s.BinnedSignal, s.SplitVH)
	return s, nil
}

// SqrtS returns the centre-of-mass energy in TeV.
func (s *Setup) SqrtS() int {
	return s.Era.SqrtS()
}

// Bin returns the card bin name of category c.
func (s *Setup) Bin(c int) string {
	return fmt.Sprintf("cat%d_%dTeV", c, s.SqrtS())
}

// IsSkipped reports whether proc is dropped from category c.
func (s *Setup) IsSkipped(proc string, c int) bool {
	return s.skip != nil && s.skip.skipped(proc, c)
}

// SignalProcs returns the requested signal processes in card order.
func (s *Setup) SignalProcs() []string {
	out := make([]string, 0, len(s.Procs))
	for _, p := range s.Procs {
		if !IsBackground(p) {
			out = append(out, p)
		}
	}
	return out
}

// HasProc reports whether proc is part of the card.
func (s *Setup) HasProc(proc string) bool {
	return slices.Contains(s.Procs, proc)
}

// Columns lists the cells of the rate table, category-major, without skipped cells.
func (s *Setup) Columns() []Column {
	cols := make([]Column, 0, s.NCats*len(s.Procs))
	for c := 0; c < s.NCats; c++ {
		for _, p := range s.Procs {
			if s.IsSkipped(p, c) {
				continue
			}
			cols = append(cols, Column{Cat: c, Proc: p})
		}
	}
	return cols
}

// Title describes the analysis on the first card line.
func (s *Setup) Title() string {
	kind := "mass factorized"
	if s.Scheme == SchemeCutBased {
		kind = "cut based"
	}
	return fmt.Sprintf("CMS-HGG datacard for parametric model - %s analysis %dTeV", kind, s.SqrtS())
}
