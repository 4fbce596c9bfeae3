// Package datacard assembles the H→γγ datacard: rates, shape locations and
// every nuisance line, in the syntax read by the combine fitter.
package datacard

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/c360studio/hggcard/analysis"
	"github.com/c360studio/hggcard/interp"
	"github.com/c360studio/hggcard/systematics"
	"github.com/c360studio/hggcard/yields"
)

// ErrNoLumi is returned when a parametric card has no luminosity to scale
// the signal rates with.
var ErrNoLumi = errors.New("integrated luminosity unknown")

// NonLinearity is a global photon energy scale nuisance with a fixed width.
type NonLinearity struct {
	Name  string
	Width float64
}

// PhotonNuisances lists the photon energy nuisance names.
type PhotonNuisances struct {
	Scale        []string
	Smear        []string
	Material     []string
	NonLinearity []NonLinearity
}

// Options carry the run settings that are not part of the analysis layout.
type Options struct {
	// QuadInterpolate is the sigma of the variation templates; 0 disables interpolation.
	QuadInterpolate int
	// IntLumi overrides the luminosity recorded in the yield source.
	IntLumi float64
	Photon  PhotonNuisances
	// Generator is written on the second card line.
	Generator string
	Logger    *slog.Logger
}

// DefaultGenerator is the provenance line used when Options.Generator is empty.
const DefaultGenerator = "Auto-generated by hggcard"

// Builder fills a Card section by section.
type Builder struct {
	setup  *analysis.Setup
	set    *systematics.Set
	src    yields.Source
	opts   Options
	logger *slog.Logger

	cols   []analysis.Column
	warned map[string]bool
}

// NewBuilder creates a builder. src is always required: binned cards skip
// template integrals but the VBF migrations still read nominal yields.
func NewBuilder(setup *analysis.Setup, set *systematics.Set, src yields.Source, opts Options) *Builder {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Generator == "" {
		opts.Generator = DefaultGenerator
	}
	return &Builder{
		setup:  setup,
		set:    set,
		src:    src,
		opts:   opts,
		logger: logger,
		cols:   setup.Columns(),
		warned: make(map[string]bool),
	}
}

// Build assembles the card.
func (b *Builder) Build() (*Card, error) {
	card := &Card{
		Title:     b.setup.Title(),
		Generator: b.opts.Generator,
		Columns:   b.cols,
	}

	b.logger.Debug("Building card",
		"era", b.setup.Era,
		"scheme", b.setup.Scheme,
		"categories", b.setup.NCats,
		"columns", len(b.cols))

	b.fileOptions(card)
	if err := b.rates(card); err != nil {
		return nil, err
	}
	b.params(card)
	b.theory(card)
	b.lumi(card)

	templates, err := b.templates()
	if err != nil {
		return nil, err
	}
	card.Blocks = append(card.Blocks, templates)

	vbf, err := b.vbf()
	if err != nil {
		return nil, err
	}
	card.Blocks = append(card.Blocks, vbf...)

	if row, ok := b.puJetID(); ok {
		card.Blocks = append(card.Blocks, Block{Name: "pu_jet_id", Rows: []Row{row}})
	}
	card.Blocks = append(card.Blocks, b.leptons(), b.tth())
	if b.setup.MultiPdf {
		card.Blocks = append(card.Blocks, b.multiPdf())
	}

	return card, nil
}

func (b *Builder) fileOptions(card *Card) {
	for _, s := range b.setup.Shapes {
		for c := 0; c < b.setup.NCats; c++ {
			card.Shapes = append(card.Shapes, ShapeLine{
				Process: s.Process,
				Bin:     b.setup.Bin(c),
				File:    s.File,
				Object:  s.Object(c),
				Binned:  b.setup.BinnedSignal,
			})
		}
	}
}

func (b *Builder) rates(card *Card) error {
	for c := 0; c < b.setup.NCats; c++ {
		card.Bins = append(card.Bins, b.setup.Bin(c))
	}

	lumi := 0.0
	if !b.setup.BinnedSignal {
		var err error
		if lumi, err = b.intLumi(); err != nil {
			return err
		}
	}

	cats := b.setup.Cats
	scales := b.set.RateScales
	for _, col := range b.cols {
		card.ColBins = append(card.ColBins, b.setup.Bin(col.Cat))
		card.ProcIDs = append(card.ProcIDs, analysis.ProcessID(col.Proc))

		switch {
		case analysis.IsBackground(col.Proc):
			card.Rates = append(card.Rates, "1.0")
		case b.setup.BinnedSignal:
			card.Rates = append(card.Rates, "-1")
		default:
			scale := 1.0
			if cats.LooseLepton.Has(col.Cat) {
				scale *= scales.LooseLepton
			}
			if cats.TightLepton.Has(col.Cat) {
				scale *= scales.TightLepton
			}
			if cats.TTH.Has(col.Cat) {
				if cats.TTHLepton.Has(col.Cat) {
					scale *= scales.TTHLepton
				} else {
					scale *= scales.TTHHadronic
				}
			}
			card.Rates = append(card.Rates, fmt.Sprintf("%7.1f", lumi*scale))
		}
	}
	return nil
}

func (b *Builder) intLumi() (float64, error) {
	if b.opts.IntLumi > 0 {
		return b.opts.IntLumi, nil
	}
	if ls, ok := b.src.(yields.LumiSource); ok {
		if v, ok := ls.IntLumi(); ok {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: set int_lumi or record it in the yield file", ErrNoLumi)
}

func (b *Builder) params(card *Card) {
	if b.setup.BinnedSignal {
		return
	}
	sqrts := b.setup.SqrtS()
	param := func(name, width string) Row {
		return Row{Name: name, Kind: KindParam, Width: 40, Entries: []string{"0.0", width}}
	}

	card.Params = append(card.Params, param(fmt.Sprintf("CMS_hgg_nuisance_%dTeVdeltafracright", sqrts), fmt.Sprintf("%6.4f", b.set.Vertex)))
	if b.set.R9 != nil {
		card.Params = append(card.Params,
			param(fmt.Sprintf("CMS_hgg_nuisance_%dTeVdeltar9barrel", sqrts), fmt.Sprintf("%6.4f", b.set.R9.Barrel)),
			param(fmt.Sprintf("CMS_hgg_nuisance_%dTeVdeltar9mixed", sqrts), fmt.Sprintf("%6.4f", b.set.R9.Mixed)),
		)
	}
	for _, n := range b.opts.Photon.Scale {
		card.Params = append(card.Params, param(fmt.Sprintf("CMS_hgg_nuisance_%s_%dTeVscale", n, sqrts), "1.0"))
	}
	for _, n := range b.opts.Photon.Smear {
		card.Params = append(card.Params, param(fmt.Sprintf("CMS_hgg_nuisance_%s_%dTeVsmear", n, sqrts), "1.0"))
	}
	for _, n := range b.opts.Photon.Material {
		card.Params = append(card.Params, param(fmt.Sprintf("CMS_hgg_nuisance_%s_scale", n), "1.0"))
	}
	for _, n := range b.opts.Photon.NonLinearity {
		card.Params = append(card.Params, param(fmt.Sprintf("CMS_hgg_nuisance_%s_%dTeVscale", n.Name, sqrts), fmt.Sprintf("%6.4f", n.Width)))
	}
}

// lnN builds an lnN row with one entry per rate column.
func (b *Builder) lnN(name string, entry func(col analysis.Column) string) Row {
	row := Row{Name: name, Kind: KindLnN, Width: 35, Entries: make([]string, len(b.cols))}
	for i, col := range b.cols {
		row.Entries[i] = entry(col)
	}
	return row
}

func asym(down, up float64) string {
	return fmt.Sprintf("%5.3f/%5.3f", down, up)
}

func symPrecise(u float64) string {
	return fmt.Sprintf("%6.4f/%6.4f", 1-u, 1+u)
}

func (b *Builder) theory(card *Card) {
	theoryBlock := func(name, prefix string, pairs []systematics.ProcPair) Block {
		block := Block{Name: name, Blank: true}
		for _, pp := range pairs {
			block.Rows = append(block.Rows, b.lnN(prefix+pp.Proc, func(col analysis.Column) string {
				if col.Proc != pp.Proc {
					return Dash
				}
				return asym(1+pp.Down, 1+pp.Up)
			}))
		}
		return block
	}

	card.Blocks = append(card.Blocks,
		theoryBlock("qcd_scale", "QCDscale_", b.set.Scale),
		theoryBlock("pdf", "pdf_", b.set.PDF),
	)

	br := b.set.BR
	card.Blocks = append(card.Blocks, Block{Name: "br", Blank: true, Rows: []Row{
		b.lnN("br_hgg", func(col analysis.Column) string {
			if analysis.IsBackground(col.Proc) {
				return Dash
			}
			return asym(1+br[1], 1+br[0])
		}),
	}})
}

func (b *Builder) lumi(card *Card) {
	card.Blocks = append(card.Blocks, Block{Name: "lumi", Blank: true, Rows: []Row{
		b.lnN(fmt.Sprintf("lumi_%dTeV", b.setup.SqrtS()), func(col analysis.Column) string {
			if analysis.IsBackground(col.Proc) {
				return Dash
			}
			return fmt.Sprintf("%5.3f", 1+b.set.Lumi)
		}),
	}})
}

func (b *Builder) templates() (Block, error) {
	block := Block{Name: "templates", Blank: true}
	binned := b.setup.BinnedSignal

	for _, t := range b.set.Templates {
		row := Row{Name: "CMS_hgg_" + t.Param, Kind: KindLnN, Width: 35}
		if binned {
			row = Row{Name: t.Name, Kind: KindShape, Width: 25}
		}

		for _, col := range b.cols {
			if analysis.IsBackground(col.Proc) || (t.IsPDFWeight() && col.Proc != analysis.ProcGGH) {
				if binned {
					row.Entries = append(row.Entries, "0")
				} else {
					row.Entries = append(row.Entries, Dash)
				}
				continue
			}

			if binned {
				if t.IsPDFWeight() {
					row.Entries = append(row.Entries, "0.3333")
				} else {
					row.Entries = append(row.Entries, "0.333")
				}
				continue
			}

			v, err := b.oneSigma(col, t.Name)
			if err != nil {
				return Block{}, err
			}
			row.Entries = append(row.Entries, asym(v[0], v[1]))
		}
		block.Rows = append(block.Rows, row)
	}
	return block, nil
}

func (b *Builder) oneSigma(col analysis.Column, syst string) ([2]float64, error) {
	globe, _ := analysis.GlobeName(col.Proc)
	nom, err := b.integral(yields.NominalName(globe, col.Cat))
	if err != nil {
		return [2]float64{}, err
	}
	up, err := b.integral(yields.VariedName(globe, col.Cat, syst, true))
	if err != nil {
		return [2]float64{}, err
	}
	down, err := b.integral(yields.VariedName(globe, col.Cat, syst, false))
	if err != nil {
		return [2]float64{}, err
	}
	return interp.OneSigma(nom, down, up, b.opts.QuadInterpolate), nil
}

func (b *Builder) integral(name string) (float64, error) {
	if b.src == nil {
		return 0, fmt.Errorf("%w: %s (no yield source)", yields.ErrNotFound, name)
	}
	v, err := b.src.Integral(name)
	if err != nil {
		return 0, fmt.Errorf("read template: %w", err)
	}
	return v, nil
}

func (b *Builder) sumNominal(proc string, cats analysis.Cats) (float64, error) {
	globe, _ := analysis.GlobeName(proc)
	sum := 0.0
	for _, c := range cats {
		v, err := b.integral(yields.NominalName(globe, c))
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return sum, nil
}

func (b *Builder) vbf() ([]Block, error) {
	if len(b.set.VBF) == 0 {
		return nil, nil
	}
	migrations := Migrations(b.setup.Cats.Inclusive, b.setup.Cats.Dijet)

	// Event counts on both sides of every migration, for the processes the
	// migration systematics apply to.
	type counts struct{ from, to []float64 }
	evCounts := make(map[string]counts)
	for _, p := range []string{analysis.ProcGGH, analysis.ProcQQH} {
		if !b.setup.HasProc(p) {
			continue
		}
		var cnt counts
		for _, m := range migrations {
			from, err := b.sumNominal(p, m.From)
			if err != nil {
				return nil, err
			}
			to, err := b.sumNominal(p, m.To)
			if err != nil {
				return nil, err
			}
			cnt.from = append(cnt.from, from)
			cnt.to = append(cnt.to, to)
		}
		evCounts[p] = cnt
	}

	var blocks []Block
	for _, syst := range b.set.VBF {
		block := Block{Name: syst.Name, Blank: true}
		for i, value := range syst.Values {
			m := migrations[i]
			block.Rows = append(block.Rows, b.lnN(fmt.Sprintf("%s_migration%d", syst.Name, i), func(col analysis.Column) string {
				var u float64
				switch col.Proc {
				case analysis.ProcGGH:
					u = value[0]
				case analysis.ProcQQH:
					u = value[1]
				default:
					return Dash
				}
				cnt := evCounts[col.Proc]
				switch {
				case m.To.Has(col.Cat):
					return fmt.Sprintf("%6.4f", MigratedRatio(cnt.to[i], cnt.from[i], u))
				case m.From.Has(col.Cat):
					return fmt.Sprintf("%6.4f", 1+u)
				default:
					return Dash
				}
			}))
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

func (b *Builder) puJetID() (Row, bool) {
	if len(b.set.PUJetID) == 0 {
		return Row{}, false
	}
	tagged := b.setup.Cats.JetTagged()
	return b.lnN("CMS_hgg_eff_j", func(col analysis.Column) string {
		if analysis.IsBackground(col.Proc) {
			return Dash
		}
		idx := tagged.Index(col.Cat)
		if idx < 0 {
			return Dash
		}
		v, ok := b.set.PUJetID[idx][col.Proc]
		if !ok {
			b.warnMissing("pu_jet_id", col.Proc)
			return Dash
		}
		return symPrecise(v)
	}), true
}

func (b *Builder) leptons() Block {
	cats := b.setup.Cats
	row := func(name, table string, values map[string]systematics.Triple) Row {
		return b.lnN(name, func(col analysis.Column) string {
			switch col.Proc {
			case analysis.ProcBkg, analysis.ProcGGH, analysis.ProcQQH:
				return Dash
			}
			t, ok := values[col.Proc]
			if !ok {
				b.warnMissing(table, col.Proc)
				return Dash
			}
			var u float64
			switch {
			case cats.TightLepton.Has(col.Cat):
				u = t[0]
			case cats.LooseLepton.Has(col.Cat):
				u = t[1]
			case cats.TTHLepton.Has(col.Cat):
				u = t[2]
			}
			if u == 0 {
				return Dash
			}
			return symPrecise(u)
		})
	}

	return Block{Name: "leptons", Rows: []Row{
		row("CMS_hgg_eff_e", "electron", b.set.Electron),
		row("CMS_hgg_eff_m", "muon", b.set.Muon),
		row("CMS_hgg_scale_met", "met", b.set.MET),
	}}
}

func (b *Builder) tth() Block {
	cats := b.setup.Cats
	block := Block{Name: "tth"}

	block.Rows = append(block.Rows, b.lnN("CMS_hgg_eff_b", func(col analysis.Column) string {
		if analysis.IsBackground(col.Proc) || !cats.TTH.Has(col.Cat) {
			return Dash
		}
		t, ok := b.set.BTag[col.Proc]
		if !ok {
			b.warnMissing("btag", col.Proc)
			return Dash
		}
		var u float64
		switch {
		case b.setup.Era == analysis.Era2011:
			// A single ttH category holds both tags.
			u = math.Sqrt(t[0]*t[0] + t[1]*t[1])
		case cats.TTHLepton.Has(col.Cat):
			u = t[0]
		case cats.TTHHadronic.Has(col.Cat):
			u = t[1]
		}
		if u == 0 {
			return Dash
		}
		return symPrecise(u)
	}))

	for _, nv := range b.set.GGHInTTH {
		block.Rows = append(block.Rows, b.lnN(nv.Name, func(col analysis.Column) string {
			if col.Proc == analysis.ProcGGH && cats.TTH.Has(col.Cat) {
				return symPrecise(nv.Value)
			}
			return Dash
		}))
	}
	return block
}

func (b *Builder) multiPdf() Block {
	block := Block{Name: "multipdf"}
	for c := 0; c < b.setup.NCats; c++ {
		block.Rows = append(block.Rows, Row{
			Name: fmt.Sprintf("pdfindex_%d_%dTeV", c, b.setup.SqrtS()),
			Kind: KindDiscrete,
		})
	}
	return block
}

func (b *Builder) warnMissing(table, proc string) {
	key := table + "/" + proc
	if b.warned[key] {
		return
	}
	b.warned[key] = true
	b.logger.Warn("No systematic value for process, leaving it unaffected", "table", table, "process", proc)
}
