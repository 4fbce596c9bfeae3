package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/hggcard/analysis"
	"github.com/c360studio/hggcard/config"
	"github.com/c360studio/hggcard/datacard"
	"github.com/c360studio/hggcard/export"
	"github.com/c360studio/hggcard/metrics"
	"github.com/c360studio/hggcard/systematics"
	"github.com/c360studio/hggcard/watch"
	"github.com/c360studio/hggcard/yields"
)

// App wires configuration, inputs and writers for one or more card builds.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewApp creates a new application instance.
func NewApp(cfg *config.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{cfg: cfg, logger: logger}
}

// Generate builds the card and writes every configured output.
func (a *App) Generate(ctx context.Context) (*datacard.Card, error) {
	runID := uuid.NewString()
	logger := a.logger.With("run_id", runID)
	rec := metrics.New()
	start := time.Now()

	card, err := a.generate(ctx, logger, rec)

	rec.ObserveRun(time.Since(start), err)
	if a.cfg.MetricsFile != "" {
		if werr := rec.WriteFile(a.cfg.MetricsFile); werr != nil {
			logger.Warn("Failed to write metrics", "path", a.cfg.MetricsFile, "error", werr)
		}
	}
	if err != nil {
		return nil, err
	}

	logger.Info("Datacard written",
		"output", a.cfg.Output,
		"columns", len(card.Columns),
		"nuisances", len(card.Rows()),
		"duration", time.Since(start))
	return card, nil
}

func (a *App) generate(ctx context.Context, logger *slog.Logger, rec *metrics.Recorder) (*datacard.Card, error) {
	setup, err := analysis.NewSetup(a.cfg.AnalysisOptions())
	if err != nil {
		return nil, fmt.Errorf("analysis setup: %w", err)
	}
	set, err := a.selectSystematics(setup)
	if err != nil {
		return nil, err
	}
	nonLin, err := a.cfg.NonLinearity()
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, err := yields.Open(a.cfg.Input, logger)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	logger.Info("Generating datacard",
		"input", a.cfg.Input,
		"era", setup.Era,
		"scheme", setup.Scheme,
		"categories", setup.NCats,
		"processes", setup.Procs)

	opts := datacard.Options{
		QuadInterpolate: a.cfg.QuadInterpolate,
		IntLumi:         a.cfg.IntLumi,
		Photon: datacard.PhotonNuisances{
			Scale:    a.cfg.PhotonNuisances.Scale,
			Smear:    a.cfg.PhotonNuisances.Smear,
			Material: a.cfg.PhotonNuisances.Material,
		},
		Generator: fmt.Sprintf("%s %s", datacard.DefaultGenerator, Version),
		Logger:    logger,
	}
	for _, n := range nonLin {
		opts.Photon.NonLinearity = append(opts.Photon.NonLinearity, datacard.NonLinearity{Name: n.Name, Width: n.Width})
	}

	card, err := datacard.Generate(setup, set, rec.Source(src), opts)
	if err != nil {
		return nil, err
	}
	rec.ObserveCard(setup, card)

	if err := export.WriteFile(card, a.cfg.Output); err != nil {
		return nil, err
	}
	if a.cfg.XLSX != "" {
		if err := export.WriteFile(card, a.cfg.XLSX); err != nil {
			return nil, err
		}
		logger.Debug("Workbook written", "path", a.cfg.XLSX)
	}
	return card, nil
}

func (a *App) selectSystematics(setup *analysis.Setup) (*systematics.Set, error) {
	var (
		tables *systematics.Tables
		err    error
	)
	if a.cfg.SystematicsFile != "" {
		tables, err = systematics.LoadFile(a.cfg.SystematicsFile)
	} else {
		tables, err = systematics.Builtin()
	}
	if err != nil {
		return nil, err
	}
	return systematics.Select(tables, setup)
}

// Watch generates the card, then regenerates it whenever one of the inputs
// changes. reload re-reads the configuration before every rebuild.
func (a *App) Watch(ctx context.Context, configFiles []string, reload func() (*config.Config, error)) error {
	if _, err := a.Generate(ctx); err != nil {
		a.logger.Error("Initial generation failed", "error", err)
	}

	paths := append([]string(nil), configFiles...)
	paths = append(paths, a.cfg.Input)
	if a.cfg.SystematicsFile != "" {
		paths = append(paths, a.cfg.SystematicsFile)
	}

	w, err := watch.NewWatcher(watch.Config{Paths: paths, Logger: a.logger})
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	return w.Run(ctx, func(ctx context.Context, ev watch.Event) error {
		cfg, err := reload()
		if err != nil {
			return fmt.Errorf("reload config: %w", err)
		}
		a.cfg = cfg
		_, err = a.Generate(ctx)
		return err
	})
}

// printYields lists the nominal signal integrals of a yield file.
func printYields(w io.Writer, path string, logger *slog.Logger) error {
	src, err := yields.Open(path, logger)
	if err != nil {
		return err
	}
	defer src.Close()

	lister, ok := src.(yields.Lister)
	if !ok {
		return fmt.Errorf("%s cannot list its templates", path)
	}

	type entry struct {
		globe string
		cat   int
		name  string
	}
	var entries []entry
	for _, name := range lister.Names() {
		if globe, cat, ok := yields.ParseNominal(name); ok {
			entries = append(entries, entry{globe, cat, name})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].globe != entries[j].globe {
			return entries[i].globe < entries[j].globe
		}
		return entries[i].cat < entries[j].cat
	})

	if ls, ok := src.(yields.LumiSource); ok {
		if lumi, ok := ls.IntLumi(); ok {
			fmt.Fprintf(w, "int_lumi %.1f\n", lumi)
		}
	}
	fmt.Fprintf(w, "%-10s %4s %12s\n", "process", "cat", "integral")
	for _, e := range entries {
		v, err := src.Integral(e.name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%-10s %4d %12.4f\n", e.globe, e.cat, v)
	}
	return nil
}

// printSystematics dumps the tables selected for the configured analysis.
func printSystematics(w io.Writer, cfg *config.Config, logger *slog.Logger) error {
	setup, err := analysis.NewSetup(cfg.AnalysisOptions())
	if err != nil {
		return fmt.Errorf("analysis setup: %w", err)
	}
	set, err := NewApp(cfg, logger).selectSystematics(setup)
	if err != nil {
		return err
	}

	out := struct {
		Era        analysis.Era        `yaml:"era"`
		Scheme     analysis.Scheme     `yaml:"scheme"`
		Categories analysis.Categories `yaml:"categories"`
		Set        systematics.Set     `yaml:",inline"`
	}{setup.Era, setup.Scheme, setup.Cats, *set}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode systematics: %w", err)
	}
	return enc.Close()
}
