package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/c360studio/hggcard/config"
)

// legacyFlagNames maps the option spellings of the older datacard scripts
// onto the current flag names.
var legacyFlagNames = map[string]string{
	"infilename":                  "input",
	"outfilename":                 "output",
	"photonNuisancesScale":        "photon-scale",
	"photonNuisancesSmear":        "photon-smear",
	"photonNuisancesMaterial":     "photon-material",
	"photonNuisancesNonLinearity": "photon-nonlinearity",
	"toSkip":                      "to-skip",
	"isCutBased":                  "cut-based",
	"isMultiPdf":                  "multi-pdf",
	"isBinnedSignal":              "binned-signal",
	"quadInterpolate":             "quad-interpolate",
}

func normalizeLegacy(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	if current, ok := legacyFlagNames[name]; ok {
		name = current
	}
	return pflag.NormalizedName(name)
}

// cardFlags are the command-line overrides of the card configuration.
// Only flags that were set on the command line replace config values.
type cardFlags struct {
	input              string
	output             string
	procs              []string
	ncats              int
	photonScale        []string
	photonSmear        []string
	photonMaterial     []string
	photonNonLinearity []string
	toSkip             []string
	cutBased           bool
	multiPdf           bool
	binnedSignal       bool
	is2011             bool
	quadInterpolate    int
	intLumi            float64
	systematics        string
	metricsFile        string
	xlsx               string
}

func (f *cardFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.SetNormalizeFunc(normalizeLegacy)

	fs.StringVarP(&f.input, "input", "i", "", "Signal templates (ROOT) or yield map (YAML/JSON)")
	fs.StringVarP(&f.output, "output", "o", "", "Datacard path (default cms_hgg_datacard.txt)")
	fs.StringSliceVarP(&f.procs, "procs", "p", nil, "Signal processes (default ggh,vbf,wh,zh,tth)")
	fs.IntVarP(&f.ncats, "ncats", "c", 0, "Number of categories (default 9)")
	fs.StringSliceVar(&f.photonScale, "photon-scale", nil, "Photon scale nuisance names, not correlated across years")
	fs.StringSliceVar(&f.photonSmear, "photon-smear", nil, "Photon smear nuisance names, not correlated across years")
	fs.StringSliceVar(&f.photonMaterial, "photon-material", nil, "Material photon scale nuisance names, correlated across years")
	fs.StringSliceVar(&f.photonNonLinearity, "photon-nonlinearity", nil, "Non-linearity nuisances as name:width")
	fs.StringSliceVar(&f.toSkip, "to-skip", nil, "proc:cat cells to drop, e.g. ggH:11,qqH:1*")
	fs.BoolVar(&f.cutBased, "cut-based", false, "Cut-based categorisation")
	fs.BoolVar(&f.multiPdf, "multi-pdf", false, "Background from the multi-pdf workspace")
	fs.BoolVar(&f.binnedSignal, "binned-signal", false, "Binned signal templates instead of the parametric model")
	fs.BoolVar(&f.is2011, "is2011", false, "7 TeV (2011) analysis")
	fs.IntVar(&f.quadInterpolate, "quad-interpolate", 0, "Interpolate templates back to 1 sigma from this sigma (0 = off)")
	fs.Float64Var(&f.intLumi, "int-lumi", 0, "Integrated luminosity in pb^-1 (default: from the yield file)")
	fs.StringVar(&f.systematics, "systematics", "", "Systematics table file replacing the built-in tables")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "Write run metrics to this Prometheus textfile")
	fs.StringVar(&f.xlsx, "xlsx", "", "Also write the card as an xlsx workbook")
}

func (f *cardFlags) apply(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("input") {
		cfg.Input = f.input
	}
	if fs.Changed("output") {
		cfg.Output = f.output
	}
	if fs.Changed("procs") {
		cfg.Procs = f.procs
	}
	if fs.Changed("ncats") {
		cfg.NCats = f.ncats
	}
	if fs.Changed("photon-scale") {
		cfg.PhotonNuisances.Scale = f.photonScale
	}
	if fs.Changed("photon-smear") {
		cfg.PhotonNuisances.Smear = f.photonSmear
	}
	if fs.Changed("photon-material") {
		cfg.PhotonNuisances.Material = f.photonMaterial
	}
	if fs.Changed("photon-nonlinearity") {
		cfg.PhotonNuisances.NonLinearity = f.photonNonLinearity
	}
	if fs.Changed("to-skip") {
		cfg.ToSkip = f.toSkip
	}
	if fs.Changed("cut-based") {
		cfg.CutBased = f.cutBased
	}
	if fs.Changed("multi-pdf") {
		cfg.MultiPdf = f.multiPdf
	}
	if fs.Changed("binned-signal") {
		cfg.BinnedSignal = f.binnedSignal
	}
	if fs.Changed("is2011") {
		cfg.Is2011 = f.is2011
	}
	if fs.Changed("quad-interpolate") {
		cfg.QuadInterpolate = f.quadInterpolate
	}
	if fs.Changed("int-lumi") {
		cfg.IntLumi = f.intLumi
	}
	if fs.Changed("systematics") {
		cfg.SystematicsFile = f.systematics
	}
	if fs.Changed("metrics-file") {
		cfg.MetricsFile = f.metricsFile
	}
	if fs.Changed("xlsx") {
		cfg.XLSX = f.xlsx
	}
}

// loadedConfig is a resolved configuration and the files it came from.
type loadedConfig struct {
	*config.Config
	files []string
}

// loadConfig layers config files, environment and flags. The logger follows
// the configured level unless --log-level was given.
func loadConfig(cmd *cobra.Command, g globalFlags, flags *cardFlags, validate bool) (*loadedConfig, *slog.Logger, error) {
	logger := newLogger(g.logLevel)

	loader := config.NewLoader(logger)
	cfg, err := loader.Load(g.configPath)
	if err != nil {
		return nil, nil, err
	}
	flags.apply(cmd.Flags(), cfg)

	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = g.logLevel
	} else if cfg.LogLevel != g.logLevel {
		logger = newLogger(cfg.LogLevel)
	}

	if validate {
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
	}
	return &loadedConfig{Config: cfg, files: loader.Files()}, logger, nil
}
