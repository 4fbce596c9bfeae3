package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Output != "cms_hgg_datacard.txt" {
		t.Errorf("expected default output cms_hgg_datacard.txt, got %s", cfg.Output)
	}
	if cfg.NCats != 9 {
		t.Errorf("expected 9 categories by default, got %d", cfg.NCats)
	}
	if len(cfg.Procs) != 5 || cfg.Procs[0] != "ggh" {
		t.Errorf("expected ggh,vbf,wh,zh,tth by default, got %v", cfg.Procs)
	}
	if len(cfg.PhotonNuisances.Smear) != 6 {
		t.Errorf("expected 6 smear nuisances, got %d", len(cfg.PhotonNuisances.Smear))
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config with input",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing input",
			modify:  func(c *Config) { c.Input = "" },
			wantErr: true,
		},
		{
			name:    "no categories",
			modify:  func(c *Config) { c.NCats = 0 },
			wantErr: true,
		},
		{
			name:    "unknown process",
			modify:  func(c *Config) { c.Procs = []string{"ggh", "bbh"} },
			wantErr: true,
		},
		{
			name:    "wzh mixed with wh",
			modify:  func(c *Config) { c.Procs = []string{"ggh", "wzh", "wh"} },
			wantErr: true,
		},
		{
			name:    "wzh alone",
			modify:  func(c *Config) { c.Procs = []string{"ggh", "vbf", "wzh", "tth"} },
			wantErr: false,
		},
		{
			name:    "negative quad interpolation",
			modify:  func(c *Config) { c.QuadInterpolate = -1 },
			wantErr: true,
		},
		{
			name:    "malformed non-linearity",
			modify:  func(c *Config) { c.PhotonNuisances.NonLinearity = []string{"NonLinearity"} },
			wantErr: true,
		},
		{
			name:    "non-numeric non-linearity width",
			modify:  func(c *Config) { c.PhotonNuisances.NonLinearity = []string{"NonLinearity:abc"} },
			wantErr: true,
		},
		{
			name:    "valid skip patterns",
			modify:  func(c *Config) { c.ToSkip = []string{"ggH:11", "qqH:1*"} },
			wantErr: false,
		},
		{
			name:    "malformed skip entry",
			modify:  func(c *Config) { c.ToSkip = []string{"ggH"} },
			wantErr: true,
		},
		{
			name:    "procs with spaces after commas",
			modify:  func(c *Config) { c.Procs = []string{"ggh", " vbf", " wzh"} },
			wantErr: false,
		},
		{
			name:    "wzh mixed with padded wh",
			modify:  func(c *Config) { c.Procs = []string{"ggh", "wzh", " wh"} },
			wantErr: true,
		},
		{
			name:    "unknown log level",
			modify:  func(c *Config) { c.LogLevel = "trace" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Input = "templates.root"
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNonLinearity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PhotonNuisances.NonLinearity = []string{"NonLinearity:0.001", "NonLinearityEE:0.002"}

	entries, err := cfg.NonLinearity()
	if err != nil {
		t.Fatalf("NonLinearity() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[1].Name != "NonLinearityEE" || entries[1].Width != 0.002 {
		t.Errorf("unexpected second entry %+v", entries[1])
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temp file with config
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
input: "CMS-HGG_mva_8TeV_templates.root"
output: "card_8TeV.txt"
procs: [ggh, vbf, wzh, tth]
ncats: 14
photon_nuisances:
  material: [MaterialEBCentral]
to_skip: ["ggH:11"]
multi_pdf: true
quad_interpolate: 3
int_lumi: 19620
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	layer, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if layer.CutBased != nil || layer.Output == nil {
		t.Errorf("layer should only carry the keys the file sets: %+v", layer)
	}

	cfg := DefaultConfig()
	cfg.Merge(layer)

	if cfg.Input != "CMS-HGG_mva_8TeV_templates.root" {
		t.Errorf("unexpected input %s", cfg.Input)
	}
	if cfg.NCats != 14 {
		t.Errorf("expected 14 categories, got %d", cfg.NCats)
	}
	if len(cfg.Procs) != 4 || cfg.Procs[2] != "wzh" {
		t.Errorf("unexpected procs %v", cfg.Procs)
	}
	if len(cfg.PhotonNuisances.Material) != 1 {
		t.Errorf("expected 1 material nuisance, got %v", cfg.PhotonNuisances.Material)
	}
	// Keys absent from the file keep their defaults
	if len(cfg.PhotonNuisances.Scale) != 4 {
		t.Errorf("expected default scale nuisances, got %v", cfg.PhotonNuisances.Scale)
	}
	if !cfg.MultiPdf || cfg.QuadInterpolate != 3 || cfg.IntLumi != 19620 {
		t.Errorf("switches not loaded: %+v", cfg)
	}
}

func TestConfigMerge(t *testing.T) {
	input, ncats, on := "override.root", 16, true

	base := DefaultConfig()
	base.Merge(&Layer{
		Input:    &input,
		NCats:    &ncats,
		CutBased: &on,
		Is2011:   &on,
	})

	if base.Input != "override.root" {
		t.Errorf("expected input override.root, got %s", base.Input)
	}
	if base.NCats != 16 {
		t.Errorf("expected 16 categories, got %d", base.NCats)
	}
	if !base.CutBased || !base.Is2011 {
		t.Error("expected cut-based and 2011 switches to be set")
	}
	// Output should remain from base since the layer didn't set it
	if base.Output != "cms_hgg_datacard.txt" {
		t.Errorf("expected output to remain default, got %s", base.Output)
	}

	off, zero, noLumi := false, 0, 0.0
	base.IntLumi = 19620
	base.QuadInterpolate = 3
	base.Merge(&Layer{
		CutBased:        &off,
		Is2011:          &off,
		QuadInterpolate: &zero,
		IntLumi:         &noLumi,
	})
	if base.CutBased || base.Is2011 {
		t.Error("expected a later layer to turn switches off")
	}
	if base.QuadInterpolate != 0 || base.IntLumi != 0 {
		t.Errorf("expected a later layer to reset numbers to zero, got %d %v", base.QuadInterpolate, base.IntLumi)
	}
	if base.NCats != 16 {
		t.Errorf("expected unset keys to keep their value, got %d", base.NCats)
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Input = "saved.root"
	cfg.ToSkip = []string{"qqH:12"}

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	// Verify file was created
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	// Load and verify
	layer, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	loaded := &Config{}
	loaded.Merge(layer)
	if loaded.Input != "saved.root" {
		t.Errorf("expected input saved.root, got %s", loaded.Input)
	}
	if len(loaded.ToSkip) != 1 || loaded.ToSkip[0] != "qqH:12" {
		t.Errorf("expected skip list to round trip, got %v", loaded.ToSkip)
	}
	if loaded.NCats != 9 || len(loaded.PhotonNuisances.Smear) != 6 {
		t.Errorf("expected every key to be written, got %+v", loaded)
	}
}
