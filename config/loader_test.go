package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoader_Layers(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	work := filepath.Join(project, "cards", "8TeV")
	require.NoError(t, os.MkdirAll(work, 0755))

	writeFile(t, filepath.Join(home, UserConfigDir, UserConfigFile), `
ncats: 14
log_level: debug
output: user.txt
`)
	writeFile(t, filepath.Join(project, ProjectConfigFile), `
input: templates.root
output: project.txt
`)

	loader := NewLoader(nil).WithDirs(home, work)
	cfg, err := loader.Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(home, UserConfigDir, UserConfigFile),
		filepath.Join(project, ProjectConfigFile),
	}, loader.Files())

	assert.Equal(t, 14, cfg.NCats, "user layer")
	assert.Equal(t, "debug", cfg.LogLevel, "user layer")
	assert.Equal(t, "templates.root", cfg.Input, "project layer found from a subdirectory")
	assert.Equal(t, "project.txt", cfg.Output, "project layer wins over user layer")
	assert.Len(t, cfg.Procs, 5, "defaults survive layers that do not set them")
}

func TestLoader_LaterLayerTurnsSwitchesOff(t *testing.T) {
	home := t.TempDir()
	work := t.TempDir()

	writeFile(t, filepath.Join(home, UserConfigDir, UserConfigFile), `
cut_based: true
is_2011: true
multi_pdf: true
int_lumi: 5089
quad_interpolate: 3
`)
	writeFile(t, filepath.Join(work, ProjectConfigFile), `
cut_based: false
is_2011: false
int_lumi: 0
quad_interpolate: 0
`)

	cfg, err := NewLoader(nil).WithDirs(home, work).Load("")
	require.NoError(t, err)
	assert.False(t, cfg.CutBased)
	assert.False(t, cfg.Is2011)
	assert.True(t, cfg.MultiPdf, "switch the project file does not mention")
	assert.Zero(t, cfg.IntLumi)
	assert.Zero(t, cfg.QuadInterpolate)
}

func TestLoader_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	explicit := filepath.Join(dir, "run.yaml")
	writeFile(t, explicit, `
input: explicit.yaml
cut_based: true
`)

	cfg, err := NewLoader(nil).WithDirs("", dir).Load(explicit)
	require.NoError(t, err)
	assert.Equal(t, "explicit.yaml", cfg.Input)
	assert.True(t, cfg.CutBased)
	assert.Equal(t, 9, cfg.NCats)
}

func TestLoader_MissingExplicitFile(t *testing.T) {
	_, err := NewLoader(nil).WithDirs("", t.TempDir()).Load("/does/not/exist.yaml")
	assert.Error(t, err)
}

func TestLoader_EnvOverrides(t *testing.T) {
	t.Setenv("HGGCARD_INPUT", "env.root")
	t.Setenv("HGGCARD_NCATS", "16")
	t.Setenv("HGGCARD_PROCS", "ggh,vbf,wzh,tth")
	t.Setenv("HGGCARD_PHOTON_MATERIAL", "MaterialEBCentral")
	t.Setenv("HGGCARD_IS_2011", "true")

	cfg, err := NewLoader(nil).WithDirs("", t.TempDir()).Load("")
	require.NoError(t, err)

	assert.Equal(t, "env.root", cfg.Input)
	assert.Equal(t, 16, cfg.NCats)
	assert.Equal(t, []string{"ggh", "vbf", "wzh", "tth"}, cfg.Procs)
	assert.Equal(t, []string{"MaterialEBCentral"}, cfg.PhotonNuisances.Material)
	assert.True(t, cfg.Is2011)
	assert.Len(t, cfg.PhotonNuisances.Scale, 4, "unset variables leave defaults alone")
}

func TestLoader_EnvProcsWithSpaces(t *testing.T) {
	t.Setenv("HGGCARD_INPUT", "env.root")
	t.Setenv("HGGCARD_PROCS", "ggh, vbf")

	cfg, err := NewLoader(nil).WithDirs("", t.TempDir()).Load("")
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
}

func TestLoader_BadEnv(t *testing.T) {
	t.Setenv("HGGCARD_NCATS", "many")

	_, err := NewLoader(nil).WithDirs("", t.TempDir()).Load("")
	assert.Error(t, err)
}
