package yields

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/hbook"
)

func TestNames(t *testing.T) {
	assert.Equal(t, "th1f_sig_ggh_mass_m125_cat3", NominalName("ggh", 3))
	assert.Equal(t, "th1f_sig_vbf_mass_m125_cat5_idEffUp01_sigma", VariedName("vbf", 5, "idEff", true))
	assert.Equal(t, "th1f_sig_vbf_mass_m125_cat5_idEffDown01_sigma", VariedName("vbf", 5, "idEff", false))
}

func TestParseNominal(t *testing.T) {
	tests := []struct {
		name      string
		wantGlobe string
		wantCat   int
		wantOK    bool
	}{
		{"th1f_sig_ggh_mass_m125_cat0", "ggh", 0, true},
		{"th1f_sig_tth_mass_m125_cat12", "tth", 12, true},
		{"th1f_sig_ggh_mass_m125_cat0_idEffUp01_sigma", "", 0, false},
		{"th1f_sig_ggh_mass_m125_cat01", "", 0, false},
		{"th1f_data_mass_cat0", "", 0, false},
		{"th1f_sig__mass_m125_cat0", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			globe, cat, ok := ParseNominal(tt.name)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantGlobe, globe)
			assert.Equal(t, tt.wantCat, cat)
		})
	}
}

func TestLoadMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yields.yaml")
	content := `
int_lumi: 19620
histograms:
  th1f_sig_ggh_mass_m125_cat0: 41.5
  th1f_sig_vbf_mass_m125_cat0: 3.25
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	src, err := Open(path, nil)
	require.NoError(t, err)
	defer src.Close()

	v, err := src.Integral("th1f_sig_ggh_mass_m125_cat0")
	require.NoError(t, err)
	assert.Equal(t, 41.5, v)

	_, err = src.Integral("th1f_sig_tth_mass_m125_cat0")
	assert.True(t, errors.Is(err, ErrNotFound))

	lumi, ok := src.(LumiSource).IntLumi()
	assert.True(t, ok)
	assert.Equal(t, 19620.0, lumi)

	assert.Equal(t, []string{"th1f_sig_ggh_mass_m125_cat0", "th1f_sig_vbf_mass_m125_cat0"}, src.(Lister).Names())
}

func TestLoadMapJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yields.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"histograms": {"th1f_sig_ggh_mass_m125_cat1": 2.5}}`), 0644))

	src, err := Open(path, nil)
	require.NoError(t, err)

	v, err := src.Integral("th1f_sig_ggh_mass_m125_cat1")
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)

	_, ok := src.(LumiSource).IntLumi()
	assert.False(t, ok)
}

func TestOpenUnsupported(t *testing.T) {
	_, err := Open("yields.csv", nil)
	assert.Error(t, err)
}

func TestROOTFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.root")

	h := hbook.NewH1D(10, 100, 180)
	h.Fill(120, 2)
	h.Fill(125, 3)
	h.Fill(179, 1)
	h.Fill(200, 5) // overflow, not counted
	h.Fill(50, 7)  // underflow, not counted

	w, err := groot.Create(path)
	require.NoError(t, err)
	require.NoError(t, w.Put("th1f_sig_ggh_mass_m125_cat0", rhist.NewH1DFrom(h)))
	require.NoError(t, w.Close())

	src, err := Open(path, nil)
	require.NoError(t, err)
	defer src.Close()

	v, err := src.Integral("th1f_sig_ggh_mass_m125_cat0")
	require.NoError(t, err)
	assert.InDelta(t, 6.0, v, 1e-9)

	// cached lookups give the same answer
	v, err = src.Integral("th1f_sig_ggh_mass_m125_cat0")
	require.NoError(t, err)
	assert.InDelta(t, 6.0, v, 1e-9)

	_, err = src.Integral("th1f_sig_vbf_mass_m125_cat0")
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.Contains(t, src.(Lister).Names(), "th1f_sig_ggh_mass_m125_cat0")
}
