package systematics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/hggcard/analysis"
)

func mustSetup(t *testing.T, opts analysis.Options) *analysis.Setup {
	t.Helper()
	s, err := analysis.NewSetup(opts)
	require.NoError(t, err)
	return s
}

func templateNames(ts []Template) []string {
	out := make([]string, len(ts))
	for i, tpl := range ts {
		out[i] = tpl.Name
	}
	return out
}

func TestBuiltin(t *testing.T) {
	tables, err := Builtin()
	require.NoError(t, err)

	assert.Equal(t, Pair{0.050, -0.049}, tables.BR)
	require.Contains(t, tables.Eras, 2011)
	require.Contains(t, tables.Eras, 2012)
	assert.Equal(t, 0.025, tables.Eras[2012].Lumi)
	assert.Equal(t, Pair{0.072, -0.078}, tables.Eras[2012].Scale["ggH"])
	assert.Len(t, tables.GGHInTTH, 3)
	assert.Equal(t, 0.9886, tables.RateScales.TightLepton)
}

func TestSelectMVA2012(t *testing.T) {
	tables, err := Builtin()
	require.NoError(t, err)

	setup := mustSetup(t, analysis.Options{Procs: []string{"ggh", "vbf", "wh", "zh", "tth"}, NCats: 14})
	set, err := Select(tables, setup)
	require.NoError(t, err)

	assert.Equal(t, 0.025, set.Lumi)
	assert.Nil(t, set.R9, "r9 nuisances are cut-based only")
	require.Len(t, set.Scale, 5)
	assert.Equal(t, ProcPair{Proc: "ggH", Up: 0.072, Down: -0.078}, set.Scale[0])

	names := templateNames(set.Templates)
	assert.Equal(t, []string{"idEff", "triggerEff", "phoIdMva", "regSig", "pdfWeight_QCDscale", "pdfWeight_pdfset1"}, names[:6])
	assert.Len(t, names, 5+26)
	assert.Equal(t, "n_pdf_26", set.Templates[len(set.Templates)-1].Param)
	assert.NotContains(t, names, "E_scale")

	require.Len(t, set.VBF, 3)
	for _, v := range set.VBF {
		assert.Len(t, v.Values, 3, v.Name)
	}
	assert.Len(t, set.PUJetID, 4)
}

func TestSelectCutBased2011(t *testing.T) {
	tables, err := Builtin()
	require.NoError(t, err)

	setup := mustSetup(t, analysis.Options{Procs: []string{"ggh", "wzh"}, NCats: 15, CutBased: true, Is2011: true})
	set, err := Select(tables, setup)
	require.NoError(t, err)

	require.NotNil(t, set.R9)
	assert.Equal(t, R9{Barrel: 0.080, Mixed: 0.115}, *set.R9)
	assert.Equal(t, []string{"idEff", "triggerEff"}, templateNames(set.Templates))
	assert.Empty(t, set.PUJetID, "no pileup jet id in 2011")
	require.Len(t, set.PDF, 2)
	assert.Equal(t, "VH", set.PDF[1].Proc)
}

func TestSelectBinnedTemplates(t *testing.T) {
	tables, err := Builtin()
	require.NoError(t, err)

	setup := mustSetup(t, analysis.Options{Procs: []string{"ggh"}, NCats: 14, BinnedSignal: true})
	set, err := Select(tables, setup)
	require.NoError(t, err)

	names := templateNames(set.Templates)
	assert.Contains(t, names, "E_scale")
	assert.Contains(t, names, "E_res")
	assert.NotContains(t, names, "pdfWeight_QCDscale")
}

func TestSelectInconsistent(t *testing.T) {
	setup := mustSetup(t, analysis.Options{Procs: []string{"ggh", "vbf"}, NCats: 14})

	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "missing era",
			doc: `
eras:
  2011: {lumi: 0.022}
`,
		},
		{
			name: "missing process",
			doc: `
eras:
  2012:
    pdf: {ggH: [0.1, -0.1]}
    scale: {ggH: [0.1, -0.1]}
`,
		},
		{
			name: "vbf migrations do not match dijet categories",
			doc: `
eras:
  2012:
    pdf: {ggH: [0.1, -0.1], qqH: [0.1, -0.1]}
    scale: {ggH: [0.1, -0.1], qqH: [0.1, -0.1]}
vbf:
  - scheme: mva
    eras: [2012]
    systematics:
      - {name: CMS_hgg_UEPS, values: [[0.1, 0.1]]}
`,
		},
		{
			name: "pileup jet id rows do not match jet tagged categories",
			doc: `
eras:
  2012:
    pdf: {ggH: [0.1, -0.1], qqH: [0.1, -0.1]}
    scale: {ggH: [0.1, -0.1], qqH: [0.1, -0.1]}
pu_jet_id:
  - scheme: mva
    eras: [2012]
    rows:
      - {ggH: 0.03, qqH: 0.03}
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tables, err := Parse([]byte(tt.doc))
			require.NoError(t, err)
			_, err = Select(tables, setup)
			assert.True(t, errors.Is(err, ErrInconsistent), "got %v", err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "systematics.yaml")
	require.NoError(t, os.WriteFile(path, builtinTables, 0644))

	tables, err := LoadFile(path)
	require.NoError(t, err)
	builtin, err := Builtin()
	require.NoError(t, err)
	assert.Equal(t, builtin, tables)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Parse([]byte("br: [0.05, -0.049]\n"))
	assert.Error(t, err, "a document without eras is rejected")
}
