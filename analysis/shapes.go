package analysis

import (
	"fmt"
	"strings"
)

// ChannelToken is replaced by the category name in shape object patterns.
const ChannelToken = "$CHANNEL"

// ShapeSource locates the shape of one process inside a ROOT workspace.
type ShapeSource struct {
	Process   string `yaml:"process" json:"process"`
	File      string `yaml:"file" json:"file"`
	Workspace string `yaml:"workspace" json:"workspace"`
	Pattern   string `yaml:"pattern" json:"pattern"`
}

// Object returns the workspace-qualified object name for category c.
func (s ShapeSource) Object(c int) string {
	return s.Workspace + ":" + strings.ReplaceAll(s.Pattern, ChannelToken, fmt.Sprintf("cat%d", c))
}

// signalShape names a signal process in the parametric (globe) and binned
// (template) object patterns.
type signalShape struct {
	proc, globe, binnedTag string
}

// shapeSources lists data, background and signal shape locations. Signal
// entries follow the VH split so the card never references a pdf that the
// signal workspace does not hold.
func shapeSources(scheme Scheme, sqrts int, multiPdf, binned, splitVH bool) []ShapeSource {
	tag := string(scheme)
	if scheme == SchemeCutBased {
		tag = "cic"
	}

	dataFile := fmt.Sprintf("CMS-HGG_%s_%dTeV_data.root", tag, sqrts)
	dataWS := "cms_hgg_workspace"
	if multiPdf {
		dataFile = fmt.Sprintf("CMS-HGG_%s_%dTeV_multipdf.root", tag, sqrts)
		dataWS = "multipdf"
	}

	// Binned signal templates are produced once, under the cic name, for both schemes.
	sigFile := fmt.Sprintf("CMS-HGG_%s_%dTeV_sigfit.root", tag, sqrts)
	sigWS := fmt.Sprintf("wsig_%dTeV", sqrts)
	if binned {
		sigFile = fmt.Sprintf("CMS-HGG_cic_%dTeV_sig_interpolated.root", sqrts)
		sigWS = "cms_hgg_workspace"
	}

	bkgPattern := fmt.Sprintf("pdf_data_pol_model_%dTeV_%s", sqrts, ChannelToken)
	if multiPdf {
		bkgPattern = fmt.Sprintf("CMS_hgg_%s_%dTeV_bkgshape", ChannelToken, sqrts)
	}

	sources := []ShapeSource{
		{Process: "data_obs", File: dataFile, Workspace: dataWS, Pattern: "roohist_data_mass_" + ChannelToken},
		{Process: ProcBkg, File: dataFile, Workspace: dataWS, Pattern: bkgPattern},
	}

	signal := []signalShape{
		{ProcGGH, "ggh", "ggh"},
		{ProcQQH, "vbf", "vbf"},
	}
	if splitVH {
		signal = append(signal, signalShape{ProcWH, "wh", "wh"}, signalShape{ProcZH, "zh", "zh"})
	} else {
		signal = append(signal, signalShape{ProcVH, "wzh", "vh"})
	}
	signal = append(signal, signalShape{ProcTTH, "tth", "tth"})

	for _, s := range signal {
		pattern := fmt.Sprintf("hggpdfsmrel_%dTeV_%s_%s", sqrts, s.globe, ChannelToken)
		if binned {
			pattern = fmt.Sprintf("roohist_sig_%s_mass_m$MASS_%s", s.binnedTag, ChannelToken)
		}
		sources = append(sources, ShapeSource{Process: s.proc, File: sigFile, Workspace: sigWS, Pattern: pattern})
	}
	return sources
}
