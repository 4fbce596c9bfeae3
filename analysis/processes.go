package analysis

import "slices"

// Combine process names, as they appear in the card.
const (
	ProcGGH = "ggH"
	ProcQQH = "qqH"
	ProcVH  = "VH"
	ProcWH  = "WH"
	ProcZH  = "ZH"
	ProcTTH = "ttH"
	ProcBkg = "bkg_mass"
)

// GlobeBkg is the background name shared by both naming schemes.
const GlobeBkg = "bkg_mass"

var combineNames = map[string]string{
	"ggh":      ProcGGH,
	"vbf":      ProcQQH,
	"wzh":      ProcVH,
	"wh":       ProcWH,
	"zh":       ProcZH,
	"tth":      ProcTTH,
	"bkg_mass": ProcBkg,
}

var globeNames = map[string]string{
	ProcGGH: "ggh",
	ProcQQH: "vbf",
	ProcVH:  "wzh",
	ProcWH:  "wh",
	ProcZH:  "zh",
	ProcTTH: "tth",
	ProcBkg: "bkg_mass",
}

// Signal processes carry non-positive ids, backgrounds positive ones.
var processIDs = map[string]int{
	ProcGGH: 0,
	ProcQQH: -1,
	ProcVH:  -2,
	ProcWH:  -2,
	ProcZH:  -3,
	ProcTTH: -4,
	ProcBkg: 1,
}

// GlobeProcesses lists the signal process tags accepted on the command line.
func GlobeProcesses() []string {
	return []string{"ggh", "vbf", "wzh", "wh", "zh", "tth"}
}

// IsGlobeProcess reports whether name is a known signal process tag.
func IsGlobeProcess(name string) bool {
	return slices.Contains(GlobeProcesses(), name)
}

// CombineName maps a globe process tag to its card name.
func CombineName(globe string) (string, bool) {
	name, ok := combineNames[globe]
	return name, ok
}

// GlobeName maps a card process name back to the tag used in histogram names.
func GlobeName(combine string) (string, bool) {
	name, ok := globeNames[combine]
	return name, ok
}

// ProcessID returns the numeric process index written on the second process line.
func ProcessID(combine string) int {
	return processIDs[combine]
}

// IsBackground reports whether proc is a background process.
func IsBackground(proc string) bool {
	return proc == ProcBkg
}
