package datacard

import (
	"fmt"
	"io"
	"strings"

	"github.com/c360studio/hggcard/analysis"
)

// Row kinds as written in the card.
const (
	KindLnN      = "lnN"
	KindShape    = "shape"
	KindParam    = "param"
	KindDiscrete = "discrete"
)

// Dash marks a process that a nuisance does not affect.
const Dash = "-"

const separator = "---------------------------------------------"

// Row is one nuisance line. For lnN and shape rows Entries has one value per
// rate column; for param rows it holds the mean and width.
type Row struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Width   int      `json:"-"`
	Entries []string `json:"entries,omitempty"`
}

// Affected counts the entries that are not dashes or zero shape weights.
func (r Row) Affected() int {
	n := 0
	for _, e := range r.Entries {
		if e != Dash && e != "0" {
			n++
		}
	}
	return n
}

// Block is a run of rows. Blank adds an empty line after the rows, even when
// there are none.
type Block struct {
	Name  string `json:"name"`
	Rows  []Row  `json:"rows"`
	Blank bool   `json:"-"`
}

// ShapeLine maps a process and bin to a workspace object.
type ShapeLine struct {
	Process string `json:"process"`
	Bin     string `json:"bin"`
	File    string `json:"file"`
	Object  string `json:"object"`
	// Binned lines also name the per-systematic template objects.
	Binned bool `json:"binned,omitempty"`
}

// Card is a complete datacard in structured form.
type Card struct {
	Title     string            `json:"title"`
	Generator string            `json:"generator"`
	Shapes    []ShapeLine       `json:"shapes"`
	Bins      []string          `json:"bins"`
	Columns   []analysis.Column `json:"columns"`
	ColBins   []string          `json:"column_bins"`
	ProcIDs   []int             `json:"process_ids"`
	Rates     []string          `json:"rates"`
	Params    []Row             `json:"params,omitempty"`
	Blocks    []Block           `json:"blocks"`
}

// Rows returns every nuisance row in card order.
func (c *Card) Rows() []Row {
	rows := append([]Row(nil), c.Params...)
	for _, b := range c.Blocks {
		rows = append(rows, b.Rows...)
	}
	return rows
}

// ColumnLabel names rate column i as bin/process.
func (c *Card) ColumnLabel(i int) string {
	return c.ColBins[i] + "/" + c.Columns[i].Proc
}

// String renders the card in the fitter's text syntax.
func (c *Card) String() string {
	var sb strings.Builder
	c.render(&sb)
	return sb.String()
}

// WriteTo renders the card to w.
func (c *Card) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, c.String())
	return int64(n), err
}

func (c *Card) render(sb *strings.Builder) {
	// Preamble
	sb.WriteString(c.Title + "\n")
	sb.WriteString(c.Generator + "\n")
	sb.WriteString("Run with: combine\n")
	sb.WriteString(separator + "\n")
	sb.WriteString("imax *\n")
	sb.WriteString("jmax *\n")
	sb.WriteString("kmax *\n")
	sb.WriteString(separator + "\n")
	sb.WriteString("\n")

	for _, s := range c.Shapes {
		if s.Binned {
			fmt.Fprintf(sb, "shapes %-10s %-15s %-30s %-30s %-30s_$SYSTEMATIC01_sigma\n", s.Process, s.Bin, s.File, s.Object, s.Object)
		} else {
			fmt.Fprintf(sb, "shapes %-10s %-15s %-30s %-30s\n", s.Process, s.Bin, s.File, s.Object)
		}
	}
	sb.WriteString("\n")

	observation := make([]string, len(c.Bins))
	for i := range observation {
		observation[i] = "-1"
	}
	procs := make([]string, len(c.Columns))
	ids := make([]string, len(c.Columns))
	for i, col := range c.Columns {
		procs[i] = col.Proc
		ids[i] = fmt.Sprintf("%d", c.ProcIDs[i])
	}
	writeLabelled(sb, "bin", c.Bins)
	writeLabelled(sb, "observation", observation)
	writeLabelled(sb, "bin", c.ColBins)
	writeLabelled(sb, "process", procs)
	writeLabelled(sb, "process", ids)
	writeLabelled(sb, "rate", c.Rates)
	sb.WriteString("\n")

	if len(c.Params) > 0 {
		for _, r := range c.Params {
			writeRow(sb, r)
		}
		sb.WriteString("\n")
	}

	for _, b := range c.Blocks {
		for _, r := range b.Rows {
			writeRow(sb, r)
		}
		if b.Blank {
			sb.WriteString("\n")
		}
	}
}

func writeLabelled(sb *strings.Builder, label string, values []string) {
	fmt.Fprintf(sb, "%-15s ", label)
	for _, v := range values {
		sb.WriteString(v + " ")
	}
	sb.WriteString("\n")
}

func writeRow(sb *strings.Builder, r Row) {
	switch r.Kind {
	case KindParam:
		fmt.Fprintf(sb, "%-*s param %s\n", r.Width, r.Name, strings.Join(r.Entries, " "))
	case KindDiscrete:
		fmt.Fprintf(sb, "%s  discrete\n", r.Name)
	default:
		fmt.Fprintf(sb, "%-*s   %s   ", r.Width, r.Name, r.Kind)
		for _, e := range r.Entries {
			sb.WriteString(e + " ")
		}
		sb.WriteString("\n")
	}
}
