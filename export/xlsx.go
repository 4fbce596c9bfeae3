package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/c360studio/hggcard/datacard"
)

// Sheet names used besides the per-block sheets.
const (
	SheetRates  = "rates"
	SheetShapes = "shapes"
	SheetParams = "params"
)

// excel limits sheet names to 31 characters.
const maxSheetName = 31

func writeXLSX(card *datacard.Card, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetRates); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeRates(f, card); err != nil {
		return err
	}
	if err := writeShapes(f, card); err != nil {
		return err
	}
	if len(card.Params) > 0 {
		if err := writeParams(f, card.Params); err != nil {
			return err
		}
	}

	used := map[string]bool{SheetRates: true, SheetShapes: true, SheetParams: true}
	for _, b := range card.Blocks {
		if len(b.Rows) == 0 {
			continue
		}
		name := sheetName(b.Name, used)
		if err := writeBlock(f, card, name, b); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRates(f *excelize.File, card *datacard.Card) error {
	rows := [][]any{{"bin"}, {"process"}, {"process id"}, {"rate"}}
	for i, col := range card.Columns {
		rows[0] = append(rows[0], card.ColBins[i])
		rows[1] = append(rows[1], col.Proc)
		rows[2] = append(rows[2], card.ProcIDs[i])
		rows[3] = append(rows[3], cellValue(card.Rates[i]))
	}
	return setRows(f, SheetRates, rows)
}

func writeShapes(f *excelize.File, card *datacard.Card) error {
	if _, err := f.NewSheet(SheetShapes); err != nil {
		return fmt.Errorf("create sheet %s: %w", SheetShapes, err)
	}
	rows := [][]any{{"process", "bin", "file", "object"}}
	for _, s := range card.Shapes {
		rows = append(rows, []any{s.Process, s.Bin, s.File, s.Object})
	}
	return setRows(f, SheetShapes, rows)
}

func writeParams(f *excelize.File, params []datacard.Row) error {
	if _, err := f.NewSheet(SheetParams); err != nil {
		return fmt.Errorf("create sheet %s: %w", SheetParams, err)
	}
	rows := [][]any{{"nuisance", "mean", "width"}}
	for _, p := range params {
		row := []any{p.Name}
		for _, e := range p.Entries {
			row = append(row, cellValue(e))
		}
		rows = append(rows, row)
	}
	return setRows(f, SheetParams, rows)
}

func writeBlock(f *excelize.File, card *datacard.Card, sheet string, b datacard.Block) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	header := []any{"nuisance", "kind"}
	for i := range card.Columns {
		header = append(header, card.ColumnLabel(i))
	}
	rows := [][]any{header}
	for _, r := range b.Rows {
		row := []any{r.Name, r.Kind}
		for _, e := range r.Entries {
			if e == datacard.Dash {
				row = append(row, nil)
				continue
			}
			row = append(row, cellValue(e))
		}
		rows = append(rows, row)
	}
	return setRows(f, sheet, rows)
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// cellValue stores plain numbers as numbers; asymmetric "down/up" pairs stay text.
func cellValue(s string) any {
	if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return v
	}
	return s
}

func sheetName(name string, used map[string]bool) string {
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	base := name
	for i := 2; used[name]; i++ {
		suffix := fmt.Sprintf("_%d", i)
		if len(base)+len(suffix) > maxSheetName {
			base = base[:maxSheetName-len(suffix)]
		}
		name = base + suffix
	}
	used[name] = true
	return name
}
