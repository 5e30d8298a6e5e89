package sheet

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/statsetl/internal/stats"
)

// TemplateSheet is the sheet name used by an empty template workbook.
const TemplateSheet = "Template"

// Headers returns the header cells written for specs. A label that would
// resolve to a different field falls back to the canonical key.
func Headers(idx stats.HeaderIndex, specs ...[]stats.FieldSpec) []string {
	var out []string
	for _, group := range specs {
		for _, spec := range group {
			h := spec.Label
			if key, ok := idx.Resolve(h); !ok || key != spec.Key {
				h = spec.Key
			}
			out = append(out, h)
		}
	}
	return out
}

var (
	playerSpecs = [][]stats.FieldSpec{stats.IdentityFields, stats.PlayerFields}
	teamSpecs   = [][]stats.FieldSpec{stats.TeamDescriptorFields, stats.TeamFields}
)

// Write renders recs as an xlsx workbook in the layout Read expects. With no
// records it writes a single empty template sheet.
func Write(w io.Writer, recs ...stats.RawSheetRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if len(recs) == 0 {
		recs = []stats.RawSheetRecord{{SheetName: TemplateSheet}}
	}

	for i, rec := range recs {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), rec.SheetName); err != nil {
				return fmt.Errorf("name sheet %q: %w", rec.SheetName, err)
			}
		} else if _, err := f.NewSheet(rec.SheetName); err != nil {
			return fmt.Errorf("add sheet %q: %w", rec.SheetName, err)
		}
		if err := writeSheet(f, rec); err != nil {
			return fmt.Errorf("write sheet %q: %w", rec.SheetName, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, rec stats.RawSheetRecord) error {
	line := 1
	put := func(cells []string) error {
		cell, err := excelize.CoordinatesToCellName(1, line)
		if err != nil {
			return err
		}
		line++
		row := make([]any, len(cells))
		for i, c := range cells {
			row[i] = c
		}
		return f.SetSheetRow(rec.SheetName, cell, &row)
	}

	if err := put(Headers(stats.PlayerHeaders, playerSpecs...)); err != nil {
		return err
	}
	for _, row := range sortedRows(rec.PlayerRows) {
		if err := put(rowCells(row, playerSpecs)); err != nil {
			return err
		}
	}

	line++ // blank separator
	if err := put([]string{"Team Statistics"}); err != nil {
		return err
	}
	if err := put(Headers(stats.TeamHeaders, teamSpecs...)); err != nil {
		return err
	}
	for _, row := range sortedRows(rec.TeamRows) {
		if err := put(rowCells(row, teamSpecs)); err != nil {
			return err
		}
	}
	return nil
}

func rowCells(row stats.RawRow, specs [][]stats.FieldSpec) []string {
	var out []string
	for _, group := range specs {
		for _, spec := range group {
			out = append(out, row.Cells[spec.Key])
		}
	}
	return out
}

func sortedRows(rows []stats.RawRow) []stats.RawRow {
	out := append([]stats.RawRow(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	return out
}
