// Package sheet reads match workbooks into raw sheet records.
//
// A match sheet holds a player section and a team section. The player
// section starts at the first row whose cells resolve to player fields and
// runs until a blank row or the team section. The team section starts at a
// header row naming both the period and team columns, optionally preceded by
// a "Team Statistics" marker row, and runs until a blank row.
//
// Sheets whose names do not start with a match number ("Summary",
// "Template") are skipped. Everything else is returned, malformed or not,
// so the validation pipeline can report on it.
package sheet

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/statsetl/internal/stats"
)

// minHeaderFields is how many cells must resolve before a row counts as the player header.
const minHeaderFields = 3

// teamMarker opens the team section when it is the first text on a row.
const teamMarker = "team statistics"

// Reader reads match sheets from xlsx workbooks.
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a reader. A nil logger uses slog.Default.
func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger}
}

// Read opens the workbook at path and returns its match sheets in workbook order.
func (r *Reader) Read(path string) ([]stats.RawSheetRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()
	return r.read(f)
}

// ReadWorkbook reads a workbook from src.
func (r *Reader) ReadWorkbook(src io.Reader) ([]stats.RawSheetRecord, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return r.read(f)
}

func (r *Reader) read(f *excelize.File) ([]stats.RawSheetRecord, error) {
	var out []stats.RawSheetRecord
	for _, name := range f.GetSheetList() {
		if !stats.IsMatchSheet(name) {
			r.logger.Debug("skipping sheet", "sheet", name)
			continue
		}
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		rec := ParseRows(name, rows)
		r.logger.Debug("sheet read",
			"sheet", name,
			"columns", len(rec.FieldMap),
			"player_rows", len(rec.PlayerRows),
			"team_rows", len(rec.TeamRows),
		)
		out = append(out, rec)
	}
	return out, nil
}

// ParseRows builds a raw record from the cell grid of one sheet. Line
// numbers in the result are 1-based spreadsheet rows.
func ParseRows(name string, rows [][]string) stats.RawSheetRecord {
	rec := stats.NewRawSheetRecord(name)

	i := 0
	var playerCols map[int]string
	for ; i < len(rows); i++ {
		if isTeamStart(rows[i]) {
			break
		}
		cols := resolveHeader(rows[i], stats.PlayerHeaders)
		if isPlayerHeader(cols) {
			playerCols = cols
			i++
			break
		}
	}

	if playerCols != nil {
		for col, key := range playerCols {
			rec.FieldMap[key] = col
		}
		for ; i < len(rows); i++ {
			if isBlank(rows[i]) || isTeamStart(rows[i]) {
				break
			}
			row := buildRow(i+1, rows[i], playerCols)
			if isTotalsRow(row) {
				continue
			}
			rec.PlayerRows = append(rec.PlayerRows, row)
		}
	}

	var teamCols map[int]string
	for ; i < len(rows); i++ {
		cols := resolveHeader(rows[i], stats.TeamHeaders)
		if isTeamHeader(cols) {
			teamCols = cols
			i++
			break
		}
	}
	if teamCols == nil {
		return rec
	}

	// Skip blank spacer rows between the header and the first team row.
	for i < len(rows) && isBlank(rows[i]) {
		i++
	}
	for ; i < len(rows); i++ {
		if isBlank(rows[i]) {
			break
		}
		rec.TeamRows = append(rec.TeamRows, buildRow(i+1, rows[i], teamCols))
	}
	return rec
}

// resolveHeader maps column index to field key for every cell idx recognises.
func resolveHeader(row []string, idx stats.HeaderIndex) map[int]string {
	cols := make(map[int]string)
	seen := make(map[string]bool)
	for col, cell := range row {
		key, ok := idx.Resolve(cell)
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		cols[col] = key
	}
	return cols
}

func isPlayerHeader(cols map[int]string) bool {
	if len(cols) < minHeaderFields {
		return false
	}
	return hasKey(cols, stats.FieldPlayerName) || hasKey(cols, stats.FieldJersey)
}

func isTeamHeader(cols map[int]string) bool {
	return hasKey(cols, stats.FieldPeriod) && hasKey(cols, stats.FieldTeam)
}

func isTeamStart(row []string) bool {
	for _, cell := range row {
		if c := strings.ToLower(stats.CleanCell(cell)); c != "" {
			return strings.HasPrefix(c, teamMarker)
		}
	}
	return false
}

func hasKey(cols map[int]string, key string) bool {
	for _, k := range cols {
		if k == key {
			return true
		}
	}
	return false
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if stats.CleanCell(cell) != "" {
			return false
		}
	}
	return true
}

// isTotalsRow reports a squad totals line: no jersey and a "Total" name.
func isTotalsRow(row stats.RawRow) bool {
	if row.Has(stats.FieldJersey) {
		return false
	}
	name := strings.ToLower(row.Cell(stats.FieldPlayerName))
	return name == "total" || name == "totals" || name == "team total"
}

func buildRow(line int, cells []string, cols map[int]string) stats.RawRow {
	row := stats.RawRow{Line: line, Cells: make(map[string]string, len(cols))}
	for col, key := range cols {
		if col < len(cells) {
			row.Cells[key] = cells[col]
		}
	}
	return row
}
