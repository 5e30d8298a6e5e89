// Package stats defines the match statistics domain: the raw sheet records
// produced by the spreadsheet reader, the field catalog that describes every
// statistic column, and the typed records handed to the loader.
//
// The package has no storage or transport dependencies. Validation, loading
// and orchestration all build on the types declared here.
package stats

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// sheetNamePattern matches "NN. Competition vs Opponent DD.MM.YY".
// The competition is matched lazily so that opponents containing "vs" are
// not split in the wrong place.
var sheetNamePattern = regexp.MustCompile(`^\s*(\d{1,3})\.\s*(.+?)\s+vs\.?\s+(.+?)\s+(\d{1,2})\.(\d{1,2})\.(\d{2}|\d{4})\s*$`)

// matchSheetPrefix identifies sheets that claim to describe a match.
var matchSheetPrefix = regexp.MustCompile(`^\s*\d+\.`)

// MatchMetadata is the match identity parsed from a sheet name.
type MatchMetadata struct {
	Number      int
	Competition string
	Opponent    string
	Date        time.Time
}

// Season returns the season year the match belongs to.
func (m MatchMetadata) Season() int {
	return m.Date.Year()
}

// RawRow is a single spreadsheet row keyed by canonical field key.
type RawRow struct {
	Line  int               // 1-indexed spreadsheet row
	Cells map[string]string // canonical field key -> raw cell text
}

// Cell returns the trimmed cell value for key, or "" when absent.
func (r RawRow) Cell(key string) string {
	if r.Cells == nil {
		return ""
	}
	return CleanCell(r.Cells[key])
}

// Has reports whether the row carries a non-empty value for key.
func (r RawRow) Has(key string) bool {
	return r.Cell(key) != ""
}

// IsEmpty reports whether every cell in the row is blank.
func (r RawRow) IsEmpty() bool {
	for _, v := range r.Cells {
		if CleanCell(v) != "" {
			return false
		}
	}
	return true
}

// RawSheetRecord is one match sheet as read from the workbook.
type RawSheetRecord struct {
	SheetName  string
	Match      MatchMetadata
	MatchErr   error          // non-nil when SheetName does not follow the grammar
	FieldMap   map[string]int // canonical field key -> column index
	PlayerRows []RawRow
	TeamRows   []RawRow
}

// NewRawSheetRecord builds a record and parses the match metadata from name.
func NewRawSheetRecord(name string) RawSheetRecord {
	rec := RawSheetRecord{
		SheetName: name,
		FieldMap:  make(map[string]int),
	}
	rec.Match, rec.MatchErr = ParseSheetName(name)
	return rec
}

// IsMatchSheet reports whether a sheet name claims to describe a match.
// Sheets such as "Summary" or "Template" return false and are never read.
func IsMatchSheet(name string) bool {
	return matchSheetPrefix.MatchString(name)
}

// ParseSheetName parses the "NN. Competition vs Opponent DD.MM.YY" grammar.
func ParseSheetName(name string) (MatchMetadata, error) {
	m := sheetNamePattern.FindStringSubmatch(name)
	if m == nil {
		return MatchMetadata{}, fmt.Errorf("sheet name %q does not match \"NN. Competition vs Opponent DD.MM.YY\"", name)
	}

	number, err := strconv.Atoi(m[1])
	if err != nil || number < 1 {
		return MatchMetadata{}, fmt.Errorf("sheet name %q: invalid match number %q", name, m[1])
	}

	day, _ := strconv.Atoi(m[4])
	month, _ := strconv.Atoi(m[5])
	year, _ := strconv.Atoi(m[6])
	if len(m[6]) == 2 {
		year += 2000
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Day() != day || int(date.Month()) != month {
		return MatchMetadata{}, fmt.Errorf("sheet name %q: invalid match date %s.%s.%s", name, m[4], m[5], m[6])
	}

	return MatchMetadata{
		Number:      number,
		Competition: NormalizeName(m[2]),
		Opponent:    NormalizeName(m[3]),
		Date:        date,
	}, nil
}

// NormalizeName trims and collapses internal whitespace in a natural key.
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
