package stats

// convert.go turns raw spreadsheet cells into numbers.
//
// Match sheets are typed by hand, so cells carry the usual artifacts:
//   - Excel formula prefixes (="12")
//   - percentages written either as 0.45 or 45%
//   - whole numbers exported as 12.0
//   - stray quotes and non-breaking spaces
//
// Blank cells are not errors here. Callers decide whether a blank is a zero
// or a missing required value.

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrBlank is returned by the Parse* functions for an empty cell.
var ErrBlank = errors.New("blank cell")

// numericRegex validates that a string is a plain decimal after cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// integerTolerance absorbs float noise such as 11.999999 from spreadsheet exports.
const integerTolerance = 1e-6

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace, including non-breaking spaces
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

// ParseDecimal parses a cell as a float.
func ParseDecimal(raw string) (float64, error) {
	s := CleanCell(raw)
	if s == "" {
		return 0, ErrBlank
	}
	s = strings.ReplaceAll(s, ",", "")
	if !numericRegex.MatchString(s) {
		return 0, errors.New("invalid number format")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("invalid number format")
	}
	return v, nil
}

// ParseCount parses a cell as a whole number. Values such as "12.0" are
// accepted; "12.5" is not. Counts are stored as 32-bit integers, so larger
// magnitudes are rejected.
func ParseCount(raw string) (int, error) {
	v, err := ParseDecimal(raw)
	if err != nil {
		return 0, err
	}
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0, errors.New("out of integer range")
	}
	rounded := math.Round(v)
	if math.Abs(v-rounded) > integerTolerance {
		return 0, errors.New("must be a whole number")
	}
	return int(rounded), nil
}

// ParsePercentage parses a cell as a fraction. "45%" becomes 0.45; a bare
// number is taken as already being a fraction.
func ParsePercentage(raw string) (float64, error) {
	s := CleanCell(raw)
	if s == "" {
		return 0, ErrBlank
	}
	if strings.HasSuffix(s, "%") {
		v, err := ParseDecimal(strings.TrimSuffix(s, "%"))
		if err != nil {
			return 0, err
		}
		return v / 100, nil
	}
	return ParseDecimal(s)
}

// ParseValue parses a cell according to the field kind. Text fields never
// produce a numeric value and always return ErrBlank.
func ParseValue(kind FieldKind, raw string) (float64, error) {
	switch kind {
	case KindCount:
		n, err := ParseCount(raw)
		return float64(n), err
	case KindPercentage:
		return ParsePercentage(raw)
	case KindDecimal:
		return ParseDecimal(raw)
	default:
		return 0, ErrBlank
	}
}
