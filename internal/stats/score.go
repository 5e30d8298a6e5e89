package stats

import (
	"fmt"
	"regexp"
	"strconv"
)

// scorePattern is the G-PP(Ff) notation: goals, points, and optionally the
// number of points scored from frees.
var scorePattern = regexp.MustCompile(`^(\d+)-(\d+)(?:\((\d+)f\))?$`)

// Score is a parsed score notation such as "1-11" or "0-4(2f)".
type Score struct {
	Goals  int
	Points int
	Frees  int // points from frees; 0 when not recorded
}

// Total returns the score value with goals worth three points.
func (s Score) Total() int {
	return s.Goals*3 + s.Points
}

// String formats the score back into notation.
func (s Score) String() string {
	if s.Frees > 0 {
		return fmt.Sprintf("%d-%d(%df)", s.Goals, s.Points, s.Frees)
	}
	return fmt.Sprintf("%d-%d", s.Goals, s.Points)
}

// ValidScoreNotation reports whether s follows the G-PP(Ff) notation.
func ValidScoreNotation(s string) bool {
	return scorePattern.MatchString(CleanCell(s))
}

// ParseScore parses a score notation string.
func ParseScore(raw string) (Score, error) {
	m := scorePattern.FindStringSubmatch(CleanCell(raw))
	if m == nil {
		return Score{}, fmt.Errorf("score %q does not match G-PP(Ff) notation", raw)
	}
	goals, _ := strconv.Atoi(m[1])
	points, _ := strconv.Atoi(m[2])
	var frees int
	if m[3] != "" {
		frees, _ = strconv.Atoi(m[3])
	}
	return Score{Goals: goals, Points: points, Frees: frees}, nil
}
