package stats

import (
	"strings"
	"time"
)

// Period identifies which part of the match a team row covers.
type Period string

const (
	PeriodFirstHalf  Period = "first_half"
	PeriodSecondHalf Period = "second_half"
	PeriodFullTime   Period = "full_time"
)

// Periods lists every period in sheet order.
var Periods = []Period{PeriodFirstHalf, PeriodSecondHalf, PeriodFullTime}

// TeamRowsPerMatch is the fixed number of team-period rows in a match unit.
const TeamRowsPerMatch = 6

var periodAliases = map[string]Period{
	"first_half": PeriodFirstHalf, "first half": PeriodFirstHalf, "1st half": PeriodFirstHalf,
	"1st": PeriodFirstHalf, "h1": PeriodFirstHalf, "1h": PeriodFirstHalf, "1": PeriodFirstHalf,
	"second_half": PeriodSecondHalf, "second half": PeriodSecondHalf, "2nd half": PeriodSecondHalf,
	"2nd": PeriodSecondHalf, "h2": PeriodSecondHalf, "2h": PeriodSecondHalf, "2": PeriodSecondHalf,
	"full_time": PeriodFullTime, "full time": PeriodFullTime, "full-time": PeriodFullTime,
	"ft": PeriodFullTime, "total": PeriodFullTime, "match": PeriodFullTime,
}

// NormalizePeriod maps a period cell such as "1st Half" or "FT" to a Period.
func NormalizePeriod(raw string) (Period, bool) {
	p, ok := periodAliases[strings.ToLower(NormalizeName(CleanCell(raw)))]
	return p, ok
}

// Seeded position codes. Positions are reference data and never created by a load.
const (
	PositionGoalkeeper = "GK"
	PositionDefender   = "DEF"
	PositionMidfielder = "MID"
	PositionForward    = "FWD"
)

// PositionCodes lists the seeded position codes.
var PositionCodes = []string{PositionGoalkeeper, PositionDefender, PositionMidfielder, PositionForward}

var positionAliases = map[string]string{
	"gk": PositionGoalkeeper, "g": PositionGoalkeeper, "goalkeeper": PositionGoalkeeper, "keeper": PositionGoalkeeper,
	"def": PositionDefender, "d": PositionDefender, "defender": PositionDefender, "back": PositionDefender,
	"mid": PositionMidfielder, "m": PositionMidfielder, "midfielder": PositionMidfielder, "midfield": PositionMidfielder,
	"fwd": PositionForward, "f": PositionForward, "forward": PositionForward, "fw": PositionForward,
}

// NormalizePosition maps a position cell to a seeded code. A blank cell
// returns ("", true).
func NormalizePosition(raw string) (string, bool) {
	s := strings.ToLower(CleanCell(raw))
	if s == "" {
		return "", true
	}
	code, ok := positionAliases[s]
	return code, ok
}

// Keywords accepted in the team column in place of team names.
var (
	homeKeywords = map[string]bool{"home": true, "us": true}
	awayKeywords = map[string]bool{"away": true, "opposition": true, "opponent": true, "them": true}
)

// ResolveSide decides whether a team cell names the home (tracked) team or
// the opponent. ok is false when the cell names neither.
func ResolveSide(team, homeTeam, opponent string) (home bool, ok bool) {
	t := strings.ToLower(NormalizeName(CleanCell(team)))
	switch {
	case t == "":
		return false, false
	case homeKeywords[t] || (homeTeam != "" && strings.EqualFold(t, NormalizeName(homeTeam))):
		return true, true
	case awayKeywords[t] || (opponent != "" && strings.EqualFold(t, NormalizeName(opponent))):
		return false, true
	default:
		return false, false
	}
}

// PlayerStatisticsRecord is one validated player row ready for persistence.
type PlayerStatisticsRecord struct {
	Jersey   int
	FullName string
	Position string // seeded code, or "" when the sheet leaves it blank
	Minutes  int
	Line     int
	Values   map[string]float64 // numeric catalog fields
	Text     map[string]string  // text catalog fields
}

// Value returns a numeric statistic, or 0 when it was blank.
func (p PlayerStatisticsRecord) Value(key string) float64 {
	return p.Values[key]
}

// TeamPeriodStatisticsRecord is one team's statistics for one period.
type TeamPeriodStatisticsRecord struct {
	Period    Period
	Team      string
	IsHome    bool
	Scoreline string
	Values    map[string]float64
}

// Value returns a numeric statistic, or 0 when it was blank.
func (t TeamPeriodStatisticsRecord) Value(key string) float64 {
	return t.Values[key]
}

// MatchRecord is the match row of a unit.
type MatchRecord struct {
	Competition string
	Season      int
	Number      int
	Opponent    string
	Date        time.Time
	HomeTeam    string
	HomeScore   string // full-time scoreline for the home team
	AwayScore   string
	SheetName   string
}

// MatchUnit is everything loaded atomically for one sheet.
type MatchUnit struct {
	Match   MatchRecord
	Periods []TeamPeriodStatisticsRecord
	Players []PlayerStatisticsRecord
}
