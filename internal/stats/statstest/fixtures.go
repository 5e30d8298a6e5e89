// Package statstest builds clean match sheets for tests.
//
// The default sheet passes every validation layer without errors or
// warnings, so a test can change one cell and assert on exactly the issue
// that change produces.
package statstest

import (
	"fmt"
	"strconv"
	"time"

	"github.com/JonMunkholm/statsetl/internal/stats"
)

// Defaults used by the clean sheet.
const (
	SheetName = "09. Championship vs Slaughtmanus 26.09.25"
	HomeTeam  = "Drum"
	Opponent  = "Slaughtmanus"
	Players   = 20
)

// outfield holds the statistics every outfield player carries. Every total
// matches its breakdown and every percentage matches its counts.
var outfield = map[string]string{
	stats.FieldEngagementTotal:     "25",
	"psr":                          "1.4",
	"psr_per_tp":                   "0.14",
	stats.FieldScore:               "0-1",
	stats.FieldTotalPossessions:    "10",
	"possessions_from_kickouts":    "2",
	"possessions_from_turnovers":   "3",
	"possessions_from_open_play":   "5",
	stats.FieldPossessionsRetained: "8",
	"possessions_lost":             "2",
	"possession_retention_pct":     "0.8",
	stats.FieldKickoutsTotal:       "3",
	stats.FieldKickoutsWon:         "2",
	stats.FieldKickoutsLost:        "1",
	"kickouts_won_clean":           "1",
	"kickouts_won_break":           "1",
	"kickout_win_pct":              "0.667",
	stats.FieldAttacksTotal:        "4",
	"attacks_kick_pass":            "1",
	"attacks_hand_pass":            "2",
	"attacks_carry":                "1",
	"attacks_to_shot":              "2",
	"attack_shot_pct":              "50%",
	stats.FieldShotsTotal:          "2",
	stats.FieldShotsPoints:         "1",
	stats.FieldShotsTwoPoints:      "0",
	stats.FieldShotsGoals:          "0",
	"shots_wides":                  "1",
	"shooting_efficiency":          "0.5",
	stats.FieldAssistsTotal:        "1",
	"assists_points":               "1",
	"assists_goals":                "0",
	"kick_passes_total":            "4",
	"kick_passes_successful":       "3",
	"kick_pass_pct":                "0.75",
	"hand_passes_total":            "6",
	"hand_passes_successful":       "6",
	"hand_pass_pct":                "100%",
	"passes_total":                 "10",
	stats.FieldTacklesTotal:        "3",
	"tackles_contact":              "2",
	"tackles_missed":               "1",
	"tackle_success_pct":           "0.667",
	"turnovers_won_total":          "1",
	"turnovers_won_tackle":         "1",
	stats.FieldTurnoversLostTotal:  "2",
	"turnovers_lost_kick":          "1",
	"turnovers_lost_carry":         "1",
	"frees_conceded_total":         "1",
	"frees_conceded_midfield":      "1",
	stats.FieldYellowCards:         "0",
	stats.FieldBlackCards:          "0",
	stats.FieldRedCards:            "0",
}

// goalkeeper holds the statistics of the clean sheet's goalkeeper.
var goalkeeper = map[string]string{
	stats.FieldEngagementTotal:     "22",
	"psr":                          "0.9",
	stats.FieldTotalPossessions:    "4",
	"possessions_from_kickouts":    "0",
	"possessions_from_turnovers":   "1",
	"possessions_from_open_play":   "3",
	stats.FieldPossessionsRetained: "4",
	"possession_retention_pct":     "1",
	stats.FieldKickoutsTaken:       "20",
	"kickouts_retained":            "15",
	"kickout_retention_pct":        "75%",
	"saves":                        "3",
	"goals_conceded":               "0",
	"kick_passes_total":            "18",
	"kick_passes_successful":       "15",
	"kick_pass_pct":                "0.833",
	stats.FieldYellowCards:         "0",
	stats.FieldBlackCards:          "0",
	stats.FieldRedCards:            "0",
}

// Position and minutes by jersey: 1 keeper, 6 defenders, 2 midfielders,
// 6 forwards, then substitutes.
func lineup(jersey int) (string, int) {
	switch {
	case jersey == 1:
		return "GK", 60
	case jersey <= 7:
		return "DEF", 60
	case jersey <= 9:
		return "MID", 60
	case jersey <= 15:
		return "FWD", 60
	default:
		return "MID", 10
	}
}

// PlayerName returns the clean sheet's name for a jersey number.
func PlayerName(jersey int) string {
	return fmt.Sprintf("Player %02d", jersey)
}

// PlayerRow builds one clean player row.
func PlayerRow(line, jersey int) stats.RawRow {
	pos, mins := lineup(jersey)
	src := outfield
	if pos == "GK" {
		src = goalkeeper
	}

	cells := make(map[string]string, len(src)+4)
	for k, v := range src {
		cells[k] = v
	}
	cells[stats.FieldJersey] = strconv.Itoa(jersey)
	cells[stats.FieldPlayerName] = PlayerName(jersey)
	cells[stats.FieldPosition] = pos
	cells[stats.FieldMinutes] = strconv.Itoa(mins)
	return stats.RawRow{Line: line, Cells: cells}
}

// teamRow lists period, team, scoreline, goals, points, shots, possession.
type teamRow struct {
	period, team, score string
	goals, points, shots int
	possession           string
}

// TeamRows builds the six clean team rows. Home wins 1-11 to 0-9.
func TeamRows(startLine int) []stats.RawRow {
	rows := []teamRow{
		{"First Half", HomeTeam, "0-6", 0, 6, 10, "0.55"},
		{"First Half", Opponent, "0-5", 0, 5, 9, "0.45"},
		{"Second Half", HomeTeam, "1-5", 1, 5, 11, "52%"},
		{"Second Half", Opponent, "0-4", 0, 4, 8, "48%"},
		{"Full Time", HomeTeam, "1-11", 1, 11, 21, "0.535"},
		{"Full Time", Opponent, "0-9", 0, 9, 17, "0.465"},
	}

	out := make([]stats.RawRow, 0, len(rows))
	for i, r := range rows {
		out = append(out, stats.RawRow{
			Line: startLine + i,
			Cells: map[string]string{
				stats.FieldPeriod:         r.period,
				stats.FieldTeam:           r.team,
				stats.FieldTeamScoreline:  r.score,
				stats.FieldTeamGoals:      strconv.Itoa(r.goals),
				stats.FieldTeamPoints:     strconv.Itoa(r.points),
				stats.FieldTeamShots:      strconv.Itoa(r.shots),
				stats.FieldTeamPossession: r.possession,
			},
		})
	}
	return out
}

// Sheet builds a clean sheet with the default name.
func Sheet() *stats.RawSheetRecord {
	return NamedSheet(SheetName)
}

// NamedSheet builds a clean sheet under name. Player rows start on line 3
// and team rows follow after a gap.
func NamedSheet(name string) *stats.RawSheetRecord {
	rec := stats.NewRawSheetRecord(name)

	col := 0
	for _, group := range [][]stats.FieldSpec{stats.IdentityFields, stats.PlayerFields} {
		for _, spec := range group {
			rec.FieldMap[spec.Key] = col
			col++
		}
	}

	for j := 1; j <= Players; j++ {
		rec.PlayerRows = append(rec.PlayerRows, PlayerRow(j+2, j))
	}
	rec.TeamRows = TeamRows(Players + 5)
	return &rec
}

// FindPlayer returns a pointer to the row for jersey so a test can edit it.
func FindPlayer(rec *stats.RawSheetRecord, jersey int) *stats.RawRow {
	want := strconv.Itoa(jersey)
	for i := range rec.PlayerRows {
		if rec.PlayerRows[i].Cells[stats.FieldJersey] == want {
			return &rec.PlayerRows[i]
		}
	}
	return nil
}

// Unit builds a small loadable match unit without going through a sheet.
// Player names are shared across units so tests can observe reuse.
func Unit(number int, competition, opponent string, players int) stats.MatchUnit {
	unit := stats.MatchUnit{
		Match: stats.MatchRecord{
			Competition: competition,
			Season:      2025,
			Number:      number,
			Opponent:    opponent,
			Date:        time.Date(2025, time.September, number, 0, 0, 0, 0, time.UTC),
			HomeTeam:    HomeTeam,
			HomeScore:   "1-11",
			AwayScore:   "0-9",
			SheetName:   fmt.Sprintf("%02d. %s vs %s %02d.09.25", number, competition, opponent, number),
		},
	}

	for _, period := range stats.Periods {
		for _, home := range []bool{true, false} {
			team := opponent
			if home {
				team = HomeTeam
			}
			unit.Periods = append(unit.Periods, stats.TeamPeriodStatisticsRecord{
				Period: period,
				Team:   team,
				IsHome: home,
				Values: map[string]float64{stats.FieldTeamPossession: 0.5},
			})
		}
	}

	for j := 1; j <= players; j++ {
		pos, mins := lineup(j)
		unit.Players = append(unit.Players, stats.PlayerStatisticsRecord{
			Jersey:   j,
			FullName: PlayerName(j),
			Position: pos,
			Minutes:  mins,
			Values:   map[string]float64{stats.FieldTotalPossessions: 10},
			Text:     map[string]string{stats.FieldScore: "0-1"},
		})
	}
	return unit
}
