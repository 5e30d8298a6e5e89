package validation

import (
	"strings"

	"github.com/JonMunkholm/statsetl/internal/stats"
)

// Jersey numbers printed on the match sheet.
const (
	minJersey = 1
	maxJersey = 99
)

// CheckIdentification validates each player's jersey, name, minutes and
// position, and that no jersey number or player name appears twice in the
// sheet.
func CheckIdentification(rec *stats.RawSheetRecord, cfg Config) Result {
	var r Result
	jerseys := make(map[int]int)  // jersey -> first row
	names := make(map[string]int) // normalized name -> first row

	for _, row := range rec.PlayerRows {
		ctx := playerContext(rec, row)

		raw := row.Cell(stats.FieldJersey)
		jersey, err := stats.ParseCount(raw)
		switch {
		case raw == "":
			r.AddError(LayerIdentification, CodeJersey, ctx.WithField(stats.FieldJersey), "jersey number is required")
		case err != nil:
			r.AddError(LayerIdentification, CodeJersey, ctx.WithField(stats.FieldJersey), "jersey number %q: %v", raw, err)
		case jersey < minJersey || jersey > maxJersey:
			r.AddError(LayerIdentification, CodeJersey, ctx.WithField(stats.FieldJersey),
				"jersey number %d out of range %d-%d", jersey, minJersey, maxJersey)
		default:
			if first, dup := jerseys[jersey]; dup {
				r.AddError(LayerIdentification, CodeDuplicateJersey, ctx.WithField(stats.FieldJersey),
					"jersey number %d appears on rows %d and %d", jersey, first, row.Line)
			} else {
				jerseys[jersey] = row.Line
			}
		}

		if name := row.Cell(stats.FieldPlayerName); name == "" {
			r.AddError(LayerIdentification, CodePlayerName, ctx.WithField(stats.FieldPlayerName), "player name is required")
		} else {
			// players resolve by name, so a repeat would collide on load
			key := strings.ToLower(stats.NormalizeName(name))
			if first, dup := names[key]; dup {
				r.AddError(LayerIdentification, CodeDuplicateName, ctx.WithField(stats.FieldPlayerName),
					"player name %q appears on rows %d and %d", name, first, row.Line)
			} else {
				names[key] = row.Line
			}
		}

		raw = row.Cell(stats.FieldMinutes)
		mins, err := stats.ParseCount(raw)
		switch {
		case raw == "":
			r.AddError(LayerIdentification, CodeMinutes, ctx.WithField(stats.FieldMinutes), "minutes played is required")
		case err != nil:
			r.AddError(LayerIdentification, CodeMinutes, ctx.WithField(stats.FieldMinutes), "minutes played %q: %v", raw, err)
		case mins < 0:
			r.AddError(LayerIdentification, CodeMinutes, ctx.WithField(stats.FieldMinutes), "minutes played %d is negative", mins)
		case mins > cfg.MaxMinutes:
			r.AddWarning(LayerIdentification, CodeMinutesHigh, ctx.WithField(stats.FieldMinutes),
				"minutes played %d exceeds %d", mins, cfg.MaxMinutes)
		}

		if raw := row.Cell(stats.FieldPosition); raw != "" {
			if _, ok := stats.NormalizePosition(raw); !ok {
				r.AddError(LayerIdentification, CodePosition, ctx.WithField(stats.FieldPosition),
					"unknown position %q, expected one of GK, DEF, MID, FWD", raw)
			}
		}
	}

	return r
}
