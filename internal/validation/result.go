// Package validation checks raw match sheets before they are loaded.
//
// Checks are organised in layers that run in a fixed order:
//
//	Structure -> Identification -> DataType -> CrossField -> PositionSpecific -> BusinessRule
//
// Each layer is a pure function of the sheet and the threshold Config. A layer
// never panics and never returns a Go error; it returns a Result holding
// ordered errors and warnings. Structure and Identification errors stop the
// pipeline because every later layer needs a usable sheet and player identity.
//
// Any error rejects the sheet. Warnings are reported but never block a load.
package validation

import (
	"fmt"
	"strings"
)

// Layer names the validation layer that produced an issue.
type Layer string

const (
	LayerStructure      Layer = "structure"
	LayerIdentification Layer = "identification"
	LayerDataType       Layer = "data_type"
	LayerCrossField     Layer = "cross_field"
	LayerPosition       Layer = "position"
	LayerBusinessRule   Layer = "business_rule"
)

// Context locates an issue in the spreadsheet.
type Context struct {
	Sheet  string `json:"sheet,omitempty"`
	Row    int    `json:"row,omitempty"`
	Jersey int    `json:"jersey,omitempty"`
	Player string `json:"player,omitempty"`
	Team   string `json:"team,omitempty"`
	Field  string `json:"field,omitempty"`
}

// String formats the context as "sheet, row 4, #7 Sean Quinn, field yellow_cards".
func (c Context) String() string {
	var parts []string
	if c.Sheet != "" {
		parts = append(parts, fmt.Sprintf("sheet %q", c.Sheet))
	}
	if c.Row > 0 {
		parts = append(parts, fmt.Sprintf("row %d", c.Row))
	}
	switch {
	case c.Jersey > 0 && c.Player != "":
		parts = append(parts, fmt.Sprintf("#%d %s", c.Jersey, c.Player))
	case c.Jersey > 0:
		parts = append(parts, fmt.Sprintf("#%d", c.Jersey))
	case c.Player != "":
		parts = append(parts, c.Player)
	}
	if c.Team != "" {
		parts = append(parts, "team "+c.Team)
	}
	if c.Field != "" {
		parts = append(parts, "field "+c.Field)
	}
	return strings.Join(parts, ", ")
}

// WithField returns a copy of the context naming field.
func (c Context) WithField(field string) Context {
	c.Field = field
	return c
}

// Issue is a single validation error or warning.
type Issue struct {
	Layer   Layer   `json:"layer,omitempty"`
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Context Context `json:"context"`
	Details []Issue `json:"details,omitempty"`
}

func (i Issue) Error() string {
	if loc := i.Context.String(); loc != "" {
		return fmt.Sprintf("%s: %s (%s)", i.Code, i.Message, loc)
	}
	return fmt.Sprintf("%s: %s", i.Code, i.Message)
}

// Result holds the ordered errors and warnings produced by one or more layers.
type Result struct {
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// IsValid reports whether no errors were recorded.
func (r Result) IsValid() bool {
	return len(r.Errors) == 0
}

// Merge appends other's issues after r's, preserving order.
func (r *Result) Merge(other Result) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// AddError records an error.
func (r *Result) AddError(layer Layer, code string, ctx Context, format string, args ...any) {
	r.Errors = append(r.Errors, Issue{Layer: layer, Code: code, Message: fmt.Sprintf(format, args...), Context: ctx})
}

// AddWarning records a warning.
func (r *Result) AddWarning(layer Layer, code string, ctx Context, format string, args ...any) {
	r.Warnings = append(r.Warnings, Issue{Layer: layer, Code: code, Message: fmt.Sprintf(format, args...), Context: ctx})
}

// Issue codes, grouped by layer.
const (
	CodeSheetName        = "STR001"
	CodeMissingColumn    = "STR002"
	CodeNoPlayers        = "STR003"
	CodeTeamRowCount     = "STR004"
	CodeTeamRowPeriod    = "STR005"
	CodeTeamRowTeam      = "STR006"
	CodeTeamRowPairing   = "STR007"
	CodeJersey           = "IDN001"
	CodePlayerName       = "IDN002"
	CodeMinutes          = "IDN003"
	CodeMinutesHigh      = "IDN004"
	CodePosition         = "IDN005"
	CodeDuplicateJersey  = "IDN006"
	CodeDuplicateName    = "IDN007"
	CodeNotNumeric       = "RNG001"
	CodeNegative         = "RNG002"
	CodeCountHigh        = "RNG003"
	CodePercentRange     = "RNG004"
	CodePercentRounding  = "RNG005"
	CodeTotalMismatch    = "CRS001"
	CodeRatioMismatch    = "CRS002"
	CodeScorelineColumns = "CRS003"
	CodePeriodSum        = "CRS004"
	CodePossessionSum    = "CRS005"
	CodeKeeperKickouts   = "POS001"
	CodeKeeperAttacking  = "POS002"
	CodeDefenderTackles  = "POS003"
	CodeMidPossession    = "POS004"
	CodeMidKickouts      = "POS005"
	CodeForwardAttacking = "POS006"
	CodeForwardScoring   = "POS007"
	CodeRedCards         = "BUS001"
	CodeBlackCards       = "BUS002"
	CodeYellowCards      = "BUS003"
	CodeTurnovers        = "BUS004"
	CodeScoreNotation    = "BUS005"
	CodeSquadSize        = "BUS006"
	CodeNoGoalkeeper     = "BUS007"
	CodeSquadMinutes     = "BUS008"
	CodeTeamScoreline    = "BUS009"
	CodeSquadRedCards    = "BUS010"
	CodeSquadBlackCards  = "BUS011"
)
