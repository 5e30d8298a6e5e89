package stats

import "strings"

// FieldKind is the expected data type for a statistic column.
type FieldKind int

const (
	KindCount      FieldKind = iota // non-negative whole number
	KindPercentage                  // fraction in [0,1]
	KindDecimal                     // unrestricted real number (PSR)
	KindText                        // free text (score notation)
)

// String returns a human-readable name for a field kind.
func (k FieldKind) String() string {
	switch k {
	case KindCount:
		return "count"
	case KindPercentage:
		return "percentage"
	case KindDecimal:
		return "decimal"
	case KindText:
		return "text"
	default:
		return "value"
	}
}

// FieldSpec describes one spreadsheet column.
type FieldSpec struct {
	Key     string    // canonical key; also the database column name
	Label   string    // header as printed on the template sheet
	Aliases []string  // other accepted header spellings
	Kind    FieldKind // expected data type
	Max     float64   // per-field warning ceiling for counts; 0 uses the configured default
}

// Identity columns present on every player row.
const (
	FieldJersey     = "jersey_number"
	FieldPlayerName = "player_name"
	FieldPosition   = "position"
	FieldMinutes    = "minutes_played"
)

// Team-row descriptor columns.
const (
	FieldPeriod = "period"
	FieldTeam   = "team"
)

// Player statistic keys referenced by validation rules.
const (
	FieldScore               = "score"
	FieldTotalPossessions    = "total_possessions"
	FieldKickoutsTotal       = "kickouts_total"
	FieldKickoutsWon         = "kickouts_won"
	FieldKickoutsLost        = "kickouts_lost"
	FieldKickoutsTaken       = "kickouts_taken"
	FieldAttacksTotal        = "attacks_total"
	FieldShotsTotal          = "shots_total"
	FieldShotsPoints         = "shots_points"
	FieldShotsTwoPoints      = "shots_two_points"
	FieldShotsGoals          = "shots_goals"
	FieldFreesPoints         = "frees_points"
	FieldFreesTwoPoints      = "frees_two_points"
	FieldFreesGoals          = "frees_goals"
	FieldAssistsTotal        = "assists_total"
	FieldTacklesTotal        = "tackles_total"
	FieldTurnoversLostTotal  = "turnovers_lost_total"
	FieldYellowCards         = "yellow_cards"
	FieldBlackCards          = "black_cards"
	FieldRedCards            = "red_cards"
	FieldTeamScoreline       = "scoreline"
	FieldTeamGoals           = "goals"
	FieldTeamPoints          = "points"
	FieldTeamPossession      = "possession"
	FieldTeamShots           = "total_shots"
	FieldTeamKickoutsWon     = "kickouts_won"
	FieldTeamKickoutsLost    = "kickouts_lost"
	FieldTeamTurnoversWon    = "turnovers_won"
	FieldTeamTurnoversLost   = "turnovers_lost"
	FieldTeamFreesConceded   = "frees_conceded"
	FieldTeamYellowCards     = "yellow_cards"
	FieldTeamBlackCards      = "black_cards"
	FieldTeamRedCards        = "red_cards"
	FieldTeamWides           = "wides"
	FieldTeamAttacks         = "attacks"
	FieldTeamFreesWon        = "frees_won"
	FieldEngagementTotal     = "total_engagements"
	FieldPossessionsRetained = "possessions_retained"
)

// IdentityFields are the per-player columns that identify the row rather
// than measure performance.
var IdentityFields = []FieldSpec{
	{Key: FieldJersey, Label: "#", Aliases: []string{"no", "no.", "jersey", "number", "jersey number"}, Kind: KindCount},
	{Key: FieldPlayerName, Label: "Player", Aliases: []string{"name", "player name", "full name"}, Kind: KindText},
	{Key: FieldPosition, Label: "Pos", Aliases: []string{"position"}, Kind: KindText},
	{Key: FieldMinutes, Label: "Min", Aliases: []string{"mins", "minutes", "minutes played"}, Kind: KindCount},
}

// PlayerFields lists every per-player statistic column, in persistence order.
var PlayerFields = []FieldSpec{
	// Summary
	{Key: FieldEngagementTotal, Label: "TE", Aliases: []string{"total engagements"}, Kind: KindCount},
	{Key: "engagement_efficiency", Label: "TE %", Aliases: []string{"engagement efficiency"}, Kind: KindPercentage},
	{Key: "psr", Label: "PSR", Kind: KindDecimal},
	{Key: "psr_per_tp", Label: "PSR/TP", Kind: KindDecimal},
	{Key: FieldScore, Label: "Score", Aliases: []string{"scores"}, Kind: KindText},

	// Possession
	{Key: FieldTotalPossessions, Label: "TP", Aliases: []string{"total possessions"}, Kind: KindCount},
	{Key: "possessions_from_kickouts", Label: "TP KO", Kind: KindCount},
	{Key: "possessions_from_turnovers", Label: "TP TO", Kind: KindCount},
	{Key: "possessions_from_open_play", Label: "TP OP", Kind: KindCount},
	{Key: FieldPossessionsRetained, Label: "Retained", Kind: KindCount},
	{Key: "possessions_lost", Label: "Lost", Kind: KindCount},
	{Key: "possession_retention_pct", Label: "Retained %", Kind: KindPercentage},

	// Kickout contests
	{Key: FieldKickoutsTotal, Label: "KO", Aliases: []string{"kickouts"}, Kind: KindCount},
	{Key: FieldKickoutsWon, Label: "KO Won", Kind: KindCount},
	{Key: FieldKickoutsLost, Label: "KO Lost", Kind: KindCount},
	{Key: "kickouts_won_clean", Label: "KO Clean", Kind: KindCount},
	{Key: "kickouts_won_break", Label: "KO Break", Kind: KindCount},
	{Key: "kickout_win_pct", Label: "KO %", Kind: KindPercentage},

	// Goalkeeping
	{Key: FieldKickoutsTaken, Label: "KO Taken", Kind: KindCount},
	{Key: "kickouts_retained", Label: "KO Retained", Kind: KindCount},
	{Key: "kickout_retention_pct", Label: "KO Ret %", Kind: KindPercentage},
	{Key: "saves", Label: "Saves", Kind: KindCount},
	{Key: "goals_conceded", Label: "GC", Aliases: []string{"goals conceded"}, Kind: KindCount},

	// Attacks
	{Key: FieldAttacksTotal, Label: "Att", Aliases: []string{"attacks"}, Kind: KindCount},
	{Key: "attacks_kick_pass", Label: "Att KP", Kind: KindCount},
	{Key: "attacks_hand_pass", Label: "Att HP", Kind: KindCount},
	{Key: "attacks_carry", Label: "Att Carry", Kind: KindCount},
	{Key: "attacks_to_shot", Label: "Att Shot", Kind: KindCount},
	{Key: "attack_shot_pct", Label: "Att Shot %", Kind: KindPercentage},

	// Shooting from play
	{Key: FieldShotsTotal, Label: "Shots", Kind: KindCount},
	{Key: FieldShotsPoints, Label: "Pts", Aliases: []string{"points"}, Kind: KindCount},
	{Key: FieldShotsTwoPoints, Label: "2Pts", Aliases: []string{"two points"}, Kind: KindCount},
	{Key: FieldShotsGoals, Label: "Goals", Kind: KindCount},
	{Key: "shots_wides", Label: "Wides", Kind: KindCount},
	{Key: "shots_saved", Label: "Saved", Kind: KindCount},
	{Key: "shots_short", Label: "Short", Kind: KindCount},
	{Key: "shots_woodwork", Label: "Post", Aliases: []string{"woodwork"}, Kind: KindCount},
	{Key: "shots_blocked", Label: "Blocked", Kind: KindCount},
	{Key: "shooting_efficiency", Label: "Shot %", Kind: KindPercentage},

	// Frees
	{Key: "frees_total", Label: "Frees", Kind: KindCount},
	{Key: FieldFreesPoints, Label: "Free Pts", Kind: KindCount},
	{Key: FieldFreesTwoPoints, Label: "Free 2Pts", Kind: KindCount},
	{Key: FieldFreesGoals, Label: "Free Goals", Kind: KindCount},
	{Key: "frees_wides", Label: "Free Wides", Kind: KindCount},
	{Key: "frees_short", Label: "Free Short", Kind: KindCount},
	{Key: "frees_saved", Label: "Free Saved", Kind: KindCount},
	{Key: "free_efficiency", Label: "Free %", Kind: KindPercentage},

	// Assists
	{Key: FieldAssistsTotal, Label: "Assists", Kind: KindCount},
	{Key: "assists_points", Label: "Assist Pts", Kind: KindCount},
	{Key: "assists_goals", Label: "Assist Goals", Kind: KindCount},

	// Passing
	{Key: "kick_passes_total", Label: "KP", Aliases: []string{"kick passes"}, Kind: KindCount},
	{Key: "kick_passes_successful", Label: "KP Succ", Kind: KindCount},
	{Key: "kick_pass_pct", Label: "KP %", Kind: KindPercentage},
	{Key: "hand_passes_total", Label: "HP", Aliases: []string{"hand passes"}, Kind: KindCount},
	{Key: "hand_passes_successful", Label: "HP Succ", Kind: KindCount},
	{Key: "hand_pass_pct", Label: "HP %", Kind: KindPercentage},
	{Key: "passes_total", Label: "Passes", Kind: KindCount},
	{Key: "carries", Label: "Carries", Kind: KindCount},

	// Tackling and defence
	{Key: FieldTacklesTotal, Label: "Tackles", Kind: KindCount},
	{Key: "tackles_contact", Label: "Tkl Contact", Kind: KindCount},
	{Key: "tackles_missed", Label: "Tkl Missed", Kind: KindCount},
	{Key: "tackle_success_pct", Label: "Tkl %", Kind: KindPercentage},
	{Key: "interceptions", Label: "Int", Aliases: []string{"interceptions"}, Kind: KindCount},
	{Key: "blocks", Label: "Blocks", Kind: KindCount},
	{Key: "duels_total", Label: "Duels", Kind: KindCount},
	{Key: "duels_won", Label: "Duels Won", Kind: KindCount},
	{Key: "duel_win_pct", Label: "Duel %", Kind: KindPercentage},
	{Key: "marks_won", Label: "Marks", Kind: KindCount},
	{Key: "ground_balls_won", Label: "Ground", Kind: KindCount},

	// Turnovers
	{Key: "turnovers_won_total", Label: "TO Won", Kind: KindCount},
	{Key: "turnovers_won_tackle", Label: "TO Won Tkl", Kind: KindCount},
	{Key: "turnovers_won_interception", Label: "TO Won Int", Kind: KindCount},
	{Key: "turnovers_won_other", Label: "TO Won Other", Kind: KindCount},
	{Key: FieldTurnoversLostTotal, Label: "TO Lost", Kind: KindCount},
	{Key: "turnovers_lost_kick", Label: "TO Lost Kick", Kind: KindCount},
	{Key: "turnovers_lost_hand", Label: "TO Lost Hand", Kind: KindCount},
	{Key: "turnovers_lost_carry", Label: "TO Lost Carry", Kind: KindCount},

	// Discipline
	{Key: "frees_won", Label: "Frees Won", Kind: KindCount},
	{Key: "frees_conceded_total", Label: "Frees Conc", Kind: KindCount},
	{Key: "frees_conceded_attack", Label: "FC Att", Kind: KindCount},
	{Key: "frees_conceded_midfield", Label: "FC Mid", Kind: KindCount},
	{Key: "frees_conceded_defence", Label: "FC Def", Kind: KindCount},
	{Key: FieldYellowCards, Label: "YC", Aliases: []string{"yellow", "yellow cards"}, Kind: KindCount},
	{Key: FieldBlackCards, Label: "BC", Aliases: []string{"black", "black cards"}, Kind: KindCount},
	{Key: FieldRedCards, Label: "RC", Aliases: []string{"red", "red cards"}, Kind: KindCount},
}

// TeamFields lists the team-period columns, in persistence order.
var TeamFields = []FieldSpec{
	{Key: FieldTeamScoreline, Label: "Score", Aliases: []string{"scoreline"}, Kind: KindText},
	{Key: FieldTeamGoals, Label: "Goals", Kind: KindCount},
	{Key: FieldTeamPoints, Label: "Points", Aliases: []string{"pts"}, Kind: KindCount},
	{Key: FieldTeamShots, Label: "Shots", Aliases: []string{"total shots"}, Kind: KindCount},
	{Key: FieldTeamWides, Label: "Wides", Kind: KindCount},
	{Key: FieldTeamAttacks, Label: "Attacks", Kind: KindCount},
	{Key: FieldTeamPossession, Label: "Possession", Aliases: []string{"poss", "possession %"}, Kind: KindPercentage},
	{Key: FieldTeamKickoutsWon, Label: "KO Won", Kind: KindCount},
	{Key: FieldTeamKickoutsLost, Label: "KO Lost", Kind: KindCount},
	{Key: FieldTeamTurnoversWon, Label: "TO Won", Kind: KindCount},
	{Key: FieldTeamTurnoversLost, Label: "TO Lost", Kind: KindCount},
	{Key: FieldTeamFreesWon, Label: "Frees Won", Kind: KindCount},
	{Key: FieldTeamFreesConceded, Label: "Frees Conc", Kind: KindCount},
	{Key: FieldTeamYellowCards, Label: "YC", Kind: KindCount},
	{Key: FieldTeamBlackCards, Label: "BC", Kind: KindCount},
	{Key: FieldTeamRedCards, Label: "RC", Kind: KindCount},
}

// TeamDescriptorFields identify a team row.
var TeamDescriptorFields = []FieldSpec{
	{Key: FieldPeriod, Label: "Period", Aliases: []string{"half"}, Kind: KindText},
	{Key: FieldTeam, Label: "Team", Kind: KindText},
}

// SumRule declares that Total must equal the sum of Parts.
type SumRule struct {
	Total string
	Parts []string
}

// RatioRule declares that Percentage must equal sum(Numerator)/Denominator.
type RatioRule struct {
	Percentage  string
	Numerator   []string
	Denominator string
}

// PlayerSumRules are the total/breakdown reconciliations for a player row.
var PlayerSumRules = []SumRule{
	{Total: FieldTotalPossessions, Parts: []string{"possessions_from_kickouts", "possessions_from_turnovers", "possessions_from_open_play"}},
	{Total: FieldKickoutsTotal, Parts: []string{FieldKickoutsWon, FieldKickoutsLost}},
	{Total: FieldKickoutsWon, Parts: []string{"kickouts_won_clean", "kickouts_won_break"}},
	{Total: FieldAttacksTotal, Parts: []string{"attacks_kick_pass", "attacks_hand_pass", "attacks_carry"}},
	{Total: FieldShotsTotal, Parts: []string{FieldShotsPoints, FieldShotsTwoPoints, FieldShotsGoals, "shots_wides", "shots_saved", "shots_short", "shots_woodwork", "shots_blocked"}},
	{Total: "frees_total", Parts: []string{FieldFreesPoints, FieldFreesTwoPoints, FieldFreesGoals, "frees_wides", "frees_short", "frees_saved"}},
	{Total: FieldAssistsTotal, Parts: []string{"assists_points", "assists_goals"}},
	{Total: "passes_total", Parts: []string{"kick_passes_total", "hand_passes_total"}},
	{Total: FieldTacklesTotal, Parts: []string{"tackles_contact", "tackles_missed"}},
	{Total: "turnovers_won_total", Parts: []string{"turnovers_won_tackle", "turnovers_won_interception", "turnovers_won_other"}},
	{Total: FieldTurnoversLostTotal, Parts: []string{"turnovers_lost_kick", "turnovers_lost_hand", "turnovers_lost_carry"}},
	{Total: "frees_conceded_total", Parts: []string{"frees_conceded_attack", "frees_conceded_midfield", "frees_conceded_defence"}},
}

// PlayerRatioRules are the derived percentages recomputed from raw counts.
var PlayerRatioRules = []RatioRule{
	{Percentage: "possession_retention_pct", Numerator: []string{FieldPossessionsRetained}, Denominator: FieldTotalPossessions},
	{Percentage: "kickout_win_pct", Numerator: []string{FieldKickoutsWon}, Denominator: FieldKickoutsTotal},
	{Percentage: "kickout_retention_pct", Numerator: []string{"kickouts_retained"}, Denominator: FieldKickoutsTaken},
	{Percentage: "attack_shot_pct", Numerator: []string{"attacks_to_shot"}, Denominator: FieldAttacksTotal},
	{Percentage: "shooting_efficiency", Numerator: []string{FieldShotsPoints, FieldShotsTwoPoints, FieldShotsGoals}, Denominator: FieldShotsTotal},
	{Percentage: "free_efficiency", Numerator: []string{FieldFreesPoints, FieldFreesTwoPoints, FieldFreesGoals}, Denominator: "frees_total"},
	{Percentage: "kick_pass_pct", Numerator: []string{"kick_passes_successful"}, Denominator: "kick_passes_total"},
	{Percentage: "hand_pass_pct", Numerator: []string{"hand_passes_successful"}, Denominator: "hand_passes_total"},
	{Percentage: "tackle_success_pct", Numerator: []string{"tackles_contact"}, Denominator: FieldTacklesTotal},
	{Percentage: "duel_win_pct", Numerator: []string{"duels_won"}, Denominator: "duels_total"},
}

// TeamPeriodSumFields are the team counts where full_time must equal
// first_half plus second_half.
var TeamPeriodSumFields = []string{
	FieldTeamGoals, FieldTeamPoints, FieldTeamShots, FieldTeamWides, FieldTeamAttacks,
	FieldTeamKickoutsWon, FieldTeamKickoutsLost, FieldTeamTurnoversWon, FieldTeamTurnoversLost,
	FieldTeamFreesWon, FieldTeamFreesConceded,
}

var (
	playerFieldIndex = indexFields(PlayerFields)
	teamFieldIndex   = indexFields(TeamFields)
)

func indexFields(specs []FieldSpec) map[string]FieldSpec {
	idx := make(map[string]FieldSpec, len(specs))
	for _, spec := range specs {
		idx[spec.Key] = spec
	}
	return idx
}

// PlayerField returns the player statistic spec for key.
func PlayerField(key string) (FieldSpec, bool) {
	spec, ok := playerFieldIndex[key]
	return spec, ok
}

// TeamField returns the team statistic spec for key.
func TeamField(key string) (FieldSpec, bool) {
	spec, ok := teamFieldIndex[key]
	return spec, ok
}

// HeaderIndex maps normalized header text to a canonical field key.
type HeaderIndex map[string]string

// NewHeaderIndex builds a lookup over labels, aliases and keys of specs.
// Earlier specs win when two specs share a spelling.
func NewHeaderIndex(specs ...[]FieldSpec) HeaderIndex {
	idx := make(HeaderIndex)
	add := func(name, key string) {
		n := normalizeHeader(name)
		if n == "" {
			return
		}
		if _, exists := idx[n]; !exists {
			idx[n] = key
		}
	}
	for _, group := range specs {
		for _, spec := range group {
			add(spec.Key, spec.Key)
			add(spec.Label, spec.Key)
			for _, a := range spec.Aliases {
				add(a, spec.Key)
			}
		}
	}
	return idx
}

// Resolve returns the canonical key for a header cell.
func (h HeaderIndex) Resolve(header string) (string, bool) {
	key, ok := h[normalizeHeader(header)]
	return key, ok
}

// normalizeHeader lowercases, trims and treats underscores as spaces.
func normalizeHeader(s string) string {
	s = strings.ToLower(CleanCell(s))
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.Fields(s), " ")
}

// PlayerHeaders is the header lookup for the player section of a sheet.
var PlayerHeaders = NewHeaderIndex(IdentityFields, PlayerFields)

// TeamHeaders is the header lookup for the team section of a sheet.
var TeamHeaders = NewHeaderIndex(TeamDescriptorFields, TeamFields)
