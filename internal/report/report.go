package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/cs-coach/internal/coach"
	"github.com/pable/cs-coach/internal/model"
	"github.com/pable/cs-coach/internal/rating"
	"github.com/pable/cs-coach/internal/storage"
)

var (
	cGood    = color.New(color.FgGreen, color.Bold)
	cAverage = color.New(color.FgYellow, color.Bold)
	cPoor    = color.New(color.FgRed, color.Bold)
	cHeader  = color.New(color.FgCyan, color.Bold)
	cMuted   = color.New(color.Faint)
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// ShortHash returns the first 12 characters of a demo hash.
func ShortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// RatingColor picks the banner color for a 0-100 rating.
func RatingColor(v float64) *color.Color {
	switch {
	case v >= 60:
		return cGood
	case v >= 40:
		return cAverage
	default:
		return cPoor
	}
}

// Tier names the band a rating falls in.
func Tier(v float64) string {
	switch {
	case v >= 75:
		return "excellent"
	case v >= 60:
		return "good"
	case v >= 40:
		return "average"
	default:
		return "below average"
	}
}

// PrintMatchSummary prints a one-line summary header for the match.
func PrintMatchSummary(w io.Writer, s model.MatchSummary) {
	fmt.Fprintf(w, "\nMap: %s  |  Date: %s  |  Type: %s  |  Score: CT %d - T %d  |  Rounds: %d  |  Hash: %s\n\n",
		s.MapName, s.MatchDate, s.MatchType, s.CTScore, s.TScore, s.Rounds, ShortHash(s.DemoHash))
}

// PrintDemoList prints one row per stored demo.
func PrintDemoList(w io.Writer, demos []model.MatchSummary) {
	table := newTable(w)
	table.Header("HASH", "MAP", "DATE", "TYPE", "SCORE", "ROUNDS", "TICK")
	for _, d := range demos {
		table.Append(
			ShortHash(d.DemoHash),
			d.MapName,
			d.MatchDate,
			d.MatchType,
			fmt.Sprintf("%d-%d", d.CTScore, d.TScore),
			strconv.Itoa(d.Rounds),
			fmt.Sprintf("%.0f", d.Tickrate),
		)
	}
	table.Render()
}

// PrintPlayerTable prints the player stats table.
// If focus is non-zero, that player's row is marked with ">".
func PrintPlayerTable(w io.Writer, stats []model.PlayerMatchStats, focus model.PlayerID) {
	table := newTable(w)
	table.Header(
		" ", "NAME", "TEAM", "RATING", "K", "A", "D", "K/D", "HS%", "ADR", "ACC%",
		"ENTRY_K", "ENTRY_D", "TRADE_K", "TRADED", "FA", "UTIL_DMG", "CLUTCH",
	)

	for _, s := range stats {
		marker := " "
		if focus != 0 && s.PlayerID == focus {
			marker = ">"
		}
		table.Append(
			marker,
			s.Name,
			s.Team.String(),
			fmt.Sprintf("%.1f", s.Rating),
			strconv.Itoa(s.Kills),
			strconv.Itoa(s.Assists),
			strconv.Itoa(s.Deaths),
			fmt.Sprintf("%.2f", s.KDRatio()),
			fmt.Sprintf("%.0f%%", s.HSPercent()),
			fmt.Sprintf("%.1f", s.ADR()),
			fmt.Sprintf("%.0f%%", s.Accuracy()),
			strconv.Itoa(s.OpeningKills),
			strconv.Itoa(s.OpeningDeaths),
			strconv.Itoa(s.TradeKills),
			strconv.Itoa(s.TradedDeaths),
			strconv.Itoa(s.FlashAssists),
			strconv.Itoa(s.UtilityDamage),
			fmt.Sprintf("%d/%d", s.ClutchesWon, s.ClutchesTotal),
		)
	}
	table.Render()
}

// PrintRatingBreakdown prints the colored rating banner and its component scores.
func PrintRatingBreakdown(w io.Writer, name string, b rating.Breakdown) {
	RatingColor(b.Total).Fprintf(w, "%s: %.1f / 100 (%s)\n", name, b.Total, Tier(b.Total))

	table := newTable(w)
	table.Header("COMPONENT", "SCORE", "MAX")
	table.Append("combat", fmt.Sprintf("%.2f", b.Combat), "40")
	table.Append("impact", fmt.Sprintf("%.2f", b.Impact), "25")
	table.Append("utility", fmt.Sprintf("%.2f", b.Utility), "20")
	table.Append("economy", fmt.Sprintf("%.2f", b.Economy), "15")
	table.Render()

	if v, ok := b.Metrics[rating.AverageEquipmentValue]; ok {
		cMuted.Fprintf(w, "average equipment value: $%s\n", humanize.Comma(int64(v)))
	} else {
		cMuted.Fprintln(w, "average equipment value: not sampled")
	}
}

// PrintRoundTable prints one player's per-round lines.
func PrintRoundTable(w io.Writer, lines []model.PlayerRoundStats) {
	table := newTable(w)
	table.Header("ROUND", "TEAM", "WON", "K", "A", "DMG", "UTIL", "ALIVE", "ENTRY", "TRADE", "FA", "CLUTCH", "EQUIP")
	for _, l := range lines {
		entry := ""
		switch {
		case l.OpeningKill:
			entry = "K"
		case l.OpeningDeath:
			entry = "D"
		}
		trade := strconv.Itoa(l.TradeKills)
		if l.TradedDeath {
			trade += "+T"
		}
		clutch := ""
		if l.Clutch {
			clutch = fmt.Sprintf("1v%d", l.ClutchVs)
			if l.ClutchWon {
				clutch += " W"
			}
		}
		equip := "-"
		if l.EquipmentValue >= 0 {
			equip = "$" + humanize.Comma(int64(l.EquipmentValue))
		}
		table.Append(
			strconv.Itoa(l.RoundNumber),
			l.Team.String(),
			yesNo(l.Team.Playing() && l.Team == l.Winner),
			strconv.Itoa(l.Kills),
			strconv.Itoa(l.Assists),
			strconv.Itoa(l.Damage),
			strconv.Itoa(l.UtilityDamage),
			yesNo(l.Survived),
			entry,
			trade,
			strconv.Itoa(l.FlashAssists),
			clutch,
			equip,
		)
	}
	table.Render()
}

// PrintWeaponTable prints a per-weapon breakdown table.
// If focus is non-zero, only rows for that player are shown.
func PrintWeaponTable(w io.Writer, stats []model.PlayerWeaponStats, players []model.PlayerMatchStats, focus model.PlayerID) {
	nameByID := make(map[model.PlayerID]string, len(players))
	for _, p := range players {
		nameByID[p.PlayerID] = p.Name
	}

	table := newTable(w)
	table.Header("PLAYER", "WEAPON", "K", "SHOTS", "HITS", "ACC%")
	for _, s := range stats {
		if focus != 0 && s.PlayerID != focus {
			continue
		}
		name := nameByID[s.PlayerID]
		if name == "" {
			name = strconv.FormatUint(uint64(s.PlayerID), 10)
		}
		table.Append(
			name,
			s.Weapon,
			strconv.Itoa(s.Kills),
			humanize.Comma(int64(s.Shots)),
			humanize.Comma(int64(s.Hits)),
			fmt.Sprintf("%.0f%%", s.Accuracy()),
		)
	}
	table.Render()
}

// PrintTrendTable prints one row per match, oldest first, with the rating delta
// to the previous match.
func PrintTrendTable(w io.Writer, stats []model.PlayerMatchStats) {
	table := newTable(w)
	table.Header("#", "HASH", "MAP", "RATING", "DELTA", "K", "D", "K/D", "HS%", "ADR", "ACC%")
	for i, s := range stats {
		delta := "-"
		if i > 0 {
			delta = fmt.Sprintf("%+.1f", s.Rating-stats[i-1].Rating)
		}
		table.Append(
			humanize.Ordinal(i+1),
			ShortHash(s.DemoHash),
			s.MapName,
			fmt.Sprintf("%.1f", s.Rating),
			delta,
			strconv.Itoa(s.Kills),
			strconv.Itoa(s.Deaths),
			fmt.Sprintf("%.2f", s.KDRatio()),
			fmt.Sprintf("%.0f%%", s.HSPercent()),
			fmt.Sprintf("%.1f", s.ADR()),
			fmt.Sprintf("%.0f%%", s.Accuracy()),
		)
	}
	table.Render()
}

// PrintTotals prints cross-demo totals with side win rates and per-map ratings.
func PrintTotals(w io.Writer, totals []storage.PlayerTotals, side storage.SideStats, maps []storage.MapRating) {
	table := newTable(w)
	table.Header("PLAYER", "MATCHES", "K", "A", "D", "ROUNDS", "ADR", "CLUTCH", "AVG_RATING")
	for _, t := range totals {
		adr := 0.0
		if t.RoundsPlayed > 0 {
			adr = float64(t.TotalDamage) / float64(t.RoundsPlayed)
		}
		table.Append(
			t.Name,
			strconv.Itoa(t.Demos),
			strconv.Itoa(t.Kills),
			strconv.Itoa(t.Assists),
			strconv.Itoa(t.Deaths),
			strconv.Itoa(t.RoundsPlayed),
			fmt.Sprintf("%.1f", adr),
			fmt.Sprintf("%d/%d", t.ClutchesWon, t.ClutchesTotal),
			fmt.Sprintf("%.1f", t.AvgRating),
		)
	}
	table.Render()

	fmt.Fprintf(w, "CT rounds won: %s   T rounds won: %s\n",
		winRate(side.CTWins, side.CTTotal), winRate(side.TWins, side.TTotal))

	if len(maps) == 0 {
		return
	}
	mt := newTable(w)
	mt.Header("MAP", "MATCHES", "AVG_RATING")
	for _, m := range maps {
		mt.Append(m.MapName, strconv.Itoa(m.Demos), fmt.Sprintf("%.1f", m.AvgRating))
	}
	mt.Render()
}

// PrintAnalysis prints the predicted score and rule-based insights.
func PrintAnalysis(w io.Writer, a coach.Analysis) {
	cHeader.Fprintf(w, "\n%s on %s\n", a.PlayerName, a.MapName)
	RatingColor(a.Rating).Fprintf(w, "rating:          %.1f\n", a.Rating)
	source := "model"
	if !a.ModelUsed {
		source = "base rating"
	}
	RatingColor(a.PredictedScore).Fprintf(w, "predicted score: %.1f (%s)\n", a.PredictedScore, source)
	if len(a.Insights) == 0 {
		return
	}
	fmt.Fprintln(w, "insights:")
	for _, s := range a.Insights {
		fmt.Fprintf(w, "  - %s\n", s)
	}
}

// PrintRaw prints the result of an ad-hoc query.
func PrintRaw(w io.Writer, cols []string, rows [][]string) {
	table := newTable(w)
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = strings.ToUpper(c)
	}
	table.Header(header...)
	for _, r := range rows {
		row := make([]any, len(r))
		for i, v := range r {
			row[i] = v
		}
		table.Append(row...)
	}
	table.Render()
	fmt.Fprintf(w, "(%d rows)\n", len(rows))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func winRate(wins, total int) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%d/%d (%.0f%%)", wins, total, float64(wins)/float64(total)*100)
}

// PrintOverview prints database-wide counters followed by map, player and
// match type breakdowns. The match type table is shown only when more than one
// type is stored.
func PrintOverview(w io.Writer, ov storage.DBOverview, maps []storage.MapStats, players []storage.ActivePlayer, types []storage.MatchTypeCount) {
	cHeader.Fprintf(w, "\n=== Database Summary ===\n\n")
	fmt.Fprintf(w, "  Demos stored  : %d\n", ov.TotalMatches)
	fmt.Fprintf(w, "  Date range    : %s → %s\n", ov.EarliestMatch, ov.LatestMatch)
	fmt.Fprintf(w, "  Unique maps   : %d\n", ov.UniqueMaps)
	fmt.Fprintf(w, "  Players seen  : %d\n", ov.UniquePlayers)
	fmt.Fprintf(w, "  Total rounds  : %s\n", humanize.Comma(int64(ov.TotalRounds)))
	fmt.Fprintf(w, "  Training rows : %s\n", humanize.Comma(int64(ov.TrainingRecords)))
	if ov.PredictorAt == "" {
		cMuted.Fprintf(w, "  Predictor     : not trained\n")
	} else {
		fmt.Fprintf(w, "  Predictor     : %d samples, trained %s\n", ov.PredictorN, ov.PredictorAt)
	}

	fmt.Fprintf(w, "\n--- Maps ---\n\n")
	mt := newTable(w)
	mt.Header("MAP", "MATCHES", "CT WINS", "T WINS", "CT WIN%")
	for _, m := range maps {
		mt.Append(
			m.MapName,
			strconv.Itoa(m.Matches),
			strconv.Itoa(m.CTWins),
			strconv.Itoa(m.TWins),
			winRate(m.CTWins, m.CTWins+m.TWins),
		)
	}
	mt.Render()

	fmt.Fprintf(w, "\n--- Most Active Players ---\n\n")
	pt := newTable(w)
	pt.Header("NAME", "PLAYER ID", "MATCHES", "AVG RATING", "K/D")
	for _, p := range players {
		pt.Append(
			p.Name,
			strconv.FormatUint(uint64(p.PlayerID), 10),
			strconv.Itoa(p.Matches),
			fmt.Sprintf("%.1f", p.AvgRating),
			fmt.Sprintf("%.2f", p.AvgKD),
		)
	}
	pt.Render()

	if len(types) > 1 {
		fmt.Fprintf(w, "\n--- Match Types ---\n\n")
		tt := newTable(w)
		tt.Header("TYPE", "MATCHES")
		for _, t := range types {
			tt.Append(t.MatchType, strconv.Itoa(t.Matches))
		}
		tt.Render()
	}
}
