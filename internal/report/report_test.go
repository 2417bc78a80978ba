package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pable/cs-coach/internal/coach"
	"github.com/pable/cs-coach/internal/model"
	"github.com/pable/cs-coach/internal/rating"
	"github.com/pable/cs-coach/internal/storage"
)

func TestTier(t *testing.T) {
	cases := map[float64]string{80: "excellent", 60: "good", 45: "average", 10: "below average"}
	for v, want := range cases {
		if got := Tier(v); got != want {
			t.Errorf("Tier(%v) = %q, want %q", v, got, want)
		}
	}
}

func TestPrintRoundTable(t *testing.T) {
	var buf bytes.Buffer
	PrintRoundTable(&buf, []model.PlayerRoundStats{
		{RoundNumber: 1, Team: model.TeamCT, Winner: model.TeamCT, Kills: 2, Survived: true, OpeningKill: true, EquipmentValue: 4700},
		{RoundNumber: 2, Team: model.TeamCT, Winner: model.TeamT, TradedDeath: true, Clutch: true, ClutchVs: 3, EquipmentValue: -1},
	})
	out := buf.String()
	for _, want := range []string{"$4,700", "1v3", "0+T"} {
		if !strings.Contains(out, want) {
			t.Errorf("round table missing %q:\n%s", want, out)
		}
	}
}

func TestPrintTrendTable(t *testing.T) {
	var buf bytes.Buffer
	PrintTrendTable(&buf, []model.PlayerMatchStats{
		{DemoHash: "aaaaaaaaaaaaaaaa", MapName: "de_nuke", Rating: 40},
		{DemoHash: "bbbbbbbbbbbbbbbb", MapName: "de_nuke", Rating: 50},
	})
	out := buf.String()
	if !strings.Contains(out, "+10.0") {
		t.Errorf("expected rating delta in trend:\n%s", out)
	}
	if !strings.Contains(out, "2nd") {
		t.Errorf("expected ordinal match numbers:\n%s", out)
	}
	if strings.Contains(out, "aaaaaaaaaaaaaaaa") {
		t.Error("hash should be shortened")
	}
}

func TestPrintRatingBreakdown(t *testing.T) {
	var buf bytes.Buffer
	PrintRatingBreakdown(&buf, "alpha", rating.Breakdown{Combat: 30, Impact: 10, Utility: 5, Economy: 7.5, Total: 52.5,
		Metrics: map[string]float64{rating.AverageEquipmentValue: 3950}})
	out := buf.String()
	if !strings.Contains(out, "alpha: 52.5 / 100 (average)") {
		t.Errorf("missing banner:\n%s", out)
	}
	if !strings.Contains(out, "$3,950") {
		t.Errorf("missing equipment value:\n%s", out)
	}
}

func TestPrintAnalysisAndTotals(t *testing.T) {
	var buf bytes.Buffer
	PrintAnalysis(&buf, coach.Analysis{PlayerName: "alpha", MapName: "de_nuke", Rating: 50, PredictedScore: 50,
		Insights: []string{"Practice spray control and burst firing"}})
	if !strings.Contains(buf.String(), "base rating") || !strings.Contains(buf.String(), "spray control") {
		t.Errorf("unexpected analysis output:\n%s", buf.String())
	}

	buf.Reset()
	PrintTotals(&buf, []storage.PlayerTotals{{Name: "alpha", Demos: 2, RoundsPlayed: 40, TotalDamage: 3200, AvgRating: 55}},
		storage.SideStats{CTWins: 3, CTTotal: 4}, nil)
	out := buf.String()
	if !strings.Contains(out, "80.0") || !strings.Contains(out, "3/4 (75%)") {
		t.Errorf("unexpected totals output:\n%s", out)
	}
}

func TestPrintOverview(t *testing.T) {
	var buf bytes.Buffer
	ov := storage.DBOverview{TotalMatches: 2, EarliestMatch: "2025-03-01", LatestMatch: "2025-03-02", TotalRounds: 1234}
	maps := []storage.MapStats{{MapName: "de_inferno", Matches: 2, CTWins: 1, TWins: 1}}
	players := []storage.ActivePlayer{{PlayerID: 7, Name: "seven", Matches: 2, AvgRating: 50}}
	types := []storage.MatchTypeCount{{MatchType: "Premier", Matches: 1}, {MatchType: "FACEIT", Matches: 1}}

	PrintOverview(&buf, ov, maps, players, types)
	out := buf.String()
	for _, want := range []string{"1,234", "not trained", "de_inferno", "1/2 (50%)", "seven", "FACEIT"} {
		if !strings.Contains(out, want) {
			t.Errorf("overview missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	PrintOverview(&buf, ov, maps, players, types[:1])
	if strings.Contains(buf.String(), "Match Types") {
		t.Error("match type table shown for a single type")
	}
}
