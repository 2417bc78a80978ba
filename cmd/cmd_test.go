package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pable/cs-coach/internal/model"
	"github.com/pable/cs-coach/internal/storage"
)

func TestCollectDemos(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{
		filepath.Join(dir, "a.dem"),
		filepath.Join(dir, "b.dem.zst"),
		filepath.Join(dir, "notes.txt"),
		filepath.Join(sub, "c.dem.gz"),
	} {
		if err := os.WriteFile(p, nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	flat, err := collectDemos([]string{dir}, false)
	if err != nil {
		t.Fatalf("collectDemos: %v", err)
	}
	if len(flat) != 2 {
		t.Errorf("non-recursive: got %d paths, want 2: %v", len(flat), flat)
	}

	deep, err := collectDemos([]string{dir, filepath.Join(dir, "a.dem")}, true)
	if err != nil {
		t.Fatalf("collectDemos: %v", err)
	}
	if len(deep) != 3 {
		t.Errorf("recursive: got %d paths, want 3 (duplicates dropped): %v", len(deep), deep)
	}

	if _, err := collectDemos([]string{filepath.Join(dir, "missing.dem")}, false); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestFilterRounds(t *testing.T) {
	lines := []model.PlayerRoundStats{
		{RoundNumber: 1, Team: model.TeamCT, Survived: true},
		{RoundNumber: 2, Team: model.TeamCT, Survived: false, Clutch: true, ClutchVs: 2},
		{RoundNumber: 3, Team: model.TeamT, Survived: false},
	}
	if got := filterRounds(lines, true, "", false); len(got) != 1 || got[0].RoundNumber != 2 {
		t.Errorf("clutch filter: got %+v", got)
	}
	if got := filterRounds(lines, false, "t", false); len(got) != 1 || got[0].RoundNumber != 3 {
		t.Errorf("side filter: got %+v", got)
	}
	if got := filterRounds(lines, false, "", true); len(got) != 2 {
		t.Errorf("deaths filter: got %d rounds, want 2", len(got))
	}
	if got := filterRounds(lines, false, "", false); len(got) != 3 {
		t.Errorf("no filter: got %d rounds, want 3", len(got))
	}
}

func TestFindStoredPlayer(t *testing.T) {
	stats := []model.PlayerMatchStats{
		{PlayerID: 11, Name: "Alice"},
		{PlayerID: 22, Name: "Bob"},
	}
	if got := findStoredPlayer(stats, "bob"); got != 22 {
		t.Errorf("by name: got %d, want 22", got)
	}
	if got := findStoredPlayer(stats, "11"); got != 11 {
		t.Errorf("by id: got %d, want 11", got)
	}
	if got := findStoredPlayer(stats, "carol"); got != 0 {
		t.Errorf("unknown: got %d, want 0", got)
	}
	if got := findStoredPlayer(stats, ""); got != 0 {
		t.Errorf("empty: got %d, want 0", got)
	}
}

func TestParsePlayerID(t *testing.T) {
	id, err := parsePlayerID("76561198000000001")
	if err != nil || id != 76561198000000001 {
		t.Errorf("got %d, %v", id, err)
	}
	if _, err := parsePlayerID("nope"); err == nil {
		t.Error("expected error for non-numeric id")
	}
}

func TestShellExec(t *testing.T) {
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	var buf bytes.Buffer
	if shellExec(db, &buf, "   ") {
		t.Error("blank line should not end the session")
	}
	if shellExec(db, &buf, "list") {
		t.Error("list should not end the session")
	}
	if !strings.Contains(buf.String(), "No demos stored yet.") {
		t.Errorf("list output = %q", buf.String())
	}

	if err := db.InsertDemo(model.MatchSummary{DemoHash: "abc123", MapName: "de_nuke", MatchDate: "2026-01-02"}); err != nil {
		t.Fatalf("insert demo: %v", err)
	}
	buf.Reset()
	shellExec(db, &buf, "sql SELECT map_name FROM demos")
	if !strings.Contains(buf.String(), "de_nuke") {
		t.Errorf("sql output = %q", buf.String())
	}

	buf.Reset()
	shellExec(db, &buf, "show")
	if !strings.Contains(buf.String(), "usage: show") {
		t.Errorf("show without args = %q", buf.String())
	}

	buf.Reset()
	shellExec(db, &buf, "frobnicate")
	if !strings.Contains(buf.String(), "unknown command") {
		t.Errorf("unknown command output = %q", buf.String())
	}

	if !shellExec(db, &buf, "exit") {
		t.Error("exit should end the session")
	}
}
