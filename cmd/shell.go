package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/cs-coach/internal/log"
	"github.com/pable/cs-coach/internal/report"
	"github.com/pable/cs-coach/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long:  "Open a persistent session against the database. Type 'help' for available commands.",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

func runShell(_ *cobra.Command, _ []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer log.Closer(db)

	cGreeting.Println("cscoach shell")
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("cscoach")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return nil
		}
		if done := shellExec(db, os.Stdout, scanner.Text()); done {
			return nil
		}
	}
}

// shellExec runs one REPL line. It reports true when the session should end.
// Command errors are printed, never returned, so one bad line keeps the session alive.
func shellExec(db *storage.DB, w io.Writer, line string) bool {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return false
	}
	cmd, args := tokens[0], tokens[1:]

	var err error
	switch cmd {
	case "exit", "quit":
		return true
	case "help":
		shellHelp(w)
	case "list":
		err = shellList(db, w)
	case "show":
		if len(args) == 0 {
			cError.Fprintln(w, "usage: show <hash-prefix> [player]")
			return false
		}
		player := ""
		if len(args) > 1 {
			player = strings.Join(args[1:], " ")
		}
		err = showByHash(db, args[0], player)
	case "trend":
		if len(args) == 0 {
			cError.Fprintln(w, "usage: trend <player-id>")
			return false
		}
		id, perr := parsePlayerID(args[0])
		if perr != nil {
			err = perr
			break
		}
		err = showTrend(db, id, time.Time{}, 0)
	case "sql":
		err = shellSQL(db, w, strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "sql")))
	default:
		cWarn.Fprintf(w, "unknown command %q, type 'help'\n", cmd)
	}
	if err != nil {
		cError.Fprintf(w, "error: %v\n", err)
	}
	return false
}

func shellHelp(w io.Writer) {
	fmt.Fprintln(w)
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"list", "list all stored demos"},
		{"show <hash-prefix> [player]", "show a match's stats, highlighting one player"},
		{"trend <player-id>", "rating history and totals for one player"},
		{"sql <query>", "run a raw SQL query"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Fprint(w, "  ")
		cCmd.Fprintf(w, "%-32s", r.cmd)
		fmt.Fprintln(w, r.desc)
	}
	fmt.Fprintln(w)
}

func shellList(db *storage.DB, w io.Writer) error {
	demos, err := db.ListDemos()
	if err != nil {
		return err
	}
	if len(demos) == 0 {
		cMuted.Fprintln(w, "No demos stored yet.")
		return nil
	}
	report.PrintDemoList(w, demos)
	return nil
}

func shellSQL(db *storage.DB, w io.Writer, query string) error {
	if query == "" {
		return fmt.Errorf("usage: sql <query>")
	}
	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		cMuted.Fprintln(w, "(no rows)")
		return nil
	}
	report.PrintRaw(w, cols, rows)
	return nil
}
