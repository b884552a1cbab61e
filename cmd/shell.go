package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/go-val-stats/internal/aggregator"
	"github.com/pable/go-val-stats/internal/catalog"
	"github.com/pable/go-val-stats/internal/model"
	"github.com/pable/go-val-stats/internal/report"
	"github.com/pable/go-val-stats/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cOK       = color.New(color.FgGreen)
	cHeader   = color.New(color.FgCyan, color.Bold)
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
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	cGreeting.Println("valstats shell")
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("valstats")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		cmd, args := tokens[0], tokens[1:]

		switch cmd {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "list":
			shellList(db)
		case "show":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: show <e8act2> [--agent <name>]")
				continue
			}
			var agent string
			for i := 1; i+1 < len(args); i++ {
				if args[i] == "--agent" {
					agent = args[i+1]
				}
			}
			shellShow(db, args[0], agent)
		case "pivot":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: pivot <e8act2>")
				continue
			}
			shellPivot(db, args[0])
		case "sql":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: sql <query>")
				continue
			}
			shellSQL(db, strings.TrimSpace(strings.TrimPrefix(line, cmd)))
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", cmd)
		}
	}
	return nil
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"list", "list all stored acts"},
		{"show <e8act2>", "show an act's rows"},
		{"show <e8act2> --agent <name>", "same, highlighting one agent"},
		{"pivot <e8act2>", "pick-rate matrix for an act"},
		{"sql <query>", "run a raw query"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-38s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

func shellActKey(arg string) (model.ActKey, bool) {
	ep, act, err := catalog.ParseEpisodeKey(arg)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return model.ActKey{}, false
	}
	return model.ActKey{Episode: string(ep), Act: string(act)}, true
}

func shellList(db *storage.DB) {
	acts, err := db.ListActs()
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(acts) == 0 {
		cMuted.Println("No acts stored yet.")
		return
	}
	report.PrintActs(os.Stdout, acts)
}

func shellShow(db *storage.DB, arg, agent string) {
	key, ok := shellActKey(arg)
	if !ok {
		return
	}
	rows, err := db.ActRows(key)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(rows) == 0 {
		fmt.Fprintf(os.Stderr, "no rows stored for %s\n", key)
		return
	}
	report.PrintActHeader(os.Stdout, key, rows)
	report.PrintRows(os.Stdout, rows, agent)
}

func shellPivot(db *storage.DB, arg string) {
	key, ok := shellActKey(arg)
	if !ok {
		return
	}
	rows, err := db.ActRows(key)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	m := aggregator.PivotPickRate(rows, aggregator.PivotOptions{TopPlacement: cfg.TopPlacement})
	if len(m.Agents) == 0 {
		cMuted.Printf("no %s rows for %s\n", cfg.TopPlacement, key)
		return
	}
	cHeader.Fprintf(os.Stdout, "\n--- %s ---\n", key)
	report.PrintPivot(os.Stdout, aggregator.Reversed(m))
}

func shellSQL(db *storage.DB, query string) {
	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	report.PrintQuery(os.Stdout, cols, rows)
}
