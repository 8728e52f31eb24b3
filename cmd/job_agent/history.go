package main

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/jonathan/job-agent/internal/config"
	"github.com/jonathan/job-agent/internal/db"
	"github.com/jonathan/job-agent/internal/observability"
)

var historyCommand = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List past runs, or show the jobs and applications of one run",
	Long: `Reads the run history stored in PostgreSQL (--db-url or DATABASE_URL).
Runs are only recorded when a database is configured for 'job_agent run'.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistoryCmd,
}

var (
	historyDatabaseURL string
	historyLimit       int
)

func init() {
	historyCommand.Flags().StringVar(&historyDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	historyCommand.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to list")
	rootCmd.AddCommand(historyCommand)
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig("", func(c *config.Config) {
		c.DatabaseURL = historyDatabaseURL
	})
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return errors.WithHint(errors.New("no database configured"),
			"set DATABASE_URL or pass --db-url")
	}

	var runID uuid.UUID
	if len(args) == 1 {
		if runID, err = uuid.Parse(args[0]); err != nil {
			return errors.Wrapf(err, "invalid run id %q", args[0])
		}
	}

	ctx := cmd.Context()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()
	if err := database.EnsureSchema(ctx); err != nil {
		return err
	}

	out := printer(cmd)
	if runID == uuid.Nil {
		runs, err := database.ListRuns(ctx, historyLimit)
		if err != nil {
			return err
		}
		return printRuns(out, runs)
	}

	run, err := database.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return errors.Newf("run %s not found", runID)
	}
	postings, err := database.ListRunPostings(ctx, runID)
	if err != nil {
		return err
	}
	applications, err := database.ListRunApplications(ctx, runID)
	if err != nil {
		return err
	}
	return printRun(out, run, postings, applications)
}

func printRuns(out *observability.Printer, runs []db.RunSummary) error {
	if len(runs) == 0 {
		out.Println("No runs recorded yet.")
		return nil
	}

	data := pterm.TableData{{"ID", "Started", "Title", "Location", "Status", "Jobs", "Applied"}}
	for _, r := range runs {
		data = append(data, []string{
			r.ID.String(),
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.JobTitle,
			r.Location,
			r.Status,
			fmt.Sprintf("%d", r.Postings),
			fmt.Sprintf("%d", r.Applications),
		})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	out.Println(table)
	return nil
}

func printRun(out *observability.Printer, run *db.Run, postings []db.RunPosting, applications []db.RunApplication) error {
	out.Printf("Run %s (%s)\n", run.ID, run.Status)
	out.Printf("Title: %s  Location: %s  Resume: %s\n", run.JobTitle, run.Location, run.ResumePath)
	if len(run.Expanded) > 0 {
		out.Printf("Searched: %s\n", strings.Join(run.Expanded, ", "))
	}

	out.Heading("Ranked jobs")
	data := pterm.TableData{{"#", "Title", "Company", "Match", "URL"}}
	for _, p := range postings {
		match := "n/a"
		if p.MatchScore != nil {
			match = fmt.Sprintf("%.0f%%", *p.MatchScore*100)
		}
		data = append(data, []string{fmt.Sprintf("%d", p.Rank), p.Title, p.Company, match, p.URL})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	out.Println(table)

	out.Heading("Applications")
	if len(applications) == 0 {
		out.Println("None.")
		return nil
	}
	for _, a := range applications {
		line := fmt.Sprintf("%s  %s  %s", a.Status, a.URL, a.ResumePath)
		if a.Error != "" {
			line += "  (" + a.Error + ")"
		}
		out.Println(line)
	}
	return nil
}
