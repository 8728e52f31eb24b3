package main

import (
	"context"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/jonathan/job-agent/internal/jobs"
	"github.com/jonathan/job-agent/internal/observability"
	"github.com/jonathan/job-agent/internal/resume"
	"github.com/jonathan/job-agent/internal/similarity"
)

var scoreCommand = &cobra.Command{
	Use:   "score",
	Short: "Score a resume against a job description or the job catalog",
	Long: `Computes the TF-IDF cosine match between a resume and a job description file.
Without --description the resume is scored against every posting in the catalog
(built-in, or --catalog) and the ranked list is shown. No model calls are made.`,
	RunE: runScoreCmd,
}

var (
	scoreResume      string
	scoreDescription string
	scoreCatalog     string
	scoreTitle       string
)

func init() {
	scoreCommand.Flags().StringVarP(&scoreResume, "resume", "r", "", "Path to your resume (.pdf, .docx, .txt, .md)")
	scoreCommand.Flags().StringVarP(&scoreDescription, "description", "d", "", "Path to a job description text file")
	scoreCommand.Flags().StringVar(&scoreCatalog, "catalog", "", "Job catalog file (JSON or YAML)")
	scoreCommand.Flags().StringVarP(&scoreTitle, "title", "t", "", "Only score catalog postings matching this title")
	_ = scoreCommand.MarkFlagRequired("resume")
	rootCmd.AddCommand(scoreCommand)
}

func runScoreCmd(cmd *cobra.Command, _ []string) error {
	res, err := resume.Load(scoreResume)
	if err != nil {
		return err
	}
	out := printer(cmd)

	if scoreDescription != "" {
		data, err := os.ReadFile(scoreDescription)
		if err != nil {
			return errors.Wrapf(err, "failed to read job description %s", scoreDescription)
		}
		result := similarity.Score(res.Text, string(data))
		out.Printf("Match Score: %.0f%%\n", result.Score*100)
		if result.Score < similarity.LowMatchThreshold {
			out.Println(similarity.LowMatchTip)
		}
		if len(result.MissingSkills) > 0 {
			out.Printf("Words in the description missing from your resume: %s\n", strings.Join(result.MissingSkills, ", "))
		}
		return nil
	}

	return scoreCatalogPostings(cmd.Context(), out, res.Text)
}

func scoreCatalogPostings(ctx context.Context, out *observability.Printer, resumeText string) error {
	postings, err := loadCatalog(scoreCatalog)
	if err != nil {
		return err
	}
	if scoreTitle != "" {
		postings, err = jobs.NewCatalogSource(postings, nil).Search(ctx, []string{scoreTitle}, "")
		if err != nil {
			return err
		}
	}

	ranked := similarity.Analyze(resumeText, postings)
	if len(ranked) == 0 {
		out.Println("No jobs found.")
		return nil
	}
	return out.PrintJobTable(ranked)
}
