package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/job-agent/internal/advice"
	"github.com/jonathan/job-agent/internal/apply"
	"github.com/jonathan/job-agent/internal/config"
	"github.com/jonathan/job-agent/internal/db"
	"github.com/jonathan/job-agent/internal/jobs"
	"github.com/jonathan/job-agent/internal/knowledge"
	"github.com/jonathan/job-agent/internal/llm"
	"github.com/jonathan/job-agent/internal/pipeline"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Search, rank and apply to jobs interactively",
	Long: `Runs the full job search: expand the desired title -> search -> rank against the resume -> select ->
tailoring advice -> open application pages -> skill suggestions.

Configuration can be loaded from a JSON file using --config. Command-line flags override config file values;
the environment (GOOGLE_API_KEY, LINKEDIN_EMAIL, LINKEDIN_PASSWORD, DATABASE_URL) fills the remaining gaps.
Inputs that are still missing are asked for on the console.`,
	RunE: runJobSearchCmd,
}

var (
	runConfigPath   string
	runResume       string
	runTitle        string
	runLocation     string
	runCatalog      string
	runExport       string
	runAPIKey       string
	runDatabaseURL  string
	runNoRAG        bool
	runChunkSize    int
	runChunkOverlap int
	runTopK         int
	runRPM          int
	runModel        string
	runSubmit       bool
	runLogin        bool
	runShowBrowser  bool
	runYes          bool
	runSelect       string
	runTable        bool
	runVerbose      bool
)

func init() {
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	runCommand.Flags().StringVarP(&runResume, "resume", "r", "", "Path to your resume (.pdf, .docx, .txt, .md)")
	runCommand.Flags().StringVarP(&runTitle, "title", "t", "", "Desired job title")
	runCommand.Flags().StringVarP(&runLocation, "location", "l", "", "Desired location")
	runCommand.Flags().StringVar(&runCatalog, "catalog", "", "Job catalog file (JSON or YAML); defaults to the built-in catalog")
	runCommand.Flags().StringVar(&runExport, "export", "", "Write the ranked jobs to this .xlsx file")
	runCommand.Flags().StringVar(&runSelect, "select", "", "Jobs to apply for (comma-separated numbers, or q); skips the prompt")
	runCommand.Flags().BoolVar(&runTable, "table", false, "Also show the ranked jobs as a table")

	runCommand.Flags().BoolVar(&runNoRAG, "no-rag", false, "Ask for tailoring suggestions directly instead of through the knowledge base")
	runCommand.Flags().IntVar(&runChunkSize, "chunk-size", 0, "Knowledge base chunk size in characters")
	runCommand.Flags().IntVar(&runChunkOverlap, "chunk-overlap", 0, "Knowledge base chunk overlap in characters")
	runCommand.Flags().IntVar(&runTopK, "top-k", 0, "Knowledge base chunks retrieved per question")
	runCommand.Flags().IntVar(&runRPM, "rpm", 0, "Model requests per minute")
	runCommand.Flags().StringVar(&runModel, "model", "", "Gemini model for tailoring advice and knowledge base answers")

	runCommand.Flags().BoolVar(&runSubmit, "submit", false, "Actually click the final submit button (default: simulate)")
	runCommand.Flags().BoolVar(&runLogin, "login", false, "Sign in to the job site before applying")
	runCommand.Flags().BoolVar(&runShowBrowser, "show-browser", false, "Show the Chrome window instead of running headless")
	runCommand.Flags().BoolVarP(&runYes, "yes", "y", false, "Non-interactive: always apply with the default resume")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed debug information")

	// API key can be passed as a flag, or read from env var GOOGLE_API_KEY / GEMINI_API_KEY
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GOOGLE_API_KEY env var)")

	// Database URL for run history
	runCommand.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL connection URL for run history (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(runCommand)
}

func runOverrides(cmd *cobra.Command) func(*config.Config) {
	return func(cfg *config.Config) {
		flags := cmd.Flags()
		if flags.Changed("resume") {
			cfg.Resume = runResume
		}
		if flags.Changed("title") {
			cfg.JobTitle = runTitle
		}
		if flags.Changed("location") {
			cfg.Location = runLocation
		}
		if flags.Changed("catalog") {
			cfg.Catalog = runCatalog
		}
		if flags.Changed("export") {
			cfg.Export = runExport
		}
		if flags.Changed("api-key") {
			cfg.APIKey = runAPIKey
		}
		if flags.Changed("db-url") {
			cfg.DatabaseURL = runDatabaseURL
		}
		if flags.Changed("no-rag") {
			cfg.NoRAG = runNoRAG
		}
		if flags.Changed("chunk-size") {
			cfg.ChunkSize = runChunkSize
		}
		if flags.Changed("chunk-overlap") {
			cfg.ChunkOverlap = config.Int(runChunkOverlap)
		}
		if flags.Changed("top-k") {
			cfg.TopK = runTopK
		}
		if flags.Changed("rpm") {
			cfg.RequestsPerMinute = runRPM
		}
		if flags.Changed("model") {
			cfg.Model = runModel
		}
		if flags.Changed("submit") {
			cfg.Submit = runSubmit
		}
		if flags.Changed("login") {
			cfg.Login = runLogin
		}
		if flags.Changed("show-browser") {
			cfg.ShowBrowser = runShowBrowser
		}
		if flags.Changed("yes") {
			cfg.NonInteractive = runYes
		}
		if flags.Changed("verbose") {
			cfg.Verbose = runVerbose
		}
	}
}

func runJobSearchCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(runConfigPath, runOverrides(cmd))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	logger := newLogger(cfg.Verbose)
	defer func() { _ = logger.Sync() }()

	if err := cfg.ResolvePassword(); err != nil {
		logger.Warn("keychain lookup failed", zap.Error(err))
	}

	postings, err := loadCatalog(cfg.Catalog)
	if err != nil {
		return err
	}

	client, err := newLLMClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	out := printer(cmd)
	deps := pipeline.Dependencies{
		Advisor:   advice.New(client, logger),
		Source:    jobs.NewCatalogSource(postings, logger),
		Knowledge: knowledgeBuilder(client, cfg, logger),
		Applier:   newSubmitter(cfg, logger),
		Console:   pipeline.NewLineConsole(cmd.InOrStdin(), cmd.OutOrStdout()),
		Printer:   out,
		Logger:    logger,
	}

	if cfg.DatabaseURL != "" {
		database, err := openHistory(ctx, cfg.DatabaseURL)
		if err != nil {
			out.Printf("Warning: Failed to connect to database: %v\n", err)
			out.Println("Continuing without run history...")
		} else {
			defer database.Close()
			deps.Recorder = database
		}
	}

	runner, err := pipeline.NewRunner(deps)
	if err != nil {
		return err
	}

	_, err = runner.Run(ctx, pipeline.RunOptions{
		ResumePath:     cfg.Resume,
		JobTitle:       cfg.JobTitle,
		Location:       cfg.Location,
		Selection:      runSelect,
		NoRAG:          cfg.NoRAG,
		NonInteractive: cfg.NonInteractive,
		ShowTable:      runTable,
		ExportPath:     cfg.Export,
		OnProgress: func(e pipeline.ProgressEvent) {
			logger.Debug("progress", zap.String("step", e.Step), zap.String("message", e.Message))
		},
	})
	return err
}

func knowledgeBuilder(client *llm.GeminiClient, cfg config.Config, logger *zap.Logger) pipeline.KnowledgeBuilder {
	return func(ctx context.Context, resume string, descriptions []string) (advice.Querier, error) {
		kb, err := knowledge.Build(ctx, client, client, resume, descriptions, knowledge.Options{
			ChunkSize:    cfg.ChunkSize,
			ChunkOverlap: cfg.Overlap(),
			TopK:         cfg.TopK,
			Logger:       logger,
		})
		if err != nil {
			return nil, err
		}
		return kb, nil
	}
}

func newSubmitter(cfg config.Config, logger *zap.Logger) *apply.Submitter {
	driver := &apply.ChromeDriver{Headless: !cfg.ShowBrowser, Logger: logger}
	return apply.NewSubmitter(driver, apply.DefaultRegistry(), apply.Options{
		SubmitApplications: cfg.Submit,
		Login:              cfg.Login,
		Credentials: apply.Credentials{
			Username: cfg.LinkedInEmail,
			Password: cfg.LinkedInPassword,
		},
		Logger: logger,
	})
}

// openHistory connects to the run history database and creates its tables
func openHistory(ctx context.Context, databaseURL string) (*db.DB, error) {
	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, errors.Wrap(err, "failed to prepare run history")
	}
	return database, nil
}
