package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/job-agent/internal/advice"
	"github.com/jonathan/job-agent/internal/config"
)

var expandCommand = &cobra.Command{
	Use:   "expand <job title>",
	Short: "List job titles related to the desired one",
	Args:  cobra.ExactArgs(1),
	RunE:  runExpandCmd,
}

var (
	expandConfigPath string
	expandAPIKey     string
	expandVerbose    bool
)

func init() {
	expandCommand.Flags().StringVar(&expandConfigPath, "config", "", "Path to config.json file")
	expandCommand.Flags().StringVar(&expandAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GOOGLE_API_KEY env var)")
	expandCommand.Flags().BoolVarP(&expandVerbose, "verbose", "v", false, "Print detailed debug information")
	rootCmd.AddCommand(expandCommand)
}

func runExpandCmd(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(expandConfigPath, func(c *config.Config) {
		if cmd.Flags().Changed("api-key") {
			c.APIKey = expandAPIKey
		}
		if cmd.Flags().Changed("verbose") {
			c.Verbose = expandVerbose
		}
	})
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Verbose)
	defer func() { _ = logger.Sync() }()

	client, err := newLLMClient(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	titles, err := advice.New(client, logger).ExpandTitles(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := printer(cmd)
	for _, title := range titles {
		out.Println(title)
	}
	return nil
}
