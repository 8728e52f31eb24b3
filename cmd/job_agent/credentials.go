package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jonathan/job-agent/internal/config"
	"github.com/jonathan/job-agent/internal/pipeline"
)

var credentialsCommand = &cobra.Command{
	Use:   "credentials",
	Short: "Manage the job site password stored in the OS keychain",
}

var credentialsSetCommand = &cobra.Command{
	Use:   "set",
	Short: "Store the job site password for an email",
	RunE:  runCredentialsSetCmd,
}

var credentialsDeleteCommand = &cobra.Command{
	Use:   "delete",
	Short: "Remove the stored job site password for an email",
	RunE:  runCredentialsDeleteCmd,
}

var (
	credentialsEmail    string
	credentialsPassword string
)

func init() {
	credentialsCommand.PersistentFlags().StringVar(&credentialsEmail, "email", "", "Job site login email (defaults to LINKEDIN_EMAIL env var)")
	credentialsSetCommand.Flags().StringVar(&credentialsPassword, "password", "", "Password (prompted for when omitted)")

	credentialsCommand.AddCommand(credentialsSetCommand, credentialsDeleteCommand)
	rootCmd.AddCommand(credentialsCommand)
}

func credentialsConfig() (config.Config, error) {
	return resolveConfig("", func(c *config.Config) {
		c.LinkedInEmail = credentialsEmail
	})
}

func runCredentialsSetCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := credentialsConfig()
	if err != nil {
		return err
	}
	if cfg.LinkedInEmail == "" {
		return errors.WithHint(errors.New("email is required"), "pass --email or set LINKEDIN_EMAIL")
	}

	password := credentialsPassword
	if password == "" {
		if password, err = readPassword(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
			return errors.Wrap(err, "failed to read password")
		}
	}

	if err := config.SetPassword(cfg.LinkedInEmail, password); err != nil {
		return err
	}
	printer(cmd).Printf("Stored password for %s in the keychain.\n", cfg.LinkedInEmail)
	return nil
}

// readPassword reads a password without echo when in is a terminal, or one line otherwise
//
//nolint:errcheck // writing the prompt to stdout
func readPassword(ctx context.Context, in io.Reader, out io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(out, "Password: ")
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return string(secret), nil
	}
	return pipeline.NewLineConsole(in, out).ReadLine(ctx, "Password: ")
}

func runCredentialsDeleteCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := credentialsConfig()
	if err != nil {
		return err
	}
	if cfg.LinkedInEmail == "" {
		return errors.WithHint(errors.New("email is required"), "pass --email or set LINKEDIN_EMAIL")
	}

	if err := config.DeletePassword(cfg.LinkedInEmail); err != nil {
		return errors.Wrapf(err, "failed to delete password for %s", cfg.LinkedInEmail)
	}
	printer(cmd).Printf("Removed password for %s from the keychain.\n", cfg.LinkedInEmail)
	return nil
}
