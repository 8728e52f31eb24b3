// Package main provides the entry point for the job search assistant CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "job_agent",
	Short: "Job search assistant",
	Long: `job_agent expands a desired job title into related roles, ranks matching postings against your resume,
suggests how to tailor the resume for the jobs you pick, opens their application pages in Chrome and
recommends skills to learn next.`,
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
