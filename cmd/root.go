package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "amostras",
	Short: "WhatsApp bot that tracks product samples handed to sales agents",
	Long: `Amostras runs the sample-tracking chat bot: stewards register the samples
they hand to sales agents, agents report what happened with each customer,
and a daily sweep reminds whoever is late. Admins pull spreadsheet reports
from the chat or from this CLI.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is fine; real environments set variables directly.
		_ = godotenv.Load(".env")
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "amostras.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
