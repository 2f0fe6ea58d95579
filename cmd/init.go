package cmd

import (
	"github.com/spf13/cobra"

	"github.com/SimpleDioney/Amostras/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create amostras.yml with an interactive wizard",
	Long:  `Runs an interactive wizard for the WPPConnect server, the oversight contact and the timezone, and writes the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
