package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/rfqpilot/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize rfqpilot configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to pick the AI provider, data directory and server settings, and writes them to .rfqpilot.yml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
