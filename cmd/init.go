package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/pipesh/pipesh/core/config"
)

// initCmd writes a default configuration.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration into the config path.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		if err := config.Initialize(cfgPath); err != nil {
			return err
		}

		log.Printf("wrote %s/%s", cfgPath, config.ConfigurationName)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
