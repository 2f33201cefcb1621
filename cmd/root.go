package cmd

import (
	"errors"
	"io/fs"
	"log"

	"github.com/spf13/cobra"

	"github.com/pipesh/pipesh/core/config"
)

var cfgPath string

func loadConfig() (*config.Configuration, error) {
	configuration, err := config.Load(cfgPath)

	if errors.Is(err, fs.ErrNotExist) {
		// No config directory is fine; fall back to the defaults.
		return config.Default(), nil
	}
	if err != nil {
		log.Printf("couldn't load config: %v", err)
	}

	return configuration, err
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "pipesh",
	Short: "A small pipeline shell",
	Long: `pipesh is a small interactive shell: it expands variables and
backtick command substitutions, splits lines into pipe-separated stages,
and runs the stages as built-ins or external programs with their standard
streams connected.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Bare invocation starts the interactive shell.
		return runCmd.RunE(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", ".", "config path")
}
