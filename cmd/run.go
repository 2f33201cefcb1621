package cmd

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pipesh/pipesh/core"
	"github.com/pipesh/pipesh/core/config"
	"github.com/pipesh/pipesh/core/logger"
	"github.com/pipesh/pipesh/core/proc"
)

// runCmd starts the interactive shell.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the interactive shell.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		configuration, err := loadConfig()
		if err != nil {
			return err
		}

		shell := newShell(configuration)

		var sessionLog io.Closer
		if configuration.LogSessions {
			recorder, closer, err := logger.OpenSessionLog(
				filepath.Join(configuration.Dir(), config.LogsDirName))
			if err != nil {
				log.Printf("session log disabled: %v", err)
			} else {
				sessionLog = closer
				shell.SetRecorder(recorder)
			}
		}

		// os.Exit skips deferred calls, so flush the log first.
		code := shell.Run()
		if sessionLog != nil {
			sessionLog.Close()
		}
		os.Exit(code)
		return nil
	},
}

func newShell(configuration *config.Configuration) *core.Shell {
	wd, err := os.Getwd()
	if err != nil {
		wd = "/"
	}

	return core.NewShell(
		configuration,
		os.Environ(),
		wd,
		proc.NewStdio(os.Stdin, os.Stdout, os.Stderr),
	)
}

func init() {
	rootCmd.AddCommand(runCmd)
}
