package cmd

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pipesh/pipesh/core/shell"
)

// evalCmd evaluates its arguments as one shell line and exits with the
// pipeline's aggregate code.
var evalCmd = &cobra.Command{
	Use:   "eval LINE...",
	Short: "Evaluate a single line and exit with its status.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		configuration, err := loadConfig()
		if err != nil {
			return err
		}

		sh := newShell(configuration)
		code, err := sh.Evaluate(strings.Join(args, " "))

		var exitReq *shell.ExitRequest
		if errors.As(err, &exitReq) {
			os.Exit(exitReq.Code)
		}
		if err != nil {
			return err
		}

		os.Exit(code)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(evalCmd)
}
