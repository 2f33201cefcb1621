package commands

import (
	"fmt"

	"github.com/pipesh/pipesh/core/proc"
)

// Env implements the POSIX env command.
//
// https://pubs.opengroup.org/onlinepubs/9699919799.2018edition/utilities/env.html
func Env(p *proc.Proc) int {
	cmd := &SimpleCommand{
		Use:   "env",
		Short: "Print the environment for command invocation.",
	}

	return cmd.Run(p, func() int {
		// Environ is already sorted.
		for _, envDef := range p.Environ() {
			fmt.Fprintln(p.Stdout(), envDef)
		}

		return 0
	})
}

var _ proc.ProcessFunc = Env

func init() {
	register("env", Env)
}
