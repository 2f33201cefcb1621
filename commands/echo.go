package commands

import (
	"fmt"

	"github.com/pipesh/pipesh/core/proc"
)

// Echo implements a limited echo command.
func Echo(p *proc.Proc) int {
	cmd := &SimpleCommand{
		Use:   "echo [-n] [ARG] ...",
		Short: "Display a line of text.",
	}

	noNewline := cmd.Flags().Bool('n', "do not output the trailing newline")

	return cmd.Run(p, func() int {
		w := p.Stdout()
		for i, arg := range cmd.Flags().Args() {
			if i > 0 {
				fmt.Fprint(w, " ")
			}
			fmt.Fprint(w, arg)
		}

		if !*noNewline {
			fmt.Fprintln(w)
		}

		return 0
	})
}

var _ proc.ProcessFunc = Echo

func init() {
	register("echo", Echo)
}
