package commands

import (
	"fmt"
	"strconv"

	"github.com/pipesh/pipesh/core/proc"
)

// Exit is the pipeline-stage form of exit: it terminates only the stage
// it runs in, with the requested code. The exit that ends the shell is
// a shell builtin running in the shell's own process, reachable only as
// a single, unpiped command.
func Exit(p *proc.Proc) int {
	args := p.Args()
	if len(args) > 1 {
		code, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(p.Stderr(), "%s: %s: numeric argument required\n", args[0], args[1])
			return 2
		}
		return code
	}
	return 0
}

var _ proc.ProcessFunc = Exit

func init() {
	register("exit", Exit)
}
