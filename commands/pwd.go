package commands

import (
	"fmt"

	"github.com/pipesh/pipesh/core/proc"
)

// Pwd implements the UNIX pwd command.
func Pwd(p *proc.Proc) int {
	cmd := &SimpleCommand{
		Use:   "pwd",
		Short: "Print the name of the current working directory.",
	}

	return cmd.Run(p, func() int {
		fmt.Fprintln(p.Stdout(), p.Getwd())
		return 0
	})
}

var _ proc.ProcessFunc = Pwd

func init() {
	register("pwd", Pwd)
}
