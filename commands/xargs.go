package commands

import (
	"fmt"
	"io"
	"strings"

	shlex "github.com/anmitsu/go-shlex"

	"github.com/pipesh/pipesh/core/proc"
)

// Xargs implements the argument-building half of the UNIX xargs command:
// it tokenizes standard input with shell quoting rules, appends the tokens
// to the given command line, and writes the composed invocation per line
// of input. Hand the result to the shell to run it.
func Xargs(p *proc.Proc) int {
	cmd := &SimpleCommand{
		Use:   "xargs [CMD [ARG]...]",
		Short: "Build command lines from standard input.",
	}

	return cmd.RunE(p, func() error {
		input, err := io.ReadAll(p.Stdin())
		if err != nil {
			return err
		}

		tokens, err := shlex.Split(string(input), true)
		if err != nil {
			return err
		}

		argv := append([]string{}, cmd.Flags().Args()...)
		if len(argv) == 0 {
			argv = []string{"echo"}
		}
		argv = append(argv, tokens...)

		fmt.Fprintln(p.Stdout(), strings.Join(argv, " "))
		return nil
	})
}

var _ proc.ProcessFunc = Xargs

func init() {
	register("xargs", Xargs)
}
