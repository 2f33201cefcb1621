package commands

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pipesh/pipesh/core/proc"
)

// Head implements the UNIX head command.
func Head(p *proc.Proc) int {
	cmd := &SimpleCommand{
		Use:   "head [-n NUM] [FILE]...",
		Short: "Print the first NUM lines of each FILE to standard output.",
	}

	lineCount := cmd.Flags().Int('n', 10, "print the first NUM lines instead of the first 10")

	return cmd.RunE(p, func() error {
		return eachFileOrStdin(p, cmd.Flags().Args(), func(name string, fd io.Reader) error {
			scanner := bufio.NewScanner(fd)
			for i := 0; i < *lineCount && scanner.Scan(); i++ {
				fmt.Fprintln(p.Stdout(), scanner.Text())
			}
			return scanner.Err()
		})
	})
}

var _ proc.ProcessFunc = Head

func init() {
	register("head", Head)
}
