package commands

import (
	"io"

	"github.com/pipesh/pipesh/core/proc"
)

// Cat implements the UNIX cat command.
func Cat(p *proc.Proc) int {
	cmd := &SimpleCommand{
		Use:   "cat [FILE]...",
		Short: "Concatenate FILE(s), or standard input, to standard output.",
	}

	return cmd.RunE(p, func() error {
		return eachFileOrStdin(p, cmd.Flags().Args(), func(name string, fd io.Reader) error {
			_, err := io.Copy(p.Stdout(), fd)
			return err
		})
	})
}

var _ proc.ProcessFunc = Cat

func init() {
	register("cat", Cat)
}
