// Package commands holds the built-in stage commands: the utilities the
// shell runs inside a pipeline without spawning an external program.
package commands

import (
	"fmt"
	"io"

	getopt "github.com/pborman/getopt/v2"

	"github.com/pipesh/pipesh/core/proc"
)

// AllCommands maps command names to their built-in implementations. It is
// populated once via init() in each command file and never mutated during
// a session.
var AllCommands = make(map[string]proc.ProcessFunc)

// register adds a built-in command under its name.
func register(name string, cmd proc.ProcessFunc) {
	if _, ok := AllCommands[name]; ok {
		panic(fmt.Sprintf("duplicate command registration: %q", name))
	}
	AllCommands[name] = cmd
}

// Lookup resolves a command name to its built-in handler. The second
// return is false when the name is not a built-in and the caller should
// fall back to external-process execution.
func Lookup(name string) (proc.ProcessFunc, bool) {
	fn, ok := AllCommands[name]
	return fn, ok
}

// SimpleCommand provides flag parsing and help output shared by the
// built-ins.
type SimpleCommand struct {
	// Use holds a one line usage string.
	Use string
	// Short holds a one line description of the command.
	Short string
	// ShowHelp sets whether help is displayed or not.
	// If this is non-nil when Run() is called, then the default help flag
	// isn't added.
	ShowHelp *bool

	flags *getopt.Set
}

// Flags gets the command's flag set.
func (s *SimpleCommand) Flags() *getopt.Set {
	if s.flags == nil {
		s.flags = getopt.New()
	}

	return s.flags
}

// PrintHelp writes help for the command to the given writer.
func (s *SimpleCommand) PrintHelp(w io.Writer) {
	fmt.Fprint(w, "usage: ")
	fmt.Fprintln(w, s.Use)
	fmt.Fprintln(w, s.Short)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	s.Flags().PrintOptions(w)
}

// Run parses flags and, on success, calls the callback.
func (s *SimpleCommand) Run(p *proc.Proc, callback func() int) int {
	opts := s.Flags()

	// Add help flag if not overridden.
	if s.ShowHelp == nil {
		s.ShowHelp = opts.BoolLong("help", 'h', "show this help and exit")
	}

	if err := opts.Getopt(p.Args(), nil); err != nil {
		fmt.Fprintf(p.Stderr(), "error: %s\n\n", err)
		s.PrintHelp(p.Stderr())
		return 1
	}

	if *s.ShowHelp {
		s.PrintHelp(p.Stdout())
		return 0
	}

	return callback()
}

// RunE is like Run for callbacks that report failure as an error. The
// error is written to stderr prefixed with the command name.
func (s *SimpleCommand) RunE(p *proc.Proc, callback func() error) int {
	return s.Run(p, func() int {
		if err := callback(); err != nil {
			fmt.Fprintf(p.Stderr(), "%s: %v\n", p.Args()[0], err)
			return 1
		}
		return 0
	})
}

// eachFileOrStdin invokes the callback once per named file, or once with
// the process stdin when no files are given.
func eachFileOrStdin(p *proc.Proc, files []string, callback func(name string, fd io.Reader) error) error {
	if len(files) == 0 {
		return callback("", p.Stdin())
	}

	for _, path := range files {
		fd, err := p.Open(path)
		if err != nil {
			return err
		}
		if err := callback(path, fd); err != nil {
			fd.Close()
			return err
		}
		fd.Close()
	}

	return nil
}
