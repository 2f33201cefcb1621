// Package proctest runs built-in commands under a deterministic,
// in-memory context for testing, with an API similar to os/exec.
package proctest

import (
	"bytes"
	"io"

	"github.com/spf13/afero"

	"github.com/pipesh/pipesh/core/proc"
)

// DeterministicEnviron is the environment commands run with unless Env is
// set explicitly.
var DeterministicEnviron = []string{
	"HOME=/home/tester",
	"PATH=/usr/local/bin:/usr/bin:/bin",
	"USER=tester",
}

// Cmd is similar to exec.Cmd but runs a built-in ProcessFunc.
type Cmd struct {
	// Process is the built-in under test.
	Process proc.ProcessFunc
	// Argv holds the process arguments, the first entry is the name.
	Argv []string
	// Dir is the working directory reported to the process.
	Dir string
	// Env gives the environment in the form returned by Environ.
	// If nil, DeterministicEnviron is used.
	Env []string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	ExitStatus int

	// FS is the filesystem visible to the process. Defaults to an empty
	// in-memory filesystem; populate it before calling Run.
	FS afero.Fs

	// Setup, if set, is called with the Proc before the process runs.
	Setup func(p *proc.Proc) error
}

// Command creates a Cmd for the given built-in and arguments.
func Command(process proc.ProcessFunc, name string, arg ...string) *Cmd {
	return &Cmd{
		Process: process,
		Argv:    append([]string{name}, arg...),
		FS:      afero.NewMemMapFs(),
	}
}

// Run executes the built-in and records its exit status.
func (c *Cmd) Run() error {
	env := c.Env
	if env == nil {
		env = DeterministicEnviron
	}

	p := proc.New(
		c.Argv,
		proc.NewMapEnvFromEnvList(env),
		c.Dir,
		c.FS,
		proc.NewStdio(c.Stdin, c.Stdout, c.Stderr),
	)

	if c.Setup != nil {
		if err := c.Setup(p); err != nil {
			return err
		}
	}

	c.ExitStatus = c.Process(p)
	return nil
}

// Output runs the command and returns its standard output.
func (c *Cmd) Output() ([]byte, error) {
	buf := &bytes.Buffer{}
	c.Stdout = buf

	if err := c.Run(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CombinedOutput runs the command and returns its combined standard
// output and standard error.
func (c *Cmd) CombinedOutput() ([]byte, error) {
	buf := &bytes.Buffer{}
	c.Stdout = buf
	c.Stderr = buf

	if err := c.Run(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
