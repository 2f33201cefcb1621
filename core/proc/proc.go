// Package proc defines the execution context handed to built-in commands.
//
// A Proc is the built-in's view of its "process": argument vector, an
// environment snapshot, a working directory, a filesystem, and the three
// standard streams. Built-ins must read only from Stdin and write only to
// Stdout/Stderr; the pipeline engine decides where those streams lead.
package proc

import (
	"io"
	"os"

	"github.com/spf13/afero"
	"golang.org/x/term"
)

// ProcessFunc is the entry point of a built-in command. It behaves like a
// process main: it consumes the Proc it is given and returns an exit code.
type ProcessFunc func(p *Proc) int

// Proc is the execution context for one pipeline stage running a built-in.
type Proc struct {
	// Argv holds the argument vector, Argv[0] is the command name.
	Argv []string
	// Env is the stage's private environment snapshot. Mutations are not
	// visible to sibling stages or to the shell, matching the isolation
	// of a real child process.
	Env *MapEnv
	// Dir is the working directory the stage was started in.
	Dir string
	// FS is the filesystem built-ins resolve paths against.
	FS afero.Fs

	stdio Stdio
}

// New creates a Proc for the given argv with the supplied streams.
func New(argv []string, env *MapEnv, dir string, fs afero.Fs, stdio Stdio) *Proc {
	if env == nil {
		env = NewMapEnv()
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Proc{
		Argv:  argv,
		Env:   env,
		Dir:   dir,
		FS:    fs,
		stdio: stdio,
	}
}

// Args returns the argument vector including the command name.
func (p *Proc) Args() []string {
	return p.Argv
}

func (p *Proc) Stdin() io.ReadCloser   { return p.stdio.In }
func (p *Proc) Stdout() io.WriteCloser { return p.stdio.Out }
func (p *Proc) Stderr() io.WriteCloser { return p.stdio.Err }

// Getenv returns the value of an environment variable, or "".
func (p *Proc) Getenv(key string) string {
	return p.Env.Getenv(key)
}

// Setenv sets a variable in the stage's private environment.
func (p *Proc) Setenv(key, value string) {
	p.Env.Setenv(key, value)
}

// Environ returns the stage's environment as "key=value" entries.
func (p *Proc) Environ() []string {
	return p.Env.Environ()
}

// Getwd returns the stage's working directory.
func (p *Proc) Getwd() string {
	if p.Dir != "" {
		return p.Dir
	}
	wd, err := os.Getwd()
	if err != nil {
		return "/"
	}
	return wd
}

// Open opens the named file through the stage's filesystem, resolving
// relative paths against the working directory.
func (p *Proc) Open(name string) (afero.File, error) {
	return p.FS.Open(p.resolve(name))
}

func (p *Proc) resolve(name string) string {
	if len(name) > 0 && name[0] == '/' {
		return name
	}
	if p.Dir == "" {
		return name
	}
	return p.Dir + "/" + name
}

// IsTerminal reports whether the stage's stdout is attached to a terminal.
// Pipe ends and in-memory buffers report false.
func (p *Proc) IsTerminal() bool {
	if f, ok := p.stdio.Out.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}
