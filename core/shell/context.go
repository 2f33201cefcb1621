package shell

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/pipesh/pipesh/core/proc"
)

// CommandResolver maps a command name to a built-in handler, or reports
// that the name is not a built-in so the engine falls back to spawning an
// external process.
type CommandResolver func(name string) (proc.ProcessFunc, bool)

// Context carries the shell instance's ambient state: the process
// environment, the interpreter-local variable cache, the working
// directory, standard streams, and the built-in command resolver.
//
// A Context is mutated only by shell builtins running in the calling
// process, one pipeline at a time. The environment maps are internally
// locked so expansion snapshots never observe a torn write.
type Context struct {
	// Env is the process environment inherited by every spawned stage.
	Env *proc.MapEnv
	// Locals is the interpreter-local variable cache. It is consulted by
	// substitution but never exported to child processes.
	Locals *proc.MapEnv
	// FS is the filesystem built-in stages resolve paths against.
	FS afero.Fs
	// Stdio is where the first and last pipeline stages attach unless a
	// pipe takes their place.
	Stdio proc.Stdio
	// Resolve looks up built-in stage commands. Nil means every command
	// is external.
	Resolve CommandResolver
	// EnvFirst makes the environment shadow the locals cache during
	// substitution.
	EnvFirst bool

	dir string
}

// NewContext creates a context rooted at dir with a copy of environ.
func NewContext(environ []string, dir string, fs afero.Fs, stdio proc.Stdio) *Context {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Context{
		Env:    proc.NewMapEnvFromEnvList(environ),
		Locals: proc.NewMapEnv(),
		FS:     fs,
		Stdio:  stdio,
		dir:    dir,
	}
}

// Dir returns the shell's working directory.
func (c *Context) Dir() string {
	if c.dir != "" {
		return c.dir
	}
	wd, err := os.Getwd()
	if err != nil {
		return "/"
	}
	return wd
}

// Chdir changes the shell's working directory, verifying the target
// exists and is a directory. Relative targets resolve against the
// current directory; the stored path is always absolute and clean.
func (c *Context) Chdir(dir string) error {
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(c.Dir(), dir)
	}
	dir = filepath.Clean(dir)

	info, err := c.FS.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", dir)
	}
	c.dir = dir
	c.Env.Setenv("PWD", dir)
	return nil
}

// Environ returns a snapshot of the exported environment.
func (c *Context) Environ() []string {
	return c.Env.Environ()
}

// Getvar resolves a variable the way substitution does: locals first,
// then environment (or the reverse under EnvFirst).
func (c *Context) Getvar(name string) string {
	first, second := c.Locals, c.Env
	if c.EnvFirst {
		first, second = c.Env, c.Locals
	}
	if v, ok := first.LookupEnv(name); ok {
		return v
	}
	return second.Getenv(name)
}

// Expander returns a substitution engine bound to this context and the
// given pipeline runner.
func (c *Context) Expander(r Runner) *Expander {
	return &Expander{
		Locals:   c.Locals,
		Env:      c.Env,
		EnvFirst: c.EnvFirst,
		Runner:   r,
	}
}

// isolated returns a copy of the context with snapshotted variable state
// and the given streams. Shell builtins that land inside a multi-stage
// pipeline run against such a copy: their mutations die with the stage,
// exactly as they would in a forked child.
func (c *Context) isolated(stdio proc.Stdio) *Context {
	return &Context{
		Env:      c.Env.Snapshot(),
		Locals:   c.Locals.Snapshot(),
		FS:       c.FS,
		Stdio:    stdio,
		Resolve:  c.Resolve,
		EnvFirst: c.EnvFirst,
		dir:      c.dir,
	}
}
