package shell

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pipesh/pipesh/core/proc"
)

// Conventional exit codes for command resolution failures. The failure is
// data, not an error: it becomes that one stage's exit status and sibling
// stages still run.
const (
	ExitCommandNotFound = 127
	ExitNotExecutable   = 126
)

// ErrNotFound is the error resulting if a path search failed to find an
// executable file.
var ErrNotFound = exec.ErrNotFound

// Result is the outcome of running a pipeline: the exit code of the last
// stage and, in capture mode only, the last stage's standard output.
type Result struct {
	Code   int
	Output string
}

// Engine orchestrates pipeline execution: it allocates the inter-stage
// pipes, spawns one child per stage, wires and closes descriptors, waits
// for every child, and derives the aggregate status.
type Engine struct {
	Ctx *Context
}

// NewEngine creates an engine bound to the given shell context.
func NewEngine(ctx *Context) *Engine {
	return &Engine{Ctx: ctx}
}

// Run executes the pipeline with the first stage reading the context's
// stdin and the last stage writing the context's stdout.
//
// A single, unpiped stage naming a shell builtin runs in the calling
// process; this is the only path on which caller state can change and the
// only way exit can end the shell. Everything else gets one child per
// stage, built-in or external alike.
func (e *Engine) Run(stages []Stage) (Result, error) {
	if len(stages) == 0 {
		return Result{}, nil
	}

	if len(stages) == 1 {
		if b, ok := AllBuiltins[stages[0].Name()]; ok {
			code, err := b.Main(e.Ctx, stages[0])
			return Result{Code: code}, err
		}
	}

	return e.spawn(stages, false)
}

// Capture executes the pipeline like Run but connects the last stage's
// standard output to a pipe the engine drains into memory. Command
// substitution is its only caller. The in-process builtin shortcut does
// not apply here: a captured exit must not end the shell.
func (e *Engine) Capture(stages []Stage) (Result, error) {
	if len(stages) == 0 {
		return Result{}, nil
	}
	return e.spawn(stages, true)
}

// waitFunc blocks until a spawned stage terminates and returns its exit
// code. Every spawned stage gets exactly one.
type waitFunc func() int

func (e *Engine) spawn(stages []Stage, capture bool) (Result, error) {
	n := len(stages)

	// Descriptors the parent still owns. Anything left here on the abort
	// path gets closed so no child blocks forever on a half-open pipe.
	held := newFdSet()

	pipes := make([][2]*os.File, n-1)
	for i := range pipes {
		r, w, err := os.Pipe()
		if err != nil {
			held.closeAll()
			return Result{Code: 1}, &SetupError{Op: "pipe", Err: err}
		}
		pipes[i] = [2]*os.File{r, w}
		held.add(r)
		held.add(w)
	}

	var capR, capW *os.File
	if capture {
		r, w, err := os.Pipe()
		if err != nil {
			held.closeAll()
			return Result{Code: 1}, &SetupError{Op: "pipe", Err: err}
		}
		capR, capW = r, w
		held.add(r)
		held.add(w)
	}

	waits := make([]waitFunc, 0, n)

	abort := func(op string, err error) (Result, error) {
		held.closeAll()
		for _, wait := range waits {
			wait()
		}
		return Result{Code: 1}, &SetupError{Op: op, Err: err}
	}

	for i, stage := range stages {
		// Wire this stage's ends: read from the previous pipe (or the
		// context stdin), write to the next pipe (or the context stdout,
		// or the capture pipe).
		var in io.Reader = e.Ctx.Stdio.In
		var out io.Writer = e.Ctx.Stdio.Out
		var ownIn, ownOut *os.File
		if i > 0 {
			ownIn = pipes[i-1][0]
			in = ownIn
		}
		switch {
		case i < n-1:
			ownOut = pipes[i][1]
			out = ownOut
		case capture:
			ownOut = capW
			out = capW
		}

		if fn, ok := e.resolveStage(stage.Name()); ok {
			waits = append(waits, e.spawnBuiltin(fn, stage, held, in, out, ownIn, ownOut))
			continue
		}

		path, lookErr := lookPath(stage.Name(), e.Ctx.Env.Getenv("PATH"))
		if lookErr != nil {
			waits = append(waits, e.spawnUnresolvable(stage.Name(), lookErr, held, ownIn, ownOut))
			continue
		}

		env := e.Ctx.Environ()
		if env == nil {
			// nil Env would make os/exec fall back to the host process
			// environment.
			env = []string{}
		}
		cmd := &exec.Cmd{
			Path:   path,
			Args:   stage,
			Env:    env,
			Dir:    e.Ctx.Dir(),
			Stdin:  in,
			Stdout: out,
			Stderr: e.Ctx.Stdio.Err,
		}
		if err := cmd.Start(); err != nil {
			return abort("spawn "+stage.Name(), err)
		}

		// The child holds duplicates now; the parent's copies must go or
		// readers downstream never see EOF.
		held.close(ownIn)
		held.close(ownOut)

		waits = append(waits, func() int { return waitCode(cmd) })
	}

	var output bytes.Buffer
	if capture {
		// Drain before waiting: the reader sees EOF once every holder of
		// the write end has closed it.
		io.Copy(&output, capR)
		held.close(capR)
	}

	code := 0
	for _, wait := range waits {
		code = wait()
	}

	res := Result{Code: code}
	if capture {
		res.Output = output.String()
	}
	return res, nil
}

// resolveStage finds the built-in handler for a stage command. Shell
// builtins that land here (multi-stage or capture context) are wrapped to
// run against an isolated context copy: they execute and terminate the
// stage, and their mutations die with it.
func (e *Engine) resolveStage(name string) (proc.ProcessFunc, bool) {
	if e.Ctx.Resolve != nil {
		if fn, ok := e.Ctx.Resolve(name); ok {
			return fn, true
		}
	}
	if b, ok := AllBuiltins[name]; ok {
		return func(p *proc.Proc) int {
			iso := e.Ctx.isolated(proc.NewStdio(p.Stdin(), p.Stdout(), p.Stderr()))
			code, _ := b.Main(iso, p.Args())
			return code
		}, true
	}
	return nil, false
}

// spawnBuiltin runs a built-in as a child goroutine. The goroutine takes
// ownership of the stage's pipe ends and closes them when the built-in
// returns, mirroring process exit.
func (e *Engine) spawnBuiltin(fn proc.ProcessFunc, stage Stage, held *fdSet, in io.Reader, out io.Writer, ownIn, ownOut *os.File) waitFunc {
	p := proc.New(
		stage,
		e.Ctx.Env.Snapshot(),
		e.Ctx.Dir(),
		e.Ctx.FS,
		proc.NewStdio(in, out, e.Ctx.Stdio.Err),
	)

	held.transfer(ownIn)
	held.transfer(ownOut)

	done := make(chan int, 1)
	go func() {
		code := fn(p)
		if ownIn != nil {
			ownIn.Close()
		}
		if ownOut != nil {
			ownOut.Close()
		}
		done <- code
	}()

	return func() int { return <-done }
}

// spawnUnresolvable stands in for a stage whose command cannot be located
// or executed. It reports the failure on stderr and terminates with the
// conventional code, leaving sibling stages to run normally.
func (e *Engine) spawnUnresolvable(name string, lookErr error, held *fdSet, ownIn, ownOut *os.File) waitFunc {
	code := ExitCommandNotFound
	reason := "command not found"
	if errors.Is(lookErr, fs.ErrPermission) {
		code = ExitNotExecutable
		reason = "permission denied"
	}
	fmt.Fprintf(e.Ctx.Stdio.Err, "%s: %s\n", name, reason)

	held.close(ownIn)
	held.close(ownOut)

	return func() int { return code }
}

func waitCode(cmd *exec.Cmd) int {
	err := cmd.Wait()
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

// fdSet tracks pipe files the parent currently owns. Each file is closed
// at most once; transferring hands a file to a child goroutine that will
// close it instead.
type fdSet struct {
	open map[*os.File]bool
}

func newFdSet() *fdSet {
	return &fdSet{open: make(map[*os.File]bool)}
}

func (s *fdSet) add(f *os.File) {
	s.open[f] = true
}

func (s *fdSet) transfer(f *os.File) {
	if f != nil {
		delete(s.open, f)
	}
}

func (s *fdSet) close(f *os.File) {
	if f != nil && s.open[f] {
		f.Close()
		delete(s.open, f)
	}
}

func (s *fdSet) closeAll() {
	for f := range s.open {
		f.Close()
		delete(s.open, f)
	}
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	case err != nil:
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0111 != 0 {
		return nil
	}
	return fs.ErrPermission
}

// lookPath searches for an executable named file in the directories named
// by the PATH value. If file contains a slash, it is tried directly and
// the PATH is not consulted. A candidate that exists but is not executable
// is remembered so "found, not executable" is reported distinctly from
// "not found".
func lookPath(file, path string) (string, error) {
	if strings.Contains(file, "/") {
		if err := findExecutable(file); err != nil {
			return "", err
		}
		return file, nil
	}

	var permErr error
	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		switch err := findExecutable(candidate); {
		case err == nil:
			return candidate, nil
		case errors.Is(err, fs.ErrPermission):
			permErr = err
		}
	}
	if permErr != nil {
		return "", permErr
	}
	return "", ErrNotFound
}
