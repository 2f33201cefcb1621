// Package core wires the pipesh engine into an interactive shell: it owns
// the read loop, the prompt, session logging, and environment setup.
package core

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/abiosoft/readline"
	"github.com/spf13/afero"

	"github.com/pipesh/pipesh/commands"
	"github.com/pipesh/pipesh/core/config"
	"github.com/pipesh/pipesh/core/logger"
	"github.com/pipesh/pipesh/core/proc"
	"github.com/pipesh/pipesh/core/shell"
)

const (
	EnvHome     = "HOME"
	EnvPWD      = "PWD"
	EnvPath     = "PATH"
	EnvPrompt   = "PS1"
	EnvHostname = "HOSTNAME"
	EnvUser     = "USER"

	DefaultPrompt = `\u@\h:\w\$ `
)

// Shell drives the read/substitute/parse/execute/print cycle around the
// engine.
type Shell struct {
	Ctx    *shell.Context
	Engine *shell.Engine

	config   *config.Configuration
	recorder logger.Recorder
	toClose  listCloser
}

// NewShell creates a shell reading and writing the given streams, seeded
// with a copy of environ and rooted at dir.
func NewShell(cfg *config.Configuration, environ []string, dir string, stdio proc.Stdio) *Shell {
	if cfg == nil {
		cfg = config.Default()
	}

	ctx := shell.NewContext(environ, dir, afero.NewOsFs(), stdio)
	ctx.Resolve = commands.Lookup
	ctx.EnvFirst = cfg.EnvFirst

	s := &Shell{
		Ctx:      ctx,
		Engine:   shell.NewEngine(ctx),
		config:   cfg,
		recorder: logger.NopRecorder{},
	}
	s.initEnv()

	return s
}

// initEnv fills in the variables a login shell would provide, without
// clobbering anything inherited from the caller.
func (s *Shell) initEnv() {
	env := s.Ctx.Env

	if env.Getenv(EnvPath) == "" {
		env.Setenv(EnvPath, s.config.Path)
	}
	if env.Getenv(EnvPrompt) == "" {
		env.Setenv(EnvPrompt, s.config.Prompt)
	}
	if env.Getenv(EnvHostname) == "" {
		if host, err := os.Hostname(); err == nil {
			env.Setenv(EnvHostname, host)
		}
	}
	for k, v := range s.config.Env {
		env.Setenv(k, v)
	}
	env.Setenv(EnvPWD, s.Ctx.Dir())
}

// SetRecorder directs session events to the given recorder.
func (s *Shell) SetRecorder(r logger.Recorder) {
	if r == nil {
		r = logger.NopRecorder{}
	}
	s.recorder = r
}

// Evaluate runs one raw input line through substitution, parsing, and
// pipeline execution and returns the aggregate exit code.
//
// An *ExitRequest error means the exit builtin ran as a single, unpiped
// stage and the session should end; syntax and setup errors leave the
// session running.
func (s *Shell) Evaluate(line string) (int, error) {
	start := time.Now()
	code, err := s.evaluate(line)

	ev := logger.Event{
		Line:           line,
		ExitCode:       code,
		DurationMillis: time.Since(start).Milliseconds(),
	}
	if err != nil {
		ev.Err = err.Error()
	}
	if recordErr := s.recorder.Record(ev); recordErr != nil {
		log.Printf("session log: %v", recordErr)
	}

	return code, err
}

func (s *Shell) evaluate(line string) (int, error) {
	expanded, err := s.Ctx.Expander(s.Engine).Expand(line)
	if err != nil {
		return 1, err
	}

	stages, err := shell.Parse(expanded)
	if err != nil {
		return 1, err
	}
	if len(stages) == 0 {
		return 0, nil
	}

	res, err := s.Engine.Run(stages)
	return res.Code, err
}

// Prompt renders PS1. Supported escapes: \u user, \h hostname, \w working
// directory with the home prefix collapsed to ~, and \$ which renders #
// for root.
func (s *Shell) Prompt() string {
	prompt := s.Ctx.Env.Getenv(EnvPrompt)
	if prompt == "" {
		prompt = DefaultPrompt
	}
	prompt = strings.ReplaceAll(prompt, `\u`, s.Ctx.Env.Getenv(EnvUser))
	prompt = strings.ReplaceAll(prompt, `\h`, s.Ctx.Env.Getenv(EnvHostname))

	pwd := s.Ctx.Dir()
	if home := s.Ctx.Env.Getenv(EnvHome); home != "" && strings.HasPrefix(pwd, home) {
		pwd = "~" + strings.TrimPrefix(pwd, home)
	}
	prompt = strings.ReplaceAll(prompt, `\w`, pwd)

	if os.Geteuid() == 0 {
		prompt = strings.ReplaceAll(prompt, `\$`, "#")
	} else {
		prompt = strings.ReplaceAll(prompt, `\$`, "$")
	}

	return prompt
}

// Run is the interactive read loop. It returns the exit code requested by
// the exit builtin, or 0 on EOF.
func (s *Shell) Run() int {
	cfg := &readline.Config{
		Stdin:       readline.NewCancelableStdin(s.Ctx.Stdio.In),
		Stdout:      s.Ctx.Stdio.Out,
		Stderr:      s.Ctx.Stdio.Err,
		HistoryFile: s.config.HistoryFile,
	}
	if err := cfg.Init(); err != nil {
		fmt.Fprintf(s.Ctx.Stdio.Err, "pipesh: %v\n", err)
		return 1
	}

	rl, err := readline.NewEx(cfg)
	if err != nil {
		fmt.Fprintf(s.Ctx.Stdio.Err, "pipesh: %v\n", err)
		return 1
	}
	s.toClose = append(s.toClose, rl)
	defer s.Close()

	for {
		rl.SetPrompt(s.Prompt())
		line, err := rl.Readline()

		switch {
		case err == io.EOF:
			return 0 // Input closed, quit.

		case err == readline.ErrInterrupt:
			continue // Abandon the current line.

		case err != nil:
			log.Printf("readline: %v", err)
			return 1

		case strings.TrimSpace(line) == "":
			continue
		}

		code, err := s.Evaluate(line)

		var exitReq *shell.ExitRequest
		switch {
		case errors.As(err, &exitReq):
			return exitReq.Code

		case err != nil:
			fmt.Fprintf(s.Ctx.Stdio.Err, "pipesh: %v\n", err)

		case code != 0 && s.config.EchoStatus:
			fmt.Fprintf(s.Ctx.Stdio.Out, "exit code: %d\n", code)
		}
	}
}

// Close releases resources held by the read loop.
func (s *Shell) Close() error {
	return s.toClose.Close()
}

type listCloser []io.Closer

func (lc listCloser) Close() error {
	var lastErr error
	for _, v := range lc {
		if err := v.Close(); err != nil {
			lastErr = err
		}
	}

	return lastErr
}
