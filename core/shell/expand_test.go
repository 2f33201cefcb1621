package shell

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipesh/pipesh/core/proc"
)

// fakeRunner records captured pipelines and plays back canned output.
type fakeRunner struct {
	output string
	code   int
	ran    [][]Stage
}

func (f *fakeRunner) Capture(stages []Stage) (Result, error) {
	f.ran = append(f.ran, stages)
	return Result{Code: f.code, Output: f.output}, nil
}

func newTestExpander(locals, env map[string]string) *Expander {
	l := proc.NewMapEnv()
	for k, v := range locals {
		l.Setenv(k, v)
	}
	e := proc.NewMapEnv()
	for k, v := range env {
		e.Setenv(k, v)
	}
	return &Expander{Locals: l, Env: e}
}

func TestExpand_variables(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		locals   map[string]string
		env      map[string]string
		expected string
	}{
		{
			name:     "bare name",
			raw:      "echo $GREETING",
			env:      map[string]string{"GREETING": "hi"},
			expected: "echo hi",
		},
		{
			name:     "braced name",
			raw:      "echo ${GREETING}s",
			env:      map[string]string{"GREETING": "hi"},
			expected: "echo his",
		},
		{
			name:     "bare name ends at non-word char",
			raw:      "echo $A/b",
			env:      map[string]string{"A": "x"},
			expected: "echo x/b",
		},
		{
			name:     "unresolved is empty not an error",
			raw:      "echo [$NOPE_UNSET]",
			expected: "echo []",
		},
		{
			name:     "escaped dollar is literal",
			raw:      `echo \$HOME`,
			env:      map[string]string{"HOME": "/root"},
			expected: "echo $HOME",
		},
		{
			name:     "lone dollar is literal",
			raw:      "echo 5$ 6",
			expected: "echo 5$ 6",
		},
		{
			name:     "unterminated brace left alone",
			raw:      "echo ${OOPS",
			env:      map[string]string{"OOPS": "x"},
			expected: "echo ${OOPS",
		},
		{
			name:     "expansion can inject structure",
			raw:      "$CMD",
			locals:   map[string]string{"CMD": "echo a | wc"},
			expected: "echo a | wc",
		},
		{
			name:     "other escapes pass through for the parser",
			raw:      `echo a\|b`,
			expected: `echo a\|b`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestExpander(tc.locals, tc.env)
			got, err := e.Expand(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestExpand_priority(t *testing.T) {
	locals := map[string]string{"NAME": "from-locals"}
	env := map[string]string{"NAME": "from-env"}

	t.Run("locals win by default", func(t *testing.T) {
		e := newTestExpander(locals, env)
		got, err := e.Expand("$NAME")
		require.NoError(t, err)
		assert.Equal(t, "from-locals", got)
	})

	t.Run("env wins under EnvFirst", func(t *testing.T) {
		e := newTestExpander(locals, env)
		e.EnvFirst = true
		got, err := e.Expand("$NAME")
		require.NoError(t, err)
		assert.Equal(t, "from-env", got)
	})
}

func TestExpand_commandSubstitution(t *testing.T) {
	t.Run("strips exactly one trailing newline", func(t *testing.T) {
		runner := &fakeRunner{output: "hi\n\n"}
		e := newTestExpander(nil, nil)
		e.Runner = runner

		got, err := e.Expand("a `echo hi` b")
		require.NoError(t, err)
		assert.Equal(t, "a hi\n b", got)

		require.Len(t, runner.ran, 1)
		assert.Equal(t, []Stage{{"echo", "hi"}}, runner.ran[0])
	})

	t.Run("non-zero inner exit does not abort", func(t *testing.T) {
		runner := &fakeRunner{output: "partial", code: 3}
		e := newTestExpander(nil, nil)
		e.Runner = runner

		got, err := e.Expand("x=`failing`")
		require.NoError(t, err)
		assert.Equal(t, "x=partial", got)
	})

	t.Run("body is expanded before parsing", func(t *testing.T) {
		runner := &fakeRunner{output: "done"}
		e := newTestExpander(nil, map[string]string{"ARG": "value"})
		e.Runner = runner

		_, err := e.Expand("`echo $ARG`")
		require.NoError(t, err)

		require.Len(t, runner.ran, 1)
		assert.Equal(t, []Stage{{"echo", "value"}}, runner.ran[0])
	})

	t.Run("escaped backtick is literal", func(t *testing.T) {
		runner := &fakeRunner{}
		e := newTestExpander(nil, nil)
		e.Runner = runner

		got, err := e.Expand("echo \\`hi\\`")
		require.NoError(t, err)
		assert.Equal(t, "echo `hi`", got)
		assert.Empty(t, runner.ran)
	})

	t.Run("unterminated backtick is a syntax error", func(t *testing.T) {
		e := newTestExpander(nil, nil)
		e.Runner = &fakeRunner{}

		_, err := e.Expand("echo `oops")
		var syntaxErr *SyntaxError
		require.ErrorAs(t, err, &syntaxErr)
	})

	t.Run("syntax error inside body propagates", func(t *testing.T) {
		e := newTestExpander(nil, nil)
		e.Runner = &fakeRunner{}

		_, err := e.Expand("echo `a | | b`")
		var syntaxErr *SyntaxError
		require.ErrorAs(t, err, &syntaxErr)
	})
}

func TestExpand_snapshotIsolation(t *testing.T) {
	// A long expansion must not observe concurrent writes to the store.
	env := proc.NewMapEnv()
	env.Setenv("X", "stable")
	e := &Expander{Env: env}

	var raw strings.Builder
	for i := 0; i < 64; i++ {
		raw.WriteString("$X ")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			env.Setenv("X", fmt.Sprintf("v%d", i))
		}
	}()

	got, err := e.Expand(raw.String())
	require.NoError(t, err)

	fields := strings.Fields(got)
	require.Len(t, fields, 64)
	for _, f := range fields[1:] {
		assert.Equal(t, fields[0], f, "expansion observed a torn store")
	}
	<-done
}
