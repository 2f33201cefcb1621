package shell

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipesh/pipesh/core/proc"
)

func newBuiltinContext() (*Context, *bytes.Buffer, *bytes.Buffer) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	ctx := NewContext(
		[]string{"HOME=/home/tester"},
		"/",
		afero.NewMemMapFs(),
		proc.NewStdio(strings.NewReader(""), stdout, stderr),
	)
	return ctx, stdout, stderr
}

func TestExit(t *testing.T) {
	ctx, _, _ := newBuiltinContext()

	code, err := Exit(ctx, []string{"exit"})
	var exitReq *ExitRequest
	require.ErrorAs(t, err, &exitReq)
	assert.Equal(t, 0, code)
	assert.Equal(t, 0, exitReq.Code)

	code, err = Exit(ctx, []string{"exit", "42"})
	require.ErrorAs(t, err, &exitReq)
	assert.Equal(t, 42, code)
	assert.Equal(t, 42, exitReq.Code)
}

func TestExit_badArgument(t *testing.T) {
	ctx, _, stderr := newBuiltinContext()

	code, err := Exit(ctx, []string{"exit", "nope"})
	var exitReq *ExitRequest
	require.ErrorAs(t, err, &exitReq, "a bad argument still ends the shell")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "numeric argument required")
}

func TestCd(t *testing.T) {
	ctx, _, stderr := newBuiltinContext()
	require.NoError(t, ctx.FS.MkdirAll("/srv/data", 0o755))
	require.NoError(t, ctx.FS.MkdirAll("/home/tester", 0o755))

	code, err := Cd(ctx, []string{"cd", "/srv/data"})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "/srv/data", ctx.Dir())
	assert.Equal(t, "/srv/data", ctx.Env.Getenv("PWD"))

	// No argument goes home.
	code, err = Cd(ctx, []string{"cd"})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "/home/tester", ctx.Dir())

	// Missing target fails without changing directory.
	code, err = Cd(ctx, []string{"cd", "/does/not/exist"})
	require.NoError(t, err)
	assert.Equal(t, 1, code)
	assert.Equal(t, "/home/tester", ctx.Dir())
	assert.NotEmpty(t, stderr.String())
}

func TestCd_relative(t *testing.T) {
	ctx, _, _ := newBuiltinContext()
	require.NoError(t, ctx.FS.MkdirAll("/srv/data/logs", 0o755))
	require.NoError(t, ctx.Chdir("/srv"))

	code, err := Cd(ctx, []string{"cd", "data"})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "/srv/data", ctx.Dir())
	assert.Equal(t, "/srv/data", ctx.Env.Getenv("PWD"))

	code, err = Cd(ctx, []string{"cd", "./logs"})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "/srv/data/logs", ctx.Dir())

	code, err = Cd(ctx, []string{"cd", "../.."})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "/srv", ctx.Dir())
}

func TestExport(t *testing.T) {
	ctx, _, _ := newBuiltinContext()

	code, err := Export(ctx, []string{"export", "A=1", "B=x=y"})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "1", ctx.Env.Getenv("A"))
	assert.Equal(t, "x=y", ctx.Env.Getenv("B"))
}

func TestExport_promotesLocal(t *testing.T) {
	ctx, _, _ := newBuiltinContext()
	ctx.Locals.Setenv("LOCAL", "cached")

	code, err := Export(ctx, []string{"export", "LOCAL"})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "cached", ctx.Env.Getenv("LOCAL"))
}

func TestSet(t *testing.T) {
	ctx, stdout, _ := newBuiltinContext()

	code, err := Set(ctx, []string{"set", "NAME=value"})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "value", ctx.Locals.Getenv("NAME"))
	assert.Equal(t, "", ctx.Env.Getenv("NAME"), "set must not export")

	// Listing.
	code, err = Set(ctx, []string{"set"})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "NAME=value\n", stdout.String())
}

func TestSet_rejectsBareWord(t *testing.T) {
	ctx, _, stderr := newBuiltinContext()

	code, err := Set(ctx, []string{"set", "NAME"})
	require.NoError(t, err)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "expected NAME=VALUE")
}

func TestUnset(t *testing.T) {
	ctx, _, _ := newBuiltinContext()
	ctx.Locals.Setenv("X", "local")
	ctx.Env.Setenv("X", "env")

	code, err := Unset(ctx, []string{"unset", "X"})
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	_, ok := ctx.Locals.LookupEnv("X")
	assert.False(t, ok)
	_, ok = ctx.Env.LookupEnv("X")
	assert.False(t, ok)
}

func TestHelp(t *testing.T) {
	ctx, stdout, _ := newBuiltinContext()

	code, err := Help(ctx, []string{"help"})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	for name := range AllBuiltins {
		assert.Contains(t, stdout.String(), name)
	}
}
