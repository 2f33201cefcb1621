package shell

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// AllBuiltins holds the shell builtins: commands that must run in the
// shell's own process because they mutate caller state (the working
// directory, the environment, the locals cache, or the lifetime of the
// shell itself). The engine only takes this path for a single, unpiped
// stage; inside a pipeline these run isolated like any other child.
var AllBuiltins = make(map[string]ShellBuiltin)

// ShellBuiltin is a command executed in the calling process.
type ShellBuiltin interface {
	Main(ctx *Context, args []string) (int, error)
}

// ShellBuiltinFunc adapts a function to the ShellBuiltin interface.
type ShellBuiltinFunc func(ctx *Context, args []string) (int, error)

func (f ShellBuiltinFunc) Main(ctx *Context, args []string) (int, error) {
	return f(ctx, args)
}

var _ ShellBuiltin = (ShellBuiltinFunc)(nil)

// Exit terminates the shell. It never terminates the process directly;
// it hands the loop an *ExitRequest so only the real, unpiped invocation
// can end the session.
func Exit(ctx *Context, args []string) (int, error) {
	code := 0
	if len(args) > 1 {
		parsed, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(ctx.Stdio.Err, "%s: %s: numeric argument required\n", args[0], args[1])
			return 2, &ExitRequest{Code: 2}
		}
		code = parsed
	}
	return code, &ExitRequest{Code: code}
}

// Cd changes the shell's working directory.
func Cd(ctx *Context, args []string) (int, error) {
	switch len(args) {
	case 1:
		args = append(args, ctx.Env.Getenv("HOME"))
		fallthrough
	case 2:
		if err := ctx.Chdir(args[1]); err != nil {
			fmt.Fprintf(ctx.Stdio.Err, "%s: %v\n", args[0], err)
			return 1, nil
		}
	default:
		fmt.Fprintf(ctx.Stdio.Err, "%s: too many arguments\n", args[0])
		return 1, nil
	}
	return 0, nil
}

// Export moves values into the process environment. Arguments are either
// NAME=VALUE assignments or bare NAMEs promoting an existing variable.
func Export(ctx *Context, args []string) (int, error) {
	for _, arg := range args[1:] {
		name, value, assigned := strings.Cut(arg, "=")
		if name == "" {
			fmt.Fprintf(ctx.Stdio.Err, "%s: %q: not a valid identifier\n", args[0], arg)
			return 1, nil
		}
		if !assigned {
			// Bare NAME promotes whatever substitution would see.
			value = ctx.Getvar(name)
		}
		ctx.Env.Setenv(name, value)
	}
	return 0, nil
}

// Set assigns interpreter-local variables. Without arguments it lists
// the locals, sorted.
func Set(ctx *Context, args []string) (int, error) {
	if len(args) == 1 {
		for _, entry := range ctx.Locals.Environ() {
			fmt.Fprintln(ctx.Stdio.Out, entry)
		}
		return 0, nil
	}

	for _, arg := range args[1:] {
		name, value, assigned := strings.Cut(arg, "=")
		if name == "" || !assigned {
			fmt.Fprintf(ctx.Stdio.Err, "%s: %q: expected NAME=VALUE\n", args[0], arg)
			return 1, nil
		}
		ctx.Locals.Setenv(name, value)
	}
	return 0, nil
}

// Unset removes variables from the locals cache and the environment.
func Unset(ctx *Context, args []string) (int, error) {
	for _, name := range args[1:] {
		ctx.Locals.Unsetenv(name)
		ctx.Env.Unsetenv(name)
	}
	return 0, nil
}

// Help lists the shell builtins.
func Help(ctx *Context, args []string) (int, error) {
	w := ctx.Stdio.Out
	fmt.Fprintln(w, "These commands are defined internally and run in the shell itself.")
	fmt.Fprintln(w)

	var names []string
	for k := range AllBuiltins {
		names = append(names, k)
	}
	sort.Strings(names)

	fmt.Fprintln(w, strings.Join(names, "\n"))
	return 0, nil
}

func init() {
	AllBuiltins["exit"] = ShellBuiltinFunc(Exit)
	AllBuiltins["cd"] = ShellBuiltinFunc(Cd)
	AllBuiltins["export"] = ShellBuiltinFunc(Export)
	AllBuiltins["set"] = ShellBuiltinFunc(Set)
	AllBuiltins["unset"] = ShellBuiltinFunc(Unset)
	AllBuiltins["help"] = ShellBuiltinFunc(Help)
}
