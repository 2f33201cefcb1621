package shell

import (
	"strings"

	"github.com/pipesh/pipesh/core/proc"
)

// Runner executes a parsed pipeline and returns the last stage's standard
// output. It is how the expander re-enters the engine for `...` command
// substitution.
type Runner interface {
	Capture(stages []Stage) (Result, error)
}

// Expander resolves $NAME, ${NAME} and `command` substitutions in a raw
// line before it is tokenized. Expansion happens first on purpose: a
// variable may expand to text containing whitespace or '|' that the parser
// then treats as structure.
type Expander struct {
	// Locals is the interpreter-local variable cache.
	Locals *proc.MapEnv
	// Env is the process environment.
	Env *proc.MapEnv
	// EnvFirst flips the resolution priority so the environment shadows
	// the locals cache. The default is locals first.
	EnvFirst bool
	// Runner runs `command` substitutions. If nil, backticks are a syntax
	// error.
	Runner Runner
}

// Expand returns raw with every unescaped substitution pattern resolved.
//
// Unresolved variables expand to the empty string. A `command` body is
// recursively expanded, parsed, and run in capture mode; exactly one
// trailing newline is stripped from its output, and a non-zero exit code
// does not abort the outer expansion.
//
// Variable reads happen against snapshots taken on entry, so a store
// mutated elsewhere can never tear a single expansion.
func (e *Expander) Expand(raw string) (string, error) {
	var locals, env *proc.MapEnv
	if e.Locals != nil {
		locals = e.Locals.Snapshot()
	} else {
		locals = proc.NewMapEnv()
	}
	if e.Env != nil {
		env = e.Env.Snapshot()
	} else {
		env = proc.NewMapEnv()
	}

	resolve := func(name string) string {
		first, second := locals, env
		if e.EnvFirst {
			first, second = env, locals
		}
		if v, ok := first.LookupEnv(name); ok {
			return v
		}
		if v, ok := second.LookupEnv(name); ok {
			return v
		}
		return ""
	}

	var out strings.Builder
	for i := 0; i < len(raw); {
		c := raw[i]
		switch {
		case c == '\\' && i+1 < len(raw) && (raw[i+1] == '$' || raw[i+1] == '`'):
			// \$ and \` suppress substitution and yield the literal
			// character.
			out.WriteByte(raw[i+1])
			i += 2

		case c == '\\' && i+1 < len(raw):
			// Other escapes are left for the parser.
			out.WriteByte(c)
			out.WriteByte(raw[i+1])
			i += 2

		case c == '`':
			end := findClosingBacktick(raw, i+1)
			if end < 0 {
				return "", &SyntaxError{Msg: "unterminated command substitution"}
			}
			captured, err := e.runSubstitution(raw[i+1 : end])
			if err != nil {
				return "", err
			}
			out.WriteString(captured)
			i = end + 1

		case c == '$':
			name, next := scanVarName(raw, i+1)
			if name == "" {
				// No name follows; '$' is literal.
				out.WriteByte(c)
				i++
				break
			}
			out.WriteString(resolve(name))
			i = next

		default:
			out.WriteByte(c)
			i++
		}
	}

	return out.String(), nil
}

// runSubstitution expands, parses, and runs a backtick body, returning its
// captured standard output with one trailing newline stripped.
func (e *Expander) runSubstitution(body string) (string, error) {
	if e.Runner == nil {
		return "", &SyntaxError{Msg: "command substitution is not available here"}
	}

	inner, err := e.Expand(body)
	if err != nil {
		return "", err
	}
	stages, err := Parse(inner)
	if err != nil {
		return "", err
	}
	if len(stages) == 0 {
		return "", nil
	}

	res, err := e.Runner.Capture(stages)
	if err != nil {
		return "", err
	}

	return strings.TrimSuffix(res.Output, "\n"), nil
}

// findClosingBacktick returns the index of the next unescaped backtick at
// or after start, or -1.
func findClosingBacktick(s string, start int) int {
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '`':
			return i
		}
	}
	return -1
}

// scanVarName reads a variable reference starting at s[start]. It handles
// both the braced ${NAME} and bare $NAME forms, longest match first, and
// returns the name plus the index of the first byte after the reference.
// An empty name means no valid reference starts there.
func scanVarName(s string, start int) (string, int) {
	if start < len(s) && s[start] == '{' {
		end := strings.IndexByte(s[start:], '}')
		if end < 0 {
			return "", start
		}
		name := s[start+1 : start+end]
		if name == "" || !isName(name) {
			return "", start
		}
		return name, start + end + 1
	}

	i := start
	for i < len(s) && isNameByte(s[i]) {
		i++
	}
	return s[start:i], i
}

func isName(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isNameByte(s[i]) {
			return false
		}
	}
	return true
}

func isNameByte(c byte) bool {
	return c == '_' ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z') ||
		('0' <= c && c <= '9')
}
