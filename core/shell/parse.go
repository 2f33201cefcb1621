// Package shell implements the pipesh engine: tokenization, variable and
// command substitution, and pipeline execution.
package shell

import "strings"

// Stage is one command of a pipeline: the first token is the command name,
// the rest are its arguments. Stages are produced only from non-empty
// token runs.
type Stage []string

// Name returns the command name of the stage.
func (s Stage) Name() string {
	return s[0]
}

// Parse splits an already-substituted line into pipeline stages.
//
// The scan honors single and double quotes and the backslash escape: an
// escaped character is taken literally, including '|', quote characters
// and '$'. Whitespace outside quotes ends the current token; an unquoted,
// unescaped '|' ends the current stage.
//
// A line with no tokens parses to an empty pipeline. A '|' that would
// produce an empty stage (leading, trailing, or doubled) is a
// *SyntaxError, as is an unterminated quote.
func Parse(line string) ([]Stage, error) {
	var (
		stages  []Stage
		tokens  []string
		cur     strings.Builder
		inToken bool
		quote   rune
		escaped bool
		sawPipe bool
	)

	flushToken := func() {
		if inToken {
			tokens = append(tokens, cur.String())
			cur.Reset()
			inToken = false
		}
	}

	flushStage := func() error {
		flushToken()
		if len(tokens) == 0 {
			return &SyntaxError{Msg: "empty pipeline stage"}
		}
		stages = append(stages, Stage(tokens))
		tokens = nil
		return nil
	}

	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			inToken = true
			escaped = false

		case r == '\\' && quote != '\'':
			// Backslash escapes the next rune everywhere except inside
			// single quotes.
			escaped = true
			inToken = true

		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}

		case r == '\'' || r == '"':
			quote = r
			inToken = true

		case r == '|':
			sawPipe = true
			if err := flushStage(); err != nil {
				return nil, err
			}

		case r == ' ' || r == '\t':
			flushToken()

		default:
			cur.WriteRune(r)
			inToken = true
		}
	}

	if quote != 0 {
		return nil, &SyntaxError{Msg: "unterminated quote"}
	}
	if escaped {
		// A trailing backslash escapes nothing; keep it literal.
		cur.WriteRune('\\')
	}

	flushToken()
	if len(tokens) == 0 && !sawPipe {
		return stages, nil
	}
	if err := flushStage(); err != nil {
		return nil, err
	}

	return stages, nil
}
