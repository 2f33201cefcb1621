package commands

import (
	"bufio"
	"fmt"
	"io"
	"regexp"

	"github.com/fatih/color"

	"github.com/pipesh/pipesh/core/proc"
)

var matchColor = color.New(color.FgRed, color.Bold)

// Grep implements the POSIX grep command.
//
// https://pubs.opengroup.org/onlinepubs/9699919799.2018edition/
func Grep(p *proc.Proc) int {
	cmd := &SimpleCommand{
		Use:   "grep [-invw] [-A NUM] PATTERN [FILE]...",
		Short: "Search files for text matching a pattern.",
	}

	opts := cmd.Flags()
	invert := opts.Bool('v', "select lines not matching any of the specified patterns")
	ignoreCase := opts.Bool('i', "perform pattern matching without regard to case")
	showLineNumbers := opts.Bool('n', "show line numbers")
	wholeWord := opts.Bool('w', "match whole words only")
	afterContext := opts.Int('A', 0, "print NUM lines of trailing context after matches")

	printer := &ColorPrinter{}
	printer.Init(opts, p)

	return cmd.Run(p, func() int {
		args := opts.Args()
		if len(args) == 0 {
			fmt.Fprintf(p.Stderr(), "%s: missing argument PATTERN\n", p.Args()[0])
			return 2
		}

		pattern := args[0]
		if *wholeWord {
			// -w matches the pattern as a literal word, not a regex.
			pattern = `\b` + regexp.QuoteMeta(pattern) + `\b`
		}
		if *ignoreCase {
			pattern = "(?i)" + pattern
		}
		regex, err := regexp.Compile(pattern)
		if err != nil {
			fmt.Fprintf(p.Stderr(), "%s: %v\n", p.Args()[0], err)
			return 2
		}

		files := args[1:]
		showFileName := len(files) > 1

		matched := false
		err = eachFileOrStdin(p, files, func(name string, fd io.Reader) error {
			w := p.Stdout()

			writeLine := func(line string, lineNo int, isMatch bool) {
				if showFileName {
					fmt.Fprintf(w, "%s:", name)
				}
				if *showLineNumbers {
					fmt.Fprintf(w, "%d:", lineNo)
				}
				if isMatch && printer.ShouldColor() {
					line = regex.ReplaceAllStringFunc(line, func(m string) string {
						return matchColor.Sprint(m)
					})
				}
				fmt.Fprintln(w, line)
			}

			scanner := bufio.NewScanner(fd)
			lineNo := 1
			remaining := 0
			for scanner.Scan() {
				line := scanner.Text()
				isMatch := regex.MatchString(line) != *invert

				switch {
				case isMatch:
					matched = true
					writeLine(line, lineNo, true)
					remaining = *afterContext
				case remaining > 0:
					writeLine(line, lineNo, false)
					remaining--
				}
				lineNo++
			}

			return scanner.Err()
		})
		if err != nil {
			fmt.Fprintf(p.Stderr(), "%s: %v\n", p.Args()[0], err)
			return 2
		}

		if !matched {
			// POSIX: status 1 means no lines selected.
			return 1
		}
		return 0
	})
}

var _ proc.ProcessFunc = Grep

func init() {
	register("grep", Grep)
}
