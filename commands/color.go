package commands

import (
	getopt "github.com/pborman/getopt/v2"

	"github.com/pipesh/pipesh/core/proc"
)

const (
	colorAlways = "always"
	colorAuto   = "auto"
	colorNever  = "never"
)

// ColorPrinter decides whether a command should colorize its output based
// on a --color flag and whether stdout is a terminal.
type ColorPrinter struct {
	value *string
	p     *proc.Proc
}

// Init registers the --color flag on the given flag set.
func (c *ColorPrinter) Init(flags *getopt.Set, p *proc.Proc) {
	c.p = p
	c.value = flags.EnumLong(
		"color",
		rune(0), // No short flag.
		[]string{colorAlways, colorAuto, colorNever},
		colorAuto,
		"colorize the output (always|auto|never)")
}

func (c *ColorPrinter) ShouldColor() bool {
	switch {
	case *c.value == colorNever:
		return false
	case *c.value == colorAlways:
		return true
	default:
		return c.p.IsTerminal()
	}
}
