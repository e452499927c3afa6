// Package parser turns one input line into a validated Command.
package parser

// Builtin is a command the shell handles itself instead of launching.
type Builtin int

const (
	NotBuiltin Builtin = iota
	Jobs
	Fg
	Bg
	Cd
	Exit
)

var builtins = map[string]Builtin{
	"jobs": Jobs,
	"fg":   Fg,
	"bg":   Bg,
	"cd":   Cd,
	"exit": Exit,
}

func (b Builtin) String() string {
	for name, v := range builtins {
		if v == b {
			return name
		}
	}
	return ""
}

// Stage is one program to run with its own redirections. Empty paths mean
// the stream is inherited (or piped).
type Stage struct {
	Argv   []string
	Stdin  string
	Stdout string
	Stderr string
}

type Command struct {
	// Line is the trimmed input text, kept for job listings.
	Line       string
	Left       Stage
	Right      *Stage
	Background bool
	Builtin    Builtin
}

// Piped reports whether the command is a two-stage pipeline.
func (c *Command) Piped() bool {
	return c.Right != nil
}

// Args returns the left-side arguments after the program name.
func (c *Command) Args() []string {
	return c.Left.Argv[1:]
}
