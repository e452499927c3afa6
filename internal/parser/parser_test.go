package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		line string
		want *Command
	}{
		{
			name: "simple",
			line: "ls -l /tmp",
			want: &Command{Line: "ls -l /tmp", Left: Stage{Argv: []string{"ls", "-l", "/tmp"}}},
		},
		{
			name: "redirections",
			line: "sort < in.txt > out.txt 2> err.txt",
			want: &Command{
				Line: "sort < in.txt > out.txt 2> err.txt",
				Left: Stage{Argv: []string{"sort"}, Stdin: "in.txt", Stdout: "out.txt", Stderr: "err.txt"},
			},
		},
		{
			name: "background keeps the full line",
			line: "  sleep 1 &  ",
			want: &Command{Line: "sleep 1 &", Left: Stage{Argv: []string{"sleep", "1"}}, Background: true},
		},
		{
			name: "pipeline with per-side redirections",
			line: "cat a > left.txt | wc -l < b",
			want: &Command{
				Line:  "cat a > left.txt | wc -l < b",
				Left:  Stage{Argv: []string{"cat", "a"}, Stdout: "left.txt"},
				Right: &Stage{Argv: []string{"wc", "-l"}, Stdin: "b"},
			},
		},
		{
			name: "quoted arguments",
			line: `echo "hello world" 'x y'`,
			want: &Command{Line: `echo "hello world" 'x y'`, Left: Stage{Argv: []string{"echo", "hello world", "x y"}}},
		},
		{
			name: "quoted operators are arguments",
			line: `echo ">" '|' \& "2>" x`,
			want: &Command{
				Line: `echo ">" '|' \& "2>" x`,
				Left: Stage{Argv: []string{"echo", ">", "|", "&", "2>", "x"}},
			},
		},
		{
			name: "quoted redirection target",
			line: `cat < "my notes.txt" | grep 'a b'`,
			want: &Command{
				Line:  `cat < "my notes.txt" | grep 'a b'`,
				Left:  Stage{Argv: []string{"cat"}, Stdin: "my notes.txt"},
				Right: &Stage{Argv: []string{"grep", "a b"}},
			},
		},
		{
			name: "builtin resolved once",
			line: "fg %2",
			want: &Command{Line: "fg %2", Left: Stage{Argv: []string{"fg", "%2"}}, Builtin: Fg},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		line string
		err  error
	}{
		{"   ", ErrEmpty},
		{"| wc", ErrMissingCommand},
		{"ls |", ErrMissingCommand},
		{"ls >", ErrMissingTarget},
		{"ls > | wc", ErrMissingTarget},
		{"ls > a > b", ErrDuplicateRedirect},
		{"ls | wc &", ErrBackgroundPipeline},
		{"a | b | c", ErrTooManyStages},
		{"sleep & 1", ErrMisplacedBackground},
		{"> out", ErrMissingCommand},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, err := Parse(tt.line)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestQuotedOperatorIsRedirectTarget(t *testing.T) {
	cmd, err := Parse(`ls > "|"`)
	require.NoError(t, err)
	assert.Equal(t, "|", cmd.Left.Stdout)
	assert.False(t, cmd.Piped())
}

func TestParseUnterminatedQuote(t *testing.T) {
	_, err := Parse(`echo "oops`)
	assert.Error(t, err)
}

func TestBuiltinOnlyOnSingleStage(t *testing.T) {
	cmd, err := Parse("jobs | cat")
	require.NoError(t, err)
	assert.Equal(t, NotBuiltin, cmd.Builtin)
	assert.True(t, cmd.Piped())

	cmd, err = Parse("jobs")
	require.NoError(t, err)
	assert.Equal(t, Jobs, cmd.Builtin)
	assert.Equal(t, "jobs", cmd.Builtin.String())
	assert.Empty(t, cmd.Args())
}
