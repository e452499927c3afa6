package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
)

var (
	ErrEmpty               = errors.New("empty command")
	ErrMissingCommand      = errors.New("missing command")
	ErrMissingTarget       = errors.New("missing redirection target")
	ErrDuplicateRedirect   = errors.New("stream redirected twice")
	ErrBackgroundPipeline  = errors.New("pipelines cannot run in the background")
	ErrTooManyStages       = errors.New("only two-stage pipelines are supported")
	ErrMisplacedBackground = errors.New("& must end the command")
)

const (
	opIn   = "<"
	opOut  = ">"
	opErr  = "2>"
	opPipe = "|"
	opBg   = "&"
)

func isOperator(tok string) bool {
	switch tok {
	case opIn, opOut, opErr, opPipe, opBg:
		return true
	}
	return false
}

// token is one word of the line. Quoted words are never operators, so
// echo ">" prints > instead of redirecting.
type token struct {
	text string
	op   bool
}

// tokenize cuts line into words at unquoted blanks and lets shellquote
// remove the quoting from each word. Operators are recognised on the raw
// word, before any quote is stripped, and must stand alone.
func tokenize(line string) ([]token, error) {
	var tokens []token
	for _, raw := range rawWords(line) {
		if isOperator(raw) {
			tokens = append(tokens, token{text: raw, op: true})
			continue
		}
		words, err := shellquote.Split(raw)
		if err != nil {
			return nil, err
		}
		for _, w := range words {
			tokens = append(tokens, token{text: w})
		}
	}
	return tokens, nil
}

// rawWords splits at blanks outside quotes, keeping quotes and escapes in
// place. An unterminated quote runs to the end of the line and is left
// for shellquote to reject.
func rawWords(line string) []string {
	var (
		words []string
		cur   strings.Builder
		quote rune
		esc   bool
		open  bool
	)
	for _, r := range line {
		switch {
		case esc:
			esc = false
		case r == '\\' && quote != '\'':
			esc = true
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == ' ' || r == '\t' || r == '\n':
			if open {
				words = append(words, cur.String())
				cur.Reset()
				open = false
			}
			continue
		}
		cur.WriteRune(r)
		open = true
	}
	if open {
		words = append(words, cur.String())
	}
	return words
}

func Parse(line string) (*Command, error) {
	line = strings.TrimSpace(line)
	tokens, err := tokenize(line)
	if err != nil {
		return nil, fmt.Errorf("error parsing command: %w", err)
	}
	if len(tokens) == 0 {
		return nil, ErrEmpty
	}

	cmd := &Command{Line: line}
	cur := &cmd.Left
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i].text
		if !tokens[i].op {
			cur.Argv = append(cur.Argv, tok)
			continue
		}
		switch tok {
		case opPipe:
			if cmd.Right != nil {
				return nil, ErrTooManyStages
			}
			if len(cur.Argv) == 0 {
				return nil, ErrMissingCommand
			}
			cmd.Right = &Stage{}
			cur = cmd.Right
		case opBg:
			if i != len(tokens)-1 {
				return nil, ErrMisplacedBackground
			}
			cmd.Background = true
		case opIn, opOut, opErr:
			if i+1 >= len(tokens) || tokens[i+1].op {
				return nil, fmt.Errorf("%w after %s", ErrMissingTarget, tok)
			}
			i++
			if err := cur.redirect(tok, tokens[i].text); err != nil {
				return nil, err
			}
		}
	}

	if len(cmd.Left.Argv) == 0 || (cmd.Right != nil && len(cmd.Right.Argv) == 0) {
		return nil, ErrMissingCommand
	}
	if cmd.Right != nil && cmd.Background {
		return nil, ErrBackgroundPipeline
	}
	if cmd.Right == nil {
		cmd.Builtin = builtins[cmd.Left.Argv[0]]
	}
	return cmd, nil
}

func (s *Stage) redirect(op, path string) error {
	var dst *string
	switch op {
	case opIn:
		dst = &s.Stdin
	case opOut:
		dst = &s.Stdout
	default:
		dst = &s.Stderr
	}
	if *dst != "" {
		return fmt.Errorf("%w: %s %s", ErrDuplicateRedirect, op, path)
	}
	*dst = path
	return nil
}
