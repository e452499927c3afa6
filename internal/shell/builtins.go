package shell

import (
	"errors"
	"fmt"
	"os"

	"jobshell/internal/parser"
)

var errExit = errors.New("exit")

// executeBuiltin runs the builtins that belong to the shell rather than to
// job control.
func (s *Shell) executeBuiltin(cmd *parser.Command) (bool, error) {
	switch cmd.Builtin {
	case parser.Cd:
		return true, s.changeDirectory(cmd.Args())
	case parser.Exit:
		return true, errExit
	default:
		return false, nil
	}
}

func (s *Shell) changeDirectory(args []string) error {
	var dir string
	if len(args) == 0 {
		dir = s.config.HomeDir
	} else {
		dir = args[0]
	}

	if err := os.Chdir(dir); err != nil {
		return fmt.Errorf("cd: %w", err)
	}
	return nil
}
