package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"go.uber.org/zap"
	"golang.org/x/term"

	"jobshell/internal/config"
	"jobshell/internal/jobs"
	"jobshell/internal/parser"
	"jobshell/internal/pgroup"
	"jobshell/internal/sysproc"
)

type Shell struct {
	config     *config.Config
	dispatcher *Dispatcher
	signals    *SignalPolicy
	out        io.Writer
	log        *zap.Logger
}

// New builds a shell on the real terminal. Job control is enabled only
// when stdin is a terminal.
func New(cfg *config.Config, log *zap.Logger) *Shell {
	tty := int(os.Stdin.Fd())
	host := sysproc.NewHost(tty)
	pg := pgroup.New(host, tty, term.IsTerminal(tty), log)
	return newShell(cfg, host, pg, os.Stdout, log)
}

func newShell(cfg *config.Config, s sysproc.Sys, pg *pgroup.Coordinator, out io.Writer, log *zap.Logger) *Shell {
	return &Shell{
		config:     cfg,
		dispatcher: NewDispatcher(s, pg, jobs.NewTable(cfg.MaxJobs), out, log),
		signals:    NewSignalPolicy(log),
		out:        out,
		log:        log,
	}
}

// Run reads and executes lines until EOF or exit. Finished background jobs
// are reported before each prompt.
func (s *Shell) Run() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.config.Prompt,
		HistoryFile:     s.config.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("error initializing readline: %w", err)
	}
	defer rl.Close()

	s.signals.Install()
	defer s.signals.Stop()

	for {
		s.dispatcher.Reap()

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := s.Execute(line); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
}

// RunLine executes a single line, reports any finished jobs and returns
// the line's exit code.
func (s *Shell) RunLine(line string) (int, error) {
	s.signals.Install()
	defer s.signals.Stop()

	err := s.Execute(line)
	s.dispatcher.Reap()
	if err != nil && !errors.Is(err, errExit) {
		return 1, err
	}
	return s.dispatcher.LastStatus().ExitCode(), nil
}

// Execute parses and runs one line. Malformed lines start nothing and
// print only a newline.
func (s *Shell) Execute(input string) error {
	cmd, err := parser.Parse(input)
	if errors.Is(err, parser.ErrEmpty) {
		return nil
	}
	if err != nil {
		s.log.Debug("rejected command", zap.String("line", input), zap.Error(err))
		fmt.Fprintln(s.out)
		return nil
	}

	if ok, err := s.executeBuiltin(cmd); ok {
		return err
	}
	return s.dispatcher.Dispatch(cmd)
}
