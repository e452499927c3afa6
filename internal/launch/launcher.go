// Package launch starts one command, or two commands joined by a pipe, as
// a single process group.
package launch

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"go.uber.org/zap"

	"jobshell/internal/parser"
	"jobshell/internal/pgroup"
	"jobshell/internal/sysproc"
)

var (
	// ErrFork means no process was created for lack of resources.
	ErrFork = errors.New("fork failed")
	ErrPipe = errors.New("pipe failed")
)

// Exit statuses of stages that fail before their program starts.
const (
	StatusRedirectFailed = 1
	StatusNotExecutable  = 126
	StatusNotFound       = 127
)

// Proc is one launched stage. A stage that failed before exec has no pid;
// Status then holds the status it ended with.
type Proc struct {
	Argv   []string
	Pid    int
	Status sysproc.Status
}

func (p Proc) Started() bool { return p.Pid > 0 }

// Group is the result of a launch. Pgid is zero when no stage started.
type Group struct {
	Pgid  int
	Procs []Proc
}

func (g *Group) add(p Proc) {
	if p.Started() && g.Pgid == 0 {
		g.Pgid = p.Pid
	}
	g.Procs = append(g.Procs, p)
}

// Last returns the final stage, whose status stands for the group.
func (g *Group) Last() Proc {
	return g.Procs[len(g.Procs)-1]
}

type Launcher struct {
	sys   sysproc.Sys
	pg    *pgroup.Coordinator
	stdio [3]*os.File
	log   *zap.Logger
}

func New(s sysproc.Sys, pg *pgroup.Coordinator, log *zap.Logger) *Launcher {
	return &Launcher{
		sys:   s,
		pg:    pg,
		stdio: [3]*os.File{os.Stdin, os.Stdout, os.Stderr},
		log:   log,
	}
}

// Single starts one stage in a new process group headed by itself.
// Foreground stages claim the terminal before exec.
func (l *Launcher) Single(st parser.Stage, foreground bool) (*Group, error) {
	p, err := l.stage(st, l.stdio, 0, foreground)
	if err != nil {
		return nil, err
	}
	g := &Group{}
	g.add(p)
	return g, nil
}

// Pipeline starts cmd.Left with its stdout on a pipe and cmd.Right with
// its stdin on the other end, both in the left stage's group. An explicit
// redirection wins over the pipe on either side. Pipelines always run in
// the foreground.
func (l *Launcher) Pipeline(cmd *parser.Command) (*Group, error) {
	r, w, err := l.sys.Pipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPipe, err)
	}

	g := &Group{}
	left, err := l.stage(cmd.Left, [3]*os.File{l.stdio[0], w, l.stdio[2]}, 0, true)
	if err != nil {
		closePipe(r, w)
		return nil, err
	}
	g.add(left)

	right, err := l.stage(*cmd.Right, [3]*os.File{r, l.stdio[1], l.stdio[2]}, g.Pgid, true)
	closePipe(r, w)
	if err != nil {
		if left.Started() {
			l.reap(left.Pid)
		}
		return nil, err
	}
	g.add(right)
	return g, nil
}

func closePipe(r, w *os.File) {
	r.Close()
	w.Close()
}

// reap waits out a stage whose partner never started.
func (l *Launcher) reap(pid int) {
	for {
		_, _, err := l.sys.Wait4(pid, 0)
		if !errors.Is(err, syscall.EINTR) {
			return
		}
	}
}

// stage applies st's redirections on top of base and starts it. Failures
// that a forked child would have hit on its own come back as a Proc that
// never started; only a failed fork is returned as an error.
func (l *Launcher) stage(st parser.Stage, base [3]*os.File, pgid int, foreground bool) (Proc, error) {
	p := Proc{Argv: st.Argv}

	files, opened, err := redirect(st, base)
	defer closeAll(opened)
	if err != nil {
		l.log.Debug("redirection failed", zap.Strings("argv", st.Argv), zap.Error(err))
		p.Status = sysproc.ExitStatus(StatusRedirectFailed)
		return p, nil
	}

	path, err := l.sys.LookPath(st.Argv[0])
	if err != nil {
		l.log.Debug("command not found", zap.String("cmd", st.Argv[0]), zap.Error(err))
		p.Status = sysproc.ExitStatus(StatusNotFound)
		return p, nil
	}

	pid, err := l.sys.ForkExec(path, st.Argv, &sysproc.ProcAttr{
		Files:      files,
		Pgid:       pgid,
		Foreground: foreground && l.pg.Interactive(),
	})
	if err != nil {
		if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.ENOMEM) {
			return p, fmt.Errorf("%w: %s: %w", ErrFork, st.Argv[0], err)
		}
		l.log.Debug("exec failed", zap.String("path", path), zap.Error(err))
		p.Status = sysproc.ExitStatus(StatusNotExecutable)
		return p, nil
	}

	l.pg.Adopt(pid, pgid)
	p.Pid = pid
	return p, nil
}

func redirect(st parser.Stage, files [3]*os.File) ([3]*os.File, []*os.File, error) {
	var opened []*os.File
	targets := []struct {
		fd   int
		path string
		flag int
	}{
		{0, st.Stdin, os.O_RDONLY},
		{1, st.Stdout, os.O_WRONLY | os.O_CREATE | os.O_TRUNC},
		{2, st.Stderr, os.O_WRONLY | os.O_CREATE | os.O_TRUNC},
	}
	for _, t := range targets {
		if t.path == "" {
			continue
		}
		f, err := os.OpenFile(t.path, t.flag, 0o644)
		if err != nil {
			return files, opened, err
		}
		opened = append(opened, f)
		files[t.fd] = f
	}
	return files, opened, nil
}

func closeAll(files []*os.File) {
	for _, f := range files {
		f.Close()
	}
}
