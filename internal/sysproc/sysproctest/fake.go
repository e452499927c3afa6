// Package sysproctest provides an in-memory sysproc.Sys for tests.
package sysproctest

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"

	"jobshell/internal/sysproc"
)

// ShellPgid is the process group the fake reports for the calling process.
const ShellPgid = 100

// FirstPid is the pid handed to the first spawned child.
const FirstPid = 1000

type Spawn struct {
	Path string
	Argv []string
	Pid  int
	Attr sysproc.ProcAttr
}

type Kill struct {
	Pid int
	Sig syscall.Signal
}

type event struct {
	pid int
	st  sysproc.Status
}

// Fake records every call and answers waits from a queue of scripted
// events. Blocking waits with nothing queued fail with ECHILD instead of
// hanging.
type Fake struct {
	// Missing names fail LookPath.
	Missing map[string]bool
	// ExecErr makes ForkExec fail for the named argv[0] after the fork.
	ExecErr map[string]error
	// ForkErr makes the nth ForkExec call (1-based) fail before any child exists.
	ForkErr map[int]error
	PipeErr error

	Spawns   []Spawn
	Setpgids [][2]int
	Kills    []Kill
	Waits    []int
	Pipes    []*os.File
	// TtyOwner is the group currently owning the terminal; TtyHistory
	// lists every handoff in order.
	TtyOwner   int
	TtyHistory []int
	Modes      *unix.Termios
	ModesSet   int

	nextPid int
	forks   int
	events  []event
}

func New() *Fake {
	return &Fake{
		Missing:  map[string]bool{},
		ExecErr:  map[string]error{},
		ForkErr:  map[int]error{},
		TtyOwner: ShellPgid,
		Modes:    &unix.Termios{},
		nextPid:  FirstPid,
	}
}

// NextPid is the pid the next successful spawn will get.
func (f *Fake) NextPid() int { return f.nextPid }

func (f *Fake) Exit(pid, code int) { f.queue(pid, sysproc.ExitStatus(code)) }

func (f *Fake) Signal(pid int, sig syscall.Signal) { f.queue(pid, sysproc.SignalStatus(sig)) }

func (f *Fake) Stop(pid int) { f.queue(pid, sysproc.StopStatus(syscall.SIGTSTP)) }

func (f *Fake) Continue(pid int) { f.queue(pid, sysproc.ContinueStatus()) }

func (f *Fake) queue(pid int, st sysproc.Status) {
	f.events = append(f.events, event{pid: pid, st: st})
}

// Pending reports how many scripted events are still queued.
func (f *Fake) Pending() int { return len(f.events) }

func (f *Fake) LookPath(file string) (string, error) {
	if f.Missing[file] {
		return "", &exec.Error{Name: file, Err: exec.ErrNotFound}
	}
	return "/usr/bin/" + file, nil
}

func (f *Fake) ForkExec(path string, argv []string, attr *sysproc.ProcAttr) (int, error) {
	f.forks++
	if err, ok := f.ForkErr[f.forks]; ok {
		return 0, err
	}
	if err, ok := f.ExecErr[argv[0]]; ok {
		return 0, err
	}
	pid := f.nextPid
	f.nextPid++
	pgid := attr.Pgid
	if pgid == 0 {
		pgid = pid
	}
	if attr.Foreground {
		f.setOwner(pgid)
	}
	f.Spawns = append(f.Spawns, Spawn{Path: path, Argv: argv, Pid: pid, Attr: *attr})
	return pid, nil
}

func (f *Fake) Pipe() (*os.File, *os.File, error) {
	if f.PipeErr != nil {
		return nil, nil, f.PipeErr
	}
	r, w, err := os.Pipe()
	if err != nil {
		return nil, nil, err
	}
	f.Pipes = append(f.Pipes, r, w)
	return r, w, nil
}

func (f *Fake) Setpgid(pid, pgid int) error {
	f.Setpgids = append(f.Setpgids, [2]int{pid, pgid})
	return nil
}

func (f *Fake) Getpgrp() int { return ShellPgid }

func (f *Fake) Wait4(pid, options int) (int, sysproc.Status, error) {
	f.Waits = append(f.Waits, pid)
	for i, ev := range f.events {
		if pid > 0 && ev.pid != pid {
			continue
		}
		if ev.st.Kind == sysproc.KindStopped && options&sysproc.WUNTRACED == 0 {
			continue
		}
		if ev.st.Kind == sysproc.KindContinued && options&sysproc.WCONTINUED == 0 {
			continue
		}
		f.events = append(f.events[:i], f.events[i+1:]...)
		return ev.pid, ev.st, nil
	}
	if options&sysproc.WNOHANG != 0 && len(f.Spawns) > 0 {
		return 0, sysproc.Status{}, nil
	}
	return -1, sysproc.Status{}, syscall.ECHILD
}

func (f *Fake) Kill(pid int, sig syscall.Signal) error {
	f.Kills = append(f.Kills, Kill{Pid: pid, Sig: sig})
	return nil
}

func (f *Fake) Tcsetpgrp(fd, pgid int) error {
	f.setOwner(pgid)
	return nil
}

func (f *Fake) setOwner(pgid int) {
	f.TtyOwner = pgid
	f.TtyHistory = append(f.TtyHistory, pgid)
}

func (f *Fake) Tcgetattr(fd int) (*unix.Termios, error) {
	t := *f.Modes
	return &t, nil
}

func (f *Fake) Tcsetattr(fd int, t *unix.Termios) error {
	if t == nil {
		return fmt.Errorf("tcsetattr: nil termios")
	}
	f.ModesSet++
	return nil
}

var _ sysproc.Sys = (*Fake)(nil)
