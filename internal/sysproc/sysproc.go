// Package sysproc is the narrow set of process, signal and terminal calls
// the shell makes against the operating system. Host implements it for
// real; sysproctest.Fake stands in for it in tests.
package sysproc

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// Options accepted by Sys.Wait4.
const (
	WNOHANG    = unix.WNOHANG
	WUNTRACED  = unix.WUNTRACED
	WCONTINUED = unix.WCONTINUED
)

// ProcAttr describes how a child is placed before its image is replaced.
type ProcAttr struct {
	// Files become the child's stdin, stdout and stderr.
	Files [3]*os.File
	// Pgid is the group the child joins. Zero makes the child the leader
	// of a new group.
	Pgid int
	// Foreground makes the child claim the controlling terminal for its
	// group before exec.
	Foreground bool
}

type Sys interface {
	LookPath(file string) (string, error)
	// ForkExec returns once the child has replaced its image, or with the
	// error that kept it from doing so.
	ForkExec(path string, argv []string, attr *ProcAttr) (int, error)
	Pipe() (r *os.File, w *os.File, err error)
	Setpgid(pid, pgid int) error
	Getpgrp() int
	Wait4(pid, options int) (int, Status, error)
	Kill(pid int, sig syscall.Signal) error
	Tcsetpgrp(fd, pgid int) error
	Tcgetattr(fd int) (*unix.Termios, error)
	Tcsetattr(fd int, t *unix.Termios) error
}
