//go:build linux || darwin

package sysproc

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// Host implements Sys against the running kernel. Tty is the descriptor
// of the controlling terminal in this process.
type Host struct {
	tty int
}

func NewHost(tty int) *Host {
	return &Host{tty: tty}
}

func (h *Host) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (h *Host) ForkExec(path string, argv []string, attr *ProcAttr) (int, error) {
	files := make([]uintptr, len(attr.Files))
	for i, f := range attr.Files {
		files[i] = f.Fd()
	}
	return syscall.ForkExec(path, argv, &syscall.ProcAttr{
		Env:   os.Environ(),
		Files: files,
		Sys: &syscall.SysProcAttr{
			Setpgid:    true,
			Pgid:       attr.Pgid,
			Foreground: attr.Foreground,
			Ctty:       h.tty,
		},
	})
}

func (h *Host) Pipe() (*os.File, *os.File, error) {
	return os.Pipe()
}

func (h *Host) Setpgid(pid, pgid int) error {
	return unix.Setpgid(pid, pgid)
}

func (h *Host) Getpgrp() int {
	return unix.Getpgrp()
}

func (h *Host) Wait4(pid, options int) (int, Status, error) {
	var ws unix.WaitStatus
	wpid, err := unix.Wait4(pid, &ws, options, nil)
	if err != nil || wpid <= 0 {
		return wpid, Status{}, err
	}
	return wpid, statusOf(ws), nil
}

func (h *Host) Kill(pid int, sig syscall.Signal) error {
	return unix.Kill(pid, sig)
}

func (h *Host) Tcsetpgrp(fd, pgid int) error {
	return unix.IoctlSetPointerInt(fd, unix.TIOCSPGRP, pgid)
}

func (h *Host) Tcgetattr(fd int) (*unix.Termios, error) {
	return unix.IoctlGetTermios(fd, ioctlGetTermios)
}

func (h *Host) Tcsetattr(fd int, t *unix.Termios) error {
	return unix.IoctlSetTermios(fd, ioctlSetTermios, t)
}
