package sysproc

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

type Kind int

const (
	KindExited Kind = iota
	KindSignaled
	KindStopped
	KindContinued
)

// Status is one observed state change of a child.
type Status struct {
	Kind   Kind
	Code   int
	Signal syscall.Signal
}

func ExitStatus(code int) Status { return Status{Kind: KindExited, Code: code} }

func SignalStatus(sig syscall.Signal) Status { return Status{Kind: KindSignaled, Signal: sig} }

func StopStatus(sig syscall.Signal) Status { return Status{Kind: KindStopped, Signal: sig} }

func ContinueStatus() Status { return Status{Kind: KindContinued} }

// Terminated reports whether the child is gone, by exit or by signal.
func (s Status) Terminated() bool {
	return s.Kind == KindExited || s.Kind == KindSignaled
}

func (s Status) Stopped() bool { return s.Kind == KindStopped }

// Success reports a normal exit with code zero.
func (s Status) Success() bool { return s.Kind == KindExited && s.Code == 0 }

// ExitCode maps the status to a shell exit code: the exit code itself, or
// 128 plus the signal number.
func (s Status) ExitCode() int {
	switch s.Kind {
	case KindExited:
		return s.Code
	case KindSignaled, KindStopped:
		return 128 + int(s.Signal)
	default:
		return 0
	}
}

func (s Status) String() string {
	switch s.Kind {
	case KindExited:
		return fmt.Sprintf("exit %d", s.Code)
	case KindSignaled:
		return fmt.Sprintf("signal %v", s.Signal)
	case KindStopped:
		return fmt.Sprintf("stopped (%v)", s.Signal)
	default:
		return "continued"
	}
}

func statusOf(ws unix.WaitStatus) Status {
	switch {
	case ws.Exited():
		return ExitStatus(ws.ExitStatus())
	case ws.Signaled():
		return SignalStatus(ws.Signal())
	case ws.Stopped():
		return StopStatus(ws.StopSignal())
	default:
		return ContinueStatus()
	}
}
