// Package pgroup keeps every job in a process group of its own and moves
// the controlling terminal between the shell and the foreground job.
package pgroup

import (
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"jobshell/internal/sysproc"
)

type Coordinator struct {
	sys         sysproc.Sys
	tty         int
	interactive bool
	shellPgid   int
	modes       *unix.Termios
	log         *zap.Logger
}

// New captures the shell's own process group. When interactive is false
// there is no terminal to hand around and Handoff/Reclaim do nothing.
func New(s sysproc.Sys, tty int, interactive bool, log *zap.Logger) *Coordinator {
	c := &Coordinator{
		sys:         s,
		tty:         tty,
		interactive: interactive,
		shellPgid:   s.Getpgrp(),
		log:         log,
	}
	if interactive {
		modes, err := s.Tcgetattr(tty)
		if err != nil {
			log.Warn("cannot save terminal modes", zap.Error(err))
		}
		c.modes = modes
	}
	return c
}

func (c *Coordinator) ShellPgid() int { return c.shellPgid }

// Interactive reports whether the shell owns a controlling terminal.
func (c *Coordinator) Interactive() bool { return c.interactive }

// Adopt is the parent's half of group placement: the child already asked
// for pgid itself and either call may land first. A child that has exec'd
// refuses the change, which is fine because it placed itself.
func (c *Coordinator) Adopt(pid, pgid int) {
	if pgid == 0 {
		pgid = pid
	}
	if err := c.sys.Setpgid(pid, pgid); err != nil {
		c.log.Debug("parent setpgid",
			zap.Int("pid", pid), zap.Int("pgid", pgid), zap.Error(err))
	}
}

// Handoff gives the terminal to pgid.
func (c *Coordinator) Handoff(pgid int) {
	if !c.interactive || pgid <= 0 {
		return
	}
	if err := c.sys.Tcsetpgrp(c.tty, pgid); err != nil {
		c.log.Warn("terminal handoff failed", zap.Int("pgid", pgid), zap.Error(err))
	}
}

// Reclaim returns the terminal to the shell and restores the modes saved
// at startup, whatever the job left behind.
func (c *Coordinator) Reclaim() {
	if !c.interactive {
		return
	}
	if err := c.sys.Tcsetpgrp(c.tty, c.shellPgid); err != nil {
		c.log.Warn("terminal reclaim failed", zap.Int("pgid", c.shellPgid), zap.Error(err))
	}
	if c.modes == nil {
		return
	}
	if err := c.sys.Tcsetattr(c.tty, c.modes); err != nil {
		c.log.Warn("restore terminal modes", zap.Error(err))
	}
}
