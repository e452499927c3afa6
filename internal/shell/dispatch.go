package shell

import (
	"errors"
	"fmt"
	"io"
	"syscall"

	"go.uber.org/zap"

	"jobshell/internal/jobs"
	"jobshell/internal/launch"
	"jobshell/internal/parser"
	"jobshell/internal/pgroup"
	"jobshell/internal/sysproc"
)

// Dispatcher runs parsed commands and owns the job table. Everything runs
// on the shell's one goroutine; nothing here is safe for concurrent use.
type Dispatcher struct {
	sys      sysproc.Sys
	pg       *pgroup.Coordinator
	launcher *launch.Launcher
	table    *jobs.Table
	out      io.Writer
	log      *zap.Logger
	last     sysproc.Status
}

func NewDispatcher(s sysproc.Sys, pg *pgroup.Coordinator, table *jobs.Table, out io.Writer, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		sys:      s,
		pg:       pg,
		launcher: launch.New(s, pg, log),
		table:    table,
		out:      out,
		log:      log,
	}
}

// LastStatus is the status of the most recent foreground command.
func (d *Dispatcher) LastStatus() sysproc.Status { return d.last }

func (d *Dispatcher) Dispatch(cmd *parser.Command) error {
	switch cmd.Builtin {
	case parser.Jobs:
		d.Jobs()
		return nil
	case parser.Fg:
		return d.Fg(cmd.Args())
	case parser.Bg:
		return d.Bg(cmd.Args())
	}

	switch {
	case cmd.Piped():
		d.runPipeline(cmd)
	case cmd.Background:
		d.runBackground(cmd)
	default:
		d.runForeground(cmd)
	}
	return nil
}

// Reap reports finished background jobs; call it once before each prompt.
func (d *Dispatcher) Reap() {
	jobs.Reap(d.table, d.sys, d.out)
}

func (d *Dispatcher) runForeground(cmd *parser.Command) {
	g, err := d.launcher.Single(cmd.Left, true)
	if err != nil {
		d.fail(cmd, err)
		return
	}
	d.foreground(cmd.Line, g)
}

func (d *Dispatcher) runPipeline(cmd *parser.Command) {
	if cmd.Background {
		d.fail(cmd, parser.ErrBackgroundPipeline)
		return
	}
	g, err := d.launcher.Pipeline(cmd)
	if err != nil {
		d.fail(cmd, err)
		return
	}
	d.foreground(cmd.Line, g)
}

func (d *Dispatcher) runBackground(cmd *parser.Command) {
	g, err := d.launcher.Single(cmd.Left, false)
	if err != nil {
		d.fail(cmd, err)
		return
	}
	p := g.Last()
	if !p.Started() {
		d.last = p.Status
		return
	}
	if j, ok := d.track(g.Pgid, p.Pid, cmd.Line, jobs.Running); ok {
		fmt.Fprintf(d.out, "[%d] %d\n", j.ID, p.Pid)
	}
}

// foreground hands g the terminal and waits until each started stage has
// exited or stopped. A group that stopped is kept as a Stopped job whose
// pid is the last stage seen stopping; stages that already exited have
// been reaped and can never report again.
func (d *Dispatcher) foreground(line string, g *launch.Group) {
	if g.Pgid == 0 {
		d.last = g.Last().Status
		return
	}

	d.pg.Handoff(g.Pgid)
	rep := 0
	for i, p := range g.Procs {
		if !p.Started() {
			continue
		}
		st, err := d.wait(p.Pid)
		if err != nil {
			st = statusLost
		}
		g.Procs[i].Status = st
		if st.Stopped() {
			rep = p.Pid
		}
	}
	d.last = g.Last().Status

	var j jobs.Job
	tracked := false
	if rep != 0 {
		j, tracked = d.track(g.Pgid, rep, line, jobs.Stopped)
	}
	d.pg.Reclaim()

	if tracked {
		fmt.Fprintln(d.out)
		fmt.Fprintln(d.out, j)
	}
}

// statusLost stands in for a child whose status could not be collected.
var statusLost = sysproc.ExitStatus(1)

// wait blocks until pid exits or stops.
func (d *Dispatcher) wait(pid int) (sysproc.Status, error) {
	for {
		_, st, err := d.sys.Wait4(pid, sysproc.WUNTRACED)
		switch {
		case err == nil:
			return st, nil
		case errors.Is(err, syscall.EINTR):
			continue
		default:
			d.log.Warn("wait failed", zap.Int("pid", pid), zap.Error(err))
			return sysproc.Status{}, err
		}
	}
}

// fail reports a command that produced no process: a bare newline for the
// user, the cause in the log.
func (d *Dispatcher) fail(cmd *parser.Command, err error) {
	d.log.Warn("command not run", zap.String("cmd", cmd.Line), zap.Error(err))
	fmt.Fprintln(d.out)
}

func (d *Dispatcher) Jobs() {
	for _, j := range d.table.Jobs() {
		fmt.Fprintln(d.out, j)
	}
	fmt.Fprintln(d.out)
}

// Fg resumes a job in the foreground and waits for it to exit or stop
// again.
func (d *Dispatcher) Fg(args []string) error {
	j, ok, err := d.pick("fg", args, d.table.Current)
	if err != nil || !ok {
		return err
	}

	fmt.Fprintln(d.out, j.Cmdline)
	d.pg.Handoff(j.Pgid)
	if err := d.sys.Kill(-j.Pgid, syscall.SIGCONT); err != nil {
		d.log.Warn("continue job", zap.Int("id", j.ID), zap.Int("pgid", j.Pgid), zap.Error(err))
	}
	d.table.MarkRunning(j.ID)

	st, err := d.wait(j.Pid)
	if err != nil {
		// Nothing left to wait for; the job cannot be resumed again.
		st = statusLost
	}
	d.last = st
	if st.Stopped() {
		d.table.MarkStopped(j.ID)
	} else {
		d.table.Remove(j.ID)
	}
	d.pg.Reclaim()

	if st.Stopped() {
		j, _ = d.table.Get(j.ID)
		fmt.Fprintln(d.out)
		fmt.Fprintln(d.out, j)
	}
	return nil
}

// Bg resumes a stopped job without giving it the terminal.
func (d *Dispatcher) Bg(args []string) error {
	j, ok, err := d.pick("bg", args, d.table.CurrentStopped)
	if err != nil || !ok {
		return err
	}
	if j.State != jobs.Stopped {
		return fmt.Errorf("bg: job %d already in background", j.ID)
	}

	if err := d.sys.Kill(-j.Pgid, syscall.SIGCONT); err != nil {
		d.log.Warn("continue job", zap.Int("id", j.ID), zap.Int("pgid", j.Pgid), zap.Error(err))
	}
	d.table.MarkRunning(j.ID)
	j, _ = d.table.Get(j.ID)
	fmt.Fprintln(d.out, j)
	return nil
}
