package shell

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"jobshell/internal/jobs"
)

// track registers a job. A full table leaves the process running but
// untracked.
func (d *Dispatcher) track(pgid, pid int, cmdline string, st jobs.State) (jobs.Job, bool) {
	j, err := d.table.Add(pgid, pid, cmdline, st)
	if err != nil {
		d.log.Warn("job untracked",
			zap.Int("pgid", pgid), zap.String("cmd", cmdline), zap.Error(err))
		return jobs.Job{}, false
	}
	d.log.Debug("job added", zap.Int("id", j.ID), zap.Int("pgid", pgid), zap.Stringer("state", st))
	return j, true
}

// pick resolves the job a fg or bg invocation names. With no argument it
// falls back to def. An unknown id is an error; an empty table is not.
func (d *Dispatcher) pick(name string, args []string, def func() (jobs.Job, bool)) (jobs.Job, bool, error) {
	if len(args) == 0 {
		j, ok := def()
		return j, ok, nil
	}
	id, err := strconv.Atoi(strings.TrimPrefix(args[0], "%"))
	if err != nil {
		return jobs.Job{}, false, fmt.Errorf("%s: %s: no such job", name, args[0])
	}
	j, ok := d.table.Get(id)
	if !ok {
		return jobs.Job{}, false, fmt.Errorf("%s: %s: no such job", name, args[0])
	}
	return j, true, nil
}
