package jobs

import (
	"errors"
	"fmt"
	"io"
	"syscall"

	"jobshell/internal/sysproc"
)

type Waiter interface {
	Wait4(pid, options int) (int, sysproc.Status, error)
}

// Reap collects every pending child state change without blocking, applies
// those that belong to tracked jobs, then reports and drops the jobs that
// are done. It runs once per prompt.
func Reap(t *Table, w Waiter, out io.Writer) []Job {
	for {
		pid, st, err := w.Wait4(-1, sysproc.WNOHANG|sysproc.WUNTRACED|sysproc.WCONTINUED)
		if errors.Is(err, syscall.EINTR) {
			continue
		}
		if err != nil || pid <= 0 {
			break
		}
		j, ok := t.FindPid(pid)
		if !ok {
			continue
		}
		switch {
		case st.Terminated():
			t.SetState(j.ID, Done)
		case st.Stopped():
			t.SetState(j.ID, Stopped)
		default:
			t.SetState(j.ID, Running)
		}
	}

	var done []Job
	for _, j := range t.Jobs() {
		if j.State != Done {
			continue
		}
		fmt.Fprintln(out, j.DoneReport())
		t.Remove(j.ID)
		done = append(done, j)
	}
	return done
}
