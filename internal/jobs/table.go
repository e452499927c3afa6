// Package jobs tracks background and stopped jobs between prompts.
package jobs

import (
	"errors"
	"sort"
)

// DefaultCapacity is the number of job slots when none is configured.
const DefaultCapacity = 20

var ErrFull = errors.New("job table full")

type slot struct {
	used bool
	job  Job
}

// Table is a fixed set of job slots. Ids come from a counter that never
// goes back, so an id is never handed out twice. While any slot is used,
// exactly one carries the Current marker.
type Table struct {
	slots  []slot
	free   []int
	nextID int
}

func NewTable(capacity int) *Table {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	t := &Table{
		slots:  make([]slot, capacity),
		free:   make([]int, 0, capacity),
		nextID: 1,
	}
	for i := capacity - 1; i >= 0; i-- {
		t.free = append(t.free, i)
	}
	return t
}

func (t *Table) Cap() int { return len(t.slots) }

func (t *Table) Len() int { return len(t.slots) - len(t.free) }

// Add records a new job and makes it Current; every other job becomes
// Previous.
func (t *Table) Add(pgid, pid int, cmdline string, st State) (Job, error) {
	if len(t.free) == 0 {
		return Job{}, ErrFull
	}
	idx := t.free[len(t.free)-1]
	t.free = t.free[:len(t.free)-1]

	t.slots[idx] = slot{
		used: true,
		job: Job{
			ID:      t.nextID,
			Pgid:    pgid,
			Pid:     pid,
			State:   st,
			Cmdline: cmdline,
		},
	}
	t.nextID++
	t.promote(idx)
	return t.slots[idx].job, nil
}

// Remove frees the job's slot. Removing the Current job hands the marker
// to the job with the highest remaining id.
func (t *Table) Remove(id int) bool {
	idx := t.index(id)
	if idx < 0 {
		return false
	}
	wasCurrent := t.slots[idx].job.Marker == Current
	t.slots[idx] = slot{}
	t.free = append(t.free, idx)

	if wasCurrent {
		best := -1
		for i, s := range t.slots {
			if s.used && (best < 0 || s.job.ID > t.slots[best].job.ID) {
				best = i
			}
		}
		if best >= 0 {
			t.promote(best)
		}
	}
	return true
}

func (t *Table) Get(id int) (Job, bool) {
	idx := t.index(id)
	if idx < 0 {
		return Job{}, false
	}
	return t.slots[idx].job, true
}

// FindPid returns the job whose representative process is pid.
func (t *Table) FindPid(pid int) (Job, bool) {
	for _, s := range t.slots {
		if s.used && s.job.Pid == pid {
			return s.job, true
		}
	}
	return Job{}, false
}

func (t *Table) Current() (Job, bool) {
	for _, s := range t.slots {
		if s.used && s.job.Marker == Current {
			return s.job, true
		}
	}
	return Job{}, false
}

// CurrentStopped prefers the Current job if it is stopped, otherwise the
// stopped job with the highest id.
func (t *Table) CurrentStopped() (Job, bool) {
	if j, ok := t.Current(); ok && j.State == Stopped {
		return j, true
	}
	var found Job
	ok := false
	for _, s := range t.slots {
		if s.used && s.job.State == Stopped && (!ok || s.job.ID > found.ID) {
			found, ok = s.job, true
		}
	}
	return found, ok
}

func (t *Table) SetState(id int, st State) bool {
	idx := t.index(id)
	if idx < 0 {
		return false
	}
	t.slots[idx].job.State = st
	return true
}

// MarkRunning sets the job Running and makes it Current.
func (t *Table) MarkRunning(id int) bool {
	return t.mark(id, Running)
}

// MarkStopped sets the job Stopped and makes it Current.
func (t *Table) MarkStopped(id int) bool {
	return t.mark(id, Stopped)
}

func (t *Table) mark(id int, st State) bool {
	idx := t.index(id)
	if idx < 0 {
		return false
	}
	t.slots[idx].job.State = st
	t.promote(idx)
	return true
}

// Jobs returns every tracked job ordered by id.
func (t *Table) Jobs() []Job {
	out := make([]Job, 0, t.Len())
	for _, s := range t.slots {
		if s.used {
			out = append(out, s.job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (t *Table) promote(idx int) {
	for i := range t.slots {
		if t.slots[i].used {
			t.slots[i].job.Marker = Previous
		}
	}
	t.slots[idx].job.Marker = Current
}

func (t *Table) index(id int) int {
	for i, s := range t.slots {
		if s.used && s.job.ID == id {
			return i
		}
	}
	return -1
}
