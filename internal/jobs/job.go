package jobs

import "fmt"

type State int

const (
	Running State = iota
	Stopped
	Done
)

func (s State) String() string {
	switch s {
	case Running:
		return "Running"
	case Stopped:
		return "Stopped"
	default:
		return "Done"
	}
}

// Marker tags the jobs that bare fg and bg act on.
type Marker int

const (
	None Marker = iota
	Previous
	Current
)

func (m Marker) String() string {
	if m == Current {
		return "+"
	}
	return "-"
}

// Job is a snapshot of one tracked process group. Pid is the process
// whose exit ends the job.
type Job struct {
	ID      int
	Pgid    int
	Pid     int
	State   State
	Cmdline string
	Marker  Marker
}

// String renders the job as a listing line: [id]marker  State  cmdline.
func (j Job) String() string {
	return fmt.Sprintf("[%d]%s  %s  %s", j.ID, j.Marker, j.State, j.Cmdline)
}

// DoneReport is the notice printed once when a job is seen finished.
func (j Job) DoneReport() string {
	return fmt.Sprintf("[%d]-  %s  %s", j.ID, Done, j.Cmdline)
}
