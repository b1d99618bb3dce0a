package scheduler

// TaskSpec is the descriptor handed to the engine by a parser.
type TaskSpec struct {
	ID           int    // Positive, unique
	Name         string // Display name
	Duration     int    // Time units to complete
	Staff        int    // Manpower consumed while running
	Predecessors []int  // Task IDs this task depends on
}

// Task represents a unit of work in the DAG.
// The scheduling fields are written by the analysis passes only.
type Task struct {
	ID           int
	Name         string
	Duration     int
	Staff        int
	Predecessors []int // De-duplicated, input order preserved

	EarliestStart  int
	EarliestFinish int
	LatestStart    int
	LatestFinish   int
	Slack          int // LatestFinish - EarliestFinish

	TotalSlack int  // Delay allowed without moving the project finish
	Critical   bool // TotalSlack == 0

	scheduled bool
	slacked   bool
}

// reset clears every computed field so a pass never accumulates across runs.
func (t *Task) reset() {
	t.EarliestStart = 0
	t.EarliestFinish = 0
	t.LatestStart = 0
	t.LatestFinish = 0
	t.Slack = 0
	t.TotalSlack = 0
	t.Critical = false
	t.scheduled = false
	t.slacked = false
}

// runDelta is the staff change this task causes at time t.
// A zero-duration task starts and finishes in the same instant and nets to zero.
func (t *Task) runDelta(at int) (delta int, started, finished bool) {
	if at == t.EarliestStart {
		delta += t.Staff
		started = true
	}
	if at == t.EarliestStart+t.Duration {
		delta -= t.Staff
		finished = true
	}
	return delta, started, finished
}

func cloneTask(task *Task) *Task {
	if task == nil {
		return nil
	}

	cp := *task
	if task.Predecessors != nil {
		cp.Predecessors = append([]int(nil), task.Predecessors...)
	}
	return &cp
}
