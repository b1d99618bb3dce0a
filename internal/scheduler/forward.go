package scheduler

import (
	"container/heap"
)

// Schedule is the result of the forward pass.
type Schedule struct {
	Order         []*Task // Ascending by EarliestStart, ties by ID
	TotalDuration int     // Max EarliestFinish over all tasks
}

// ComputeEarliestSchedule runs Kahn's algorithm over the graph, setting
// EarliestStart and EarliestFinish on every task. The returned Order shares
// the graph's task records.
//
// The remaining-predecessor counters belong to this call only, so repeated
// runs on the same graph always produce identical results.
func ComputeEarliestSchedule(d *DAG) (*Schedule, error) {
	d.Reset()

	remaining := make(map[int]int, len(d.ids))
	queue := make([]*Task, 0, len(d.ids))
	for _, id := range d.ids {
		task := d.tasks[id]
		remaining[id] = len(task.Predecessors)
		if remaining[id] == 0 {
			queue = append(queue, task)
		}
	}

	byStart := &startQueue{}
	visited := 0
	total := 0

	for len(queue) > 0 {
		task := queue[0]
		queue = queue[1:]

		// A source starts at 0; otherwise the latest finishing predecessor binds
		start := 0
		for _, predID := range task.Predecessors {
			pred := d.tasks[predID]
			if finish := pred.EarliestStart + pred.Duration; finish > start {
				start = finish
			}
		}
		task.EarliestStart = start
		task.EarliestFinish = start + task.Duration
		task.scheduled = true
		if task.EarliestFinish > total {
			total = task.EarliestFinish
		}

		heap.Push(byStart, task)
		visited++

		for _, succID := range d.successors[task.ID] {
			remaining[succID]--
			if remaining[succID] == 0 {
				queue = append(queue, d.tasks[succID])
			}
		}
	}

	if visited != len(d.ids) {
		return nil, &CycleError{}
	}

	order := make([]*Task, 0, visited)
	for byStart.Len() > 0 {
		order = append(order, heap.Pop(byStart).(*Task))
	}

	return &Schedule{Order: order, TotalDuration: total}, nil
}

// startQueue is a min-heap of tasks keyed by (EarliestStart, ID).
type startQueue []*Task

func (q startQueue) Len() int { return len(q) }

func (q startQueue) Less(i, j int) bool {
	if q[i].EarliestStart != q[j].EarliestStart {
		return q[i].EarliestStart < q[j].EarliestStart
	}
	return q[i].ID < q[j].ID
}

func (q startQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *startQueue) Push(x any) { *q = append(*q, x.(*Task)) }

func (q *startQueue) Pop() any {
	old := *q
	n := len(old)
	task := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return task
}
