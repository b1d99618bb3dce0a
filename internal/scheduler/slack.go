package scheduler

import (
	"cmp"
	"fmt"
	"slices"
)

// ComputeSlack runs the backward pass over a scheduled graph.
//
// A task without successors must finish at its earliest finish. Any other task
// may finish as late as the earliest start of its first successor; Slack is the
// gap between that bound and its earliest finish. TotalSlack additionally
// measures how far the task can move before the project finish moves.
//
// Tasks are visited in reverse topological order, so every successor is final
// before any of its predecessors reads it.
func ComputeSlack(d *DAG) error {
	projectFinish := 0
	for _, id := range d.ids {
		task := d.tasks[id]
		if !task.scheduled {
			return fmt.Errorf("task %d: %w", id, ErrNotScheduled)
		}
		projectFinish = max(projectFinish, task.EarliestFinish)
	}

	order, err := d.TopologicalOrder()
	if err != nil {
		return err
	}

	// Latest start that keeps the project finish, per task
	lateStart := make(map[int]int, len(order))

	for i := len(order) - 1; i >= 0; i-- {
		task := d.tasks[order[i]]
		succs := d.successors[task.ID]

		if len(succs) == 0 {
			task.LatestFinish = task.EarliestStart + task.Duration
			task.Slack = 0
			task.LatestStart = task.EarliestStart
			lateStart[task.ID] = projectFinish - task.Duration
		} else {
			minStart := d.tasks[succs[0]].EarliestStart
			minLate := lateStart[succs[0]]
			for _, succID := range succs[1:] {
				minStart = min(minStart, d.tasks[succID].EarliestStart)
				minLate = min(minLate, lateStart[succID])
			}

			task.LatestFinish = minStart
			task.Slack = (task.LatestFinish - task.EarliestStart) - task.Duration
			task.LatestStart = task.EarliestStart + task.Slack
			lateStart[task.ID] = minLate - task.Duration
		}

		task.TotalSlack = lateStart[task.ID] - task.EarliestStart
		task.Critical = task.TotalSlack == 0
		task.slacked = true
	}

	return nil
}

// CriticalPath returns the IDs of zero-total-slack tasks ordered by earliest
// start, then earliest finish, then ID.
func CriticalPath(d *DAG) ([]int, error) {
	var critical []*Task
	for _, id := range d.ids {
		task := d.tasks[id]
		if !task.slacked {
			return nil, fmt.Errorf("task %d: slack not computed", id)
		}
		if task.Critical {
			critical = append(critical, task)
		}
	}

	slices.SortFunc(critical, func(a, b *Task) int {
		if c := cmp.Compare(a.EarliestStart, b.EarliestStart); c != 0 {
			return c
		}
		if c := cmp.Compare(a.EarliestFinish, b.EarliestFinish); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	path := make([]int, len(critical))
	for i, task := range critical {
		path[i] = task.ID
	}
	return path, nil
}
