package scheduler

import (
	"fmt"
	"slices"

	"github.com/gammazero/toposort"
)

// DAG owns every task of a project plan and the successor view derived from
// the predecessor lists. The structure is fixed after NewDAG; only the
// scheduling fields of the tasks change. A DAG is not safe for concurrent use.
type DAG struct {
	tasks      map[int]*Task // All tasks indexed by ID
	ids        []int         // Ascending
	successors map[int][]int // Maps taskID -> tasks that depend on it, ascending
}

// NewDAG builds the graph from parsed descriptors.
func NewDAG(specs []TaskSpec) (*DAG, error) {
	d := &DAG{
		tasks:      make(map[int]*Task, len(specs)),
		ids:        make([]int, 0, len(specs)),
		successors: make(map[int][]int, len(specs)),
	}

	for _, spec := range specs {
		if err := d.addTask(spec); err != nil {
			return nil, err
		}
	}
	slices.Sort(d.ids)

	// Every dependency must exist before the successor view is derived
	for _, id := range d.ids {
		for _, predID := range d.tasks[id].Predecessors {
			if _, exists := d.tasks[predID]; !exists {
				return nil, &UnknownTaskReferenceError{TaskID: id, MissingID: predID}
			}
		}
	}

	for _, id := range d.ids {
		for _, predID := range d.tasks[id].Predecessors {
			d.successors[predID] = append(d.successors[predID], id)
		}
	}

	return d, nil
}

func (d *DAG) addTask(spec TaskSpec) error {
	switch {
	case spec.ID <= 0:
		return &InvalidTaskError{TaskID: spec.ID, Field: "id", Value: spec.ID}
	case spec.Duration < 0:
		return &InvalidTaskError{TaskID: spec.ID, Field: "duration", Value: spec.Duration}
	case spec.Staff < 0:
		return &InvalidTaskError{TaskID: spec.ID, Field: "staff", Value: spec.Staff}
	}

	if _, exists := d.tasks[spec.ID]; exists {
		return &DuplicateTaskError{TaskID: spec.ID}
	}

	preds := make([]int, 0, len(spec.Predecessors))
	for _, predID := range spec.Predecessors {
		if !slices.Contains(preds, predID) {
			preds = append(preds, predID)
		}
	}

	d.tasks[spec.ID] = &Task{
		ID:           spec.ID,
		Name:         spec.Name,
		Duration:     spec.Duration,
		Staff:        spec.Staff,
		Predecessors: preds,
	}
	d.ids = append(d.ids, spec.ID)

	return nil
}

// Len returns the number of tasks.
func (d *DAG) Len() int {
	return len(d.ids)
}

// IDs returns all task IDs in ascending order.
func (d *DAG) IDs() []int {
	return slices.Clone(d.ids)
}

// Get returns a copy of the task with the given ID.
func (d *DAG) Get(id int) (*Task, bool) {
	task, exists := d.tasks[id]
	if !exists {
		return nil, false
	}
	return cloneTask(task), true
}

// Tasks returns copies of all tasks in ID order.
func (d *DAG) Tasks() []*Task {
	tasks := make([]*Task, 0, len(d.ids))
	for _, id := range d.ids {
		tasks = append(tasks, cloneTask(d.tasks[id]))
	}
	return tasks
}

// Successors returns the IDs of the tasks that list id as a predecessor.
func (d *DAG) Successors(id int) []int {
	return slices.Clone(d.successors[id])
}

// Sources returns tasks without predecessors, in ID order.
func (d *DAG) Sources() []int {
	var sources []int
	for _, id := range d.ids {
		if len(d.tasks[id].Predecessors) == 0 {
			sources = append(sources, id)
		}
	}
	return sources
}

// Sinks returns tasks without successors, in ID order.
func (d *DAG) Sinks() []int {
	var sinks []int
	for _, id := range d.ids {
		if len(d.successors[id]) == 0 {
			sinks = append(sinks, id)
		}
	}
	return sinks
}

// Reset clears the scheduling fields of every task.
func (d *DAG) Reset() {
	for _, task := range d.tasks {
		task.reset()
	}
}

// TopologicalOrder returns task IDs so that every predecessor precedes its successors.
func (d *DAG) TopologicalOrder() ([]int, error) {
	if len(d.ids) == 0 {
		return []int{}, nil
	}

	var edges []toposort.Edge
	for _, id := range d.ids {
		task := d.tasks[id]
		if len(task.Predecessors) == 0 {
			// Edge from nil keeps isolated tasks in the result
			edges = append(edges, toposort.Edge{nil, id})
			continue
		}
		for _, predID := range task.Predecessors {
			edges = append(edges, toposort.Edge{predID, id})
		}
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCycleDetected, err)
	}

	order := make([]int, 0, len(sorted))
	for _, node := range sorted {
		if node != nil {
			order = append(order, node.(int))
		}
	}

	if len(order) != len(d.ids) {
		return nil, &CycleError{}
	}

	return order, nil
}
