package scheduler

// DetectCycle reports the first dependency cycle found by a depth-first walk
// along successor edges, or nil when the graph is acyclic.
//
// The walk starts from every source in ID order, then from any task still
// unvisited, so a cyclic island that no source reaches is found as well
// (a graph without sources always contains one). The returned path runs from
// the first occurrence of the repeated task through the task that closed the
// loop; a self-loop is a path of length 1. Only one cycle is returned, this is
// a detector and not an enumeration of every cycle.
func DetectCycle(d *DAG) []int {
	w := &cycleWalker{
		dag:     d,
		onStack: make(map[int]bool, len(d.ids)),
		done:    make(map[int]bool, len(d.ids)),
	}

	for _, id := range d.Sources() {
		if cycle := w.visit(id); cycle != nil {
			return cycle
		}
	}

	for _, id := range d.ids {
		if w.done[id] {
			continue
		}
		if cycle := w.visit(id); cycle != nil {
			return cycle
		}
	}

	return nil
}

type cycleWalker struct {
	dag     *DAG
	onStack map[int]bool
	done    map[int]bool // Fully explored, safe to reach again by another path
	path    []int
}

func (w *cycleWalker) visit(id int) []int {
	if w.onStack[id] {
		for i, onPath := range w.path {
			if onPath == id {
				return append([]int(nil), w.path[i:]...)
			}
		}
	}
	if w.done[id] {
		return nil
	}

	w.onStack[id] = true
	w.path = append(w.path, id)

	for _, succID := range w.dag.successors[id] {
		if cycle := w.visit(succID); cycle != nil {
			return cycle
		}
	}

	w.path = w.path[:len(w.path)-1]
	w.onStack[id] = false
	w.done[id] = true

	return nil
}
