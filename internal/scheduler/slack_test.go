package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slacked(t *testing.T, specs []TaskSpec) *DAG {
	t.Helper()
	d, _ := scheduled(t, specs)
	require.NoError(t, ComputeSlack(d))
	return d
}

func assertSlack(t *testing.T, d *DAG, id, ls, lf, slack, total int, critical bool) {
	t.Helper()
	task, ok := d.Get(id)
	require.True(t, ok)
	assert.Equal(t, ls, task.LatestStart, "task %d latest start", id)
	assert.Equal(t, lf, task.LatestFinish, "task %d latest finish", id)
	assert.Equal(t, slack, task.Slack, "task %d slack", id)
	assert.Equal(t, total, task.TotalSlack, "task %d total slack", id)
	assert.Equal(t, critical, task.Critical, "task %d critical", id)
}

func TestComputeSlack_ThreeTasks(t *testing.T) {
	d := slacked(t, threeTaskPlan())

	assertSlack(t, d, 1, 0, 2, 0, 0, true)
	assertSlack(t, d, 2, 2, 5, 0, 0, true)
	// C is a sink so it keeps zero slack, but the project could absorb 2 units
	assertSlack(t, d, 3, 2, 3, 0, 2, false)

	path, err := CriticalPath(d)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, path)
}

func TestComputeSlack_WithEstimates(t *testing.T) {
	d := slacked(t, []TaskSpec{
		{ID: 1, Duration: 5},
		{ID: 2, Duration: 1, Predecessors: []int{1}},
		{ID: 3, Duration: 10, Predecessors: []int{1}},
		{ID: 4, Duration: 1, Predecessors: []int{2, 3}},
	})

	assertSlack(t, d, 1, 0, 5, 0, 0, true)
	assertSlack(t, d, 2, 14, 15, 9, 9, false)
	assertSlack(t, d, 3, 5, 15, 0, 0, true)
	assertSlack(t, d, 4, 15, 16, 0, 0, true)

	path, err := CriticalPath(d)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 4}, path)
}

func TestComputeSlack_MinimumOverSuccessors(t *testing.T) {
	// 1 feeds an early successor (3) and a late one (4)
	d := slacked(t, []TaskSpec{
		{ID: 1, Duration: 1},
		{ID: 2, Duration: 6},
		{ID: 3, Duration: 2, Predecessors: []int{1}},
		{ID: 4, Duration: 1, Predecessors: []int{1, 2}},
	})

	// 3 starts at 1 and 4 starts at 6: task 1 may only finish by 1
	assertSlack(t, d, 1, 0, 1, 0, 4, false)
	assertSlack(t, d, 2, 0, 6, 0, 0, true)
}

func TestComputeSlack_Properties(t *testing.T) {
	d := slacked(t, []TaskSpec{
		{ID: 1, Duration: 3},
		{ID: 2, Duration: 7},
		{ID: 3, Duration: 2, Predecessors: []int{1}},
		{ID: 4, Duration: 1, Predecessors: []int{2, 3}},
		{ID: 5, Duration: 0, Predecessors: []int{4}},
		{ID: 6, Duration: 4, Predecessors: []int{5, 1}},
		{ID: 7, Duration: 2, Predecessors: []int{3}},
	})

	for _, task := range d.Tasks() {
		assert.GreaterOrEqual(t, task.Slack, 0, "task %d", task.ID)
		assert.GreaterOrEqual(t, task.TotalSlack, task.Slack, "task %d", task.ID)
		assert.Equal(t, task.LatestFinish, task.LatestStart+task.Duration, "task %d", task.ID)
		assert.LessOrEqual(t, task.EarliestStart, task.LatestStart, "task %d", task.ID)
		assert.Equal(t, task.LatestFinish-task.EarliestFinish, task.Slack, "task %d", task.ID)
		for _, succID := range d.Successors(task.ID) {
			succ, ok := d.Get(succID)
			require.True(t, ok)
			assert.LessOrEqual(t, task.LatestFinish, succ.LatestStart, "task %d before %d", task.ID, succID)
		}
	}

	// A source-to-sink chain of zero-slack tasks exists
	path, err := CriticalPath(d)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 5, 6}, path)
	for _, id := range path {
		task, _ := d.Get(id)
		assert.Equal(t, 0, task.Slack)
	}
}

func TestComputeSlack_RequiresForwardPass(t *testing.T) {
	d := mustDAG(t, threeTaskPlan())

	err := ComputeSlack(d)
	require.ErrorIs(t, err, ErrNotScheduled)
}

func TestComputeSlack_RerunDoesNotAccumulate(t *testing.T) {
	d := slacked(t, threeTaskPlan())
	first := d.Tasks()

	_, err := ComputeEarliestSchedule(d)
	require.NoError(t, err)
	require.NoError(t, ComputeSlack(d))

	assert.Equal(t, first, d.Tasks())
}

func TestCriticalPath_RequiresSlack(t *testing.T) {
	d, _ := scheduled(t, threeTaskPlan())

	_, err := CriticalPath(d)
	require.Error(t, err)
}
