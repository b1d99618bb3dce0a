package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startsByID(order []*Task) map[int]int {
	starts := make(map[int]int, len(order))
	for _, task := range order {
		starts[task.ID] = task.EarliestStart
	}
	return starts
}

func orderIDs(order []*Task) []int {
	ids := make([]int, len(order))
	for i, task := range order {
		ids[i] = task.ID
	}
	return ids
}

func TestComputeEarliestSchedule_ThreeTasks(t *testing.T) {
	d := mustDAG(t, threeTaskPlan())

	schedule, err := ComputeEarliestSchedule(d)
	require.NoError(t, err)

	assert.Equal(t, map[int]int{1: 0, 2: 2, 3: 2}, startsByID(schedule.Order))
	assert.Equal(t, 5, schedule.TotalDuration)
	assert.Equal(t, []int{1, 2, 3}, orderIDs(schedule.Order))
}

func TestComputeEarliestSchedule_WithEstimates(t *testing.T) {
	// 1(5) -> 2(1) -> 4(1)
	// 1(5) -> 3(10) -> 4(1)
	d := mustDAG(t, []TaskSpec{
		{ID: 1, Duration: 5},
		{ID: 2, Duration: 1, Predecessors: []int{1}},
		{ID: 3, Duration: 10, Predecessors: []int{1}},
		{ID: 4, Duration: 1, Predecessors: []int{2, 3}},
	})

	schedule, err := ComputeEarliestSchedule(d)
	require.NoError(t, err)

	assert.Equal(t, map[int]int{1: 0, 2: 5, 3: 5, 4: 15}, startsByID(schedule.Order))
	assert.Equal(t, 16, schedule.TotalDuration)
}

func TestComputeEarliestSchedule_OrderedByStartThenID(t *testing.T) {
	d := mustDAG(t, []TaskSpec{
		{ID: 5, Duration: 1},
		{ID: 3, Duration: 4},
		{ID: 9, Duration: 2, Predecessors: []int{5}},
		{ID: 1, Duration: 1, Predecessors: []int{3}},
		{ID: 7, Duration: 0},
	})

	schedule, err := ComputeEarliestSchedule(d)
	require.NoError(t, err)

	assert.Equal(t, []int{3, 5, 7, 9, 1}, orderIDs(schedule.Order))
	for i := 1; i < len(schedule.Order); i++ {
		assert.LessOrEqual(t, schedule.Order[i-1].EarliestStart, schedule.Order[i].EarliestStart)
	}
}

func TestComputeEarliestSchedule_StartBoundByPredecessors(t *testing.T) {
	d := mustDAG(t, []TaskSpec{
		{ID: 1, Duration: 3},
		{ID: 2, Duration: 7},
		{ID: 3, Duration: 2, Predecessors: []int{1}},
		{ID: 4, Duration: 1, Predecessors: []int{2, 3}},
		{ID: 5, Duration: 0, Predecessors: []int{4}},
		{ID: 6, Duration: 4, Predecessors: []int{5, 1}},
	})

	schedule, err := ComputeEarliestSchedule(d)
	require.NoError(t, err)
	require.Len(t, schedule.Order, d.Len())

	for _, task := range d.Tasks() {
		if len(task.Predecessors) == 0 {
			assert.Equal(t, 0, task.EarliestStart)
			continue
		}
		binding := false
		for _, predID := range task.Predecessors {
			pred, _ := d.Get(predID)
			assert.GreaterOrEqual(t, task.EarliestStart, pred.EarliestFinish)
			if task.EarliestStart == pred.EarliestFinish {
				binding = true
			}
		}
		assert.True(t, binding, "task %d has no binding predecessor", task.ID)
		assert.Equal(t, task.EarliestStart+task.Duration, task.EarliestFinish)
	}
}

func TestComputeEarliestSchedule_Idempotent(t *testing.T) {
	d := mustDAG(t, []TaskSpec{
		{ID: 1, Duration: 2},
		{ID: 2, Duration: 3, Predecessors: []int{1}},
		{ID: 3, Duration: 1, Predecessors: []int{1}},
		{ID: 4, Duration: 5, Predecessors: []int{3}},
	})

	first, err := ComputeEarliestSchedule(d)
	require.NoError(t, err)
	firstStarts := startsByID(first.Order)

	second, err := ComputeEarliestSchedule(d)
	require.NoError(t, err)

	assert.Equal(t, firstStarts, startsByID(second.Order))
	assert.Equal(t, first.TotalDuration, second.TotalDuration)
	assert.Equal(t, orderIDs(first.Order), orderIDs(second.Order))
}

func TestComputeEarliestSchedule_CycleSafetyNet(t *testing.T) {
	d := mustDAG(t, []TaskSpec{
		{ID: 1},
		{ID: 2, Predecessors: []int{1, 3}},
		{ID: 3, Predecessors: []int{2}},
	})

	schedule, err := ComputeEarliestSchedule(d)
	require.ErrorIs(t, err, ErrCycleDetected)
	assert.Nil(t, schedule)
}

func TestComputeEarliestSchedule_Empty(t *testing.T) {
	d := mustDAG(t, nil)

	schedule, err := ComputeEarliestSchedule(d)
	require.NoError(t, err)
	assert.Empty(t, schedule.Order)
	assert.Equal(t, 0, schedule.TotalDuration)
}
