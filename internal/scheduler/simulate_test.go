package scheduler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scheduled(t *testing.T, specs []TaskSpec) (*DAG, *Schedule) {
	t.Helper()
	d := mustDAG(t, specs)
	schedule, err := ComputeEarliestSchedule(d)
	require.NoError(t, err)
	return d, schedule
}

func TestSimulate_ThreeTasks(t *testing.T) {
	_, schedule := scheduled(t, threeTaskPlan())

	events, err := Simulate(schedule.Order, schedule.TotalDuration, 3)
	require.NoError(t, err)

	// A's finish at 2 frees its staff in the same instant B and C take theirs
	want := []SimulationEvent{
		{Time: 0, Started: []int{1}, StaffTotal: 1},
		{Time: 2, Started: []int{2, 3}, Finished: []int{1}, StaffTotal: 3},
		{Time: 3, Finished: []int{3}, StaffTotal: 2},
		{Time: 5, Finished: []int{2}, StaffTotal: 0},
	}
	assert.Equal(t, want, events)
}

func TestSimulate_CeilingExceeded(t *testing.T) {
	_, schedule := scheduled(t, threeTaskPlan())

	events, err := Simulate(schedule.Order, schedule.TotalDuration, 2)
	require.ErrorIs(t, err, ErrResourceExceeded)

	var exceeded *ResourceExceededError
	require.True(t, errors.As(err, &exceeded))
	assert.Equal(t, 2, exceeded.Time)
	assert.Equal(t, 3, exceeded.Demanded)
	assert.Equal(t, 2, exceeded.Ceiling)

	// Log up to the failing instant survives
	assert.Equal(t, []SimulationEvent{{Time: 0, Started: []int{1}, StaffTotal: 1}}, events)
}

func TestSimulate_HandoverAtSharedInstantIsNotCharged(t *testing.T) {
	// 2 starts exactly when 1 finishes; a one-unit overlap would demand 4
	_, schedule := scheduled(t, []TaskSpec{
		{ID: 1, Duration: 3, Staff: 2},
		{ID: 2, Duration: 2, Staff: 2, Predecessors: []int{1}},
	})

	events, err := Simulate(schedule.Order, schedule.TotalDuration, 2)
	require.NoError(t, err)

	// Total stays at 2 across the handover, so no line is logged at t=3
	want := []SimulationEvent{
		{Time: 0, Started: []int{1}, StaffTotal: 2},
		{Time: 5, Finished: []int{2}, StaffTotal: 0},
	}
	assert.Equal(t, want, events)
}

func TestSimulate_ZeroDurationNetsToZero(t *testing.T) {
	_, schedule := scheduled(t, []TaskSpec{
		{ID: 1, Duration: 2, Staff: 1},
		{ID: 2, Duration: 0, Staff: 50, Predecessors: []int{1}},
		{ID: 3, Duration: 1, Staff: 1, Predecessors: []int{2}},
	})
	require.Equal(t, 3, schedule.TotalDuration)

	// A ceiling of 1 would fail if the milestone's 50 were charged
	events, err := Simulate(schedule.Order, schedule.TotalDuration, 1)
	require.NoError(t, err)

	want := []SimulationEvent{
		{Time: 0, Started: []int{1}, StaffTotal: 1},
		{Time: 3, Finished: []int{3}, StaffTotal: 0},
	}
	assert.Equal(t, want, events)
}

func TestSimulate_ZeroDurationAloneLogsNothing(t *testing.T) {
	_, schedule := scheduled(t, []TaskSpec{{ID: 1, Duration: 0, Staff: 4}})

	events, err := Simulate(schedule.Order, schedule.TotalDuration, 0)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestSimulate_ParallelPeakAtCeiling(t *testing.T) {
	_, schedule := scheduled(t, []TaskSpec{
		{ID: 1, Duration: 4, Staff: 3},
		{ID: 2, Duration: 2, Staff: 3},
		{ID: 3, Duration: 1, Staff: 4, Predecessors: []int{2}},
	})

	_, err := Simulate(schedule.Order, schedule.TotalDuration, 7)
	require.NoError(t, err)

	_, err = Simulate(schedule.Order, schedule.TotalDuration, 6)
	var exceeded *ResourceExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, 2, exceeded.Time)
	assert.Equal(t, 7, exceeded.Demanded)
}

func TestSimulate_NegativeCeiling(t *testing.T) {
	_, schedule := scheduled(t, threeTaskPlan())

	_, err := Simulate(schedule.Order, schedule.TotalDuration, -1)
	var invalid *InvalidCeilingError
	require.ErrorAs(t, err, &invalid)
}

func TestStaffProfile(t *testing.T) {
	_, schedule := scheduled(t, threeTaskPlan())

	assert.Equal(t, []int{1, 1, 3, 2, 2}, StaffProfile(schedule.Order, schedule.TotalDuration))
	assert.Equal(t, 3, PeakStaff(schedule.Order, schedule.TotalDuration))
}
