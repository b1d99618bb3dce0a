package scheduler

// SimulationEvent is one line of the execution log, recorded only when the staff total changes.
type SimulationEvent struct {
	Time       int
	Started    []int // In schedule order
	Finished   []int
	StaffTotal int
}

// Simulate replays the schedule on a unit clock from 0 to totalDuration inclusive.
//
// All starts and finishes of one instant are netted before the ceiling is
// checked: a task finishing at t frees its staff for tasks starting at t, and
// a zero-duration task contributes nothing. On failure the events logged
// before the offending instant are returned with the error.
func Simulate(order []*Task, totalDuration, ceiling int) ([]SimulationEvent, error) {
	if ceiling < 0 {
		return nil, &InvalidCeilingError{Ceiling: ceiling}
	}

	var entries []SimulationEvent
	staff := 0

	for t := 0; t <= totalDuration; t++ {
		var started, finished []int
		prev := staff

		for _, task := range order {
			delta, s, f := task.runDelta(t)
			staff += delta
			if s {
				started = append(started, task.ID)
			}
			if f {
				finished = append(finished, task.ID)
			}
		}

		if staff > ceiling {
			return entries, &ResourceExceededError{Time: t, Demanded: staff, Ceiling: ceiling}
		}

		if staff != prev {
			entries = append(entries, SimulationEvent{
				Time:       t,
				Started:    started,
				Finished:   finished,
				StaffTotal: staff,
			})
		}
	}

	return entries, nil
}

// StaffProfile returns the staff in use during each unit interval [t, t+1)
// of the schedule, derived from the same netting rules as Simulate.
func StaffProfile(order []*Task, totalDuration int) []int {
	profile := make([]int, totalDuration)
	staff := 0
	for t := 0; t < totalDuration; t++ {
		for _, task := range order {
			delta, _, _ := task.runDelta(t)
			staff += delta
		}
		profile[t] = staff
	}
	return profile
}

// PeakStaff returns the largest value of the staff profile.
func PeakStaff(order []*Task, totalDuration int) int {
	peak := 0
	for _, staff := range StaffProfile(order, totalDuration) {
		peak = max(peak, staff)
	}
	return peak
}
