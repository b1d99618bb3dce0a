package scheduler

// Analysis is the outcome of one complete run over a project plan.
type Analysis struct {
	Schedule     *Schedule
	Events       []SimulationEvent
	Tasks        []*Task // ID order, all scheduling fields populated
	CriticalPath []int
	PeakStaff    int
}

// Analyzer runs the passes in their required order against one staffing ceiling.
type Analyzer struct {
	Ceiling int
}

// NewAnalyzer creates an Analyzer for the given manpower limit.
func NewAnalyzer(ceiling int) *Analyzer {
	return &Analyzer{Ceiling: ceiling}
}

// Analyze checks for cycles, computes the earliest schedule, replays it
// against the ceiling and finally computes slack. The first failure ends the
// run. When the ceiling is exceeded the partial event log is returned in the
// Analysis alongside the error so it can still be displayed.
func (a *Analyzer) Analyze(d *DAG) (*Analysis, error) {
	if a.Ceiling < 0 {
		return nil, &InvalidCeilingError{Ceiling: a.Ceiling}
	}

	if cycle := DetectCycle(d); cycle != nil {
		return nil, &CycleError{Path: cycle}
	}

	schedule, err := ComputeEarliestSchedule(d)
	if err != nil {
		return nil, err
	}

	events, err := Simulate(schedule.Order, schedule.TotalDuration, a.Ceiling)
	if err != nil {
		return &Analysis{Schedule: schedule, Events: events}, err
	}

	if err := ComputeSlack(d); err != nil {
		return nil, err
	}

	path, err := CriticalPath(d)
	if err != nil {
		return nil, err
	}

	return &Analysis{
		Schedule:     schedule,
		Events:       events,
		Tasks:        d.Tasks(),
		CriticalPath: path,
		PeakStaff:    PeakStaff(schedule.Order, schedule.TotalDuration),
	}, nil
}
