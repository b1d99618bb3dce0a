package events

import (
	"time"

	"github.com/aristath/crewplan/internal/scheduler"
)

// Event is the base interface for all events.
type Event interface {
	EventType() string
	Project() string
}

// Topic constants
const (
	TopicAnalysis = "analysis"
	TopicTimeline = "timeline"
)

// Event type constants
const (
	EventTypeAnalysisStarted   = "analysis.started"
	EventTypeAnalysisCompleted = "analysis.completed"
	EventTypeAnalysisFailed    = "analysis.failed"
	EventTypeTimeline          = "timeline.record"
)

// AnalysisStartedEvent is published when a project enters the scheduler.
type AnalysisStartedEvent struct {
	Name      string
	Tasks     int
	Ceiling   int
	Timestamp time.Time
}

func (e AnalysisStartedEvent) EventType() string { return EventTypeAnalysisStarted }
func (e AnalysisStartedEvent) Project() string   { return e.Name }

// TimelineEvent carries one record of the staffing simulation.
type TimelineEvent struct {
	Name       string
	Time       int
	Started    []int
	Finished   []int
	StaffTotal int
	Ceiling    int
}

func (e TimelineEvent) EventType() string { return EventTypeTimeline }
func (e TimelineEvent) Project() string   { return e.Name }

// AnalysisCompletedEvent is published when every pass succeeded.
type AnalysisCompletedEvent struct {
	Name          string
	TotalDuration int
	PeakStaff     int
	CriticalPath  []int
	Tasks         []*scheduler.Task // ID order, slack fields populated
	Records       []scheduler.SimulationEvent
	Elapsed       time.Duration
	Timestamp     time.Time
}

func (e AnalysisCompletedEvent) EventType() string { return EventTypeAnalysisCompleted }
func (e AnalysisCompletedEvent) Project() string   { return e.Name }

// AnalysisFailedEvent is published when a project is cyclic, malformed or
// exceeds its staffing ceiling.
type AnalysisFailedEvent struct {
	Name      string
	Err       error
	Records   []scheduler.SimulationEvent // Log up to the failing instant, if any
	Elapsed   time.Duration
	Timestamp time.Time
}

func (e AnalysisFailedEvent) EventType() string { return EventTypeAnalysisFailed }
func (e AnalysisFailedEvent) Project() string   { return e.Name }
