package events

import (
	"errors"
	"testing"
	"time"
)

// TestPublishSubscribe verifies basic publish/subscribe functionality.
func TestPublishSubscribe(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	ch := bus.Subscribe(TopicAnalysis, 10)

	event := AnalysisStartedEvent{
		Name:      "bridge",
		Tasks:     3,
		Ceiling:   5,
		Timestamp: time.Now(),
	}

	bus.Publish(TopicAnalysis, event)

	select {
	case received := <-ch:
		if received.Project() != "bridge" {
			t.Errorf("expected project 'bridge', got '%s'", received.Project())
		}
		if received.EventType() != EventTypeAnalysisStarted {
			t.Errorf("expected event type '%s', got '%s'", EventTypeAnalysisStarted, received.EventType())
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}
}

// TestMultipleSubscribers verifies multiple subscribers receive the same event.
func TestMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	ch1 := bus.Subscribe(TopicAnalysis, 10)
	ch2 := bus.Subscribe(TopicAnalysis, 10)

	event := AnalysisCompletedEvent{
		Name:          "tower",
		TotalDuration: 5,
		CriticalPath:  []int{1, 2},
		Elapsed:       100 * time.Millisecond,
		Timestamp:     time.Now(),
	}

	bus.Publish(TopicAnalysis, event)

	// Both channels should receive the event
	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case received := <-ch:
			if received.Project() != "tower" {
				t.Errorf("subscriber %d: expected project 'tower', got '%s'", i+1, received.Project())
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("subscriber %d: timeout waiting for event", i+1)
		}
	}
}

// TestNonBlockingSend verifies that publishing doesn't block when channels are full.
func TestNonBlockingSend(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	// Subscribe with buffer size 1
	ch := bus.Subscribe(TopicTimeline, 1)

	// Publish 10 events - should not deadlock
	done := make(chan bool)
	go func() {
		for i := 0; i < 10; i++ {
			event := TimelineEvent{
				Name:       "bridge",
				Time:       i,
				StaffTotal: i,
			}
			bus.Publish(TopicTimeline, event)
		}
		done <- true
	}()

	// Publisher should complete immediately (non-blocking)
	select {
	case <-done:
		// Success - publisher didn't block
	case <-time.After(100 * time.Millisecond):
		t.Fatal("publisher blocked (expected non-blocking behavior)")
	}

	// Verify we received at least one event (buffer size 1)
	select {
	case received := <-ch:
		if received == nil {
			t.Error("received nil event")
		}
	default:
		t.Error("expected at least one event in buffer")
	}
}

// TestCloseSignalsSubscribers verifies that closing the bus closes subscriber channels.
func TestCloseSignalsSubscribers(t *testing.T) {
	bus := NewEventBus()

	ch := bus.Subscribe(TopicAnalysis, 10)

	// Close the bus
	bus.Close()

	// Channel should be closed (range loop should exit immediately)
	received := 0
	for range ch {
		received++
	}

	if received != 0 {
		t.Errorf("expected 0 events after close, got %d", received)
	}
}

// TestPublishAfterClose verifies publishing after close doesn't panic.
func TestPublishAfterClose(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe(TopicAnalysis, 10)

	bus.Close()

	// This should not panic
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("publishing after close caused panic: %v", r)
		}
	}()

	event := AnalysisStartedEvent{
		Name:      "bridge",
		Timestamp: time.Now(),
	}
	bus.Publish(TopicAnalysis, event)

	// Channel is closed, so we shouldn't receive anything
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("received event after bus was closed")
		}
	default:
		// Expected - channel closed, no data
	}
}

// TestMultipleTopics verifies topic isolation.
func TestMultipleTopics(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	analysisCh := bus.Subscribe(TopicAnalysis, 10)
	timelineCh := bus.Subscribe(TopicTimeline, 10)

	analysisEvent := AnalysisFailedEvent{
		Name:      "bridge",
		Err:       errors.New("cycle detected: 1, 2"),
		Timestamp: time.Now(),
	}

	timelineEvent := TimelineEvent{
		Name:       "bridge",
		Time:       2,
		Started:    []int{2, 3},
		Finished:   []int{1},
		StaffTotal: 3,
		Ceiling:    5,
	}

	bus.Publish(TopicAnalysis, analysisEvent)
	bus.Publish(TopicTimeline, timelineEvent)

	// Analysis channel should receive analysis event
	select {
	case received := <-analysisCh:
		if received.EventType() != EventTypeAnalysisFailed {
			t.Errorf("analysis channel: expected analysis event, got %s", received.EventType())
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("analysis channel: timeout waiting for event")
	}

	// Timeline channel should receive timeline event
	select {
	case received := <-timelineCh:
		if received.EventType() != EventTypeTimeline {
			t.Errorf("timeline channel: expected timeline event, got %s", received.EventType())
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeline channel: timeout waiting for event")
	}

	// Analysis channel should NOT have timeline event
	select {
	case <-analysisCh:
		t.Error("analysis channel received unexpected event")
	case <-time.After(10 * time.Millisecond):
		// Expected - no event
	}

	// Timeline channel should NOT have analysis event
	select {
	case <-timelineCh:
		t.Error("timeline channel received unexpected event")
	case <-time.After(10 * time.Millisecond):
		// Expected - no event
	}
}

// TestSubscribeAll verifies that SubscribeAll receives events from all topics.
func TestSubscribeAll(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	allCh := bus.SubscribeAll(20)

	// Publish analysis event
	analysisEvent := AnalysisFailedEvent{
		Name:      "bridge",
		Err:       errors.New("cycle detected: 1, 2"),
		Timestamp: time.Now(),
	}
	bus.Publish(TopicAnalysis, analysisEvent)

	// Publish timeline event
	timelineEvent := TimelineEvent{
		Name:       "bridge",
		Time:       2,
		Started:    []int{2, 3},
		Finished:   []int{1},
		StaffTotal: 3,
		Ceiling:    5,
	}
	bus.Publish(TopicTimeline, timelineEvent)

	// SubscribeAll channel should receive both events
	receivedTypes := make(map[string]bool)

	for i := 0; i < 2; i++ {
		select {
		case received := <-allCh:
			receivedTypes[received.EventType()] = true
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timeout waiting for event")
		}
	}

	// Verify we received both types
	if !receivedTypes[EventTypeAnalysisFailed] {
		t.Error("SubscribeAll did not receive analysis event")
	}
	if !receivedTypes[EventTypeTimeline] {
		t.Error("SubscribeAll did not receive timeline event")
	}

	// Should not have any more events
	select {
	case <-allCh:
		t.Error("received unexpected third event")
	case <-time.After(10 * time.Millisecond):
		// Expected - no more events
	}
}

// TestProjectKeys verifies every event reports the project it belongs to.
func TestProjectKeys(t *testing.T) {
	evts := []Event{
		AnalysisStartedEvent{Name: "a"},
		TimelineEvent{Name: "a"},
		AnalysisCompletedEvent{Name: "a"},
		AnalysisFailedEvent{Name: "a"},
	}

	seen := make(map[string]bool)
	for _, e := range evts {
		if e.Project() != "a" {
			t.Errorf("%s: expected project 'a', got '%s'", e.EventType(), e.Project())
		}
		if seen[e.EventType()] {
			t.Errorf("duplicate event type %s", e.EventType())
		}
		seen[e.EventType()] = true
	}
}

// TestEmitRoutesByType verifies Emit picks the topic from the event type.
func TestEmitRoutesByType(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	analysisCh := bus.Subscribe(TopicAnalysis, 10)
	timelineCh := bus.Subscribe(TopicTimeline, 10)

	bus.Emit(TimelineEvent{Name: "bridge", Time: 3, StaffTotal: 2})
	bus.Emit(AnalysisCompletedEvent{Name: "bridge", TotalDuration: 5})

	select {
	case received := <-timelineCh:
		if received.EventType() != EventTypeTimeline {
			t.Errorf("timeline channel: got %s", received.EventType())
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeline channel: timeout waiting for event")
	}

	select {
	case received := <-analysisCh:
		if received.EventType() != EventTypeAnalysisCompleted {
			t.Errorf("analysis channel: got %s", received.EventType())
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("analysis channel: timeout waiting for event")
	}
}

// TestFullSubscriberKeepsTerminalEvents verifies a flood of timeline records
// cannot push analysis events out of a full subscriber.
func TestFullSubscriberKeepsTerminalEvents(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	allCh := bus.SubscribeAll(4)

	done := make(chan struct{})
	go func() {
		bus.Emit(AnalysisStartedEvent{Name: "bridge"})
		for i := range 100 {
			bus.Emit(TimelineEvent{Name: "bridge", Time: i, StaffTotal: i % 3})
		}
		bus.Emit(AnalysisCompletedEvent{Name: "bridge", TotalDuration: 100})
		bus.Emit(AnalysisStartedEvent{Name: "tower"})
		bus.Emit(AnalysisFailedEvent{Name: "tower", Err: errors.New("cycle detected: 1, 2")})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("publisher blocked on a full subscriber")
	}

	var terminal []string
	timeline := 0
	for len(terminal) < 4 {
		select {
		case received := <-allCh:
			if Droppable(received) {
				timeline++
				continue
			}
			terminal = append(terminal, received.Project()+" "+received.EventType())
		case <-time.After(time.Second):
			t.Fatalf("timeout: got terminal events %v", terminal)
		}
	}

	want := []string{
		"bridge " + EventTypeAnalysisStarted,
		"bridge " + EventTypeAnalysisCompleted,
		"tower " + EventTypeAnalysisStarted,
		"tower " + EventTypeAnalysisFailed,
	}
	for i := range want {
		if terminal[i] != want[i] {
			t.Errorf("event %d: expected %q, got %q", i, want[i], terminal[i])
		}
	}
	if timeline >= 100 {
		t.Errorf("expected some timeline records to be dropped, got all %d", timeline)
	}
}

// TestCloseWithBacklog verifies Close does not wait for a reader that never
// drains its backlog.
func TestCloseWithBacklog(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe(TopicAnalysis, 1)

	for range 5 {
		bus.Emit(AnalysisStartedEvent{Name: "bridge"})
	}

	closed := make(chan struct{})
	go func() {
		bus.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close blocked on backlogged subscriber")
	}

	for range ch {
	}
}
