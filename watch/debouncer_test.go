package watch

import (
	"sync"
	"testing"
	"time"
)

// eventRecorder collects emitted events for assertions
type eventRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	path      string
	eventType EventType
}

func (r *eventRecorder) record(path string, eventType EventType) {
	r.mu.Lock()
	r.events = append(r.events, recordedEvent{path, eventType})
	r.mu.Unlock()
}

func (r *eventRecorder) snapshot() []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedEvent(nil), r.events...)
}

func TestDebouncer_CoalescesRapidWrites(t *testing.T) {
	rec := &eventRecorder{}
	d := newDebouncer(50*time.Millisecond, rec.record)
	defer d.Stop()

	for i := 0; i < 5; i++ {
		d.Queue("inbox/update.pdf", EventWrite)
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)

	got := rec.snapshot()
	if len(got) != 1 {
		t.Fatalf("expected 1 coalesced event, got %d", len(got))
	}
	if got[0].path != "inbox/update.pdf" || got[0].eventType != EventWrite {
		t.Errorf("unexpected event: %+v", got[0])
	}
	if n := d.PendingCount(); n != 0 {
		t.Errorf("expected no pending events, got %d", n)
	}
}

func TestDebouncer_DeleteIsImmediate(t *testing.T) {
	rec := &eventRecorder{}
	done := make(chan struct{}, 1)
	d := newDebouncer(100*time.Millisecond, func(path string, eventType EventType) {
		rec.record(path, eventType)
		if eventType == EventDelete {
			done <- struct{}{}
		}
	})
	defer d.Stop()

	d.Queue("inbox/update.pdf", EventDelete)

	select {
	case <-done:
	case <-time.After(50 * time.Millisecond):
		t.Fatal("delete was not processed immediately")
	}

	got := rec.snapshot()
	if len(got) != 1 || got[0].eventType != EventDelete {
		t.Errorf("expected immediate delete processing, got %v", got)
	}
}

func TestDebouncer_CreateUpgradesWrite(t *testing.T) {
	rec := &eventRecorder{}
	d := newDebouncer(50*time.Millisecond, rec.record)
	defer d.Stop()

	d.Queue("inbox/demo.mp4", EventWrite)
	d.Queue("inbox/demo.mp4", EventCreate)
	time.Sleep(100 * time.Millisecond)

	got := rec.snapshot()
	if len(got) != 1 || got[0].eventType != EventCreate {
		t.Errorf("expected single create event, got %v", got)
	}
}

func TestDebouncer_StopPreventsNewEvents(t *testing.T) {
	rec := &eventRecorder{}
	d := newDebouncer(10*time.Millisecond, rec.record)

	d.Queue("inbox/a.txt", EventWrite)
	d.Stop()

	if d.Queue("inbox/b.txt", EventWrite) {
		t.Error("Queue should return false after Stop")
	}
	if n := d.PendingCount(); n != 0 {
		t.Errorf("expected pending events cancelled, got %d", n)
	}

	time.Sleep(50 * time.Millisecond)
	if got := rec.snapshot(); len(got) != 0 {
		t.Errorf("expected no events after Stop, got %v", got)
	}
}

func TestDebouncer_SeparatePathsProcessedIndependently(t *testing.T) {
	rec := &eventRecorder{}
	d := newDebouncer(30*time.Millisecond, rec.record)
	defer d.Stop()

	d.Queue("inbox/a.txt", EventWrite)
	d.Queue("inbox/b.txt", EventWrite)
	time.Sleep(80 * time.Millisecond)

	if got := rec.snapshot(); len(got) != 2 {
		t.Errorf("expected 2 events, got %d: %v", len(got), got)
	}
}
