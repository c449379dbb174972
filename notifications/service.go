// Package notifications broadcasts server events to SSE subscribers.
package notifications

import (
	"sync"
	"time"
)

// EventType represents the type of notification event
type EventType string

const (
	EventConnected      EventType = "connected"
	EventJobUpdated     EventType = "job-updated"
	EventReleaseCreated EventType = "release-created"
	EventInboxChanged   EventType = "inbox-changed"
)

// Event represents a notification event
type Event struct {
	Type      EventType `json:"type"`
	Timestamp int64     `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// Service fans events out to subscriber channels. Slow subscribers
// lose events rather than block the sender.
type Service struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

// NewService creates a new notification service
func NewService() *Service {
	return &Service{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new subscriber. The returned function removes
// the subscription and closes the channel; calling it twice is safe.
func (s *Service) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 10)

	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	unsubscribe := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
	}

	return ch, unsubscribe
}

// Notify broadcasts an event to all subscribers
func (s *Service) Notify(event Event) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for ch := range s.subs {
		select {
		case ch <- event:
		default:
			// Full buffer, the subscriber misses this one
		}
	}
}

// NotifyJobUpdated announces a job status change
func (s *Service) NotifyJobUpdated(jobID, status string) {
	s.Notify(Event{
		Type: EventJobUpdated,
		Data: map[string]any{"jobId": jobID, "status": status},
	})
}

// NotifyReleaseCreated announces a newly stored release
func (s *Service) NotifyReleaseCreated(releaseID, filename string) {
	s.Notify(Event{
		Type: EventReleaseCreated,
		Data: map[string]any{"releaseId": releaseID, "filename": filename},
	})
}

// NotifyInboxChanged announces inbox drop-folder activity
func (s *Service) NotifyInboxChanged() {
	s.Notify(Event{Type: EventInboxChanged})
}

// Shutdown closes all subscriber channels
func (s *Service) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ch := range s.subs {
		close(ch)
	}
	s.subs = make(map[chan Event]struct{})
}

// SubscriberCount returns the number of active subscribers
func (s *Service) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}
