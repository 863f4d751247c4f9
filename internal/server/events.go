package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Event is emitted after every action on a session.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Action    string    `json:"action,omitempty"`
	Outcome   string    `json:"outcome,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	State     State     `json:"state"`
}

// publish appends ev to the ring buffer and fans it out to subscribers.
// Slow subscribers miss events rather than block the session. Callers hold
// e.mu.
func (e *entry) publish(ev Event, limit int) Event {
	e.nextEventID++
	ev.ID = e.nextEventID
	e.events = append(e.events, ev)
	if len(e.events) > limit {
		e.events = e.events[len(e.events)-limit:]
	}

	for _, ch := range e.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return ev
}

func (e *entry) addSubscriber(ch chan Event) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextSubID++
	id := e.nextSubID
	e.subs[id] = ch
	return id
}

func (e *entry) removeSubscriber(id int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.subs, id)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	e.mu.Lock()
	events := make([]Event, len(e.events))
	copy(events, e.events)
	e.mu.Unlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := e.addSubscriber(ch)
	defer e.removeSubscriber(id)

	// Send current state immediately.
	e.mu.Lock()
	current := Event{
		Type:      "snapshot",
		Timestamp: time.Now(),
		State:     e.state(),
	}
	e.mu.Unlock()
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-e.done:
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if ev.ID > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", ev.ID)
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}
