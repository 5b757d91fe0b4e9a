// Package watch fans generation progress out to websocket subscribers.
// Events are kept per story so late subscribers replay the full attempt
// history before receiving live updates.
package watch

import (
	"strings"
	"sync"
)

// Event is one step of a generation run as seen by watchers.
type Event struct {
	StoryID string `json:"storyId"`
	Attempt int    `json:"attempt"`
	Stage   string `json:"stage"`
	Error   string `json:"error,omitempty"`
	Done    bool   `json:"done,omitempty"`
}

type Hub struct {
	mu      sync.RWMutex
	history map[string][]Event
	subs    map[string]map[int]chan Event
	done    map[string]bool
	nextSub int
}

func NewHub() *Hub {
	return &Hub{
		history: make(map[string][]Event),
		subs:    make(map[string]map[int]chan Event),
		done:    make(map[string]bool),
	}
}

// Publish records an event and delivers it to live subscribers. Slow
// subscribers drop events rather than block the generator.
func (h *Hub) Publish(ev Event) {
	storyID := strings.TrimSpace(ev.StoryID)
	if h == nil || storyID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done[storyID] {
		return
	}
	h.history[storyID] = append(h.history[storyID], ev)
	for _, ch := range h.subs[storyID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Finish marks a story's run complete and closes live channels. The
// history stays available for replay.
func (h *Hub) Finish(storyID string) {
	storyID = strings.TrimSpace(storyID)
	if h == nil || storyID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done[storyID] {
		return
	}
	h.done[storyID] = true
	for _, ch := range h.subs[storyID] {
		close(ch)
	}
	delete(h.subs, storyID)
}

// Subscribe returns the replayed history, a live channel, and an
// unsubscribe func. The channel is nil when the run already finished.
func (h *Hub) Subscribe(storyID string) ([]Event, <-chan Event, func()) {
	storyID = strings.TrimSpace(storyID)
	if h == nil || storyID == "" {
		return nil, nil, func() {}
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	replay := make([]Event, len(h.history[storyID]))
	copy(replay, h.history[storyID])

	if h.done[storyID] {
		return replay, nil, func() {}
	}

	ch := make(chan Event, 32)
	if h.subs[storyID] == nil {
		h.subs[storyID] = make(map[int]chan Event)
	}
	id := h.nextSub
	h.nextSub++
	h.subs[storyID][id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[storyID][id]; ok {
			delete(h.subs[storyID], id)
			close(sub)
		}
	}
	return replay, ch, cancel
}

// Known reports whether any events were recorded for a story.
func (h *Hub) Known(storyID string) bool {
	storyID = strings.TrimSpace(storyID)
	if h == nil || storyID == "" {
		return false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.history[storyID]
	return ok || h.done[storyID]
}
