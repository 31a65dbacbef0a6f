package notify

import (
	"fmt"
	"sync"
)

// Event is one display transition captured by a Recorder.
type Event struct {
	ID       string
	Kind     string // begin, progress, success, failure, dismiss
	Title    string
	Percent  int
	Category string
	Message  string
}

// Recorder is a Display that records every transition. Intended for tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *Recorder) Begin(id, title, _ string) { r.add(Event{ID: id, Kind: "begin", Title: title}) }

func (r *Recorder) Update(id string, percent int) {
	r.add(Event{ID: id, Kind: "progress", Percent: percent})
}

func (r *Recorder) End(id string, ok bool, category, message string) {
	kind := "failure"
	if ok {
		kind = "success"
	}
	r.add(Event{ID: id, Kind: kind, Category: category, Message: message})
}

func (r *Recorder) Dismiss(id string) { r.add(Event{ID: id, Kind: "dismiss"}) }

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// For returns the events recorded for one notifier.
func (r *Recorder) For(id string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.ID == id {
			out = append(out, e)
		}
	}
	return out
}

// Percents returns the progress values recorded for one notifier.
func (r *Recorder) Percents(id string) []int {
	var out []int
	for _, e := range r.For(id) {
		if e.Kind == "progress" {
			out = append(out, e.Percent)
		}
	}
	return out
}

// Terminal returns the single terminal event for id, or an error if there
// is none or more than one.
func (r *Recorder) Terminal(id string) (Event, error) {
	var found []Event
	for _, e := range r.For(id) {
		if e.Kind == "success" || e.Kind == "failure" {
			found = append(found, e)
		}
	}
	if len(found) != 1 {
		return Event{}, fmt.Errorf("expected one terminal event for %s, got %d", id, len(found))
	}
	return found[0], nil
}
