// Package notify reports per-upload status to the user.
//
// Each upload gets its own Notifier from a Center. A Notifier moves through
// created, then progress (strictly increasing), then exactly one terminal
// state. Calls that would break that order are ignored. Displays render the
// transitions; the Center keeps track of live notifiers so they can all be
// cleared on exit.
package notify

import (
	"sync"

	"github.com/google/uuid"
)

// Notifier is the status handle for one upload.
type Notifier interface {
	ID() string
	Progress(percent int)
	Succeeded()
	Failed(category, message string)
}

// Display renders notifier transitions. Implementations must be safe for
// concurrent use.
type Display interface {
	Begin(id, title, icon string)
	Update(id string, percent int)
	End(id string, ok bool, category, message string)
	Dismiss(id string)
}

// Center creates notifiers and tracks the live ones.
type Center struct {
	displays []Display

	mu   sync.Mutex
	live map[string]*upload
}

// NewCenter returns a Center fanning out to displays.
func NewCenter(displays ...Display) *Center {
	return &Center{displays: displays, live: make(map[string]*upload)}
}

// New creates a notifier for the capture called name. icon is a thumbnail
// path or empty.
func (c *Center) New(name, icon string) Notifier {
	u := &upload{id: uuid.NewString(), name: name, center: c, last: -1}
	c.mu.Lock()
	c.live[u.id] = u
	c.mu.Unlock()
	for _, d := range c.displays {
		d.Begin(u.id, name, icon)
	}
	return u
}

// Release drops n without a terminal report. Used when the upload it was
// created for never reached the queue.
func (c *Center) Release(n Notifier) {
	u, ok := n.(*upload)
	if !ok || !u.finish() {
		return
	}
	c.forget(u.id)
	for _, d := range c.displays {
		d.Dismiss(u.id)
	}
}

// Live returns the number of notifiers that have not reached a terminal
// state.
func (c *Center) Live() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.live)
}

// ClearAll dismisses every live notifier. Later calls on those notifiers
// are no-ops.
func (c *Center) ClearAll() {
	c.mu.Lock()
	live := c.live
	c.live = make(map[string]*upload)
	c.mu.Unlock()

	for id, u := range live {
		if !u.finish() {
			continue
		}
		for _, d := range c.displays {
			d.Dismiss(id)
		}
	}
}

func (c *Center) forget(id string) {
	c.mu.Lock()
	delete(c.live, id)
	c.mu.Unlock()
}

type upload struct {
	id     string
	name   string
	center *Center

	mu   sync.Mutex
	last int
	done bool
}

func (u *upload) ID() string { return u.id }

func (u *upload) Progress(percent int) {
	u.mu.Lock()
	if u.done || percent <= u.last {
		u.mu.Unlock()
		return
	}
	u.last = percent
	u.mu.Unlock()

	for _, d := range u.center.displays {
		d.Update(u.id, percent)
	}
}

func (u *upload) Succeeded() {
	u.end(true, "", "")
}

func (u *upload) Failed(category, message string) {
	u.end(false, category, message)
}

func (u *upload) end(ok bool, category, message string) {
	if !u.finish() {
		return
	}
	u.center.forget(u.id)
	for _, d := range u.center.displays {
		d.End(u.id, ok, category, message)
	}
}

// finish marks the upload terminal, reporting whether this call did it.
func (u *upload) finish() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return false
	}
	u.done = true
	return true
}
