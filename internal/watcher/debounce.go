package watcher

import (
	"sync"
	"time"
)

// debouncer coalesces events per path. Operations seen within the delay
// window are merged and the timer restarts on each new event.
type debouncer struct {
	delay   time.Duration
	deliver Handler

	mu      sync.Mutex
	pending map[string]*pendingEvent
	stopped bool
}

type pendingEvent struct {
	event Event
	timer *time.Timer
}

func newDebouncer(delay time.Duration, deliver Handler) *debouncer {
	return &debouncer{
		delay:   delay,
		deliver: deliver,
		pending: make(map[string]*pendingEvent),
	}
}

func (d *debouncer) push(event Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if p, ok := d.pending[event.Path]; ok {
		p.event.Op |= event.Op
		p.event.Timestamp = event.Timestamp
		p.timer.Reset(d.delay)
		return
	}

	path := event.Path
	p := &pendingEvent{event: event}
	p.timer = time.AfterFunc(d.delay, func() {
		d.fire(path)
	})
	d.pending[path] = p
}

func (d *debouncer) fire(path string) {
	d.mu.Lock()
	p, ok := d.pending[path]
	if !ok || d.stopped {
		d.mu.Unlock()
		return
	}
	delete(d.pending, path)
	event := p.event
	d.mu.Unlock()

	d.deliver(event)
}

func (d *debouncer) cancel(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.pending[path]; ok {
		p.timer.Stop()
		delete(d.pending, path)
	}
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for path, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, path)
	}
}
