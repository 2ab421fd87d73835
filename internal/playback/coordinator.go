package playback

import (
	"sync"

	"github.com/charmbracelet/log"
)

// Stopper halts whatever is currently rendering.
type Stopper interface {
	StopCurrent()
}

// Notifier publishes channel transitions.
type Notifier interface {
	Notify(ch Channel, st Status)
}

// Coordinator owns the authoritative status of every channel and enforces
// that at most one channel is active at a time.
type Coordinator struct {
	stopper Stopper

	mu        sync.Mutex
	observers [numChannels][]Observer
	latest    [numChannels]Status
	epoch     uint64
}

// NewCoordinator creates a coordinator that stops output through stopper.
func NewCoordinator(stopper Stopper) *Coordinator {
	return &Coordinator{stopper: stopper}
}

// Subscribe registers o on ch and returns a function that removes it again.
// Registering the same observer twice has no additional effect.
func (c *Coordinator) Subscribe(ch Channel, o Observer) func() {
	if !ch.valid() || o == nil {
		return func() {}
	}

	c.mu.Lock()
	if indexOf(c.observers[ch], o) < 0 {
		c.observers[ch] = append(c.observers[ch], o)
	}
	c.mu.Unlock()

	return func() { c.Unsubscribe(ch, o) }
}

// Unsubscribe removes o from ch. Unknown observers are ignored.
func (c *Coordinator) Unsubscribe(ch Channel, o Observer) {
	if !ch.valid() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	list := c.observers[ch]
	i := indexOf(list, o)
	if i < 0 {
		return
	}
	// Copy so snapshots taken by an in-flight Notify stay intact.
	next := make([]Observer, 0, len(list)-1)
	next = append(next, list[:i]...)
	c.observers[ch] = append(next, list[i+1:]...)
}

func indexOf(list []Observer, o Observer) int {
	for i, existing := range list {
		if existing == o {
			return i
		}
	}
	return -1
}

// Notify records st as the latest status of ch and delivers it to every
// observer of ch in registration order.
func (c *Coordinator) Notify(ch Channel, st Status) {
	if !ch.valid() {
		return
	}

	c.mu.Lock()
	c.latest[ch] = st
	observers := c.observers[ch]
	c.mu.Unlock()

	log.Debug("Channel status", "channel", ch, "status", st)

	for _, o := range observers {
		deliver(o, ch, st)
	}
}

// deliver invokes one observer, containing any panic it raises.
func deliver(o Observer, ch Channel, st Status) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("Observer failed", "channel", ch, "status", st, "panic", r)
		}
	}()
	o.OnStatus(ch, st)
}

// ResetAll stops the current output and returns every channel to idle.
func (c *Coordinator) ResetAll() {
	c.reset(-1)
}

// ResetOthers stops the current output and returns every channel except keep
// to idle. It is the entry point of a channel that is about to set its own
// status.
func (c *Coordinator) ResetOthers(keep Channel) {
	c.reset(keep)
}

func (c *Coordinator) reset(keep Channel) {
	c.stopper.StopCurrent()

	c.mu.Lock()
	c.epoch++
	c.mu.Unlock()

	for _, ch := range Channels {
		if ch == keep {
			continue
		}
		c.Notify(ch, Status{State: StateIdle})
	}
}

// Epoch returns a counter that advances on every reset. Asynchronous work
// captures it before suspending and discards its result if it has moved on.
func (c *Coordinator) Epoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// Status returns the latest status notified on ch.
func (c *Coordinator) Status(ch Channel) Status {
	if !ch.valid() {
		return Status{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest[ch]
}

// Active returns the channel currently loading or playing, if any.
func (c *Coordinator) Active() (Channel, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ch := range Channels {
		if c.latest[ch].State.Active() {
			return ch, true
		}
	}
	return 0, false
}
