package playback

import "sync"

// loop runs tasks one at a time in submission order. Every channel
// transition goes through it. Submitting never blocks on a busy loop.
type loop struct {
	mu      sync.Mutex
	pending []func()
	stopped bool

	wake chan struct{}
	quit chan struct{}
	done chan struct{}
	once sync.Once
}

func newLoop() *loop {
	l := &loop{
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *loop) run() {
	defer close(l.done)
	for {
		select {
		case <-l.wake:
			for {
				select {
				case <-l.quit:
					return
				default:
				}
				fn, ok := l.next()
				if !ok {
					break
				}
				fn()
			}
		case <-l.quit:
			return
		}
	}
}

func (l *loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.pending) == 0 {
		return nil, false
	}
	fn := l.pending[0]
	l.pending[0] = nil
	l.pending = l.pending[1:]
	return fn, true
}

// enqueue appends fn to the pending tasks. It reports false after stop.
func (l *loop) enqueue(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// do runs fn on the loop and waits for it to return. It reports false if the
// loop stopped before fn ran. do must not be called from a task.
func (l *loop) do(fn func()) bool {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}
	if !l.enqueue(task) {
		return false
	}

	select {
	case <-finished:
		return true
	case <-l.done:
		select {
		case <-finished:
			return true
		default:
			return false
		}
	}
}

// post schedules fn without waiting. Tasks posted after stop are dropped.
func (l *loop) post(fn func()) {
	l.enqueue(fn)
}

// stop terminates the loop once the running task returns and waits for it.
// Tasks still pending are dropped.
func (l *loop) stop() {
	l.once.Do(func() {
		l.mu.Lock()
		l.stopped = true
		l.pending = nil
		l.mu.Unlock()
		close(l.quit)
	})
	<-l.done
}
