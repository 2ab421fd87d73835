package playback

import (
	"fmt"

	"github.com/Mrnobodysmkn/TTS-04/internal/pcm"
	"github.com/charmbracelet/log"
)

// ProcessedChunk is the generated audio of one chunk.
type ProcessedChunk struct {
	Index int
	Audio pcm.Payload
}

// QueueState is the position of the queue state machine.
type QueueState int

const (
	// QueueIdle indicates no queue has been played yet.
	QueueIdle QueueState = iota
	// QueuePlaying indicates the chunk under the cursor is rendering.
	QueuePlaying
	// QueuePaused indicates output stopped with the cursor kept.
	QueuePaused
	// QueueFinished indicates the last chunk ended naturally.
	QueueFinished
	// QueueStopped indicates the queue was aborted.
	QueueStopped
)

// String returns the string representation of the queue state.
func (s QueueState) String() string {
	switch s {
	case QueueIdle:
		return "idle"
	case QueuePlaying:
		return "playing"
	case QueuePaused:
		return "paused"
	case QueueFinished:
		return "finished"
	case QueueStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// QueuePlayer sequences processed chunks through a Renderer, advancing on
// natural completion.
//
// QueuePlayer is not safe for concurrent use. Completion signals from the
// renderer are handed to post, which must run them on the goroutine that owns
// the player.
type QueuePlayer struct {
	renderer Renderer
	notifier Notifier
	post     func(func())
	onError  func(error)

	items  []ProcessedChunk
	cursor int
	state  QueueState
	run    uint64
}

// NewQueuePlayer creates a queue player. post schedules completion handling
// on the owning goroutine.
func NewQueuePlayer(r Renderer, n Notifier, post func(func())) *QueuePlayer {
	return &QueuePlayer{
		renderer: r,
		notifier: n,
		post:     post,
		cursor:   -1,
		onError: func(err error) {
			log.Error("Queue playback failed", "error", err)
		},
	}
}

// SetErrorHandler sets the handler for errors raised while advancing
// automatically.
func (q *QueuePlayer) SetErrorHandler(fn func(error)) {
	if fn != nil {
		q.onError = fn
	}
}

// Play replaces the queue and starts playing items[start:].
//
// A start equal to len(items) reports a single terminal finished for the last
// item. An empty queue stops the previous one and returns the channel to idle.
func (q *QueuePlayer) Play(items []ProcessedChunk, start int) error {
	if start < 0 || start > len(items) {
		return fmt.Errorf("%w: %d (queue has %d items)", ErrInvalidIndex, start, len(items))
	}

	q.renderer.StopCurrent()
	q.run++
	q.items = append([]ProcessedChunk(nil), items...)

	if len(q.items) == 0 {
		prev := q.state
		q.cursor = -1
		q.state = QueueIdle
		if prev != QueueIdle {
			q.notifier.Notify(ChannelChunkQueue, Status{State: StateIdle})
		}
		return nil
	}

	log.Debug("Playing chunk queue", "chunks", len(q.items), "start", start)
	q.cursor = start
	return q.advance()
}

// advance plays the chunk under the cursor, or ends the queue when the cursor
// is past the last chunk.
func (q *QueuePlayer) advance() error {
	if q.cursor >= len(q.items) {
		last := q.items[len(q.items)-1]
		q.notifier.Notify(ChannelChunkQueue, Status{State: StateFinished, ID: ChunkID(last.Index)})
		q.finish()
		return nil
	}

	chunk := q.items[q.cursor]
	run, cursor := q.run, q.cursor

	_, err := q.renderer.PlayRaw(chunk.Audio, func() {
		q.post(func() { q.completed(run, cursor) })
	})
	if err != nil {
		q.cursor = -1
		q.state = QueueStopped
		q.notifier.Notify(ChannelChunkQueue, Status{State: StateIdle, ID: ChunkID(chunk.Index)})
		return newError(fmt.Errorf("chunk %d: %w", chunk.Index, err), "queue", "play")
	}

	q.state = QueuePlaying
	q.notifier.Notify(ChannelChunkQueue, Status{State: StatePlaying, ID: ChunkID(chunk.Index)})
	return nil
}

// completed handles the natural end of the chunk at cursor. Signals from a
// superseded run are ignored.
func (q *QueuePlayer) completed(run uint64, cursor int) {
	if run != q.run || q.state != QueuePlaying || cursor != q.cursor {
		log.Debug("Ignoring stale chunk completion", "run", run, "cursor", cursor)
		return
	}

	chunk := q.items[cursor]
	q.notifier.Notify(ChannelChunkQueue, Status{State: StateFinished, ID: ChunkID(chunk.Index)})

	q.cursor++
	if q.cursor >= len(q.items) {
		// finished(last) was just reported
		q.finish()
		return
	}

	if err := q.advance(); err != nil {
		q.onError(err)
	}
}

func (q *QueuePlayer) finish() {
	log.Debug("Chunk queue finished", "chunks", len(q.items))
	q.cursor = -1
	q.state = QueueFinished
}

// Pause stops output and keeps the cursor on the current chunk.
func (q *QueuePlayer) Pause() error {
	if q.state != QueuePlaying {
		return ErrNotPlaying
	}

	q.run++
	q.renderer.StopCurrent()
	q.state = QueuePaused

	chunk := q.items[q.cursor]
	q.notifier.Notify(ChannelChunkQueue, Status{State: StateIdle, ID: ChunkID(chunk.Index)})
	return nil
}

// Resume replays the chunk the queue was paused on.
func (q *QueuePlayer) Resume() error {
	if q.state != QueuePaused {
		return ErrNotPaused
	}
	q.run++
	return q.advance()
}

// Stop aborts auto-advance and clears the queue.
func (q *QueuePlayer) Stop() {
	q.run++
	q.renderer.StopCurrent()
	q.items = nil
	q.cursor = -1
	if q.state != QueueIdle {
		q.state = QueueStopped
	}
}

// Cursor returns the position of the chunk being played or paused on.
func (q *QueuePlayer) Cursor() (int, bool) {
	return q.cursor, q.cursor >= 0
}

// State returns the queue state.
func (q *QueuePlayer) State() QueueState {
	return q.state
}

// Len returns the number of queued chunks.
func (q *QueuePlayer) Len() int {
	return len(q.items)
}
