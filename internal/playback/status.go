package playback

import (
	"fmt"
	"strconv"
)

// Channel is one of the mutually exclusive playback lanes.
type Channel int

const (
	// ChannelSample plays voice previews, keyed by voice id.
	ChannelSample Channel = iota
	// ChannelChunkQueue plays processed chunks in order, keyed by chunk index.
	ChannelChunkQueue
	// ChannelSingle plays one complete result and carries no key.
	ChannelSingle

	numChannels
)

// Channels lists every channel in notification order.
var Channels = [numChannels]Channel{ChannelSample, ChannelChunkQueue, ChannelSingle}

// String returns the string representation of the channel.
func (c Channel) String() string {
	switch c {
	case ChannelSample:
		return "sample"
	case ChannelChunkQueue:
		return "chunkQueue"
	case ChannelSingle:
		return "single"
	default:
		return "unknown"
	}
}

func (c Channel) valid() bool {
	return c >= 0 && c < numChannels
}

// State is the lifecycle position of a channel.
type State int

const (
	// StateIdle indicates nothing is loading or playing on the channel.
	StateIdle State = iota
	// StateLoading indicates a render request has begun.
	StateLoading
	// StatePlaying indicates output has started.
	StatePlaying
	// StateFinished indicates playback ended naturally.
	StateFinished
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Active reports whether the state holds the rendering context.
func (s State) Active() bool {
	return s == StateLoading || s == StatePlaying
}

type idKind uint8

const (
	idNone idKind = iota
	idVoice
	idChunk
)

// ID identifies the item within a channel a status refers to. The zero value
// carries no key. IDs are comparable.
type ID struct {
	kind  idKind
	voice string
	index int
}

// VoiceID returns the key of a voice preview.
func VoiceID(voice string) ID {
	return ID{kind: idVoice, voice: voice}
}

// ChunkID returns the key of a queued chunk.
func ChunkID(index int) ID {
	return ID{kind: idChunk, index: index}
}

// Voice returns the voice id, if the ID holds one.
func (id ID) Voice() (string, bool) {
	return id.voice, id.kind == idVoice
}

// Index returns the chunk index, if the ID holds one.
func (id ID) Index() (int, bool) {
	return id.index, id.kind == idChunk
}

// IsZero reports whether the ID carries no key.
func (id ID) IsZero() bool {
	return id.kind == idNone
}

func (id ID) String() string {
	switch id.kind {
	case idVoice:
		return id.voice
	case idChunk:
		return strconv.Itoa(id.index)
	default:
		return ""
	}
}

// Status is a channel state paired with an optional item key.
type Status struct {
	State State
	ID    ID
}

func (s Status) String() string {
	if s.ID.IsZero() {
		return s.State.String()
	}
	return fmt.Sprintf("%s(%s)", s.State, s.ID)
}

// Observer receives status transitions for the channels it subscribed to.
//
// OnStatus runs on the playback loop. It may read statuses and change
// subscriptions, but must not start or stop playback synchronously.
// Observers are compared by identity, so implementations should be pointers.
type Observer interface {
	OnStatus(ch Channel, st Status)
}

type funcObserver struct {
	fn func(Channel, Status)
}

func (o *funcObserver) OnStatus(ch Channel, st Status) {
	o.fn(ch, st)
}

// ObserverFunc wraps fn in a new Observer. Every call returns a distinct
// observer, so keep the result to unsubscribe later.
func ObserverFunc(fn func(Channel, Status)) Observer {
	return &funcObserver{fn: fn}
}
