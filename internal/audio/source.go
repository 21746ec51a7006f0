// source.go — Input device abstraction and the chunk-fed source used by
// the browser bridge. The core never touches OS audio APIs directly: the
// bridge feeds PCM chunks streamed from the page's microphone, and tests
// feed synthetic chunks.
package audio

import (
	"io"
	"sync"
)

// Source is an opened audio input stream delivering interleaved 16-bit
// PCM samples. Read blocks until samples are available, returns io.EOF
// once the stream is closed and drained.
type Source interface {
	Read(buf []int16) (int, error)
	Close() error
}

// Device opens input sources. Open returns ErrDeviceDenied when the user
// refuses the grant; that is a recoverable condition for the recorder.
type Device interface {
	Open(sampleRate, channels int) (Source, error)
}

// ChunkSource is a Source fed by discrete PCM chunks pushed from another
// goroutine (the websocket bridge). Closing unblocks readers; pending
// chunks are drained before EOF.
type ChunkSource struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []int16
	closed  bool
}

// NewChunkSource creates an empty open ChunkSource.
func NewChunkSource() *ChunkSource {
	s := &ChunkSource{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Push appends a chunk of samples for readers to consume.
// Returns ErrCaptureStopped after Close.
func (s *ChunkSource) Push(samples []int16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrCaptureStopped
	}
	s.pending = append(s.pending, samples...)
	s.cond.Broadcast()
	return nil
}

// Read blocks until samples are available or the source is closed.
func (s *ChunkSource) Read(buf []int16) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.pending) == 0 && !s.closed {
		s.cond.Wait()
	}
	if len(s.pending) == 0 {
		return 0, io.EOF
	}
	n := copy(buf, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

// Pending returns the number of samples pushed but not yet read.
func (s *ChunkSource) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close marks the source closed and unblocks pending readers. Safe to
// call multiple times.
func (s *ChunkSource) Close() error {
	s.mu.Lock()
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()
	return nil
}

// ChunkDevice is a Device handing out a pre-built ChunkSource. The bridge
// constructs one per connection; a nil source models a denied grant.
type ChunkDevice struct {
	Source *ChunkSource
}

// Open returns the wrapped source, or ErrDeviceDenied when none is set.
func (d *ChunkDevice) Open(sampleRate, channels int) (Source, error) {
	if d == nil || d.Source == nil {
		return nil, ErrDeviceDenied
	}
	return d.Source, nil
}
