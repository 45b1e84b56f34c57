package progrock

import (
	"io"
	"sync"

	"github.com/vito/progrock"
	"google.golang.org/protobuf/proto"
)

// Stream is a progrock.Writer that queues status updates for a single reader.
// The queue is unbounded, so writers never wait on the renderer.
type Stream struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []*progrock.StatusUpdate
	closed  bool
}

var _ progrock.Writer = (*Stream)(nil)

// NewStream creates an empty Stream.
func NewStream() *Stream {
	s := &Stream{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// WriteStatus queues a copy of update.
func (s *Stream) WriteStatus(update *progrock.StatusUpdate) error {
	// The recorder keeps mutating its vertexes after the update is written.
	clone, ok := proto.Clone(update).(*progrock.StatusUpdate)
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return io.ErrClosedPipe
	}
	s.pending = append(s.pending, clone)
	s.cond.Signal()
	return nil
}

// Close ends the stream. Queued updates remain readable.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.cond.Broadcast()
	return nil
}

// Read blocks until an update is available. It returns io.EOF once the stream
// is closed and drained.
func (s *Stream) Read() (*progrock.StatusUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.pending) == 0 && !s.closed {
		s.cond.Wait()
	}
	if len(s.pending) == 0 {
		return nil, io.EOF
	}
	update := s.pending[0]
	s.pending[0] = nil
	s.pending = s.pending[1:]
	return update, nil
}
