package broadcast

import (
	"sync"

	"github.com/google/uuid"
)

const DefaultSinkBufferSize = 32

// ChanSink buffers messages in a channel. Send never blocks: a full buffer
// is reported as ErrSinkFull, which gets the sink pruned.
type ChanSink struct {
	id string
	ch chan Message

	mu     sync.Mutex
	closed bool
}

func NewChanSink(bufferSize int) *ChanSink {
	if bufferSize <= 0 {
		bufferSize = DefaultSinkBufferSize
	}

	return &ChanSink{
		id: uuid.NewString(),
		ch: make(chan Message, bufferSize),
	}
}

func (s *ChanSink) ID() string {
	return s.id
}

func (s *ChanSink) Messages() <-chan Message {
	return s.ch
}

func (s *ChanSink) Send(msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSinkClosed
	}

	select {
	case s.ch <- msg:
		return nil
	default:
		return ErrSinkFull
	}
}

func (s *ChanSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
