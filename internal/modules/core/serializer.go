package core

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

type heldKeyContextKey struct{}

type heldKey struct {
	serializer *Serializer
	key        string
	parent     *heldKey
}

type job struct {
	ctx  context.Context
	fn   func(context.Context) error
	done chan error
}

type keyQueue struct {
	jobs    []job
	running bool
}

// Serializer runs the jobs submitted for one key one at a time, in arrival
// order. Jobs for different keys run independently.
type Serializer struct {
	logger *zap.Logger

	mu     sync.Mutex
	queues map[string]*keyQueue
}

func NewSerializer(logger *zap.Logger) *Serializer {
	return &Serializer{
		logger: logger,
		queues: make(map[string]*keyQueue),
	}
}

// Do runs fn once every job submitted earlier for key has finished and
// returns its error. A ctx that already holds key (fn calling back into Do
// for the same key) runs fn inline. A job whose ctx is cancelled before it is
// picked up is skipped.
func (s *Serializer) Do(ctx context.Context, key string, fn func(context.Context) error) error {
	if s.holds(ctx, key) {
		return s.exec(ctx, key, fn)
	}

	done := make(chan error, 1)

	s.mu.Lock()
	q, found := s.queues[key]
	if !found {
		q = &keyQueue{}
		s.queues[key] = q
	}
	q.jobs = append(q.jobs, job{ctx: ctx, fn: fn, done: done})
	if !q.running {
		q.running = true
		go s.run(key, q)
	}
	s.mu.Unlock()

	return <-done
}

// Pending returns the number of queued jobs for key, including a running one.
func (s *Serializer) Pending(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, found := s.queues[key]
	if !found {
		return 0
	}

	n := len(q.jobs)
	if q.running {
		n++
	}
	return n
}

func (s *Serializer) run(key string, q *keyQueue) {
	for {
		s.mu.Lock()
		if len(q.jobs) == 0 {
			q.running = false
			delete(s.queues, key)
			s.mu.Unlock()
			return
		}
		j := q.jobs[0]
		q.jobs[0] = job{}
		q.jobs = q.jobs[1:]
		s.mu.Unlock()

		if err := j.ctx.Err(); err != nil {
			j.done <- err
			continue
		}

		held := context.WithValue(j.ctx, heldKeyContextKey{}, &heldKey{
			serializer: s,
			key:        key,
			parent:     heldKeys(j.ctx),
		})
		j.done <- s.exec(held, key, j.fn)
	}
}

func (s *Serializer) exec(ctx context.Context, key string, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("serialized job panicked", zap.String("key", key), zap.Any("panic", r))
			err = Internal(fmt.Errorf("job for %s panicked: %v", key, r))
		}
	}()

	return fn(ctx)
}

func (s *Serializer) holds(ctx context.Context, key string) bool {
	for h := heldKeys(ctx); h != nil; h = h.parent {
		if h.serializer == s && h.key == key {
			return true
		}
	}
	return false
}

func heldKeys(ctx context.Context) *heldKey {
	h, _ := ctx.Value(heldKeyContextKey{}).(*heldKey)
	return h
}
