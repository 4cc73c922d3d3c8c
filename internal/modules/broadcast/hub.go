// Package broadcast fans room events out to every connection subscribed to
// the room.
package broadcast

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrSinkClosed = errors.New("sink closed")
	ErrSinkFull   = errors.New("sink buffer full")
)

// Message is anything that can be delivered to a sink. EventType names it on
// the wire.
type Message interface {
	EventType() string
}

// Sink is one subscriber, usually a websocket connection. Send must not block.
type Sink interface {
	ID() string
	Send(msg Message) error
}

type publishOptions struct {
	except string
}

type PublishOption func(*publishOptions)

// Except skips the sink with the given id.
func Except(sinkID string) PublishOption {
	return func(o *publishOptions) {
		o.except = sinkID
	}
}

type Hub struct {
	logger *zap.Logger

	mu     sync.RWMutex
	topics map[string]map[string]Sink
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger: logger,
		topics: make(map[string]map[string]Sink),
	}
}

func (h *Hub) Subscribe(topic string, sink Sink) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subscribers, found := h.topics[topic]
	if !found {
		subscribers = make(map[string]Sink)
		h.topics[topic] = subscribers
	}
	subscribers[sink.ID()] = sink
}

func (h *Hub) Unsubscribe(topic string, sink Sink) {
	h.unsubscribe(topic, sink.ID())
}

func (h *Hub) unsubscribe(topic string, sinkID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subscribers, found := h.topics[topic]
	if !found {
		return
	}

	delete(subscribers, sinkID)
	if len(subscribers) == 0 {
		delete(h.topics, topic)
	}
}

// Subscribers returns the number of sinks subscribed to topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Publish delivers msg to every sink subscribed to topic. Sinks that fail are
// pruned; the failure is not reported to the publisher.
func (h *Hub) Publish(topic string, msg Message, opts ...PublishOption) {
	options := publishOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	h.mu.RLock()
	sinks := make([]Sink, 0, len(h.topics[topic]))
	for id, sink := range h.topics[topic] {
		if id == options.except {
			continue
		}
		sinks = append(sinks, sink)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, sink := range sinks {
		if err := sink.Send(msg); err != nil {
			h.logger.Debug(
				"pruning subscriber",
				zap.String("topic", topic),
				zap.String("sink_id", sink.ID()),
				zap.Error(err),
			)
			h.unsubscribe(topic, sink.ID())
			continue
		}
		delivered++
	}

	h.logger.Debug(
		"published event",
		zap.String("topic", topic),
		zap.String("event", msg.EventType()),
		zap.Int("delivered", delivered),
		zap.Int("subscribers", len(sinks)),
	)
}

// Send delivers msg to a single sink outside of any topic.
func (h *Hub) Send(sink Sink, msg Message) {
	if err := sink.Send(msg); err != nil {
		h.logger.Debug("direct send failed", zap.String("sink_id", sink.ID()), zap.Error(err))
	}
}
