// Package dispatch delivers outbound notification emails. The core
// enqueues delivery intents and moves on; a single worker goroutine
// drains the queue into a Sender. Delivery failures are logged and
// dropped, never reported to the operation that triggered them.
package dispatch

import (
	"context"
	"log"

	"github.com/civicworks/reclaim/pkg/types"
)

// Message is one delivery intent.
type Message struct {
	Kind  types.DispatchKind
	Email string
	Vars  map[string]string
}

// Sender performs the actual delivery of one message. Implementations
// wrap whatever transport the deployment uses; the in-repo LogSender
// just records the message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Compile-time interface check: Queue must implement types.Dispatcher.
var _ types.Dispatcher = (*Queue)(nil)

// Queue is an asynchronous, fire-and-forget dispatcher backed by a
// buffered channel and one worker goroutine.
type Queue struct {
	sender Sender
	log    *log.Logger
	ch     chan Message
	done   chan struct{}
}

// DefaultBuffer is the queue capacity used by NewQueue when the given
// buffer size is not positive.
const DefaultBuffer = 64

// NewQueue starts a dispatcher draining into sender. Close must be
// called to flush and stop the worker.
func NewQueue(sender Sender, logger *log.Logger, buffer int) *Queue {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	q := &Queue{
		sender: sender,
		log:    logger,
		ch:     make(chan Message, buffer),
		done:   make(chan struct{}),
	}
	go q.run()
	return q
}

// Send enqueues a delivery intent. It never blocks: when the queue is
// full the message is dropped and logged. Callers get no failure signal
// either way.
func (q *Queue) Send(kind types.DispatchKind, email string, vars map[string]string) {
	msg := Message{Kind: kind, Email: email, Vars: vars}
	select {
	case q.ch <- msg:
	default:
		q.log.Printf("dispatch: queue full, dropping %s to %s", kind, email)
	}
}

// Close stops accepting messages, waits for the queue to drain, and
// stops the worker.
func (q *Queue) Close() {
	close(q.ch)
	<-q.done
}

func (q *Queue) run() {
	defer close(q.done)
	for msg := range q.ch {
		if err := q.sender.Send(context.Background(), msg); err != nil {
			q.log.Printf("dispatch: sending %s to %s: %v", msg.Kind, msg.Email, err)
		}
	}
}

// LogSender records deliveries on a logger instead of sending them.
// Used by the CLI and as a stand-in until a real mail transport is
// configured.
type LogSender struct {
	Logger *log.Logger
}

// Send logs the message and always succeeds.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.Logger.Printf("dispatch: %s to %s vars=%v", msg.Kind, msg.Email, msg.Vars)
	return nil
}
