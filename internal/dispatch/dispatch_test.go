package dispatch

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicworks/reclaim/pkg/types"
)

// recordingSender captures every message it is asked to deliver.
type recordingSender struct {
	mu       sync.Mutex
	messages []Message
	err      error
	block    chan struct{} // when set, Send waits on it
}

func (s *recordingSender) Send(_ context.Context, msg Message) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return s.err
}

func (s *recordingSender) sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestQueueDelivers(t *testing.T) {
	sender := &recordingSender{}
	q := NewQueue(sender, discardLogger(), 8)

	q.Send(types.DispatchSolicitObject, "a@example.com", map[string]string{"devolutionCode": "c0d3s"})
	q.Send(types.DispatchNotification, "b@example.com", map[string]string{"category": "Document"})
	q.Close()

	got := sender.sent()
	require.Len(t, got, 2)
	assert.Equal(t, types.DispatchSolicitObject, got[0].Kind)
	assert.Equal(t, "a@example.com", got[0].Email)
	assert.Equal(t, "c0d3s", got[0].Vars["devolutionCode"])
	assert.Equal(t, types.DispatchNotification, got[1].Kind)
}

func TestQueueSwallowsSenderErrors(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	q := NewQueue(sender, discardLogger(), 8)

	// Send has no error to return; the failure must stay inside the worker.
	q.Send(types.DispatchNotification, "a@example.com", nil)
	q.Close()

	assert.Len(t, sender.sent(), 1)
}

func TestQueueNeverBlocksWhenFull(t *testing.T) {
	block := make(chan struct{})
	sender := &recordingSender{block: block}
	q := NewQueue(sender, discardLogger(), 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			q.Send(types.DispatchNotification, "a@example.com", nil)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Send blocked on a full queue")
	}

	close(block)
	q.Close()
}

func TestLogSender(t *testing.T) {
	sender := &LogSender{Logger: discardLogger()}
	err := sender.Send(context.Background(), Message{
		Kind:  types.DispatchAutomaticSolicitObject,
		Email: "a@example.com",
	})
	assert.NoError(t, err)
}
