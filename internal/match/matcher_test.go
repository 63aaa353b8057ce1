package match

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicworks/reclaim/internal/sqlite"
	"github.com/civicworks/reclaim/pkg/types"
)

type sentMessage struct {
	Kind  types.DispatchKind
	Email string
	Vars  map[string]string
}

type fakeDispatcher struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (d *fakeDispatcher) Send(kind types.DispatchKind, email string, vars map[string]string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, sentMessage{Kind: kind, Email: email, Vars: vars})
}

func (d *fakeDispatcher) messages() []sentMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]sentMessage(nil), d.sent...)
}

func setupMatcher(t *testing.T) (*Matcher, types.NotificationStore, *fakeDispatcher) {
	t.Helper()

	backend := sqlite.NewBackend()
	require.NoError(t, backend.Attach(types.Config{
		Backend: types.BackendSQLite,
		DataDir: t.TempDir(),
	}))
	t.Cleanup(func() { backend.Detach() })

	notifications, err := backend.Notifications()
	require.NoError(t, err)

	dispatcher := &fakeDispatcher{}
	return New(notifications, dispatcher), notifications, dispatcher
}

func addWant(t *testing.T, store types.NotificationStore, email string, fields ...types.Field) types.Notification {
	t.Helper()
	n, err := store.CreateNotification(context.Background(), types.Notification{
		Email: email,
		ObjectToFind: types.WantedObject{
			Category:  "Document",
			Type:      "ID",
			FoundDate: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
			Fields:    fields,
		},
	})
	require.NoError(t, err)
	return n
}

func foundObject(fields ...types.Field) types.Object {
	return types.Object{
		ID:        "obj-1",
		Category:  "Document",
		Type:      "ID",
		Fields:    fields,
		FoundDate: time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestCheckBindsBestMatch(t *testing.T) {
	matcher, store, dispatcher := setupMatcher(t)

	addWant(t, store, "weak@example.com", types.Field{Name: "number", Value: "555555"})
	strong := addWant(t, store, "strong@example.com",
		types.Field{Name: "number", Value: "555555"},
		types.Field{Name: "holder", Value: "marko petrov"},
	)

	err := matcher.Check(context.Background(), foundObject(
		types.Field{Name: "number", Value: "555555"},
		types.Field{Name: "holder", Value: "marko petrov"},
	))
	require.NoError(t, err)

	got, err := store.NotificationsByEmail(context.Background(), "strong@example.com")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "obj-1", got[0].ObjectFound)

	weak, err := store.NotificationsByEmail(context.Background(), "weak@example.com")
	require.NoError(t, err)
	require.Len(t, weak, 1)
	assert.Empty(t, weak[0].ObjectFound, "only the best match is bound")

	sent := dispatcher.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, types.DispatchNotification, sent[0].Kind)
	assert.Equal(t, "strong@example.com", sent[0].Email)
	assert.Equal(t, strong.ObjectToFind.Category, sent[0].Vars["category"])
	assert.Equal(t, strong.ObjectToFind.Type, sent[0].Vars["type"])
}

func TestCheckNoMatch(t *testing.T) {
	matcher, store, dispatcher := setupMatcher(t)

	addWant(t, store, "owner@example.com", types.Field{Name: "number", Value: "555555"})

	err := matcher.Check(context.Background(), foundObject(types.Field{Name: "number", Value: "999999"}))
	require.NoError(t, err)

	got, err := store.NotificationsByEmail(context.Background(), "owner@example.com")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].ObjectFound)
	assert.Empty(t, dispatcher.messages())
}

func TestCheckSkipsObjectsWithoutText(t *testing.T) {
	matcher, store, dispatcher := setupMatcher(t)

	addWant(t, store, "owner@example.com", types.Field{Name: "number", Value: "555555"})

	err := matcher.Check(context.Background(), foundObject())
	require.NoError(t, err)
	assert.Empty(t, dispatcher.messages())

	got, err := store.NotificationsByEmail(context.Background(), "owner@example.com")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].ObjectFound)
}

func TestCheckIgnoresFulfilledWants(t *testing.T) {
	matcher, store, dispatcher := setupMatcher(t)

	n := addWant(t, store, "owner@example.com", types.Field{Name: "number", Value: "555555"})
	affected, err := store.BindObjectFound(context.Background(), n.ID, "earlier-object")
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	err = matcher.Check(context.Background(), foundObject(types.Field{Name: "number", Value: "555555"}))
	require.NoError(t, err)

	got, err := store.NotificationsByEmail(context.Background(), "owner@example.com")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "earlier-object", got[0].ObjectFound, "fulfilled wants are never rebound")
	assert.Empty(t, dispatcher.messages())
}

// lostBindStore simulates losing the bind to a concurrent registration.
type lostBindStore struct {
	types.NotificationStore
}

func (s *lostBindStore) BindObjectFound(ctx context.Context, id, objectID string) (int64, error) {
	return 0, nil
}

func TestCheckLostBindIsSilent(t *testing.T) {
	_, store, _ := setupMatcher(t)
	addWant(t, store, "owner@example.com", types.Field{Name: "number", Value: "555555"})

	dispatcher := &fakeDispatcher{}
	matcher := New(&lostBindStore{NotificationStore: store}, dispatcher)

	err := matcher.Check(context.Background(), foundObject(types.Field{Name: "number", Value: "555555"}))
	require.NoError(t, err)
	assert.Empty(t, dispatcher.messages(), "no announcement for a bind someone else won")
}
