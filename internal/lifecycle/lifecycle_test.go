package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/civicworks/reclaim/internal/sqlite"
	"github.com/civicworks/reclaim/pkg/types"
)

// sentMessage records one dispatcher call.
type sentMessage struct {
	Kind  types.DispatchKind
	Email string
	Vars  map[string]string
}

// fakeDispatcher records dispatches instead of delivering them.
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

func (d *fakeDispatcher) byKind(kind types.DispatchKind) []sentMessage {
	var out []sentMessage
	for _, msg := range d.messages() {
		if msg.Kind == kind {
			out = append(out, msg)
		}
	}
	return out
}

// testEnv bundles the service with its backing stores and dispatcher.
type testEnv struct {
	service       *Service
	objects       types.ObjectStore
	notifications types.NotificationStore
	dispatcher    *fakeDispatcher
}

// setupService wires a Service over a real sqlite backend in a temp
// directory. Options are applied on top of the test defaults.
func setupService(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	backend := sqlite.NewBackend()
	require.NoError(t, backend.Attach(types.Config{
		Backend: types.BackendSQLite,
		DataDir: t.TempDir(),
	}))
	t.Cleanup(func() { backend.Detach() })

	objects, err := backend.Objects()
	require.NoError(t, err)
	notifications, err := backend.Notifications()
	require.NoError(t, err)

	dispatcher := &fakeDispatcher{}
	env := &testEnv{
		objects:       objects,
		notifications: notifications,
		dispatcher:    dispatcher,
	}
	env.service = New(objects, notifications, dispatcher, opts...)
	return env
}

// register creates an object through the service.
func (e *testEnv) register(t *testing.T, institution string, fields ...types.Field) types.Object {
	t.Helper()
	obj, err := e.service.RegisterObject(context.Background(), types.Object{
		Category:    "Document",
		Type:        "ID",
		Fields:      fields,
		FoundDate:   time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC),
		Institution: institution,
	})
	require.NoError(t, err)
	return obj
}

// mustGet fetches the current state of an object.
func (e *testEnv) mustGet(t *testing.T, id string) types.Object {
	t.Helper()
	obj, err := e.objects.GetObject(context.Background(), id)
	require.NoError(t, err)
	return obj
}
