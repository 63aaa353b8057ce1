package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicworks/reclaim/internal/match"
	"github.com/civicworks/reclaim/pkg/types"
)

func TestRegisterObjectTriggersMatching(t *testing.T) {
	env := setupService(t)
	matcher := match.New(env.notifications, env.dispatcher)
	service := New(env.objects, env.notifications, env.dispatcher, WithMatcher(matcher))

	want, err := service.RegisterNotification(context.Background(), types.Notification{
		Email: "owner@example.com",
		ObjectToFind: types.WantedObject{
			Category:  "Document",
			Type:      "ID",
			FoundDate: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
			Fields:    []types.Field{{Name: "number", Value: "555555"}},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, want.ID)

	obj, err := service.RegisterObject(context.Background(), types.Object{
		Category:    "Document",
		Type:        "ID",
		Fields:      []types.Field{{Name: "number", Value: "555555"}},
		FoundDate:   time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC),
		Institution: "inst-1",
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		got, err := service.NotificationsFor(context.Background(), "owner@example.com")
		return err == nil && len(got) == 1 && got[0].ObjectFound == obj.ID
	}, 2*time.Second, 10*time.Millisecond, "matching runs in the background")

	announcements := env.dispatcher.byKind(types.DispatchNotification)
	require.Len(t, announcements, 1)
	assert.Equal(t, "owner@example.com", announcements[0].Email)
	assert.Equal(t, "Document", announcements[0].Vars["category"])
	assert.Equal(t, "ID", announcements[0].Vars["type"])

	// A fulfilled want never rebinds, even if a second match appears.
	second, err := service.RegisterObject(context.Background(), types.Object{
		Category:    "Document",
		Type:        "ID",
		Fields:      []types.Field{{Name: "number", Value: "555555"}},
		FoundDate:   time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC),
		Institution: "inst-1",
	})
	require.NoError(t, err)

	assert.Never(t, func() bool {
		got, _ := service.NotificationsFor(context.Background(), "owner@example.com")
		return len(got) == 1 && got[0].ObjectFound == second.ID
	}, 300*time.Millisecond, 50*time.Millisecond)

	got, err := service.NotificationsFor(context.Background(), "owner@example.com")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, obj.ID, got[0].ObjectFound)
}

func TestRegisterObjectWithoutMatcher(t *testing.T) {
	env := setupService(t)

	obj := env.register(t, "inst-1", types.Field{Name: "number", Value: "1"})
	assert.Equal(t, types.StatusAvailable, obj.Status)
	assert.Empty(t, env.dispatcher.messages())
}

func TestSearchObjectsRedactsCodes(t *testing.T) {
	env := setupService(t)
	obj := env.register(t, "inst-1", types.Field{Name: "number", Value: "555555"})
	_, err := env.service.Solicit(context.Background(), Applicant{ID: "app-1"}, obj.ID)
	require.NoError(t, err)

	got, err := env.service.SearchObjects(context.Background(),
		types.ObjectFilter{Category: "Document"},
		[]types.Field{{Name: "number", Value: "555555"}},
	)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Claim, "the claim itself stays visible")
	assert.Empty(t, got[0].Claim.DevolutionCode, "codes never appear in listings")
}

func TestSearchObjectsPlainListing(t *testing.T) {
	env := setupService(t)
	env.register(t, "inst-1", types.Field{Name: "number", Value: "1"})
	env.register(t, "inst-1", types.Field{Name: "number", Value: "2"})

	got, err := env.service.SearchObjects(context.Background(), types.ObjectFilter{Category: "Document"}, nil)
	require.NoError(t, err)
	assert.Len(t, got, 2, "no fields means a plain filtered listing")
}

func TestObjectsForUser(t *testing.T) {
	env := setupService(t)
	obj := env.register(t, "inst-1")
	env.register(t, "inst-2")
	code, err := env.service.Solicit(context.Background(), Applicant{ID: "app-1"}, obj.ID)
	require.NoError(t, err)

	byInstitution, err := env.service.ObjectsForUser(context.Background(), RoleInstitution, "inst-1", "", nil)
	require.NoError(t, err)
	require.Len(t, byInstitution, 1)
	assert.Equal(t, obj.ID, byInstitution[0].ID)

	byApplicant, err := env.service.ObjectsForUser(context.Background(), RoleApplicant, "app-1", code, nil)
	require.NoError(t, err)
	require.Len(t, byApplicant, 1)
	assert.Equal(t, obj.ID, byApplicant[0].ID)

	_, err = env.service.ObjectsForUser(context.Background(), Role("admin"), "x", "", nil)
	assert.Error(t, err)
}

func TestObjectsForInterested(t *testing.T) {
	env := setupService(t)
	obj := env.register(t, "inst-1")
	_, err := env.service.Solicit(context.Background(), Applicant{ID: "app-1"}, obj.ID)
	require.NoError(t, err)
	require.NoError(t, env.service.RegisterInterest(context.Background(), "app-2", "a2@example.com", obj.ID))

	got, err := env.service.ObjectsForInterested(context.Background(), "app-2", nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, obj.ID, got[0].ID)
	assert.Nil(t, got[0].Claim, "other applicants' claims are stripped")
	assert.Nil(t, got[0].InterestedApplicants, "the queue is stripped")

	none, err := env.service.ObjectsForInterested(context.Background(), "app-9", nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdateObject(t *testing.T) {
	env := setupService(t)
	obj := env.register(t, "inst-1")

	obj.Type = "Passport"
	updated, err := env.service.UpdateObject(context.Background(), "inst-1", obj)
	require.NoError(t, err)
	assert.Equal(t, "Passport", updated.Type)

	_, err = env.service.UpdateObject(context.Background(), "inst-2", obj)
	assert.ErrorIs(t, err, types.ErrObjectNotUpdated)
}

func TestDeleteObjectService(t *testing.T) {
	env := setupService(t)
	obj := env.register(t, "inst-1")

	err := env.service.DeleteObject(context.Background(), "inst-2", obj.ID)
	assert.ErrorIs(t, err, types.ErrObjectNotDeleted)

	require.NoError(t, env.service.DeleteObject(context.Background(), "inst-1", obj.ID))

	_, err = env.objects.GetObject(context.Background(), obj.ID)
	assert.ErrorIs(t, err, types.ErrObjectNotFound)
}

func TestCountObjects(t *testing.T) {
	env := setupService(t)
	env.register(t, "inst-1", types.Field{Name: "number", Value: "1"})
	env.register(t, "inst-1", types.Field{Name: "serial", Value: "2"})

	byCategory, err := env.service.CountObjects(context.Background(), "Document", "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), byCategory)

	byType, err := env.service.CountObjects(context.Background(), "Document", "ID", "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), byType)

	byField, err := env.service.CountObjects(context.Background(), "Document", "", "serial")
	require.NoError(t, err)
	assert.Equal(t, int64(1), byField)
}

func TestNotificationInbox(t *testing.T) {
	env := setupService(t)

	n, err := env.service.RegisterNotification(context.Background(), types.Notification{
		Email: "owner@example.com",
		ObjectToFind: types.WantedObject{
			Category: "Document",
			Type:     "ID",
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, n.ID)

	got, err := env.service.NotificationsFor(context.Background(), "owner@example.com")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	require.NoError(t, env.service.DeleteNotification(context.Background(), n.ID))

	err = env.service.DeleteNotification(context.Background(), n.ID)
	assert.ErrorIs(t, err, types.ErrNotificationNotDeleted)
}
