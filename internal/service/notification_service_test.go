package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildlink/crm-api/internal/models"
	"github.com/buildlink/crm-api/pkg/jobs"
)

type notificationStoreStub struct {
	created []models.Notification
}

func (s *notificationStoreStub) Create(ctx context.Context, n *models.Notification) error {
	s.created = append(s.created, *n)
	return nil
}

func (s *notificationStoreStub) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range s.created {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *notificationStoreStub) CountUnread(ctx context.Context, recipientID string) (int, error) {
	count := 0
	for _, n := range s.created {
		if n.RecipientID == recipientID && n.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

func (s *notificationStoreStub) MarkRead(ctx context.Context, id, recipientID string) error {
	return nil
}

func (s *notificationStoreStub) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	return int64(len(s.created)), nil
}

type directoryStub struct {
	users []models.User
}

func (s *directoryStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			cp := u
			return &cp, nil
		}
	}
	return nil, assert.AnError
}

func (s *directoryStub) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, u := range s.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		out = append(out, u)
	}
	return out, len(out), nil
}

func newNotificationFixture() (*NotificationService, *notificationStoreStub) {
	store := &notificationStoreStub{}
	directory := &directoryStub{users: []models.User{
		{ID: "admin-1", Role: models.RoleAdmin, Email: "admin@example.com"},
		{ID: "manager-1", Role: models.RoleManager, Email: "manager@example.com"},
		{ID: "buyer-1", Role: models.RoleProcurement, Email: "buyer@example.com"},
		{ID: "buyer-2", Role: models.RoleProcurement, Email: "buyer2@example.com"},
	}}
	svc := NewNotificationService(store, directory, nil, nil, jobs.QueueConfig{}, nil)
	return svc, store
}

func TestNotificationSubmittedGoesToReviewers(t *testing.T) {
	svc, store := newNotificationFixture()

	err := svc.handleJob(context.Background(), jobs.Job{ID: "job-1", Payload: models.QuoteEvent{
		Type:        models.NotificationQuoteSubmitted,
		QuoteID:     "quote-1",
		QuoteNumber: "Q-2026-0001",
		QuoteTitle:  "Rebar delivery",
		ActorID:     "buyer-1",
		OwnerID:     "buyer-1",
	}})
	require.NoError(t, err)

	require.Len(t, store.created, 2)
	recipients := []string{store.created[0].RecipientID, store.created[1].RecipientID}
	assert.ElementsMatch(t, []string{"admin-1", "manager-1"}, recipients)
	assert.Equal(t, "Quote Q-2026-0001 submitted for review", store.created[0].Title)
}

func TestNotificationApprovedGoesToOwner(t *testing.T) {
	svc, store := newNotificationFixture()

	err := svc.handleJob(context.Background(), jobs.Job{ID: "job-1", Payload: models.QuoteEvent{
		Type:    models.NotificationQuoteApproved,
		QuoteID: "quote-1",
		ActorID: "manager-1",
		OwnerID: "buyer-1",
	}})
	require.NoError(t, err)

	require.Len(t, store.created, 1)
	assert.Equal(t, "buyer-1", store.created[0].RecipientID)
}

func TestNotificationOwnerResponseGoesToCounterparts(t *testing.T) {
	svc, store := newNotificationFixture()

	err := svc.handleJob(context.Background(), jobs.Job{ID: "job-1", Payload: models.QuoteEvent{
		Type:    models.NotificationQuoteAccepted,
		QuoteID: "quote-1",
		ActorID: "buyer-1",
		OwnerID: "buyer-1",
	}})
	require.NoError(t, err)

	require.Len(t, store.created, 1)
	assert.Equal(t, "buyer-2", store.created[0].RecipientID)
}

func TestNotificationCounterpartResponseGoesToOwner(t *testing.T) {
	svc, store := newNotificationFixture()

	err := svc.handleJob(context.Background(), jobs.Job{ID: "job-1", Payload: models.QuoteEvent{
		Type:    models.NotificationQuoteDeclined,
		QuoteID: "quote-1",
		ActorID: "buyer-2",
		OwnerID: "buyer-1",
	}})
	require.NoError(t, err)

	require.Len(t, store.created, 1)
	assert.Equal(t, "buyer-1", store.created[0].RecipientID)
}

func TestNotificationBodyCarriesNote(t *testing.T) {
	svc, store := newNotificationFixture()

	err := svc.handleJob(context.Background(), jobs.Job{ID: "job-1", Payload: models.QuoteEvent{
		Type:       models.NotificationQuoteRejected,
		QuoteID:    "quote-1",
		QuoteTitle: "Rebar delivery",
		ActorID:    "manager-1",
		OwnerID:    "buyer-1",
		Note:       "price too high",
	}})
	require.NoError(t, err)

	require.Len(t, store.created, 1)
	assert.Contains(t, store.created[0].Body, "price too high")
}

type blockingNotificationStore struct {
	notificationStoreStub
	release chan struct{}
}

func (s *blockingNotificationStore) Create(ctx context.Context, n *models.Notification) error {
	select {
	case <-s.release:
	case <-ctx.Done():
	}
	return s.notificationStoreStub.Create(ctx, n)
}

func TestNotificationNotifyQuoteEventNeverBlocks(t *testing.T) {
	store := &blockingNotificationStore{release: make(chan struct{})}
	directory := &directoryStub{users: []models.User{
		{ID: "manager-1", Role: models.RoleManager, Email: "manager@example.com"},
	}}
	svc := NewNotificationService(store, directory, nil, nil, jobs.QueueConfig{Workers: 1, BufferSize: 1}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx)
	defer func() {
		close(store.release)
		cancel()
		svc.Stop()
	}()

	event := models.QuoteEvent{
		Type:        models.NotificationQuoteSubmitted,
		QuoteID:     "quote-1",
		QuoteNumber: "Q-2026-0001",
		QuoteTitle:  "Rebar delivery",
		ActorID:     "buyer-1",
		OwnerID:     "buyer-1",
	}

	// Park the only worker, then fill the single buffer slot.
	svc.NotifyQuoteEvent(event)
	require.Eventually(t, func() bool {
		return svc.queue.TryEnqueue(jobs.Job{ID: "filler", Payload: event}) == nil
	}, time.Second, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		svc.NotifyQuoteEvent(event)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("dispatch blocked on a full queue")
	}
}

func TestNotificationListForRecipient(t *testing.T) {
	svc, store := newNotificationFixture()
	store.created = []models.Notification{
		{ID: "n1", RecipientID: "buyer-1", Title: "a"},
		{ID: "n2", RecipientID: "buyer-2", Title: "b"},
	}

	notifications, unread, err := svc.ListForRecipient(context.Background(), "buyer-1", false, 50)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, 1, unread)
}
