package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/buildlink/crm-api/internal/models"
	"github.com/buildlink/crm-api/pkg/jobs"
	"github.com/buildlink/crm-api/pkg/mailer"
)

type notificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]models.Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
	MarkRead(ctx context.Context, id, recipientID string) error
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
}

type recipientDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
}

// NotificationService fans workflow events out to in-app notifications and
// email. Dispatch runs on a background queue and is best effort: enqueue or
// delivery failures are logged and never propagate to the caller.
type NotificationService struct {
	store            notificationStore
	users            recipientDirectory
	mail             *mailer.Mailer
	counterpartRoles []models.UserRole
	queue            *jobs.Queue
	logger           *zap.Logger
}

// NewNotificationService constructs the service and its dispatch queue.
func NewNotificationService(store notificationStore, users recipientDirectory, mail *mailer.Mailer, counterpartRoles []string, cfg jobs.QueueConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &NotificationService{
		store:  store,
		users:  users,
		mail:   mail,
		logger: logger,
	}
	for _, raw := range counterpartRoles {
		role := models.UserRole(raw)
		if models.ValidRole(role) {
			svc.counterpartRoles = append(svc.counterpartRoles, role)
		}
	}
	if len(svc.counterpartRoles) == 0 {
		svc.counterpartRoles = []models.UserRole{models.RoleProcurement}
	}
	cfg.Logger = logger
	svc.queue = jobs.NewQueue("notifications", svc.handleJob, cfg)
	return svc
}

// Start launches the dispatch workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the queue and stops the workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// NotifyQuoteEvent schedules delivery for a workflow transition. Errors are
// swallowed; a full queue only costs the notification, not the transition.
func (s *NotificationService) NotifyQuoteEvent(event models.QuoteEvent) {
	job := jobs.Job{ID: uuid.NewString(), Type: string(event.Type), Payload: event}
	if err := s.queue.TryEnqueue(job); err != nil {
		s.logger.Warn("notification dropped",
			zap.String("type", string(event.Type)),
			zap.String("quote_id", event.QuoteID),
			zap.Error(err))
	}
}

// ListForRecipient returns a recipient's notifications.
func (s *NotificationService) ListForRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]models.Notification, int, error) {
	notifications, err := s.store.ListByRecipient(ctx, recipientID, unreadOnly, limit)
	if err != nil {
		return nil, 0, err
	}
	unread, err := s.store.CountUnread(ctx, recipientID)
	if err != nil {
		return nil, 0, err
	}
	return notifications, unread, nil
}

// MarkRead marks one notification as read for its recipient.
func (s *NotificationService) MarkRead(ctx context.Context, id, recipientID string) error {
	return s.store.MarkRead(ctx, id, recipientID)
}

// MarkAllRead marks every unread notification for the recipient.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	return s.store.MarkAllRead(ctx, recipientID)
}

func (s *NotificationService) handleJob(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(models.QuoteEvent)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID))
		return nil
	}

	recipients, err := s.resolveRecipients(ctx, event)
	if err != nil {
		return err
	}

	title, body := renderQuoteEvent(event)
	for _, recipient := range recipients {
		notification := &models.Notification{
			RecipientID: recipient.ID,
			Type:        event.Type,
			Title:       title,
			Body:        body,
			ResourceID:  &event.QuoteID,
		}
		if err := s.store.Create(ctx, notification); err != nil {
			s.logger.Warn("store notification failed",
				zap.String("recipient_id", recipient.ID),
				zap.Error(err))
			continue
		}
		if s.mail != nil && s.mail.Enabled() && recipient.Email != "" {
			if err := s.mail.Send(recipient.Email, title, body); err != nil {
				s.logger.Warn("notification email failed",
					zap.String("recipient_id", recipient.ID),
					zap.Error(err))
			}
		}
	}
	return nil
}

// resolveRecipients maps an event to the users who should hear about it.
// Submissions go to the reviewer roles; review outcomes go to the owner;
// responses go to the owner or, when the owner responded, the counterparts.
func (s *NotificationService) resolveRecipients(ctx context.Context, event models.QuoteEvent) ([]models.User, error) {
	switch event.Type {
	case models.NotificationQuoteSubmitted:
		return s.usersByRoles(ctx, []models.UserRole{models.RoleAdmin, models.RoleManager}, event.ActorID)
	case models.NotificationQuoteApproved, models.NotificationQuoteRejected:
		return s.usersByIDs(ctx, []string{event.OwnerID}, event.ActorID)
	case models.NotificationQuoteAccepted, models.NotificationQuoteDeclined:
		if event.ActorID != event.OwnerID {
			return s.usersByIDs(ctx, []string{event.OwnerID}, event.ActorID)
		}
		return s.usersByRoles(ctx, s.counterpartRoles, event.ActorID)
	default:
		return nil, nil
	}
}

func (s *NotificationService) usersByRoles(ctx context.Context, roles []models.UserRole, excludeID string) ([]models.User, error) {
	var recipients []models.User
	for i := range roles {
		role := roles[i]
		users, _, err := s.users.List(ctx, models.UserFilter{Role: &role, PageSize: 200})
		if err != nil {
			return nil, fmt.Errorf("list %s recipients: %w", role, err)
		}
		for _, u := range users {
			if u.ID != excludeID {
				recipients = append(recipients, u)
			}
		}
	}
	return recipients, nil
}

func (s *NotificationService) usersByIDs(ctx context.Context, ids []string, excludeID string) ([]models.User, error) {
	var recipients []models.User
	for _, id := range ids {
		if id == "" || id == excludeID {
			continue
		}
		user, err := s.users.FindByID(ctx, id)
		if err != nil {
			s.logger.Warn("notification recipient lookup failed", zap.String("user_id", id), zap.Error(err))
			continue
		}
		recipients = append(recipients, *user)
	}
	return recipients, nil
}

func renderQuoteEvent(event models.QuoteEvent) (title, body string) {
	label := event.QuoteNumber
	if label == "" {
		label = event.QuoteID
	}
	switch event.Type {
	case models.NotificationQuoteSubmitted:
		title = fmt.Sprintf("Quote %s submitted for review", label)
	case models.NotificationQuoteApproved:
		title = fmt.Sprintf("Quote %s approved", label)
	case models.NotificationQuoteRejected:
		title = fmt.Sprintf("Quote %s rejected", label)
	case models.NotificationQuoteAccepted:
		title = fmt.Sprintf("Quote %s accepted", label)
	case models.NotificationQuoteDeclined:
		title = fmt.Sprintf("Quote %s declined", label)
	default:
		title = fmt.Sprintf("Quote %s updated", label)
	}
	body = event.QuoteTitle
	if event.Note != "" {
		if body != "" {
			body += "\n"
		}
		body += "Note: " + event.Note
	}
	return title, body
}
