package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/buildlink/crm-api/internal/models"
	"github.com/buildlink/crm-api/internal/repository"
	appErrors "github.com/buildlink/crm-api/pkg/errors"
)

type quoteRepoStub struct {
	quotes       map[string]*models.Quote
	nextNumber   int
	updateErr    error
	updateParams *repository.UpdateQuoteStatusParams
}

func newQuoteRepoStub(quotes ...*models.Quote) *quoteRepoStub {
	stub := &quoteRepoStub{quotes: make(map[string]*models.Quote), nextNumber: 1}
	for _, q := range quotes {
		stub.quotes[q.ID] = q
	}
	return stub
}

func (s *quoteRepoStub) Create(ctx context.Context, quote *models.Quote) error {
	if quote.ID == "" {
		quote.ID = fmt.Sprintf("quote-%d", len(s.quotes)+1)
	}
	s.quotes[quote.ID] = quote
	return nil
}

func (s *quoteRepoStub) GetByID(ctx context.Context, id string) (*models.Quote, error) {
	if q, ok := s.quotes[id]; ok {
		copy := *q
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *quoteRepoStub) List(ctx context.Context, filter models.QuoteFilter) ([]models.Quote, int, error) {
	var result []models.Quote
	for _, q := range s.quotes {
		if filter.CreatedBy != "" && q.CreatedBy != filter.CreatedBy {
			continue
		}
		result = append(result, *q)
	}
	return result, len(result), nil
}

func (s *quoteRepoStub) UpdateDraft(ctx context.Context, quote *models.Quote) error {
	existing, ok := s.quotes[quote.ID]
	if !ok || existing.Status != models.QuoteStatusDraft {
		return sql.ErrNoRows
	}
	s.quotes[quote.ID] = quote
	return nil
}

func (s *quoteRepoStub) UpdateStatus(ctx context.Context, params repository.UpdateQuoteStatusParams) error {
	s.updateParams = &params
	if s.updateErr != nil {
		return s.updateErr
	}
	q, ok := s.quotes[params.ID]
	if !ok || q.Status != params.ExpectedStatus {
		return sql.ErrNoRows
	}
	q.Status = params.Status
	if params.SubmittedAt != nil {
		q.SubmittedAt = params.SubmittedAt
	}
	if params.ApprovedBy != nil {
		q.ApprovedBy = params.ApprovedBy
		q.ApprovedAt = params.ApprovedAt
		q.ApprovalNote = params.ApprovalNote
	}
	if params.RejectedBy != nil {
		q.RejectedBy = params.RejectedBy
		q.RejectedAt = params.RejectedAt
		q.RejectionNote = params.RejectionNote
	}
	if params.ClearRejection {
		q.RejectedBy = nil
		q.RejectedAt = nil
		q.RejectionNote = nil
	}
	if params.RespondedAt != nil {
		q.RespondedAt = params.RespondedAt
	}
	return nil
}

func (s *quoteRepoStub) Delete(ctx context.Context, id string) error {
	if _, ok := s.quotes[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.quotes, id)
	return nil
}

func (s *quoteRepoStub) NextQuoteNumber(ctx context.Context) (string, error) {
	n := s.nextNumber
	s.nextNumber++
	return fmt.Sprintf("Q-%06d", n), nil
}

type notifierStub struct {
	events []models.QuoteEvent
}

func (n *notifierStub) NotifyQuoteEvent(event models.QuoteEvent) {
	n.events = append(n.events, event)
}

func actorWith(id string, role models.UserRole) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: role}
}

func draftQuote(id, owner string) *models.Quote {
	return &models.Quote{
		ID:          id,
		QuoteNumber: "Q-000042",
		SupplierID:  "supplier-1",
		Title:       "Steel beams",
		Currency:    "EUR",
		Status:      models.QuoteStatusDraft,
		CreatedBy:   owner,
	}
}

func TestQuoteServiceCreateAllocatesNumber(t *testing.T) {
	repo := newQuoteRepoStub()
	svc := NewQuoteService(repo, nil, nil, nil, nil)

	quote, err := svc.Create(context.Background(), actorWith("user-1", models.RoleManager), CreateQuoteRequest{
		SupplierID: "supplier-1",
		Title:      "Steel beams",
	})
	require.NoError(t, err)
	require.Equal(t, "Q-000001", quote.QuoteNumber)
	require.Equal(t, models.QuoteStatusDraft, quote.Status)
	require.Equal(t, "user-1", quote.CreatedBy)
	require.Equal(t, "EUR", quote.Currency)
}

func TestQuoteServiceListScopesProcurementToOwn(t *testing.T) {
	repo := newQuoteRepoStub(draftQuote("q1", "user-1"), draftQuote("q2", "user-2"))
	svc := NewQuoteService(repo, nil, nil, nil, nil)

	own, _, err := svc.List(context.Background(), actorWith("user-1", models.RoleProcurement), models.QuoteFilter{})
	require.NoError(t, err)
	require.Len(t, own, 1)
	require.Equal(t, "q1", own[0].ID)

	all, _, err := svc.List(context.Background(), actorWith("user-3", models.RoleViewer), models.QuoteFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestQuoteServiceSubmitHappyPath(t *testing.T) {
	repo := newQuoteRepoStub(draftQuote("q1", "user-1"))
	notifier := &notifierStub{}
	svc := NewQuoteService(repo, nil, notifier, nil, nil)

	quote, err := svc.ApplyTransition(context.Background(), actorWith("user-1", models.RoleViewer), "q1",
		models.QuoteActionSubmit, TransitionQuoteRequest{})
	require.NoError(t, err)
	require.Equal(t, models.QuoteStatusPending, quote.Status)
	require.NotNil(t, quote.SubmittedAt)

	require.Len(t, notifier.events, 1)
	require.Equal(t, models.NotificationQuoteSubmitted, notifier.events[0].Type)
	require.Equal(t, "user-1", notifier.events[0].OwnerID)
}

func TestQuoteServiceResubmitClearsRejection(t *testing.T) {
	quote := draftQuote("q1", "user-1")
	quote.Status = models.QuoteStatusRejected
	reviewer := "manager-1"
	quote.RejectedBy = &reviewer
	repo := newQuoteRepoStub(quote)
	svc := NewQuoteService(repo, nil, nil, nil, nil)

	updated, err := svc.ApplyTransition(context.Background(), actorWith("user-1", models.RoleViewer), "q1",
		models.QuoteActionSubmit, TransitionQuoteRequest{})
	require.NoError(t, err)
	require.Equal(t, models.QuoteStatusPending, updated.Status)
	require.Nil(t, updated.RejectedBy)
}

func TestQuoteServiceApproveByOwnerForbidden(t *testing.T) {
	quote := draftQuote("q1", "manager-1")
	quote.Status = models.QuoteStatusPending
	repo := newQuoteRepoStub(quote)
	svc := NewQuoteService(repo, nil, nil, nil, nil)

	_, err := svc.ApplyTransition(context.Background(), actorWith("manager-1", models.RoleManager), "q1",
		models.QuoteActionApprove, TransitionQuoteRequest{})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestQuoteServiceInvalidEdgeIsForbidden(t *testing.T) {
	repo := newQuoteRepoStub(draftQuote("q1", "user-1"))
	svc := NewQuoteService(repo, nil, nil, nil, nil)

	_, err := svc.ApplyTransition(context.Background(), actorWith("manager-1", models.RoleManager), "q1",
		models.QuoteActionApprove, TransitionQuoteRequest{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	require.Contains(t, appErr.Message, string(models.QuoteActionApprove))
	require.Contains(t, appErr.Message, string(models.QuoteStatusDraft))
}

func TestQuoteServiceConcurrentTransitionConflicts(t *testing.T) {
	quote := draftQuote("q1", "user-1")
	quote.Status = models.QuoteStatusPending
	repo := newQuoteRepoStub(quote)
	repo.updateErr = sql.ErrNoRows
	notifier := &notifierStub{}
	svc := NewQuoteService(repo, nil, notifier, nil, nil)

	_, err := svc.ApplyTransition(context.Background(), actorWith("manager-1", models.RoleManager), "q1",
		models.QuoteActionApprove, TransitionQuoteRequest{Note: "fine"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	require.Equal(t, models.QuoteStatusPending, repo.updateParams.ExpectedStatus)
	require.Empty(t, notifier.events)
}

func TestQuoteServiceAcceptByCounterpart(t *testing.T) {
	quote := draftQuote("q1", "user-1")
	quote.Status = models.QuoteStatusApproved
	repo := newQuoteRepoStub(quote)
	notifier := &notifierStub{}
	svc := NewQuoteService(repo, nil, notifier, nil, nil)

	updated, err := svc.ApplyTransition(context.Background(), actorWith("proc-1", models.RoleProcurement), "q1",
		models.QuoteActionAccept, TransitionQuoteRequest{})
	require.NoError(t, err)
	require.Equal(t, models.QuoteStatusAccepted, updated.Status)
	require.NotNil(t, updated.RespondedAt)
	require.Len(t, notifier.events, 1)
	require.Equal(t, models.NotificationQuoteAccepted, notifier.events[0].Type)
}

func TestQuoteServiceTerminalQuoteRejectsActions(t *testing.T) {
	quote := draftQuote("q1", "user-1")
	quote.Status = models.QuoteStatusAccepted
	repo := newQuoteRepoStub(quote)
	svc := NewQuoteService(repo, nil, nil, nil, nil)

	for _, action := range []models.QuoteAction{models.QuoteActionSubmit, models.QuoteActionDecline} {
		_, err := svc.ApplyTransition(context.Background(), actorWith("user-1", models.RoleAdmin), "q1",
			action, TransitionQuoteRequest{})
		require.Error(t, err)
		require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	}
}

func TestQuoteServiceTransitionUnknownQuote(t *testing.T) {
	svc := NewQuoteService(newQuoteRepoStub(), nil, nil, nil, nil)

	_, err := svc.ApplyTransition(context.Background(), actorWith("user-1", models.RoleAdmin), "missing",
		models.QuoteActionSubmit, TransitionQuoteRequest{})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestQuoteServiceUpdateOnlyDraft(t *testing.T) {
	quote := draftQuote("q1", "user-1")
	quote.Status = models.QuoteStatusPending
	repo := newQuoteRepoStub(quote)
	svc := NewQuoteService(repo, nil, nil, nil, nil)

	_, err := svc.Update(context.Background(), actorWith("user-1", models.RoleViewer), "q1", UpdateQuoteRequest{
		SupplierID: "supplier-1",
		Title:      "Steel beams v2",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestQuoteServiceDeleteAdminOnly(t *testing.T) {
	repo := newQuoteRepoStub(draftQuote("q1", "user-1"))
	svc := NewQuoteService(repo, nil, nil, nil, nil)

	err := svc.Delete(context.Background(), actorWith("user-1", models.RoleManager), "q1")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(context.Background(), actorWith("admin-1", models.RoleAdmin), "q1"))
}
