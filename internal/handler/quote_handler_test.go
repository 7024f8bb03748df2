package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildlink/crm-api/internal/middleware"
	"github.com/buildlink/crm-api/internal/models"
	"github.com/buildlink/crm-api/internal/repository"
	"github.com/buildlink/crm-api/internal/service"
	"github.com/buildlink/crm-api/pkg/response"
)

type quoteRepoMock struct {
	quotes map[string]*models.Quote
	seq    int
}

func newQuoteRepoMock(quotes ...*models.Quote) *quoteRepoMock {
	m := &quoteRepoMock{quotes: map[string]*models.Quote{}}
	for _, q := range quotes {
		cp := *q
		m.quotes[q.ID] = &cp
	}
	return m
}

func (m *quoteRepoMock) Create(ctx context.Context, quote *models.Quote) error {
	if quote.ID == "" {
		quote.ID = fmt.Sprintf("quote-%d", len(m.quotes)+1)
	}
	cp := *quote
	m.quotes[quote.ID] = &cp
	return nil
}

func (m *quoteRepoMock) GetByID(ctx context.Context, id string) (*models.Quote, error) {
	if q, ok := m.quotes[id]; ok {
		cp := *q
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *quoteRepoMock) List(ctx context.Context, filter models.QuoteFilter) ([]models.Quote, int, error) {
	var out []models.Quote
	for _, q := range m.quotes {
		if filter.CreatedBy != "" && q.CreatedBy != filter.CreatedBy {
			continue
		}
		out = append(out, *q)
	}
	return out, len(out), nil
}

func (m *quoteRepoMock) UpdateDraft(ctx context.Context, quote *models.Quote) error {
	existing, ok := m.quotes[quote.ID]
	if !ok || existing.Status != models.QuoteStatusDraft {
		return sql.ErrNoRows
	}
	cp := *quote
	cp.Status = existing.Status
	m.quotes[quote.ID] = &cp
	return nil
}

func (m *quoteRepoMock) UpdateStatus(ctx context.Context, params repository.UpdateQuoteStatusParams) error {
	existing, ok := m.quotes[params.ID]
	if !ok || existing.Status != params.ExpectedStatus {
		return sql.ErrNoRows
	}
	existing.Status = params.Status
	if params.SubmittedAt != nil {
		existing.SubmittedAt = params.SubmittedAt
	}
	existing.ApprovedBy = params.ApprovedBy
	existing.ApprovedAt = params.ApprovedAt
	return nil
}

func (m *quoteRepoMock) Delete(ctx context.Context, id string) error {
	if _, ok := m.quotes[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.quotes, id)
	return nil
}

func (m *quoteRepoMock) NextQuoteNumber(ctx context.Context) (string, error) {
	m.seq++
	return fmt.Sprintf("Q-2026-%04d", m.seq), nil
}

type quoteNotifierMock struct {
	events []models.QuoteEvent
}

func (m *quoteNotifierMock) NotifyQuoteEvent(event models.QuoteEvent) {
	m.events = append(m.events, event)
}

func newQuoteTestStack(repo *quoteRepoMock) (*QuoteHandler, *quoteNotifierMock) {
	notifier := &quoteNotifierMock{}
	svc := service.NewQuoteService(repo, nil, notifier, nil, nil)
	return NewQuoteHandler(svc, nil), notifier
}

func draftQuoteFixture(id, owner string) *models.Quote {
	now := time.Now().UTC()
	return &models.Quote{
		ID:          id,
		QuoteNumber: "Q-2026-0001",
		SupplierID:  "supplier-1",
		Title:       "Rebar delivery",
		Currency:    "EUR",
		Status:      models.QuoteStatusDraft,
		CreatedBy:   owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func performQuoteRequest(t *testing.T, h gin.HandlerFunc, method, target string, body []byte, claims *models.JWTClaims, params ...gin.Param) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body != nil {
		req, _ = http.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, target, nil)
	}
	c.Request = req
	c.Params = params
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	h(c)
	c.Writer.WriteHeaderNow()
	return w
}

func TestQuoteHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newQuoteRepoMock()
	handler, _ := newQuoteTestStack(repo)

	payload, _ := json.Marshal(service.CreateQuoteRequest{SupplierID: "supplier-1", Title: "Rebar delivery"})
	claims := &models.JWTClaims{UserID: "buyer-1", Role: models.RoleProcurement}

	w := performQuoteRequest(t, handler.Create, http.MethodPost, "/quotes", payload, claims)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	data, _ := json.Marshal(envelope.Data)
	var quote models.Quote
	require.NoError(t, json.Unmarshal(data, &quote))
	assert.Equal(t, models.QuoteStatusDraft, quote.Status)
	assert.Equal(t, "buyer-1", quote.CreatedBy)
	assert.Equal(t, "Q-2026-0001", quote.QuoteNumber)
}

func TestQuoteHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newQuoteTestStack(newQuoteRepoMock())
	claims := &models.JWTClaims{UserID: "buyer-1", Role: models.RoleProcurement}

	w := performQuoteRequest(t, handler.Create, http.MethodPost, "/quotes", []byte(`{"title":`), claims)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuoteHandlerCreateUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newQuoteTestStack(newQuoteRepoMock())

	w := performQuoteRequest(t, handler.Create, http.MethodPost, "/quotes", []byte(`{}`), nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestQuoteHandlerSubmitByOwner(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newQuoteRepoMock(draftQuoteFixture("quote-1", "buyer-1"))
	handler, notifier := newQuoteTestStack(repo)
	claims := &models.JWTClaims{UserID: "buyer-1", Role: models.RoleProcurement}

	w := performQuoteRequest(t, handler.Transition(models.QuoteActionSubmit), http.MethodPost, "/quotes/quote-1/submit", nil, claims, gin.Param{Key: "id", Value: "quote-1"})
	require.Equal(t, http.StatusOK, w.Code)

	stored, err := repo.GetByID(context.Background(), "quote-1")
	require.NoError(t, err)
	assert.Equal(t, models.QuoteStatusPending, stored.Status)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, models.NotificationQuoteSubmitted, notifier.events[0].Type)
}

func TestQuoteHandlerSubmitByNonOwnerForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newQuoteRepoMock(draftQuoteFixture("quote-1", "buyer-1"))
	handler, notifier := newQuoteTestStack(repo)
	claims := &models.JWTClaims{UserID: "someone-else", Role: models.RoleProcurement}

	w := performQuoteRequest(t, handler.Transition(models.QuoteActionSubmit), http.MethodPost, "/quotes/quote-1/submit", nil, claims, gin.Param{Key: "id", Value: "quote-1"})
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, notifier.events)
}

func TestQuoteHandlerApproveFromDraftForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newQuoteRepoMock(draftQuoteFixture("quote-1", "buyer-1"))
	handler, _ := newQuoteTestStack(repo)
	claims := &models.JWTClaims{UserID: "manager-1", Role: models.RoleManager}

	w := performQuoteRequest(t, handler.Transition(models.QuoteActionApprove), http.MethodPost, "/quotes/quote-1/approve", nil, claims, gin.Param{Key: "id", Value: "quote-1"})
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestQuoteHandlerApprovePendingWithNote(t *testing.T) {
	gin.SetMode(gin.TestMode)
	pending := draftQuoteFixture("quote-1", "buyer-1")
	pending.Status = models.QuoteStatusPending
	repo := newQuoteRepoMock(pending)
	handler, notifier := newQuoteTestStack(repo)
	claims := &models.JWTClaims{UserID: "manager-1", Role: models.RoleManager}

	payload, _ := json.Marshal(service.TransitionQuoteRequest{Note: "within budget"})
	w := performQuoteRequest(t, handler.Transition(models.QuoteActionApprove), http.MethodPost, "/quotes/quote-1/approve", payload, claims, gin.Param{Key: "id", Value: "quote-1"})
	require.Equal(t, http.StatusOK, w.Code)

	stored, err := repo.GetByID(context.Background(), "quote-1")
	require.NoError(t, err)
	assert.Equal(t, models.QuoteStatusApproved, stored.Status)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, "within budget", notifier.events[0].Note)
}

func TestQuoteHandlerTransitionUnknownQuote(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newQuoteTestStack(newQuoteRepoMock())
	claims := &models.JWTClaims{UserID: "buyer-1", Role: models.RoleProcurement}

	w := performQuoteRequest(t, handler.Transition(models.QuoteActionSubmit), http.MethodPost, "/quotes/missing/submit", nil, claims, gin.Param{Key: "id", Value: "missing"})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestQuoteHandlerGetIncludesAllowedActions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newQuoteRepoMock(draftQuoteFixture("quote-1", "buyer-1"))
	handler, _ := newQuoteTestStack(repo)
	claims := &models.JWTClaims{UserID: "buyer-1", Role: models.RoleProcurement}

	w := performQuoteRequest(t, handler.Get, http.MethodGet, "/quotes/quote-1", nil, claims, gin.Param{Key: "id", Value: "quote-1"})
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Meta)
	actions, ok := envelope.Meta["allowed_actions"].([]interface{})
	require.True(t, ok)
	assert.Contains(t, actions, string(models.QuoteActionSubmit))
}

func TestQuoteHandlerDeleteRequiresAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newQuoteRepoMock(draftQuoteFixture("quote-1", "buyer-1"))
	handler, _ := newQuoteTestStack(repo)

	w := performQuoteRequest(t, handler.Delete, http.MethodDelete, "/quotes/quote-1", nil, &models.JWTClaims{UserID: "buyer-1", Role: models.RoleProcurement}, gin.Param{Key: "id", Value: "quote-1"})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = performQuoteRequest(t, handler.Delete, http.MethodDelete, "/quotes/quote-1", nil, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}, gin.Param{Key: "id", Value: "quote-1"})
	require.Equal(t, http.StatusNoContent, w.Code)
}
