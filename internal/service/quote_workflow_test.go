package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/buildlink/crm-api/internal/models"
)

func TestQuoteWorkflowTransitions(t *testing.T) {
	w := NewQuoteWorkflow(nil)

	cases := []struct {
		action models.QuoteAction
		from   models.QuoteStatus
		want   models.QuoteStatus
		ok     bool
	}{
		{models.QuoteActionSubmit, models.QuoteStatusDraft, models.QuoteStatusPending, true},
		{models.QuoteActionSubmit, models.QuoteStatusRejected, models.QuoteStatusPending, true},
		{models.QuoteActionApprove, models.QuoteStatusPending, models.QuoteStatusApproved, true},
		{models.QuoteActionReject, models.QuoteStatusPending, models.QuoteStatusRejected, true},
		{models.QuoteActionAccept, models.QuoteStatusApproved, models.QuoteStatusAccepted, true},
		{models.QuoteActionDecline, models.QuoteStatusApproved, models.QuoteStatusDeclined, true},
		{models.QuoteActionSubmit, models.QuoteStatusPending, "", false},
		{models.QuoteActionApprove, models.QuoteStatusDraft, "", false},
		{models.QuoteActionAccept, models.QuoteStatusPending, "", false},
	}
	for _, tc := range cases {
		next, ok := w.NextStatus(tc.action, tc.from)
		require.Equal(t, tc.ok, ok, "%s from %s", tc.action, tc.from)
		if tc.ok {
			require.Equal(t, tc.want, next)
		}
	}
}

func TestQuoteWorkflowTerminalStatesHaveNoActions(t *testing.T) {
	w := NewQuoteWorkflow(nil)

	for _, status := range []models.QuoteStatus{models.QuoteStatusAccepted, models.QuoteStatusDeclined} {
		require.True(t, status.IsTerminal())
		require.Empty(t, w.AllowedActions(status))
		for _, action := range []models.QuoteAction{
			models.QuoteActionSubmit,
			models.QuoteActionApprove,
			models.QuoteActionReject,
			models.QuoteActionAccept,
			models.QuoteActionDecline,
		} {
			require.False(t, w.CanPerformAction(models.RoleAdmin, action, status, true))
		}
	}
}

func TestQuoteWorkflowSubmitRequiresOwner(t *testing.T) {
	w := NewQuoteWorkflow(nil)

	require.True(t, w.CanPerformAction(models.RoleViewer, models.QuoteActionSubmit, models.QuoteStatusDraft, true))
	require.True(t, w.CanPerformAction(models.RoleManager, models.QuoteActionSubmit, models.QuoteStatusRejected, true))
	require.False(t, w.CanPerformAction(models.RoleAdmin, models.QuoteActionSubmit, models.QuoteStatusDraft, false))
}

func TestQuoteWorkflowApproveExcludesOwner(t *testing.T) {
	w := NewQuoteWorkflow(nil)

	require.True(t, w.CanPerformAction(models.RoleManager, models.QuoteActionApprove, models.QuoteStatusPending, false))
	require.True(t, w.CanPerformAction(models.RoleAdmin, models.QuoteActionApprove, models.QuoteStatusPending, false))
	require.False(t, w.CanPerformAction(models.RoleManager, models.QuoteActionApprove, models.QuoteStatusPending, true))
	require.False(t, w.CanPerformAction(models.RoleAdmin, models.QuoteActionApprove, models.QuoteStatusPending, true))
	require.False(t, w.CanPerformAction(models.RoleProcurement, models.QuoteActionApprove, models.QuoteStatusPending, false))
	require.False(t, w.CanPerformAction(models.RoleViewer, models.QuoteActionApprove, models.QuoteStatusPending, false))
}

func TestQuoteWorkflowRejectAllowsReviewerOwner(t *testing.T) {
	w := NewQuoteWorkflow(nil)

	require.True(t, w.CanPerformAction(models.RoleManager, models.QuoteActionReject, models.QuoteStatusPending, true))
	require.True(t, w.CanPerformAction(models.RoleAdmin, models.QuoteActionReject, models.QuoteStatusPending, false))
	require.False(t, w.CanPerformAction(models.RoleProcurement, models.QuoteActionReject, models.QuoteStatusPending, false))
}

func TestQuoteWorkflowRespondOwnerOrCounterpart(t *testing.T) {
	w := NewQuoteWorkflow(nil)

	require.True(t, w.CanPerformAction(models.RoleViewer, models.QuoteActionAccept, models.QuoteStatusApproved, true))
	require.True(t, w.CanPerformAction(models.RoleProcurement, models.QuoteActionAccept, models.QuoteStatusApproved, false))
	require.True(t, w.CanPerformAction(models.RoleProcurement, models.QuoteActionDecline, models.QuoteStatusApproved, false))
	require.False(t, w.CanPerformAction(models.RoleViewer, models.QuoteActionDecline, models.QuoteStatusApproved, false))
	require.False(t, w.CanPerformAction(models.RoleManager, models.QuoteActionAccept, models.QuoteStatusApproved, false))
}

func TestQuoteWorkflowCustomCounterparts(t *testing.T) {
	w := NewQuoteWorkflow([]string{"manager", " viewer "})

	require.True(t, w.CanPerformAction(models.RoleManager, models.QuoteActionAccept, models.QuoteStatusApproved, false))
	require.True(t, w.CanPerformAction(models.RoleViewer, models.QuoteActionDecline, models.QuoteStatusApproved, false))
	require.False(t, w.CanPerformAction(models.RoleProcurement, models.QuoteActionAccept, models.QuoteStatusApproved, false))
}

func TestQuoteWorkflowInvalidCounterpartsFallBack(t *testing.T) {
	w := NewQuoteWorkflow([]string{"NOT_A_ROLE"})

	require.True(t, w.CanPerformAction(models.RoleProcurement, models.QuoteActionAccept, models.QuoteStatusApproved, false))
}

func TestQuoteWorkflowAllowedActions(t *testing.T) {
	w := NewQuoteWorkflow(nil)

	require.Equal(t, []models.QuoteAction{models.QuoteActionSubmit}, w.AllowedActions(models.QuoteStatusDraft))
	require.ElementsMatch(t,
		[]models.QuoteAction{models.QuoteActionApprove, models.QuoteActionReject},
		w.AllowedActions(models.QuoteStatusPending))
	require.ElementsMatch(t,
		[]models.QuoteAction{models.QuoteActionAccept, models.QuoteActionDecline},
		w.AllowedActions(models.QuoteStatusApproved))
	require.Equal(t, []models.QuoteAction{models.QuoteActionSubmit}, w.AllowedActions(models.QuoteStatusRejected))
}
