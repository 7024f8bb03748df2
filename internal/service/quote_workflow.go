package service

import (
	"strings"

	"github.com/buildlink/crm-api/internal/models"
)

// transitionKey identifies a workflow edge by action and source status.
type transitionKey struct {
	action models.QuoteAction
	from   models.QuoteStatus
}

// quoteTransitions enumerates every legal workflow edge. Any combination
// absent from the table is denied, including all actions on terminal states.
var quoteTransitions = map[transitionKey]models.QuoteStatus{
	{action: models.QuoteActionSubmit, from: models.QuoteStatusDraft}:     models.QuoteStatusPending,
	{action: models.QuoteActionSubmit, from: models.QuoteStatusRejected}:  models.QuoteStatusPending,
	{action: models.QuoteActionApprove, from: models.QuoteStatusPending}:  models.QuoteStatusApproved,
	{action: models.QuoteActionReject, from: models.QuoteStatusPending}:   models.QuoteStatusRejected,
	{action: models.QuoteActionAccept, from: models.QuoteStatusApproved}:  models.QuoteStatusAccepted,
	{action: models.QuoteActionDecline, from: models.QuoteStatusApproved}: models.QuoteStatusDeclined,
}

// QuoteWorkflow evaluates role- and ownership-gated quote transitions.
// The counterpart set holds the roles that may accept or decline an approved
// quote they do not own; by default that is Procurement.
type QuoteWorkflow struct {
	counterparts map[models.UserRole]struct{}
}

// NewQuoteWorkflow builds a workflow with the given counterpart role names.
func NewQuoteWorkflow(counterpartRoles []string) *QuoteWorkflow {
	counterparts := make(map[models.UserRole]struct{}, len(counterpartRoles))
	for _, raw := range counterpartRoles {
		role := models.UserRole(strings.ToUpper(strings.TrimSpace(raw)))
		if models.ValidRole(role) {
			counterparts[role] = struct{}{}
		}
	}
	if len(counterparts) == 0 {
		counterparts[models.RoleProcurement] = struct{}{}
	}
	return &QuoteWorkflow{counterparts: counterparts}
}

// NextStatus returns the destination status for an edge, if the edge exists.
func (w *QuoteWorkflow) NextStatus(action models.QuoteAction, from models.QuoteStatus) (models.QuoteStatus, bool) {
	next, ok := quoteTransitions[transitionKey{action: action, from: from}]
	return next, ok
}

// AllowedActions lists the actions with an edge out of the given status.
func (w *QuoteWorkflow) AllowedActions(from models.QuoteStatus) []models.QuoteAction {
	actions := make([]models.QuoteAction, 0, 2)
	for _, action := range []models.QuoteAction{
		models.QuoteActionSubmit,
		models.QuoteActionApprove,
		models.QuoteActionReject,
		models.QuoteActionAccept,
		models.QuoteActionDecline,
	} {
		if _, ok := quoteTransitions[transitionKey{action: action, from: from}]; ok {
			actions = append(actions, action)
		}
	}
	return actions
}

// CanPerformAction reports whether the actor may perform the action from the
// current status. Approvals require Manager or Admin and exclude the owner;
// accept/decline are open to the owner and the counterpart roles.
func (w *QuoteWorkflow) CanPerformAction(role models.UserRole, action models.QuoteAction, status models.QuoteStatus, isOwner bool) bool {
	if _, ok := quoteTransitions[transitionKey{action: action, from: status}]; !ok {
		return false
	}

	switch action {
	case models.QuoteActionSubmit:
		return isOwner
	case models.QuoteActionApprove:
		return (role == models.RoleAdmin || role == models.RoleManager) && !isOwner
	case models.QuoteActionReject:
		return role == models.RoleAdmin || role == models.RoleManager
	case models.QuoteActionAccept, models.QuoteActionDecline:
		if isOwner {
			return true
		}
		_, counterpart := w.counterparts[role]
		return counterpart
	default:
		return false
	}
}
