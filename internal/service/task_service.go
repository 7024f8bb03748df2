package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/buildlink/crm-api/internal/models"
	appErrors "github.com/buildlink/crm-api/pkg/errors"
)

type taskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id string) (*models.Task, error)
	List(ctx context.Context, filter models.TaskFilter) ([]models.Task, int, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id string) error
}

// CreateTaskRequest holds payload for creating a task.
type CreateTaskRequest struct {
	Title       string              `json:"title" validate:"required"`
	Description *string             `json:"description"`
	Priority    models.TaskPriority `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	AssigneeID  *string             `json:"assignee_id"`
	SupplierID  *string             `json:"supplier_id"`
	DealID      *string             `json:"deal_id"`
	DueAt       *time.Time          `json:"due_at"`
}

// UpdateTaskRequest holds payload for updating a task.
type UpdateTaskRequest struct {
	Title       string              `json:"title" validate:"required"`
	Description *string             `json:"description"`
	Status      models.TaskStatus   `json:"status" validate:"required,oneof=OPEN IN_PROGRESS DONE"`
	Priority    models.TaskPriority `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH"`
	AssigneeID  *string             `json:"assignee_id"`
	SupplierID  *string             `json:"supplier_id"`
	DealID      *string             `json:"deal_id"`
	DueAt       *time.Time          `json:"due_at"`
}

// TaskService handles follow-up tasks.
type TaskService struct {
	repo      taskRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTaskService constructs the task service.
func NewTaskService(repo taskRepository, validate *validator.Validate, logger *zap.Logger) *TaskService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{repo: repo, validator: validate, logger: logger}
}

// List returns tasks and pagination metadata.
func (s *TaskService) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, *models.Pagination, error) {
	tasks, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tasks")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return tasks, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single task.
func (s *TaskService) Get(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}
	return task, nil
}

// Create registers a new open task.
func (s *TaskService) Create(ctx context.Context, actor *models.JWTClaims, req CreateTaskRequest) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}
	task := &models.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      models.TaskStatusOpen,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
		SupplierID:  req.SupplierID,
		DealID:      req.DealID,
		DueAt:       req.DueAt,
		CreatedBy:   actor.UserID,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create task")
	}
	return task, nil
}

// Update replaces the task's mutable fields. Moving to DONE stamps the
// completion time; moving away clears it.
func (s *TaskService) Update(ctx context.Context, id string, req UpdateTaskRequest) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	task.Title = req.Title
	task.Description = req.Description
	task.Status = req.Status
	task.Priority = req.Priority
	task.AssigneeID = req.AssigneeID
	task.SupplierID = req.SupplierID
	task.DealID = req.DealID
	task.DueAt = req.DueAt

	if req.Status == models.TaskStatusDone {
		if task.CompletedAt == nil {
			now := time.Now().UTC()
			task.CompletedAt = &now
		}
	} else {
		task.CompletedAt = nil
	}

	if err := s.repo.Update(ctx, task); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update task")
	}
	return task, nil
}

// Delete removes a task.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete task")
	}
	return nil
}
