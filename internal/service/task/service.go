package task

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medjourney/portal-api/internal/model"
	"github.com/medjourney/portal-api/internal/repository"
	"github.com/medjourney/portal-api/internal/service/audit"
	"github.com/medjourney/portal-api/internal/service/event"
	apperrors "github.com/medjourney/portal-api/pkg/errors"
	"github.com/medjourney/portal-api/pkg/logger"
	"github.com/medjourney/portal-api/pkg/metrics"
)

type Service struct {
	repo     repository.RecoveryTaskRepository
	planRepo repository.SurgeryPlanRepository
	events   *event.Service
	auditor  *audit.Service
	metrics  *metrics.Metrics
	logger   *logger.Logger
	now      func() time.Time
}

func NewService(repo repository.RecoveryTaskRepository, planRepo repository.SurgeryPlanRepository,
	events *event.Service, auditor *audit.Service, m *metrics.Metrics, logger *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		planRepo: planRepo,
		events:   events,
		auditor:  auditor,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Create attaches a recovery task to a surgery plan. Staff only; the
// patient id is inherited from the plan.
func (s *Service) Create(ctx context.Context, scope model.AccessScope, req *model.CreateTaskRequest) (*model.RecoveryTaskView, error) {
	if !scope.Staff() {
		return nil, apperrors.Forbidden("staff access required", nil)
	}

	planID, err := uuid.Parse(req.SurgeryPlanID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid surgery plan id", err)
	}
	plan, err := s.planRepo.Get(ctx, scope, planID)
	if err != nil {
		return nil, apperrors.NotFound("surgery plan", err)
	}

	taskType := req.TaskType
	if taskType == "" {
		taskType = model.TaskTypeGeneral
	}

	task := &model.RecoveryTask{
		Base:          model.Base{ID: uuid.New()},
		SurgeryPlanID: plan.ID,
		PatientID:     plan.PatientID,
		Title:         req.Title,
		Description:   req.Description,
		DueDate:       req.DueDate,
		TaskType:      taskType,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, apperrors.Internal(err)
	}

	if err := s.events.Emit(ctx, model.EventTaskCreated, task); err != nil {
		s.logger.Error(err, "failed to emit task created event", "task_id", task.ID)
	}
	s.auditor.Log(ctx, scope.UserID, model.AuditActionCreate, model.AuditEntityTask, task.ID, &audit.LogOptions{
		Changes: req,
	})
	return model.NewRecoveryTaskView(task, s.now()), nil
}

func (s *Service) Get(ctx context.Context, scope model.AccessScope, id uuid.UUID) (*model.RecoveryTaskView, error) {
	task, err := s.repo.Get(ctx, scope, id)
	if err != nil {
		return nil, apperrors.NotFound("recovery task", err)
	}
	return model.NewRecoveryTaskView(task, s.now()), nil
}

func (s *Service) Update(ctx context.Context, scope model.AccessScope, id uuid.UUID, req *model.UpdateTaskRequest) (*model.RecoveryTaskView, error) {
	if !scope.Staff() {
		return nil, apperrors.Forbidden("staff access required", nil)
	}
	task, err := s.repo.Get(ctx, scope, id)
	if err != nil {
		return nil, apperrors.NotFound("recovery task", err)
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.DueDate != nil {
		task.DueDate = *req.DueDate
	}
	if req.TaskType != nil {
		task.TaskType = *req.TaskType
	}

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.auditor.Log(ctx, scope.UserID, model.AuditActionUpdate, model.AuditEntityTask, task.ID, &audit.LogOptions{
		Changes: req,
	})
	return model.NewRecoveryTaskView(task, s.now()), nil
}

// SetCompleted toggles completion. Patients may complete their own tasks;
// foreign task ids surface as not found because the scoped update matches
// zero rows.
func (s *Service) SetCompleted(ctx context.Context, scope model.AccessScope, id uuid.UUID, completed bool) (*model.RecoveryTaskView, error) {
	var completedAt *time.Time
	if completed {
		now := s.now()
		completedAt = &now
	}

	if err := s.repo.SetCompleted(ctx, scope, id, completed, completedAt); err != nil {
		return nil, apperrors.NotFound("recovery task", err)
	}

	task, err := s.repo.Get(ctx, scope, id)
	if err != nil {
		return nil, apperrors.NotFound("recovery task", err)
	}

	if completed {
		s.metrics.TasksCompleted.Inc()
		if err := s.events.Emit(ctx, model.EventTaskCompleted, task); err != nil {
			s.logger.Error(err, "failed to emit task completed event", "task_id", task.ID)
		}
	}
	s.auditor.Log(ctx, scope.UserID, model.AuditActionUpdate, model.AuditEntityTask, task.ID, &audit.LogOptions{
		Changes: map[string]interface{}{"completed": completed},
	})
	return model.NewRecoveryTaskView(task, s.now()), nil
}

func (s *Service) Delete(ctx context.Context, scope model.AccessScope, id uuid.UUID) error {
	if !scope.Staff() {
		return apperrors.Forbidden("staff access required", nil)
	}
	if err := s.repo.Delete(ctx, scope, id); err != nil {
		return apperrors.NotFound("recovery task", err)
	}
	s.auditor.Log(ctx, scope.UserID, model.AuditActionDelete, model.AuditEntityTask, id, nil)
	return nil
}

// List returns tasks visible to the caller with derived badges.
func (s *Service) List(ctx context.Context, scope model.AccessScope, filter *model.TaskFilter) ([]*model.RecoveryTaskView, error) {
	tasks, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	now := s.now()
	views := make([]*model.RecoveryTaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, model.NewRecoveryTaskView(t, now))
	}
	return views, nil
}
