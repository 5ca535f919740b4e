package plan

import (
	"context"

	"github.com/google/uuid"

	"github.com/medjourney/portal-api/internal/model"
	"github.com/medjourney/portal-api/internal/repository"
	"github.com/medjourney/portal-api/internal/service/audit"
	"github.com/medjourney/portal-api/internal/service/event"
	apperrors "github.com/medjourney/portal-api/pkg/errors"
	"github.com/medjourney/portal-api/pkg/logger"
)

type Service struct {
	repo        repository.SurgeryPlanRepository
	profileRepo repository.ProfileRepository
	events      *event.Service
	auditor     *audit.Service
	logger      *logger.Logger
}

func NewService(repo repository.SurgeryPlanRepository, profileRepo repository.ProfileRepository,
	events *event.Service, auditor *audit.Service, logger *logger.Logger) *Service {
	return &Service{
		repo:        repo,
		profileRepo: profileRepo,
		events:      events,
		auditor:     auditor,
		logger:      logger,
	}
}

// Create registers a surgery plan. Staff only; the patient must exist and
// hold the patient role.
func (s *Service) Create(ctx context.Context, scope model.AccessScope, req *model.CreatePlanRequest) (*model.SurgeryPlan, error) {
	if !scope.Staff() {
		return nil, apperrors.Forbidden("staff access required", nil)
	}

	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid patient id", err)
	}
	patient, err := s.profileRepo.Get(ctx, patientID)
	if err != nil {
		return nil, apperrors.NotFound("patient", err)
	}
	if patient.Role != model.RolePatient {
		return nil, apperrors.BadRequest("profile is not a patient", nil)
	}

	status := req.Status
	if status == "" {
		status = model.PlanStatusPlanning
	}

	plan := &model.SurgeryPlan{
		Base:          model.Base{ID: uuid.New()},
		PatientID:     patientID,
		ProcedureType: req.ProcedureType,
		ClinicName:    req.ClinicName,
		SurgeonName:   req.SurgeonName,
		SurgeryDate:   req.SurgeryDate,
		Status:        status,
	}
	if err := s.repo.Create(ctx, plan); err != nil {
		return nil, apperrors.Internal(err)
	}

	if err := s.events.Emit(ctx, model.EventPlanCreated, plan); err != nil {
		s.logger.Error(err, "failed to emit plan created event", "plan_id", plan.ID)
	}
	s.auditor.Log(ctx, scope.UserID, model.AuditActionCreate, model.AuditEntityPlan, plan.ID, &audit.LogOptions{
		Changes: req,
	})
	return plan, nil
}

func (s *Service) Get(ctx context.Context, scope model.AccessScope, id uuid.UUID) (*model.SurgeryPlanView, error) {
	plan, err := s.repo.Get(ctx, scope, id)
	if err != nil {
		return nil, apperrors.NotFound("surgery plan", err)
	}
	return model.NewSurgeryPlanView(plan), nil
}

func (s *Service) Update(ctx context.Context, scope model.AccessScope, id uuid.UUID, req *model.UpdatePlanRequest) (*model.SurgeryPlanView, error) {
	if !scope.Staff() {
		return nil, apperrors.Forbidden("staff access required", nil)
	}
	plan, err := s.repo.Get(ctx, scope, id)
	if err != nil {
		return nil, apperrors.NotFound("surgery plan", err)
	}

	if req.ProcedureType != nil {
		plan.ProcedureType = *req.ProcedureType
	}
	if req.ClinicName != nil {
		plan.ClinicName = *req.ClinicName
	}
	if req.SurgeonName != nil {
		plan.SurgeonName = *req.SurgeonName
	}
	if req.SurgeryDate != nil {
		plan.SurgeryDate = *req.SurgeryDate
	}
	if req.Status != nil {
		if !model.ValidPlanStatus(*req.Status) {
			return nil, apperrors.BadRequest("invalid plan status", nil)
		}
		plan.Status = *req.Status
	}

	if err := s.repo.Update(ctx, plan); err != nil {
		return nil, apperrors.Internal(err)
	}

	if err := s.events.Emit(ctx, model.EventPlanUpdated, plan); err != nil {
		s.logger.Error(err, "failed to emit plan updated event", "plan_id", plan.ID)
	}
	s.auditor.Log(ctx, scope.UserID, model.AuditActionUpdate, model.AuditEntityPlan, plan.ID, &audit.LogOptions{
		Changes: req,
	})
	return model.NewSurgeryPlanView(plan), nil
}

func (s *Service) Delete(ctx context.Context, scope model.AccessScope, id uuid.UUID) error {
	if !scope.Staff() {
		return apperrors.Forbidden("staff access required", nil)
	}
	if err := s.repo.Delete(ctx, scope, id); err != nil {
		return apperrors.NotFound("surgery plan", err)
	}

	if err := s.events.Emit(ctx, model.EventPlanDeleted, map[string]interface{}{"id": id}); err != nil {
		s.logger.Error(err, "failed to emit plan deleted event", "plan_id", id)
	}
	s.auditor.Log(ctx, scope.UserID, model.AuditActionDelete, model.AuditEntityPlan, id, nil)
	return nil
}

// List returns plans visible to the caller, decorated with phase labels.
// Patient scopes only ever see their own plans regardless of filter.
func (s *Service) List(ctx context.Context, scope model.AccessScope, filter *model.PlanFilter) ([]*model.SurgeryPlanView, error) {
	plans, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	views := make([]*model.SurgeryPlanView, 0, len(plans))
	for _, p := range plans {
		views = append(views, model.NewSurgeryPlanView(p))
	}
	return views, nil
}
