// Package access exposes the row-visibility probe: per-table counts of
// rows the calling identity can see. Patients use it to confirm their
// scope, operators use it to verify the policy layer end to end.
package access

import (
	"context"

	"github.com/medjourney/portal-api/internal/model"
	"github.com/medjourney/portal-api/internal/repository"
	apperrors "github.com/medjourney/portal-api/pkg/errors"
)

// Probe is the per-table visibility report for one identity
type Probe struct {
	Role   string         `json:"role"`
	Tables map[string]int `json:"tables"`
}

type Service struct {
	planRepo repository.SurgeryPlanRepository
	taskRepo repository.RecoveryTaskRepository
	docRepo  repository.DocumentRepository
	msgRepo  repository.MessageRepository
}

func NewService(planRepo repository.SurgeryPlanRepository, taskRepo repository.RecoveryTaskRepository,
	docRepo repository.DocumentRepository, msgRepo repository.MessageRepository) *Service {
	return &Service{
		planRepo: planRepo,
		taskRepo: taskRepo,
		docRepo:  docRepo,
		msgRepo:  msgRepo,
	}
}

// Probe counts the rows visible to the caller in each scoped table. A
// patient's counts cover only their own rows; rows belonging to other
// patients never contribute.
func (s *Service) Probe(ctx context.Context, scope model.AccessScope) (*Probe, error) {
	plans, err := s.planRepo.Count(ctx, scope)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	tasks, err := s.taskRepo.Count(ctx, scope)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	docs, err := s.docRepo.Count(ctx, scope)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	msgs, err := s.msgRepo.Count(ctx, scope)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &Probe{
		Role: scope.Role,
		Tables: map[string]int{
			"surgery_plans":  plans,
			"recovery_tasks": tasks,
			"documents":      docs,
			"messages":       msgs,
		},
	}, nil
}
