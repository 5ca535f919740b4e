package profile

import (
	"context"

	"github.com/google/uuid"

	"github.com/medjourney/portal-api/internal/model"
	"github.com/medjourney/portal-api/internal/repository"
	"github.com/medjourney/portal-api/internal/service/audit"
	apperrors "github.com/medjourney/portal-api/pkg/errors"
	"github.com/medjourney/portal-api/pkg/security"
)

type Service struct {
	repo    repository.ProfileRepository
	hasher  security.PasswordHasher
	auditor *audit.Service
}

func NewService(repo repository.ProfileRepository, hasher security.PasswordHasher, auditor *audit.Service) *Service {
	return &Service{repo: repo, hasher: hasher, auditor: auditor}
}

// Get returns a profile visible to the caller. Patients read only their
// own profile; staff read any.
func (s *Service) Get(ctx context.Context, scope model.AccessScope, id uuid.UUID) (*model.Profile, error) {
	if !scope.Staff() && scope.UserID != id {
		return nil, apperrors.NotFound("profile", nil)
	}
	profile, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("profile", err)
	}
	return profile, nil
}

func (s *Service) Update(ctx context.Context, scope model.AccessScope, id uuid.UUID, req *model.UpdateProfileRequest) (*model.Profile, error) {
	if !scope.Staff() && scope.UserID != id {
		return nil, apperrors.NotFound("profile", nil)
	}
	profile, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("profile", err)
	}

	if req.FullName != nil {
		profile.FullName = *req.FullName
	}
	if req.Region != nil {
		if !model.ValidRegion(*req.Region) {
			return nil, apperrors.BadRequest("invalid region", nil)
		}
		profile.Region = *req.Region
	}

	if err := s.repo.Update(ctx, profile); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.auditor.Log(ctx, scope.UserID, model.AuditActionUpdate, model.AuditEntityProfile, profile.ID, &audit.LogOptions{
		Changes: req,
	})
	return profile, nil
}

// ListPatients serves the staff-side patient directory.
func (s *Service) ListPatients(ctx context.Context, scope model.AccessScope, filter *model.ProfileFilter) ([]*model.Profile, error) {
	if !scope.Staff() {
		return nil, apperrors.Forbidden("staff access required", nil)
	}
	if filter == nil {
		filter = &model.ProfileFilter{}
	}
	filter.Role = model.RolePatient
	return s.repo.List(ctx, filter)
}

// CreateStaff provisions a provider-side profile. Admin only.
func (s *Service) CreateStaff(ctx context.Context, scope model.AccessScope, req *model.CreateStaffRequest) (*model.Profile, error) {
	if scope.Role != model.RoleAdmin {
		return nil, apperrors.Forbidden("admin access required", nil)
	}
	if existing, _ := s.repo.GetByEmail(ctx, req.Email); existing != nil {
		return nil, apperrors.Conflict("email already registered", nil)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	profile := &model.Profile{
		Base:          model.Base{ID: uuid.New()},
		Email:         req.Email,
		FullName:      req.FullName,
		Role:          req.Role,
		Region:        req.Region,
		Status:        model.ProfileStatusActive,
		PasswordHash:  hash,
		EmailVerified: true,
	}
	if err := s.repo.Create(ctx, profile); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.auditor.Log(ctx, scope.UserID, model.AuditActionCreate, model.AuditEntityProfile, profile.ID, &audit.LogOptions{
		Metadata: map[string]interface{}{"role": profile.Role, "region": profile.Region},
	})
	return profile, nil
}
