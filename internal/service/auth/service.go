package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medjourney/portal-api/internal/email"
	"github.com/medjourney/portal-api/internal/model"
	"github.com/medjourney/portal-api/internal/repository"
	"github.com/medjourney/portal-api/internal/service/audit"
	"github.com/medjourney/portal-api/pkg/auth"
	"github.com/medjourney/portal-api/pkg/logger"
	"github.com/medjourney/portal-api/pkg/security"
)

const (
	resetTokenExpiry  = 1 * time.Hour
	verifyTokenExpiry = 24 * time.Hour
	maxLoginAttempts  = 5
	lockoutDuration   = 15 * time.Minute
)

type Service struct {
	profileRepo repository.ProfileRepository
	tokenRepo   repository.TokenRepository
	jwtSvc      auth.JWTService
	hasher      security.PasswordHasher
	emailSvc    email.Service
	auditor     *audit.Service
	logger      *logger.Logger
}

func NewService(profileRepo repository.ProfileRepository, tokenRepo repository.TokenRepository,
	jwtSvc auth.JWTService, hasher security.PasswordHasher, emailSvc email.Service,
	auditor *audit.Service, logger *logger.Logger) *Service {
	return &Service{
		profileRepo: profileRepo,
		tokenRepo:   tokenRepo,
		jwtSvc:      jwtSvc,
		hasher:      hasher,
		emailSvc:    emailSvc,
		auditor:     auditor,
		logger:      logger,
	}
}

func (s *Service) Login(ctx context.Context, email, password string) (*model.TokenResponse, error) {
	profile, err := s.profileRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, model.ErrInvalidCredentials
	}

	if profile.Status == model.ProfileStatusLocked {
		if time.Since(profile.LastLoginAttempt) < lockoutDuration {
			return nil, model.ErrAccountLocked
		}
		profile.Status = model.ProfileStatusActive
		profile.LoginAttempts = 0
	}

	if err := s.hasher.Compare(profile.PasswordHash, password); err != nil {
		profile.LoginAttempts++
		profile.LastLoginAttempt = time.Now()
		if profile.LoginAttempts >= maxLoginAttempts {
			profile.Status = model.ProfileStatusLocked
		}
		if err := s.profileRepo.Update(ctx, profile); err != nil {
			s.logger.Error(err, "failed to record login attempt", "email", email)
		}
		return nil, model.ErrInvalidCredentials
	}

	// Successful login resets the attempt counter
	profile.LoginAttempts = 0
	now := time.Now()
	profile.LastLoginAt = &now
	if err := s.profileRepo.Update(ctx, profile); err != nil {
		s.logger.Error(err, "failed to update login timestamp", "email", email)
	}

	tokens, err := s.generateTokens(profile)
	if err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, profile.ID, model.AuditActionLogin, model.AuditEntityAuth, profile.ID, &audit.LogOptions{
		Metadata: map[string]interface{}{"email": profile.Email},
	})

	return tokens, nil
}

// Signup registers a patient profile. Staff profiles come through the
// admin surface only.
func (s *Service) Signup(ctx context.Context, req *model.SignupRequest) (*model.TokenResponse, error) {
	if existing, _ := s.profileRepo.GetByEmail(ctx, req.Email); existing != nil {
		return nil, model.ErrEmailTaken
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	profile := &model.Profile{
		Base:         model.Base{ID: uuid.New()},
		Email:        req.Email,
		FullName:     req.FullName,
		Role:         model.RolePatient,
		Region:       req.Region,
		Status:       model.ProfileStatusActive,
		PasswordHash: hash,
	}
	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, err
	}

	token := uuid.New().String()
	if err := s.tokenRepo.StoreVerificationToken(ctx, profile.ID, token, time.Now().Add(verifyTokenExpiry)); err != nil {
		return nil, err
	}
	if err := s.emailSvc.SendVerification(ctx, profile.Email, token); err != nil {
		// Signup still succeeds; the client can request a resend.
		s.logger.Error(err, "failed to send verification email", "email", profile.Email)
	}

	s.auditor.Log(ctx, profile.ID, model.AuditActionCreate, model.AuditEntityAuth, profile.ID, &audit.LogOptions{
		Metadata: map[string]interface{}{"email": profile.Email, "region": profile.Region},
	})

	return s.generateTokens(profile)
}

func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	claims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, model.ErrInvalidCredentials
	}

	profile, err := s.profileRepo.Get(ctx, claims.UserID)
	if err != nil {
		return nil, model.ErrInvalidCredentials
	}
	if profile.Status == model.ProfileStatusLocked || profile.Status == model.ProfileStatusInactive {
		return nil, model.ErrAccountLocked
	}

	return s.generateTokens(profile)
}

// Logout revokes the presented access token until its natural expiry.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID, accessToken string, tokenExpiry time.Time) error {
	if err := s.tokenRepo.RevokeAccessToken(ctx, accessToken, tokenExpiry); err != nil {
		return err
	}
	s.auditor.Log(ctx, userID, model.AuditActionLogout, model.AuditEntityAuth, userID, nil)
	return nil
}

func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	userID, err := s.tokenRepo.ValidateVerificationToken(ctx, token)
	if err != nil {
		return err
	}
	if err := s.profileRepo.UpdateEmailVerified(ctx, userID, true); err != nil {
		return err
	}
	if err := s.tokenRepo.InvalidateVerificationToken(ctx, token); err != nil {
		return err
	}

	if profile, err := s.profileRepo.Get(ctx, userID); err == nil {
		if err := s.emailSvc.SendWelcome(ctx, profile.Email, profile.FullName); err != nil {
			s.logger.Error(err, "failed to send welcome email", "email", profile.Email)
		}
	}
	return nil
}

func (s *Service) ResendVerification(ctx context.Context, emailAddr string) error {
	profile, err := s.profileRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		// Unknown address gets a silent success so the endpoint cannot
		// be used to probe for accounts.
		return nil
	}
	if profile.EmailVerified {
		return nil
	}

	token := uuid.New().String()
	if err := s.tokenRepo.StoreVerificationToken(ctx, profile.ID, token, time.Now().Add(verifyTokenExpiry)); err != nil {
		return err
	}
	return s.emailSvc.SendVerification(ctx, profile.Email, token)
}

func (s *Service) ForgotPassword(ctx context.Context, emailAddr string) error {
	profile, err := s.profileRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		return nil
	}

	token := uuid.New().String()
	if err := s.tokenRepo.StoreResetToken(ctx, profile.ID, token, time.Now().Add(resetTokenExpiry)); err != nil {
		return err
	}
	if err := s.emailSvc.SendPasswordReset(ctx, profile.Email, token); err != nil {
		s.logger.Error(err, "failed to send reset email", "email", profile.Email)
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	userID, err := s.tokenRepo.ValidateResetToken(ctx, token)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	profile, err := s.profileRepo.Get(ctx, userID)
	if err != nil {
		return err
	}
	profile.PasswordHash = hash
	profile.LoginAttempts = 0
	if profile.Status == model.ProfileStatusLocked {
		profile.Status = model.ProfileStatusActive
	}
	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return err
	}

	if err := s.tokenRepo.InvalidateResetToken(ctx, token); err != nil {
		return err
	}

	s.auditor.Log(ctx, userID, model.AuditActionUpdate, model.AuditEntityAuth, userID, &audit.LogOptions{
		Metadata: map[string]interface{}{"event": "password_reset"},
	})
	return nil
}

func (s *Service) IsTokenRevoked(ctx context.Context, token string) (bool, error) {
	return s.tokenRepo.IsAccessTokenRevoked(ctx, token)
}

func (s *Service) generateTokens(profile *model.Profile) (*model.TokenResponse, error) {
	accessToken, err := s.jwtSvc.GenerateAccessToken(profile)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwtSvc.GenerateRefreshToken(profile)
	if err != nil {
		return nil, err
	}
	return &model.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Profile:      profile,
	}, nil
}
