package message

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
	repo        repository.MessageRepository
	profileRepo repository.ProfileRepository
	events      *event.Service
	auditor     *audit.Service
	metrics     *metrics.Metrics
	logger      *logger.Logger
	now         func() time.Time
}

func NewService(repo repository.MessageRepository, profileRepo repository.ProfileRepository,
	events *event.Service, auditor *audit.Service, m *metrics.Metrics, logger *logger.Logger) *Service {
	return &Service{
		repo:        repo,
		profileRepo: profileRepo,
		events:      events,
		auditor:     auditor,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

// Send delivers a message from the caller to another profile. Self-sends
// are rejected; the recipient must exist.
func (s *Service) Send(ctx context.Context, scope model.AccessScope, req *model.SendMessageRequest) (*model.Message, error) {
	toUserID, err := uuid.Parse(req.ToUserID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid recipient id", err)
	}
	if toUserID == scope.UserID {
		return nil, apperrors.BadRequest("cannot send a message to yourself", nil)
	}
	if _, err := s.profileRepo.Get(ctx, toUserID); err != nil {
		return nil, apperrors.NotFound("recipient", err)
	}

	msg := &model.Message{
		Base:       model.Base{ID: uuid.New()},
		FromUserID: scope.UserID,
		ToUserID:   toUserID,
		Content:    req.Content,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.metrics.MessagesSent.Inc()
	if err := s.events.Emit(ctx, model.EventMessageSent, msg); err != nil {
		s.logger.Error(err, "failed to emit message sent event", "message_id", msg.ID)
	}
	s.auditor.Log(ctx, scope.UserID, model.AuditActionCreate, model.AuditEntityMessage, msg.ID, &audit.LogOptions{
		Metadata: map[string]interface{}{"to_user_id": toUserID},
	})
	return msg, nil
}

func (s *Service) Get(ctx context.Context, scope model.AccessScope, id uuid.UUID) (*model.Message, error) {
	msg, err := s.repo.Get(ctx, scope, id)
	if err != nil {
		return nil, apperrors.NotFound("message", err)
	}
	return msg, nil
}

// List returns the caller's inbox, oldest first. Patient scopes only see
// conversations they are part of.
func (s *Service) List(ctx context.Context, scope model.AccessScope, filter *model.MessageFilter) ([]*model.Message, error) {
	msgs, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return msgs, nil
}

// MarkRead stamps the read receipt. Only the recipient can mark a message
// read, and re-marking an already-read message keeps the original
// timestamp.
func (s *Service) MarkRead(ctx context.Context, scope model.AccessScope, id uuid.UUID) (*model.Message, error) {
	msg, err := s.repo.Get(ctx, scope, id)
	if err != nil {
		return nil, apperrors.NotFound("message", err)
	}
	if msg.ToUserID != scope.UserID {
		return nil, apperrors.Forbidden("only the recipient can mark a message read", nil)
	}

	transitioned, err := s.repo.MarkRead(ctx, scope.UserID, id, s.now())
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	msg, err = s.repo.Get(ctx, scope, id)
	if err != nil {
		return nil, apperrors.NotFound("message", err)
	}

	if transitioned {
		s.auditor.Log(ctx, scope.UserID, model.AuditActionUpdate, model.AuditEntityMessage, id, &audit.LogOptions{
			Metadata: map[string]interface{}{"event": "read"},
		})
	}
	return msg, nil
}

// UnreadCount returns the caller's inbox badge count.
func (s *Service) UnreadCount(ctx context.Context, scope model.AccessScope) (*model.UnreadCount, error) {
	count, err := s.repo.UnreadCount(ctx, scope.UserID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &model.UnreadCount{Count: count}, nil
}
