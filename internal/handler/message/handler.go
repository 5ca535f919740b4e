package message

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medjourney/portal-api/internal/handler"
	"github.com/medjourney/portal-api/internal/model"
	"github.com/medjourney/portal-api/internal/service/message"
	apperrors "github.com/medjourney/portal-api/pkg/errors"
	"github.com/medjourney/portal-api/pkg/httputil"
)

type Handler struct {
	svc *message.Service
}

func NewHandler(svc *message.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	msgs := r.Group("/messages")
	{
		msgs.POST("", h.Send)
		msgs.GET("", h.List)
		msgs.GET("/unread-count", h.UnreadCount)
		msgs.GET("/:id", h.Get)
		msgs.POST("/:id/read", h.MarkRead)
	}
}

func (h *Handler) Send(c *gin.Context) {
	var req model.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondWithValidationError(c, err)
		return
	}

	msg, err := h.svc.Send(c.Request.Context(), handler.ScopeFromContext(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, msg)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid message id", err))
		return
	}

	msg, err := h.svc.Get(c.Request.Context(), handler.ScopeFromContext(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, msg)
}

func (h *Handler) List(c *gin.Context) {
	var filter model.MessageFilter
	if raw := c.Query("with_user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.RespondWithError(c, apperrors.BadRequest("invalid user id", err))
			return
		}
		filter.WithUserID = id
	}
	if raw := c.Query("unread_only"); raw != "" {
		unread, err := strconv.ParseBool(raw)
		if err != nil {
			httputil.RespondWithError(c, apperrors.BadRequest("invalid unread_only value", err))
			return
		}
		filter.UnreadOnly = unread
	}

	msgs, err := h.svc.List(c.Request.Context(), handler.ScopeFromContext(c), &filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, msgs)
}

func (h *Handler) MarkRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid message id", err))
		return
	}

	msg, err := h.svc.MarkRead(c.Request.Context(), handler.ScopeFromContext(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, msg)
}

func (h *Handler) UnreadCount(c *gin.Context) {
	count, err := h.svc.UnreadCount(c.Request.Context(), handler.ScopeFromContext(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, count)
}
