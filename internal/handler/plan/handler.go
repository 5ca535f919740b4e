package plan

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medjourney/portal-api/internal/handler"
	"github.com/medjourney/portal-api/internal/model"
	"github.com/medjourney/portal-api/internal/service/plan"
	apperrors "github.com/medjourney/portal-api/pkg/errors"
	"github.com/medjourney/portal-api/pkg/httputil"
)

type Handler struct {
	svc *plan.Service
}

func NewHandler(svc *plan.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	plans := r.Group("/plans")
	{
		plans.POST("", h.Create)
		plans.GET("", h.List)
		plans.GET("/:id", h.Get)
		plans.PATCH("/:id", h.Update)
		plans.DELETE("/:id", h.Delete)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondWithValidationError(c, err)
		return
	}

	p, err := h.svc.Create(c.Request.Context(), handler.ScopeFromContext(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, model.NewSurgeryPlanView(p))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid plan id", err))
		return
	}

	view, err := h.svc.Get(c.Request.Context(), handler.ScopeFromContext(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, view)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid plan id", err))
		return
	}

	var req model.UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondWithValidationError(c, err)
		return
	}

	view, err := h.svc.Update(c.Request.Context(), handler.ScopeFromContext(c), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, view)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid plan id", err))
		return
	}

	if err := h.svc.Delete(c.Request.Context(), handler.ScopeFromContext(c), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"message": "plan deleted"})
}

func (h *Handler) List(c *gin.Context) {
	filter := model.PlanFilter{Status: c.Query("status")}
	if raw := c.Query("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.RespondWithError(c, apperrors.BadRequest("invalid patient id", err))
			return
		}
		filter.PatientID = id
	}
	if filter.Status != "" && !model.ValidPlanStatus(filter.Status) {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid plan status", nil))
		return
	}

	views, err := h.svc.List(c.Request.Context(), handler.ScopeFromContext(c), &filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, views)
}
