package profile

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medjourney/portal-api/internal/handler"
	"github.com/medjourney/portal-api/internal/model"
	"github.com/medjourney/portal-api/internal/service/profile"
	apperrors "github.com/medjourney/portal-api/pkg/errors"
	"github.com/medjourney/portal-api/pkg/httputil"
)

type Handler struct {
	svc *profile.Service
}

func NewHandler(svc *profile.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/profiles/me", h.GetMe)
	r.PATCH("/profiles/me", h.UpdateMe)
	r.GET("/profiles/:id", h.Get)
	r.GET("/patients", h.ListPatients)
}

// RegisterAdminRoutes wires the provisioning endpoints. The router mounts
// these behind an admin role check.
func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.POST("/staff", h.CreateStaff)
}

func (h *Handler) GetMe(c *gin.Context) {
	scope := handler.ScopeFromContext(c)
	p, err := h.svc.Get(c.Request.Context(), scope, scope.UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) UpdateMe(c *gin.Context) {
	var req model.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondWithValidationError(c, err)
		return
	}

	scope := handler.ScopeFromContext(c)
	p, err := h.svc.Update(c.Request.Context(), scope, scope.UserID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid profile id", err))
		return
	}

	p, err := h.svc.Get(c.Request.Context(), handler.ScopeFromContext(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) ListPatients(c *gin.Context) {
	filter := model.ProfileFilter{
		SearchTerm: c.Query("search_term"),
		Region:     c.Query("region"),
		Status:     c.Query("status"),
	}
	if err := c.ShouldBindQuery(&filter.Pagination); err != nil {
		handler.RespondWithValidationError(c, err)
		return
	}

	patients, err := h.svc.ListPatients(c.Request.Context(), handler.ScopeFromContext(c), &filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, patients)
}

func (h *Handler) CreateStaff(c *gin.Context) {
	var req model.CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondWithValidationError(c, err)
		return
	}

	p, err := h.svc.CreateStaff(c.Request.Context(), handler.ScopeFromContext(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, p)
}
