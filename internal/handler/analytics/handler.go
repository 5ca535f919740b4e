package analytics

import (
	"github.com/gin-gonic/gin"

	"github.com/medjourney/portal-api/internal/handler"
	"github.com/medjourney/portal-api/internal/service/analytics"
	"github.com/medjourney/portal-api/pkg/httputil"
)

type Handler struct {
	svc *analytics.Service
}

func NewHandler(svc *analytics.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/analytics/overview", h.Overview)
}

func (h *Handler) Overview(c *gin.Context) {
	overview, err := h.svc.Overview(c.Request.Context(), handler.ScopeFromContext(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, overview)
}
