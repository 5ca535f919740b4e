package access

import (
	"github.com/gin-gonic/gin"

	"github.com/medjourney/portal-api/internal/handler"
	"github.com/medjourney/portal-api/internal/service/access"
	"github.com/medjourney/portal-api/pkg/httputil"
)

type Handler struct {
	svc *access.Service
}

func NewHandler(svc *access.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/access/probe", h.Probe)
}

// Probe reports how many rows of each scoped table the caller can see.
func (h *Handler) Probe(c *gin.Context) {
	probe, err := h.svc.Probe(c.Request.Context(), handler.ScopeFromContext(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, probe)
}
