package document

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medjourney/portal-api/internal/handler"
	"github.com/medjourney/portal-api/internal/model"
	"github.com/medjourney/portal-api/internal/service/document"
	apperrors "github.com/medjourney/portal-api/pkg/errors"
	"github.com/medjourney/portal-api/pkg/httputil"
)

type Handler struct {
	svc *document.Service
}

func NewHandler(svc *document.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	docs := r.Group("/documents")
	{
		docs.POST("", h.Create)
		docs.GET("", h.List)
		docs.GET("/:id", h.Get)
		docs.GET("/:id/download", h.Download)
		docs.DELETE("/:id", h.Delete)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondWithValidationError(c, err)
		return
	}

	upload, err := h.svc.Create(c.Request.Context(), handler.ScopeFromContext(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, upload)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid document id", err))
		return
	}

	doc, err := h.svc.Get(c.Request.Context(), handler.ScopeFromContext(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, doc)
}

func (h *Handler) Download(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid document id", err))
		return
	}

	url, err := h.svc.DownloadURL(c.Request.Context(), handler.ScopeFromContext(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"download_url": url})
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid document id", err))
		return
	}

	if err := h.svc.Delete(c.Request.Context(), handler.ScopeFromContext(c), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"message": "document deleted"})
}

func (h *Handler) List(c *gin.Context) {
	filter := model.DocumentFilter{DocumentType: c.Query("document_type")}
	if raw := c.Query("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.RespondWithError(c, apperrors.BadRequest("invalid patient id", err))
			return
		}
		filter.PatientID = id
	}

	docs, err := h.svc.List(c.Request.Context(), handler.ScopeFromContext(c), &filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, docs)
}
