package auth

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medjourney/portal-api/internal/handler"
	"github.com/medjourney/portal-api/internal/model"
	"github.com/medjourney/portal-api/internal/service/auth"
	apperrors "github.com/medjourney/portal-api/pkg/errors"
	"github.com/medjourney/portal-api/pkg/httputil"
)

type Handler struct {
	svc          *auth.Service
	accessExpiry time.Duration
}

func NewHandler(svc *auth.Service, accessExpiry time.Duration) *Handler {
	if accessExpiry <= 0 {
		accessExpiry = 24 * time.Hour
	}
	return &Handler{svc: svc, accessExpiry: accessExpiry}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/signup", h.Signup)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.RefreshToken)
		authGroup.POST("/forgot-password", h.ForgotPassword)
		authGroup.POST("/reset-password", h.ResetPassword)
		authGroup.POST("/verify-email", h.VerifyEmail)
		authGroup.POST("/resend-verification", h.ResendVerification)
	}
}

// RegisterProtectedRoutes wires the endpoints that need a valid token
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	r.POST("/auth/logout", h.Logout)
}

func (h *Handler) Signup(c *gin.Context) {
	var req model.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondWithValidationError(c, err)
		return
	}

	tokens, err := h.svc.Signup(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			httputil.RespondWithError(c, apperrors.Conflict("This email is already registered", err))
			return
		}
		httputil.RespondWithError(c, apperrors.Internal(err))
		return
	}

	httputil.RespondWithCreated(c, tokens)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondWithValidationError(c, err)
		return
	}

	tokens, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, model.ErrAccountLocked) {
			httputil.RespondWithError(c, apperrors.Forbidden("Account is locked, please try again later", err))
			return
		}
		httputil.RespondWithError(c, apperrors.Unauthorized(err))
		return
	}

	httputil.RespondWithSuccess(c, tokens)
}

func (h *Handler) RefreshToken(c *gin.Context) {
	var req model.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondWithValidationError(c, err)
		return
	}

	tokens, err := h.svc.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		httputil.RespondWithError(c, apperrors.Unauthorized(err))
		return
	}

	httputil.RespondWithSuccess(c, tokens)
}

func (h *Handler) Logout(c *gin.Context) {
	claims := handler.ClaimsFromContext(c)
	if claims == nil {
		httputil.RespondWithError(c, apperrors.Unauthorized(nil))
		return
	}
	token := c.GetString(handler.ContextTokenKey)

	// The token carries no server-side session, so revocation only needs
	// to outlive the token itself.
	if err := h.svc.Logout(c.Request.Context(), claims.UserID, token, time.Now().Add(h.accessExpiry)); err != nil {
		httputil.RespondWithError(c, apperrors.Internal(err))
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"message": "logged out"})
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var req model.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondWithValidationError(c, err)
		return
	}

	if err := h.svc.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		httputil.RespondWithError(c, apperrors.Internal(err))
		return
	}

	// Same response whether or not the address exists
	httputil.RespondWithSuccess(c, gin.H{"message": "if the email exists, a reset link will be sent"})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondWithValidationError(c, err)
		return
	}

	if err := h.svc.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("Invalid or expired reset token", err))
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"message": "password updated"})
}

func (h *Handler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		httputil.RespondWithError(c, apperrors.BadRequest("Verification token is required", nil))
		return
	}

	if err := h.svc.VerifyEmail(c.Request.Context(), token); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("Invalid or expired verification token", err))
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"message": "email verified"})
}

func (h *Handler) ResendVerification(c *gin.Context) {
	var req model.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondWithValidationError(c, err)
		return
	}

	if err := h.svc.ResendVerification(c.Request.Context(), req.Email); err != nil {
		httputil.RespondWithError(c, apperrors.Internal(err))
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"message": "if the email exists, a verification link will be sent"})
}
