package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authservice "github.com/medjourney/portal-api/internal/service/auth"
	"github.com/medjourney/portal-api/pkg/httputil"
)

// newTestRouter wires the handler with a service that has no backends.
// Requests rejected at binding must never reach the service, so these
// tests double as a guard that validation short-circuits the call.
func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	svc := authservice.NewService(nil, nil, nil, nil, nil, nil, nil)
	h := NewHandler(svc, time.Hour)

	r := gin.New()
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, payload interface{}) (*httptest.ResponseRecorder, *httputil.Response) {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp httputil.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, &resp
}

func TestLoginValidation(t *testing.T) {
	r := newTestRouter()

	tests := []struct {
		name    string
		payload gin.H
		want    string
	}{
		{
			name:    "empty password",
			payload: gin.H{"email": "jane@example.com", "password": ""},
			want:    "Password is required",
		},
		{
			name:    "missing password field",
			payload: gin.H{"email": "jane@example.com"},
			want:    "Password is required",
		},
		{
			name:    "missing email",
			payload: gin.H{"password": "hunter2hunter2"},
			want:    "Email is required",
		},
		{
			name:    "malformed email",
			payload: gin.H{"email": "nope", "password": "hunter2hunter2"},
			want:    "Please enter a valid email address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := postJSON(t, r, "/api/v1/auth/login", tt.payload)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.want, resp.Error.Message)
		})
	}
}

func TestSignupValidation(t *testing.T) {
	r := newTestRouter()

	base := func() gin.H {
		return gin.H{
			"email":            "jane@example.com",
			"password":         "hunter2hunter2",
			"confirm_password": "hunter2hunter2",
			"full_name":        "Jane Doe",
			"region":           "AU",
		}
	}

	t.Run("password confirmation mismatch", func(t *testing.T) {
		payload := base()
		payload["confirm_password"] = "something-else"
		w, resp := postJSON(t, r, "/api/v1/auth/signup", payload)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "Passwords do not match", resp.Error.Message)
	})

	t.Run("password too short", func(t *testing.T) {
		payload := base()
		payload["password"] = "short"
		payload["confirm_password"] = "short"
		w, resp := postJSON(t, r, "/api/v1/auth/signup", payload)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "Password must be at least 8 characters", resp.Error.Message)
	})

	t.Run("unsupported region", func(t *testing.T) {
		payload := base()
		payload["region"] = "US"
		w, resp := postJSON(t, r, "/api/v1/auth/signup", payload)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "Region must be one of: AU, NZ, TH", resp.Error.Message)
	})
}
