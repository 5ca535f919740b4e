package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupValidationMessages(t *testing.T) {
	email := uniqueEmail()

	t.Run("password mismatch", func(t *testing.T) {
		resp := makeRequest("POST", "/auth/signup", map[string]string{
			"email":            email,
			"password":         "hunter2hunter2",
			"confirm_password": "something-else",
			"full_name":        "Mismatch McGee",
			"region":           "AU",
		}, "")

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Passwords do not match", resp.Message)
	})

	t.Run("empty password", func(t *testing.T) {
		resp := makeRequest("POST", "/auth/login", map[string]string{
			"email":    email,
			"password": "",
		}, "")

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Password is required", resp.Message)
	})

	t.Run("malformed email", func(t *testing.T) {
		resp := makeRequest("POST", "/auth/login", map[string]string{
			"email":    "not-an-email",
			"password": "hunter2hunter2",
		}, "")

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Please enter a valid email address", resp.Message)
	})
}

func TestDuplicateSignup(t *testing.T) {
	email := uniqueEmail()
	payload := map[string]string{
		"email":            email,
		"password":         "hunter2hunter2",
		"confirm_password": "hunter2hunter2",
		"full_name":        "First Signup",
		"region":           "NZ",
	}

	first := makeRequest("POST", "/auth/signup", payload, "")
	require.True(t, first.Success, first.Message)

	second := makeRequest("POST", "/auth/signup", payload, "")
	assert.Equal(t, http.StatusConflict, second.StatusCode)
	assert.Equal(t, "This email is already registered", second.Message)
}

func TestLoginWrongPassword(t *testing.T) {
	email := uniqueEmail()
	signup := makeRequest("POST", "/auth/signup", map[string]string{
		"email":            email,
		"password":         "hunter2hunter2",
		"confirm_password": "hunter2hunter2",
		"full_name":        "Login Tester",
		"region":           "TH",
	}, "")
	require.True(t, signup.Success, signup.Message)

	resp := makeRequest("POST", "/auth/login", map[string]string{
		"email":    email,
		"password": "wrong-password",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = makeRequest("POST", "/auth/login", map[string]string{
		"email":    email,
		"password": "hunter2hunter2",
	}, "")
	require.True(t, resp.Success, resp.Message)
	assert.NotEmpty(t, resp.GetString("access_token"))
}

func TestProfileMe(t *testing.T) {
	resp := makeRequest("GET", "/profiles/me", nil, patientToken)
	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, patientID, resp.GetString("id"))
	assert.Equal(t, "patient", resp.GetString("role"))

	updated := makeRequest("PATCH", "/profiles/me", map[string]string{
		"full_name": "Pat Recovered",
	}, patientToken)
	require.True(t, updated.Success, updated.Message)
	assert.Equal(t, "Pat Recovered", updated.GetString("full_name"))
}

func TestProfileRequiresAuth(t *testing.T) {
	resp := makeRequest("GET", "/profiles/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutRevokesToken(t *testing.T) {
	token, _ := signupPatient("Log Out")
	require.NotEmpty(t, token)

	resp := makeRequest("POST", "/auth/logout", nil, token)
	require.True(t, resp.Success, resp.Message)

	resp = makeRequest("GET", "/profiles/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "revoked token must stop working")
}
