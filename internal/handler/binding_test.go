package handler

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medjourney/portal-api/internal/model"
)

func newBindingValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}

func TestBindingErrorMessage(t *testing.T) {
	v := newBindingValidator()

	tests := []struct {
		name    string
		payload interface{}
		want    string
	}{
		{
			name:    "missing password",
			payload: model.LoginRequest{Email: "jane@example.com"},
			want:    "Password is required",
		},
		{
			name:    "missing email",
			payload: model.LoginRequest{Password: "hunter2hunter2"},
			want:    "Email is required",
		},
		{
			name:    "malformed email",
			payload: model.LoginRequest{Email: "not-an-email", Password: "hunter2hunter2"},
			want:    "Please enter a valid email address",
		},
		{
			name: "password confirmation mismatch",
			payload: model.SignupRequest{
				Email:           "jane@example.com",
				Password:        "hunter2hunter2",
				ConfirmPassword: "different-pass",
				FullName:        "Jane Doe",
				Region:          model.RegionAustralia,
			},
			want: "Passwords do not match",
		},
		{
			name: "password too short",
			payload: model.SignupRequest{
				Email:           "jane@example.com",
				Password:        "short",
				ConfirmPassword: "short",
				FullName:        "Jane Doe",
				Region:          model.RegionAustralia,
			},
			want: "Password must be at least 8 characters",
		},
		{
			name: "unsupported region",
			payload: model.SignupRequest{
				Email:           "jane@example.com",
				Password:        "hunter2hunter2",
				ConfirmPassword: "hunter2hunter2",
				FullName:        "Jane Doe",
				Region:          "US",
			},
			want: "Region must be one of: AU, NZ, TH",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.payload)
			require.Error(t, err)
			assert.Equal(t, tt.want, BindingErrorMessage(err))
		})
	}
}

func TestBindingErrorMessageNonValidationError(t *testing.T) {
	assert.Equal(t, "Invalid request payload", BindingErrorMessage(assert.AnError))
}

func TestFieldLabel(t *testing.T) {
	assert.Equal(t, "Full name", fieldLabel("FullName"))
	assert.Equal(t, "Password", fieldLabel("Password"))
	assert.Equal(t, "Confirm password", fieldLabel("ConfirmPassword"))
	assert.Equal(t, "Recipient", fieldLabel("ToUserID"))
}
