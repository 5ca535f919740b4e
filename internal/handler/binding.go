package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/medjourney/portal-api/pkg/httputil"
)

// fieldLabels overrides the generated labels where the struct field name
// reads poorly in an error message.
var fieldLabels = map[string]string{
	"ConfirmPassword": "Confirm password",
	"ToUserID":        "Recipient",
	"PatientID":       "Patient",
	"SurgeryPlanID":   "Surgery plan",
}

// BindingErrorMessage turns a gin binding failure into the message shown
// in the client form. Only the first violation is reported.
func BindingErrorMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request payload"
	}

	fe := verrs[0]
	label := fieldLabel(fe.Field())

	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Please enter a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "eqfield":
		if fe.Field() == "ConfirmPassword" {
			return "Passwords do not match"
		}
		return label + " does not match"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.Join(strings.Fields(fe.Param()), ", "))
	case "uuid":
		return label + " must be a valid id"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", label, fe.Param())
	}
	return label + " is invalid"
}

// RespondWithValidationError rejects the request before any service or
// backend call happens.
func RespondWithValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, httputil.Response{
		Success: false,
		Error: &httputil.Error{
			Code:    http.StatusBadRequest,
			Message: BindingErrorMessage(err),
		},
	})
}

// fieldLabel renders a struct field name as a sentence-case label:
// "FullName" becomes "Full name".
func fieldLabel(field string) string {
	if label, ok := fieldLabels[field]; ok {
		return label
	}

	var b strings.Builder
	for i, r := range field {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteRune(' ')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
