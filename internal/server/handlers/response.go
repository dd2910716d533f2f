package handlers

import (
	"errors"
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"paygrid-system/internal/employee"
)

type APIResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    interface{}       `json:"data,omitempty"`
	Meta    interface{}       `json:"meta,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func successResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	}
}

func errorResponse(message string) APIResponse {
	return APIResponse{
		Success: false,
		Message: message,
	}
}

func successWithMetaResponse(message string, data interface{}, meta interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    meta,
	}
}

func validationResponse(fields map[string]string) APIResponse {
	return APIResponse{
		Success: false,
		Message: "Validation failed",
		Errors:  fields,
	}
}

// bindError translates a ShouldBindJSON failure: binding-tag violations
// become a 422 with field-level detail, anything else is a plain 400.
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			name := snakeCase(fe.Field())
			switch fe.Tag() {
			case "required":
				fields[name] = name + " is required"
			case "email":
				fields[name] = "must be a valid email address"
			default:
				fields[name] = "is invalid"
			}
		}
		c.JSON(http.StatusUnprocessableEntity, validationResponse(fields))
		return
	}

	c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
}

// storeError maps employee store failures onto HTTP statuses.
func storeError(c *gin.Context, err error) {
	var verr *employee.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, validationResponse(verr.Fields))
	case errors.Is(err, employee.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse("Employee not found"))
	default:
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
	}
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
