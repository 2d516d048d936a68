package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/yungbote/wellness-backend/internal/http/response"
	"github.com/yungbote/wellness-backend/internal/services"
)

var tagNamesOnce sync.Once

// useJSONFieldNames makes validator report fields by their json tag.
func useJSONFieldNames() {
	tagNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
}

// bindJSON decodes and validates the request body, writing a 400
// validation_error and returning false on failure.
func bindJSON(c *gin.Context, dst any) bool {
	useJSONFieldNames()
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, http.StatusBadRequest, services.CodeValidation, describeBindError(err))
		return false
	}
	return true
}

func describeBindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Field()+" "+describeTag(fe))
	}
	return errors.New(strings.Join(parts, "; "))
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "datetime":
		return "must be a date formatted " + fe.Param()
	case "alphanumunicode":
		return "may only contain letters and digits"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
