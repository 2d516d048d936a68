package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/wellness-backend/internal/platform/apierr"
)

const CodeInternal = "internal_error"

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondAPIError writes err using the status and code of the first
// *apierr.Error in its chain. Anything else is a 500 with a generic message.
func RespondAPIError(c *gin.Context, err error) {
	if ae, ok := apierr.As(err); ok {
		status := ae.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		RespondError(c, status, ae.Code, ae)
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorEnvelope{
		Error: APIError{Message: "internal server error", Code: CodeInternal},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
