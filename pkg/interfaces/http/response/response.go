package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Envelope wraps every API response
type Envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Message string    `json:"message,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: payload})
}

func RespondCreated(c *gin.Context, message string, payload any) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Message: message, Data: payload})
}

func RespondMessage(c *gin.Context, message string, payload any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: payload})
}

func RespondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, Envelope{
		Success: false,
		Error: &APIError{
			Message: message,
			Code:    code,
		},
	})
}
