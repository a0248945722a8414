package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vsinha/bomcost/pkg/domain/bomerr"
	"github.com/vsinha/bomcost/pkg/infrastructure/logger"
)

// StatusFor maps the kind of err to an HTTP status
func StatusFor(err error) int {
	switch bomerr.KindOf(err) {
	case bomerr.KindValidation:
		return http.StatusBadRequest
	case bomerr.KindConflict:
		return http.StatusConflict
	case bomerr.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err in the error envelope. Backend failures are logged with
// their cause and answered with the generic lookup message only.
func Error(c *gin.Context, log *logger.Logger, op string, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError && log != nil {
		log.Error("request failed", "op", op, "path", c.FullPath(), "error", err)
	}
	RespondError(c, status, bomerr.CodeOf(err), bomerr.MessageOf(err))
}
