package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/yungbote/foodgram-backend/internal/pkg/errors"
	"github.com/yungbote/foodgram-backend/internal/platform/apierr"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
)

const (
	CodeValidation   = "validation_error"
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeInternal     = "internal_error"
)

// RespondErr maps a service error onto the error envelope. Unknown errors
// are logged and hidden behind a 500.
func RespondErr(c *gin.Context, log *logger.Logger, err error) {
	if err == nil {
		return
	}
	if ve, ok := pkgerrors.AsValidation(err); ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorEnvelope{
			Error: APIError{
				Message: "Validation failed.",
				Code:    CodeValidation,
				Fields:  ve.Fields,
			},
		})
		return
	}
	if ae, ok := apierr.From(err); ok {
		RespondError(c, ae.Status, ae.Code, ae)
		return
	}
	switch {
	case errors.Is(err, pkgerrors.ErrUnauthorized):
		RespondError(c, http.StatusUnauthorized, CodeUnauthorized, errors.New("Authentication credentials were not provided or are invalid."))
	case errors.Is(err, pkgerrors.ErrForbidden):
		RespondError(c, http.StatusForbidden, CodeForbidden, errors.New("You do not have permission to perform this action."))
	case errors.Is(err, pkgerrors.ErrNotFound):
		RespondError(c, http.StatusNotFound, CodeNotFound, errors.New("Not found."))
	case errors.Is(err, pkgerrors.ErrConflict):
		RespondError(c, http.StatusBadRequest, CodeConflict, err)
	case errors.Is(err, pkgerrors.ErrInvalidArgument):
		RespondError(c, http.StatusBadRequest, CodeValidation, err)
	default:
		if log != nil {
			log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		}
		RespondError(c, http.StatusInternalServerError, CodeInternal, errors.New("Internal server error."))
	}
}
