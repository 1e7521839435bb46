package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/nyaa-go/internal/domain"
)

// statusForCause maps a failure cause to the HTTP status reported to API callers
func statusForCause(cause domain.Cause) int {
	switch cause {
	case domain.CauseConfig:
		return http.StatusBadRequest
	case domain.CauseTimeout:
		return http.StatusGatewayTimeout
	case domain.CauseNetwork, domain.CauseHTTPStatus, domain.CauseParse,
		domain.CauseAuth, domain.CauseSubmission:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// abortWithCause writes err as a JSON error body tagged with its cause
func abortWithCause(c *gin.Context, err error) {
	cause := domain.CauseOf(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusForCause(cause), gin.H{
		"error": err.Error(),
		"cause": cause,
	})
}
