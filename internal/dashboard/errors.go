package dashboard

import (
	"errors"
	"net/http"

	"github.com/benmeehan/hydro-controller/internal/gateway"
	"github.com/benmeehan/hydro-controller/internal/schedule"
	"github.com/gin-gonic/gin"
)

var errStorageDisabled = errors.New("storage is disabled")

func statusForError(err error) int {
	switch {
	case errors.Is(err, gateway.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, gateway.ErrUnreachable), errors.Is(err, gateway.ErrMalformedPayload):
		return http.StatusBadGateway
	case errors.Is(err, schedule.ErrIndexOutOfRange), errors.Is(err, schedule.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, schedule.ErrInvalidDay), errors.Is(err, schedule.ErrInvalidTime):
		return http.StatusBadRequest
	case errors.Is(err, errStorageDisabled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func abortWithError(c *gin.Context, err error) {
	body := gin.H{"error": err.Error()}
	if kind := gateway.KindName(err); kind != "" {
		body["kind"] = kind
	}
	c.AbortWithStatusJSON(statusForError(err), body)
}

func abortBadRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
