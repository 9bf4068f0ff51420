package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abhisek/stresslens/internal/app"
	"github.com/abhisek/stresslens/internal/features"
	"github.com/abhisek/stresslens/internal/insight"
	"github.com/abhisek/stresslens/internal/stress"
)

// statusFor maps a pipeline error to its HTTP status.
func statusFor(err error) int {
	var (
		verr *features.ValidationError
		ierr *stress.InferenceError
		terr *insight.GenerationTimeoutError
		ferr *insight.GenerationFormatError
		gerr *insight.GenerationError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.As(err, &ierr):
		return http.StatusInternalServerError
	case errors.As(err, &terr):
		return http.StatusGatewayTimeout
	case errors.As(err, &ferr), errors.As(err, &gerr):
		return http.StatusBadGateway
	case errors.Is(err, app.ErrInsightDisabled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// outcome labels an insight result for metrics.
func outcome(err error) string {
	var (
		terr *insight.GenerationTimeoutError
		ferr *insight.GenerationFormatError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &terr):
		return "timeout"
	case errors.As(err, &ferr):
		return "format_error"
	}
	return "error"
}

// abortWithError writes {"error": message}. Server-side failures are
// logged; client errors are not.
func (s *Server) abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("route", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
