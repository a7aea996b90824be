package projection

import (
	"errors"
	"net/http"

	httperr "github.com/atacado-lab/sales-analytics/internal/core/errors"
	"github.com/atacado-lab/sales-analytics/internal/core/storage"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"

	// statusClientClosedRequest is nginx's non-standard code for a request the
	// client abandoned.
	statusClientClosedRequest = 499
)

// RegisterRoutes registers all dashboard API routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/dashboard", s.HandleDashboard)
	r.GET("/v1/dashboard/cities", s.HandleCities)
}

// HandleDashboard handles GET /v1/dashboard
// Query parameters: start, end, cost_center, representative, client, product, cities
func (s *Service) HandleDashboard(c *gin.Context) {
	reqID := requestID(c)

	q, ok := bindQuery(c, reqID)
	if !ok {
		return
	}

	env, err := s.Dashboard(c.Request.Context(), q)
	if err != nil {
		s.writeError(c, reqID, "Failed to build dashboard", err)
		return
	}

	c.JSON(http.StatusOK, env)
}

// HandleCities handles GET /v1/dashboard/cities
func (s *Service) HandleCities(c *gin.Context) {
	reqID := requestID(c)

	q, ok := bindQuery(c, reqID)
	if !ok {
		return
	}

	report, err := s.Cities(c.Request.Context(), q)
	if err != nil {
		s.writeError(c, reqID, "Failed to build city rollup", err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func bindQuery(c *gin.Context, reqID string) (DashboardQuery, bool) {
	var params dashboardParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidQueryError,
			Message:   "Invalid query parameters",
			Details:   err.Error(),
			RequestID: reqID,
		})
		return DashboardQuery{}, false
	}
	return params.query(), true
}

func (s *Service) writeError(c *gin.Context, reqID, message string, err error) {
	status, errorType := http.StatusInternalServerError, httperr.HttpInternalError
	switch {
	case errors.Is(err, ErrInvalidQuery):
		status, errorType, message = http.StatusBadRequest, httperr.HttpInvalidQueryError, "Invalid dashboard query"
	case errors.Is(err, storage.ErrCancelled):
		status, errorType, message = statusClientClosedRequest, httperr.HttpCancelledError, "Request cancelled"
	case errors.Is(err, storage.ErrSourceUnavailable):
		status, errorType = http.StatusServiceUnavailable, httperr.HttpSourceUnavailableError
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("[Dashboard] Request failed", "request_id", reqID, "status", status, "error", err)
	}

	c.JSON(status, httperr.ErrorResponse{
		ErrorType: errorType,
		Message:   message,
		Details:   err.Error(),
		RequestID: reqID,
	})
}

// requestID echoes the caller's X-Request-ID or generates one.
func requestID(c *gin.Context) string {
	id := c.GetHeader(requestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Header(requestIDHeader, id)
	return id
}
