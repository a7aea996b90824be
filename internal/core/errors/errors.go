package errors

const (
	HttpInternalError          = "internal_error"
	HttpInvalidQueryError      = "invalid_query"
	HttpCancelledError         = "request_cancelled"
	HttpSourceUnavailableError = "source_unavailable"
)

// ErrorResponse is the error response body of the query API.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}
