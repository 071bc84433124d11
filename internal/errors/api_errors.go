package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// Error codes returned by the chart server
const (
	CodeRouteNotFound    = "ROUTE_NOT_FOUND"
	CodeCountyNotFound   = "COUNTY_NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeRateLimited      = "RATE_LIMITED"
	CodeInternal         = "INTERNAL_SERVER_ERROR"
)

// APIError is the JSON body of a failed chart server request
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	RequestID  string      `json:"request_id,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// withRequestID returns a copy of e tagged with id
func (e *APIError) withRequestID(id string) *APIError {
	c := *e
	c.RequestID = id
	return &c
}

// New creates an APIError
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{StatusCode: statusCode, ErrorCode: errorCode, Message: message}
}

// NewWithDetails creates an APIError carrying extra detail
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	e := New(statusCode, errorCode, message)
	e.Details = details
	return e
}

// ErrInternalServer hides the cause of unexpected failures from clients
var ErrInternalServer = New(http.StatusInternalServerError, CodeInternal, "Internal server error")

// RouteNotFound is returned for paths the server does not serve
func RouteNotFound(path string) *APIError {
	return NewWithDetails(http.StatusNotFound, CodeRouteNotFound, fmt.Sprintf("no route for %s", path), path)
}

// CountyNotFound is returned when the chart has no line for county
func CountyNotFound(county string) *APIError {
	return NewWithDetails(http.StatusNotFound, CodeCountyNotFound,
		fmt.Sprintf("county %s is not on the chart", county), map[string]string{"county": county})
}

// RateLimited is returned when a client exceeds the API request rate
func RateLimited() *APIError {
	return New(http.StatusTooManyRequests, CodeRateLimited, "Rate limit exceeded")
}

// ErrorResponse wraps an APIError in the response envelope
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   *APIError `json:"error"`
}

// NewErrorResponse creates a new error response
func NewErrorResponse(err *APIError) *ErrorResponse {
	return &ErrorResponse{Success: false, Error: err}
}

// Render implements render.Renderer
func (e *ErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return e.Error.Render(w, r)
}

// WriteError writes err without going through chi/render, for middleware
// that runs outside a route.
func WriteError(w http.ResponseWriter, err *APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	json.NewEncoder(w).Encode(NewErrorResponse(err))
}
