package models

import (
	"encoding/json"
	"net/http"
)

// Problem represents an RFC7807 error response.
// This is used for all API error responses with Content-Type: application/problem+json.
type Problem struct {
	// Type is a URI reference that identifies the problem type.
	Type string `json:"type"`

	// Title is a short, human-readable summary of the problem type.
	Title string `json:"title"`

	// Status is the HTTP status code for this occurrence of the problem.
	Status int `json:"status"`

	// Detail is a human-readable explanation specific to this occurrence.
	Detail string `json:"detail,omitempty"`

	// Instance is the request path the problem occurred on.
	Instance string `json:"instance,omitempty"`

	// TraceID is the request identifier for debugging.
	TraceID string `json:"traceId"`

	// Errors lists the rejected query parameters.
	Errors []FieldError `json:"errors,omitempty"`
}

// FieldError describes one rejected query parameter.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Field error codes.
const (
	FieldCodeMissing = "missing"
	FieldCodeInvalid = "invalid"
)

// Problem types.
const (
	ProblemTypeMissingParameter = "https://nitromap.dk/problems/missing-parameter"
	ProblemTypeInvalidParameter = "https://nitromap.dk/problems/invalid-parameter"
	ProblemTypeNotFound         = "https://nitromap.dk/problems/not-found"
	ProblemTypeMethodNotAllowed = "https://nitromap.dk/problems/method-not-allowed"
	ProblemTypeTooManyRequests  = "https://nitromap.dk/problems/too-many-requests"
	ProblemTypeTLSRequired      = "https://nitromap.dk/problems/tls-required"
	ProblemTypeInternal         = "https://nitromap.dk/problems/internal-error"
	ProblemTypeUnavailable      = "https://nitromap.dk/problems/service-unavailable"
)

// NewProblem creates a new Problem with the given parameters.
func NewProblem(problemType, title string, status int, traceID string) *Problem {
	return &Problem{
		Type:    problemType,
		Title:   title,
		Status:  status,
		TraceID: traceID,
	}
}

// Write writes the Problem as JSON to the ResponseWriter.
func (p *Problem) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.Header().Set("X-Request-Id", p.TraceID)
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// NewMissingParameter creates a 400 problem for an absent required parameter.
func NewMissingParameter(traceID, field, detail string) *Problem {
	p := NewProblem(ProblemTypeMissingParameter, "Missing parameter", http.StatusBadRequest, traceID)
	p.Detail = detail
	p.Errors = []FieldError{{Field: field, Message: detail, Code: FieldCodeMissing}}
	return p
}

// NewInvalidParameter creates a 400 problem for a parameter outside its
// allowed values.
func NewInvalidParameter(traceID, field, detail string) *Problem {
	p := NewProblem(ProblemTypeInvalidParameter, "Invalid parameter", http.StatusBadRequest, traceID)
	p.Detail = detail
	p.Errors = []FieldError{{Field: field, Message: detail, Code: FieldCodeInvalid}}
	return p
}

// NewNotFound creates a 404 Not Found problem.
func NewNotFound(traceID, detail string) *Problem {
	p := NewProblem(ProblemTypeNotFound, "Not found", http.StatusNotFound, traceID)
	p.Detail = detail
	return p
}

// NewTooManyRequests creates a 429 Too Many Requests problem.
func NewTooManyRequests(traceID, detail string) *Problem {
	p := NewProblem(ProblemTypeTooManyRequests, "Too many requests", http.StatusTooManyRequests, traceID)
	p.Detail = detail
	return p
}

// NewInternalError creates a 500 Internal Server Error problem.
func NewInternalError(traceID, detail string) *Problem {
	p := NewProblem(ProblemTypeInternal, "Internal server error", http.StatusInternalServerError, traceID)
	p.Detail = detail
	return p
}

// NewServiceUnavailable creates a 503 Service Unavailable problem.
func NewServiceUnavailable(traceID, detail string) *Problem {
	p := NewProblem(ProblemTypeUnavailable, "Service unavailable", http.StatusServiceUnavailable, traceID)
	p.Detail = detail
	return p
}
