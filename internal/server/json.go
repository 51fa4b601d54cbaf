package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/FeyP/drupal-twitter-feed/internal/apierror"
	"github.com/FeyP/drupal-twitter-feed/internal/block"
)

const (
	errTypeInvalidRequest  = "invalid_request_error"
	errTypeNotFound        = "not_found_error"
	errTypeAuthentication  = "authentication_error"
	errTypeUpstream        = "upstream_error"
	errTypeUpstreamTimeout = "upstream_timeout"
	errTypeAPI             = "api_error"
)

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Err Error `json:"error"`
}

// Error describes a failure to API clients.
type Error struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e *ErrorResponse) Error() string {
	return e.Err.Type + ": " + e.Err.Message
}

// writeJSON writes a JSON response with the given status code.
// Logs encoding failures internally using the provided context.
func writeJSON(ctx context.Context, w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	// Headers and status are written before encoding to avoid buffering.
	// If encoding fails, the client may receive a partial response.
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.ErrorContext(ctx, "failed to encode JSON response", "error", err)
	}
}

// writeJSONError writes errResp with the status code derived from its type.
func writeJSONError(ctx context.Context, w http.ResponseWriter, errResp *ErrorResponse) {
	var status int
	switch errResp.Err.Type {
	case errTypeInvalidRequest:
		status = http.StatusBadRequest
	case errTypeNotFound:
		status = http.StatusNotFound
	case errTypeAuthentication, errTypeUpstream:
		status = http.StatusBadGateway
	case errTypeUpstreamTimeout:
		status = http.StatusGatewayTimeout
	default:
		status = http.StatusInternalServerError
	}

	writeJSON(ctx, w, errResp, status)
}

// errorResponseFor classifies a Render failure. Upstream details stay in the
// logs; clients only see a generic message for upstream errors.
func errorResponseFor(err error) *ErrorResponse {
	if errors.Is(err, block.ErrInvalidRequest) {
		return &ErrorResponse{Err: Error{Message: err.Error(), Type: errTypeInvalidRequest}}
	}

	var authErr *apierror.AuthError
	if errors.As(err, &authErr) {
		return &ErrorResponse{Err: Error{Message: "upstream rejected the API credentials", Type: errTypeAuthentication}}
	}

	var netErr *apierror.NetworkError
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &ErrorResponse{Err: Error{Message: "upstream request timed out", Type: errTypeUpstreamTimeout}}
		}
		return &ErrorResponse{Err: Error{Message: "upstream request failed", Type: errTypeUpstream}}
	}

	return &ErrorResponse{Err: Error{Message: http.StatusText(http.StatusInternalServerError), Type: errTypeAPI}}
}
