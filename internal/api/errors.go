package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/gray-logic-haptics/internal/actuator"
	"github.com/nerrad567/gray-logic-haptics/internal/haptic"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeInternal         = "internal_error"
	ErrCodeValidation       = "validation_error"
	ErrCodeMethodNotAllow   = "method_not_allowed"
	ErrCodeUnavailable      = "unavailable"
	ErrCodeDeviceNotFound   = "device_not_found"
	ErrCodeDeviceBusy       = "device_open_failed"
	ErrCodeActuationFailed  = "actuation_failed"
	ErrCodeActuatorFaulted  = "actuator_faulted"
	ErrCodeRequestCancelled = "request_cancelled"
	ErrCodeUnauthorized     = "unauthorised"
	ErrCodeForbidden        = "forbidden"
)

// statusClientClosedRequest is the de facto status for a request the client
// abandoned.
const statusClientClosedRequest = 499

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

func writeForbidden(w http.ResponseWriter, message string) {
	writeError(w, http.StatusForbidden, ErrCodeForbidden, message)
}

func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// actuatorErrorStatus maps a controller error to an HTTP status and code.
//
//	fatal close / faulted session  500 actuator_faulted
//	discovery failure              503 device_not_found
//	open refused                   503 device_open_failed
//	controller closed              503 unavailable
//	actuation failed after retry   502 actuation_failed
func actuatorErrorStatus(err error) (int, string) {
	var discErr *actuator.DiscoveryError
	var openErr *actuator.OpenError
	var actErr *actuator.ActuationError
	switch {
	case actuator.IsFatal(err):
		return http.StatusInternalServerError, ErrCodeActuatorFaulted
	case errors.As(err, &discErr):
		return http.StatusServiceUnavailable, ErrCodeDeviceNotFound
	case errors.As(err, &openErr):
		return http.StatusServiceUnavailable, ErrCodeDeviceBusy
	case errors.As(err, &actErr):
		return http.StatusBadGateway, ErrCodeActuationFailed
	case errors.Is(err, haptic.ErrControllerClosed):
		return http.StatusServiceUnavailable, ErrCodeUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return statusClientClosedRequest, ErrCodeRequestCancelled
	default:
		return http.StatusInternalServerError, ErrCodeInternal
	}
}
