package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/Elmeric/cycliti/internal/http/response"
	"github.com/Elmeric/cycliti/internal/service"
)

const (
	msgGenericFailure   = "An error occur, please retry."
	msgPermissionDenied = "You don't have permission to access this resource."
	msgLoginFailed      = "Login failed; Invalid user ID or password."
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// Order matters: the first match wins.
var serviceErrorMappings = []errorMapping{
	{service.ErrValidation, http.StatusBadRequest, "BAD_REQUEST", ""},
	{service.ErrDuplicateEmail, http.StatusBadRequest, "DUPLICATE_EMAIL", msgGenericFailure},
	{service.ErrDuplicateUsername, http.StatusBadRequest, "DUPLICATE_USERNAME", msgGenericFailure},
	{service.ErrInvalidCredentials, http.StatusBadRequest, "INVALID_CREDENTIALS", msgLoginFailed},
	{service.ErrInvalidOrExpired, http.StatusForbidden, "INVALID_OR_EXPIRED", msgPermissionDenied},
	{service.ErrTooManyAttempts, http.StatusForbidden, "TOO_MANY_ATTEMPTS", msgPermissionDenied},
	{service.ErrInvalidRequest, http.StatusForbidden, "INVALID_REQUEST", msgPermissionDenied},
	{service.ErrForbidden, http.StatusForbidden, "FORBIDDEN", msgPermissionDenied},
	{service.ErrInsufficientScope, http.StatusExpectationFailed, "INSUFFICIENT_SCOPE", "Incorrect scope: you shall accept the required authorizations."},
	{service.ErrUpstreamUnavailable, http.StatusFailedDependency, "UPSTREAM_UNAVAILABLE", "Unable to retrieve tokens from Strava"},
	{service.ErrUserNotFound, http.StatusNotFound, "NOT_FOUND", "User not found"},
	{service.ErrInactiveUser, http.StatusBadRequest, "BAD_REQUEST", "Inactive user"},
	{service.ErrPhotoTooBig, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Photo exceeds the 5MB limit"},
	{service.ErrPhotoType, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "Only JPEG and PNG photos are allowed"},
	{service.ErrPhotoNotOwned, http.StatusForbidden, "FORBIDDEN", msgPermissionDenied},
	{service.ErrPhotoStorageOff, http.StatusServiceUnavailable, "STORAGE_DISABLED", "Profile photos are not available"},
}

// writeServiceError maps a flow error onto the response envelope. Storage
// and internal failures never echo their cause.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var throttled *service.ThrottledError
	if errors.As(err, &throttled) {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(throttled)))
		response.Error(w, r, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Too many failed attempts, please retry later.", nil)
		return
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.Error(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large", nil)
		return
	}
	for _, m := range serviceErrorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		msg := m.message
		if msg == "" {
			msg = validationMessage(err)
		}
		response.Error(w, r, m.status, m.code, msg, nil)
		return
	}
	response.Error(w, r, http.StatusInternalServerError, "INTERNAL", msgGenericFailure, nil)
}

func retryAfterSeconds(e *service.ThrottledError) int {
	secs := int(math.Ceil(e.RetryAfter.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

func validationMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": ")
	if msg == "" {
		return "invalid request payload"
	}
	return msg
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", message, nil)
}

// decodeJSON reads one JSON document and rejects trailing data.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return fmt.Errorf("%w: invalid json body", service.ErrValidation)
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected trailing data", service.ErrValidation)
	}
	return nil
}

// clientIP keys the login throttle. chi's RealIP has already applied any
// forwarding headers, so only the port is stripped here.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
