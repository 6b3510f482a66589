package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Elmeric/cycliti/internal/domain"
	"github.com/Elmeric/cycliti/internal/http/response"
	"github.com/Elmeric/cycliti/internal/observability"
	"github.com/Elmeric/cycliti/internal/service"
)

const (
	msgActivationSent    = "A link to activate your account has been emailed to the address you provided."
	msgActivationResent  = "A link to activate your account has been emailed to the address provided."
	msgAccountActivated  = "Your account is activated. Log in and enjoy Cycliti!"
	msgAlreadyActivated  = "Your account is activated: Log in and enjoy Cycliti!"
	msgRecoveryRequested = "If that email address is in our database, we will send you an email to reset your password."
	msgPasswordUpdated   = "Password updated successfully."
)

// AccountHandler serves the unauthenticated account flows: sign-up,
// activation and password recovery.
type AccountHandler struct {
	activations service.ActivationServiceInterface
	resets      service.PasswordResetServiceInterface
}

func NewAccountHandler(activations service.ActivationServiceInterface, resets service.PasswordResetServiceInterface) *AccountHandler {
	return &AccountHandler{activations: activations, resets: resets}
}

type registerRequest struct {
	Email             string         `json:"email"`
	Username          string         `json:"username"`
	Password          string         `json:"password"`
	Name              string         `json:"name"`
	City              string         `json:"city"`
	Birthdate         string         `json:"birthdate"`
	Gender            *domain.Gender `json:"gender"`
	PreferredLanguage string         `json:"preferred_language"`
}

func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	user, err := h.activations.Register(r.Context(), service.RegisterInput{
		Email:             req.Email,
		Username:          req.Username,
		Password:          req.Password,
		Name:              req.Name,
		City:              req.City,
		Birthdate:         req.Birthdate,
		Gender:            req.Gender,
		PreferredLanguage: req.PreferredLanguage,
	})
	if err != nil {
		observability.Audit(r, "account.register.failed", "reason", auditReason(err))
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "account.register.success", "user_id", user.ID)
	response.JSON(w, r, http.StatusCreated, msgView{Msg: msgActivationSent})
}

// ResendActivation accepts {"email": "..."} or a bare JSON string body.
func (h *AccountHandler) ResendActivation(w http.ResponseWriter, r *http.Request) {
	email, err := readEmailBody(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.activations.Resend(r.Context(), email); err != nil {
		observability.Audit(r, "account.activation.resend.failed", "reason", auditReason(err))
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "account.activation.resend.accepted")
	response.JSON(w, r, http.StatusOK, msgView{Msg: msgActivationResent})
}

type activateRequest struct {
	Email string `json:"email"`
	Nonce string `json:"nonce"`
}

func (h *AccountHandler) Activate(w http.ResponseWriter, r *http.Request) {
	var req activateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeBadRequest(w, r, "email is required")
		return
	}
	result, err := h.activations.Activate(r.Context(), req.Email, req.Nonce)
	if err != nil {
		observability.Audit(r, "account.activate.failed", "reason", auditReason(err))
		writeServiceError(w, r, err)
		return
	}
	if result.AlreadyActive {
		observability.Audit(r, "account.activate.noop", "user_id", result.User.ID)
		response.JSON(w, r, http.StatusOK, msgView{Msg: msgAlreadyActivated})
		return
	}
	observability.Audit(r, "account.activate.success", "user_id", result.User.ID)
	response.JSON(w, r, http.StatusOK, msgView{Msg: msgAccountActivated})
}

func (h *AccountHandler) RecoverPassword(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "password_recovery", status, time.Since(start))
	}()

	email := chi.URLParam(r, "email")
	if strings.TrimSpace(email) == "" {
		status = "failure"
		writeBadRequest(w, r, "email is required")
		return
	}
	if err := h.resets.Request(r.Context(), email); err != nil {
		status = "failure"
		observability.Audit(r, "password.reset.request.failed", "reason", auditReason(err))
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "password.reset.request.accepted")
	response.JSON(w, r, http.StatusOK, msgView{Msg: msgRecoveryRequested})
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	Nonce       string `json:"nonce"`
	NewPassword string `json:"new_password"`
}

func (h *AccountHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "password_reset", status, time.Since(start))
	}()

	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		status = "failure"
		writeServiceError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Nonce == "" {
		status = "failure"
		writeBadRequest(w, r, "email and nonce are required")
		return
	}
	user, err := h.resets.Reset(r.Context(), req.Email, req.Nonce, req.NewPassword)
	if err != nil {
		status = "failure"
		observability.Audit(r, "password.reset.failed", "reason", auditReason(err))
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "password.reset.success", "user_id", user.ID)
	response.JSON(w, r, http.StatusOK, msgView{Msg: msgPasswordUpdated})
}

func readEmailBody(r *http.Request) (string, error) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", err
		}
		return "", fmt.Errorf("%w: unreadable body", service.ErrValidation)
	}
	raw = bytes.TrimSpace(raw)
	var email string
	if len(raw) > 0 && raw[0] == '"' {
		if err := json.Unmarshal(raw, &email); err != nil {
			return "", fmt.Errorf("%w: invalid json body", service.ErrValidation)
		}
	} else {
		var body struct {
			Email string `json:"email"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return "", fmt.Errorf("%w: invalid json body", service.ErrValidation)
		}
		email = body.Email
	}
	if strings.TrimSpace(email) == "" {
		return "", fmt.Errorf("%w: email is required", service.ErrValidation)
	}
	return email, nil
}

// auditReason names an error class without echoing user input.
func auditReason(err error) string {
	switch {
	case errors.Is(err, service.ErrValidation):
		return "validation"
	case errors.Is(err, service.ErrDuplicateEmail), errors.Is(err, service.ErrDuplicateUsername):
		return "duplicate"
	case errors.Is(err, service.ErrInvalidOrExpired), errors.Is(err, service.ErrInvalidRequest):
		return "invalid_or_expired"
	case errors.Is(err, service.ErrTooManyAttempts):
		return "too_many_attempts"
	case errors.Is(err, service.ErrForbidden):
		return "forbidden"
	case errors.Is(err, service.ErrInsufficientScope):
		return "insufficient_scope"
	case errors.Is(err, service.ErrUpstreamUnavailable):
		return "upstream_unavailable"
	default:
		return "internal"
	}
}
