package handler

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/Elmeric/cycliti/internal/http/middleware"
	"github.com/Elmeric/cycliti/internal/http/response"
	"github.com/Elmeric/cycliti/internal/observability"
	"github.com/Elmeric/cycliti/internal/service"
)

type AuthHandler struct {
	authSvc service.AuthServiceInterface
}

func NewAuthHandler(authSvc service.AuthServiceInterface) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AccessToken implements the OAuth2 password grant: form fields username
// and password, where username carries the email. JSON is accepted too.
func (h *AuthHandler) AccessToken(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "login", status, time.Since(start))
	}()

	req, err := readLoginRequest(r)
	if err != nil {
		status = "failure"
		observability.Audit(r, "auth.login.failed", "reason", "malformed_request")
		writeServiceError(w, r, err)
		return
	}
	email := req.Username
	if email == "" {
		email = req.Email
	}
	if strings.TrimSpace(email) == "" || req.Password == "" {
		status = "failure"
		observability.Audit(r, "auth.login.failed", "reason", "missing_credentials")
		writeBadRequest(w, r, "username and password are required")
		return
	}

	token, err := h.authSvc.Login(r.Context(), email, req.Password, clientIP(r))
	if err != nil {
		status = "failure"
		reason := "invalid_credentials"
		switch {
		case errors.Is(err, service.ErrThrottled):
			reason = "throttled"
		case !errors.Is(err, service.ErrInvalidCredentials):
			reason = "internal"
		}
		observability.Audit(r, "auth.login.failed", "reason", reason)
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "auth.login.success")
	response.JSON(w, r, http.StatusOK, token)
}

// TestToken echoes the user behind the bearer token.
func (h *AuthHandler) TestToken(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Not authenticated", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, newUserView(user))
}

func readLoginRequest(r *http.Request) (loginRequest, error) {
	var req loginRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		if err := decodeJSON(r, &req); err != nil {
			return req, err
		}
	case "multipart/form-data":
		if err := r.ParseMultipartForm(64 << 10); err != nil {
			return req, badForm(err)
		}
		req.Username, req.Password = r.PostFormValue("username"), r.PostFormValue("password")
	default:
		if err := r.ParseForm(); err != nil {
			return req, badForm(err)
		}
		req.Username, req.Password = r.PostForm.Get("username"), r.PostForm.Get("password")
	}
	return req, nil
}

func badForm(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return fmt.Errorf("%w: invalid form body", service.ErrValidation)
}
