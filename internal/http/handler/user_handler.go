package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Elmeric/cycliti/internal/domain"
	"github.com/Elmeric/cycliti/internal/http/middleware"
	"github.com/Elmeric/cycliti/internal/http/response"
	"github.com/Elmeric/cycliti/internal/observability"
	"github.com/Elmeric/cycliti/internal/repository"
	"github.com/Elmeric/cycliti/internal/service"
)

// photoFormMemory is the in-memory share of a multipart photo upload; the
// rest spills to a temp file.
const photoFormMemory = 1 << 20

type UserHandler struct {
	userSvc service.UserServiceInterface
}

func NewUserHandler(userSvc service.UserServiceInterface) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := parsePageRequest(r)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	result, err := h.userSvc.List(r.Context(), page)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	items := make([]userView, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, newUserView(&result.Items[i]))
	}
	response.JSON(w, r, http.StatusOK, userPageView{Items: items, Skip: result.Skip, Limit: result.Limit, Total: result.Total})
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	requester, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Not authenticated", nil)
		return
	}
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		writeBadRequest(w, r, "invalid user id")
		return
	}
	user, err := h.userSvc.Get(r.Context(), requester, uint(id))
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			observability.AuditEventLog(r, observability.AuditInput{
				EventName:   "user.read",
				ActorUserID: strconv.FormatUint(uint64(requester.ID), 10),
				TargetType:  "user",
				TargetID:    strconv.FormatUint(id, 10),
				Action:      "read",
				Outcome:     "denied",
				Reason:      "not_owner",
			})
		}
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, newUserView(user))
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Not authenticated", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, h.viewWithPhoto(r, user))
}

// UploadPhoto replaces the caller's profile photo with the multipart "file"
// field.
func (h *UserHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Not authenticated", nil)
		return
	}
	if err := r.ParseMultipartForm(photoFormMemory); err != nil {
		writeServiceError(w, r, badForm(err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()
	file, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, r, "file is required")
		return
	}
	defer file.Close()

	updated, err := h.userSvc.ReplacePhoto(r.Context(), user, file, header.Size)
	observability.Audit(r, "user.photo.upload", "user_id", user.ID, "outcome", outcome(err))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, h.viewWithPhoto(r, updated))
}

func (h *UserHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Not authenticated", nil)
		return
	}
	updated, err := h.userSvc.RemovePhoto(r.Context(), user)
	observability.Audit(r, "user.photo.delete", "user_id", user.ID, "outcome", outcome(err))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, newUserView(updated))
}

func (h *UserHandler) viewWithPhoto(r *http.Request, user *domain.User) userView {
	view := newUserView(user)
	if user.PhotoPath == "" {
		return view
	}
	url, err := h.userSvc.PhotoURL(r.Context(), user)
	if err != nil {
		slog.WarnContext(r.Context(), "photo url unavailable", "user_id", user.ID, "error", err)
		return view
	}
	view.PhotoURL = url
	return view
}

func parsePageRequest(r *http.Request) (repository.PageRequest, error) {
	page := repository.PageRequest{Skip: 0, Limit: repository.DefaultLimit}
	q := r.URL.Query()
	if raw := q.Get("skip"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return page, errors.New("skip must be a non-negative integer")
		}
		page.Skip = v
	}
	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > repository.MaxLimit {
			return page, errors.New("limit must be between 1 and " + strconv.Itoa(repository.MaxLimit))
		}
		page.Limit = v
	}
	return page, nil
}
