package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Elmeric/cycliti/internal/observability"
	"github.com/Elmeric/cycliti/internal/service"
)

// StravaHandler receives the Strava OAuth redirect. The state parameter
// carries the id of the user who started the authorization.
type StravaHandler struct {
	links       service.LinkServiceInterface
	redirectURL string
}

func NewStravaHandler(links service.LinkServiceInterface, frontendHost string) *StravaHandler {
	return &StravaHandler{links: links, redirectURL: frontendHost + "?stravaLinked=1"}
}

func (h *StravaHandler) Link(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code, scope := q.Get("code"), q.Get("scope")
	if code == "" || strings.TrimSpace(scope) == "" {
		observability.Audit(r, "strava.link.failed", "reason", "missing_code_or_scope")
		writeBadRequest(w, r, "missing code or scope")
		return
	}
	userID, err := strconv.ParseUint(q.Get("state"), 10, 64)
	if err != nil || userID == 0 {
		observability.Audit(r, "strava.link.failed", "reason", "invalid_state")
		writeServiceError(w, r, service.ErrForbidden)
		return
	}

	if _, err := h.links.Link(r.Context(), uint(userID), code, scope); err != nil {
		observability.Audit(r, "strava.link.failed", "user_id", userID, "reason", auditReason(err))
		writeServiceError(w, r, err)
		return
	}
	observability.AuditEventLog(r, observability.AuditInput{
		EventName:   "strava.link",
		ActorUserID: strconv.FormatUint(userID, 10),
		TargetType:  "strava_link",
		TargetID:    strconv.FormatUint(userID, 10),
		Action:      "link",
		Outcome:     "success",
	})
	http.Redirect(w, r, h.redirectURL, http.StatusTemporaryRedirect)
}
