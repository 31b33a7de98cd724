package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"minitwit/internal/httputil"
	"minitwit/internal/model"
	"minitwit/internal/service"
	"minitwit/internal/transport/http/middleware"
)

type TimelineHandler struct {
	timelineService *service.TimelineService
	perPage         int
}

func NewTimelineHandler(timelineService *service.TimelineService, perPage int) *TimelineHandler {
	return &TimelineHandler{
		timelineService: timelineService,
		perPage:         perPage,
	}
}

// Timeline handles GET /
// Returns the current user's own timeline; anonymous callers are sent to /public.
//
// Query params:
//   - limit: optional, number of messages (default PER_PAGE, max 100)
func (h *TimelineHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	currentUserID := middleware.CurrentUserID(r.Context())
	if currentUserID == nil {
		http.Redirect(w, r, "/public", http.StatusFound)
		return
	}

	limit, ok := h.parseLimit(w, r)
	if !ok {
		return
	}

	entries, err := h.timelineService.OwnTimeline(r.Context(), currentUserID, limit)
	if err != nil {
		if errors.Is(err, model.ErrNotAuthenticated) {
			httputil.WriteUnauthorized(w, "Authentication required")
			return
		}
		slog.ErrorContext(r.Context(), "own timeline failed", "component", "TimelineHandler", "user", *currentUserID, "error", err)
		httputil.WriteInternalError(w, "Failed to get timeline")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.NewTimelineResponse(entries))
}

// Public handles GET /public
func (h *TimelineHandler) Public(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.parseLimit(w, r)
	if !ok {
		return
	}

	entries, err := h.timelineService.PublicTimeline(r.Context(), limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "public timeline failed", "component", "TimelineHandler", "error", err)
		httputil.WriteInternalError(w, "Failed to get timeline")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.NewTimelineResponse(entries))
}

// User handles GET /{username}
func (h *TimelineHandler) User(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.parseLimit(w, r)
	if !ok {
		return
	}

	username := chi.URLParam(r, "username")
	ut, err := h.timelineService.UserTimeline(r.Context(), middleware.CurrentUserID(r.Context()), username, limit)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		slog.ErrorContext(r.Context(), "user timeline failed", "component", "TimelineHandler", "username", username, "error", err)
		httputil.WriteInternalError(w, "Failed to get timeline")
		return
	}

	resp := model.NewTimelineResponse(ut.Entries)
	resp.ProfileUser = model.NewUserView(ut.ProfileUser, model.ProfileAvatarSize)
	resp.Followed = &ut.Followed
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *TimelineHandler) parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	l := r.URL.Query().Get("limit")
	if l == "" {
		return h.perPage, true
	}
	parsed, err := strconv.Atoi(l)
	if err != nil || parsed <= 0 {
		httputil.WriteBadRequest(w, "Invalid limit parameter")
		return 0, false
	}
	return parsed, true
}
