package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"minitwit/internal/httputil"
	"minitwit/internal/model"
	"minitwit/internal/service"
	"minitwit/internal/transport/http/middleware"
)

type FollowHandler struct {
	followService *service.FollowService
	userService   *service.UserService
}

func NewFollowHandler(followService *service.FollowService, userService *service.UserService) *FollowHandler {
	return &FollowHandler{
		followService: followService,
		userService:   userService,
	}
}

// Follow handles POST /{username}/follow
func (h *FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
	followerID, target, ok := h.resolve(w, r)
	if !ok {
		return
	}

	if err := h.followService.Follow(r.Context(), followerID, target.ID); err != nil {
		switch {
		case errors.Is(err, model.ErrCannotFollowSelf):
			httputil.WriteBadRequest(w, "You cannot follow yourself")
		case errors.Is(err, model.ErrUnknownUser):
			httputil.WriteNotFound(w, "User not found")
		default:
			slog.ErrorContext(r.Context(), "follow failed", "component", "FollowHandler", "who", followerID, "whom", target.ID, "error", err)
			httputil.WriteInternalError(w, "Failed to follow user")
		}
		return
	}

	httputil.WriteFlash(w, http.StatusOK, model.FlashFollowing(target.Username))
}

// Unfollow handles POST /{username}/unfollow
func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	followerID, target, ok := h.resolve(w, r)
	if !ok {
		return
	}

	if err := h.followService.Unfollow(r.Context(), followerID, target.ID); err != nil {
		slog.ErrorContext(r.Context(), "unfollow failed", "component", "FollowHandler", "who", followerID, "whom", target.ID, "error", err)
		httputil.WriteInternalError(w, "Failed to unfollow user")
		return
	}

	httputil.WriteFlash(w, http.StatusOK, model.FlashUnfollowing(target.Username))
}

// resolve returns the current user and the user named in the path, writing
// 401 or 404 when either is missing.
func (h *FollowHandler) resolve(w http.ResponseWriter, r *http.Request) (int64, *model.User, bool) {
	followerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return 0, nil, false
	}

	target, err := h.userService.FindByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return 0, nil, false
		}
		slog.ErrorContext(r.Context(), "lookup user failed", "component", "FollowHandler", "error", err)
		httputil.WriteInternalError(w, "Failed to get user")
		return 0, nil, false
	}
	return followerID, target, true
}
