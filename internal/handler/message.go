package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"minitwit/internal/httputil"
	"minitwit/internal/model"
	"minitwit/internal/service"
	"minitwit/internal/transport/http/middleware"
)

type MessageHandler struct {
	messageService *service.MessageService
}

func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
	}
}

// AddMessage handles POST /add_message with form field text.
func (h *MessageHandler) AddMessage(w http.ResponseWriter, r *http.Request) {
	authorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	if _, err := h.messageService.Post(r.Context(), authorID, r.FormValue("text")); err != nil {
		if errors.Is(err, model.ErrEmptyText) {
			httputil.WriteBadRequest(w, "Message text is required")
			return
		}
		if errors.Is(err, model.ErrUnknownUser) {
			// valid token for a user that no longer exists
			httputil.WriteUnauthorized(w, "Authentication required")
			return
		}
		slog.ErrorContext(r.Context(), "post message failed", "component", "MessageHandler", "author", authorID, "error", err)
		httputil.WriteInternalError(w, "Failed to post message")
		return
	}

	httputil.WriteFlash(w, http.StatusCreated, model.FlashMessageRecorded)
}
