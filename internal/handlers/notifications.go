package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"notification_service/internal/models"
	"notification_service/internal/services"
)

const defaultPageLimit = 20

type NotificationHandler struct {
	feed services.FeedService
	log  *slog.Logger
}

func NewNotificationHandler(feed services.FeedService, log *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		feed: feed,
		log:  log,
	}
}

type createNotificationRequest struct {
	Type models.NotificationType `json:"type"`
	Text *string                 `json:"text,omitempty"`
}

// List handles GET /notifications?offset=&limit=
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		WriteUnauthorized(w, r)
		return
	}

	offset, limit, problems := paginationParams(r)
	if problems != nil {
		WriteError(w, r, http.StatusBadRequest, "validation_error", "Validation error", problems)
		return
	}

	page, err := h.feed.List(ctx, userID, offset, limit)
	if err != nil {
		h.log.Error("failed to list notifications", slog.Int64("user_id", userID), slog.Any("error", err))
		writeInternalError(w, r)
		return
	}

	WriteJSON(w, http.StatusOK, page)
}

// Create handles POST /notifications
func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		WriteUnauthorized(w, r)
		return
	}

	var req createNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "validation_error", "Invalid request body", nil)
		return
	}

	if !req.Type.Valid() {
		problems := []fieldError{{Field: "type", Message: "must be one of: like, comment, repost"}}
		WriteError(w, r, http.StatusBadRequest, "validation_error", "Validation error", problems)
		return
	}

	if err := h.feed.Create(ctx, userID, req.Type, req.Text); err != nil {
		h.log.Error("failed to create notification", slog.Int64("user_id", userID), slog.Any("error", err))
		writeInternalError(w, r)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// Delete handles DELETE /notifications/{id}
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		WriteUnauthorized(w, r)
		return
	}

	notificationID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		problems := []fieldError{{Field: "id", Message: "must be an integer"}}
		WriteError(w, r, http.StatusBadRequest, "validation_error", "Validation error", problems)
		return
	}

	if err := h.feed.Delete(ctx, userID, notificationID); err != nil {
		if errors.Is(err, models.ErrNotificationNotFound) {
			WriteError(w, r, http.StatusNotFound, "notification_not_found", "Item not found", nil)
			return
		}
		h.log.Error("failed to delete notification",
			slog.Int64("user_id", userID),
			slog.Int64("notification_id", notificationID),
			slog.Any("error", err))
		writeInternalError(w, r)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func paginationParams(r *http.Request) (offset, limit int, problems []fieldError) {
	offset = 0
	limit = defaultPageLimit

	query := r.URL.Query()

	if raw := query.Get("offset"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			problems = append(problems, fieldError{Field: "offset", Message: "must be an integer"})
		} else {
			offset = value
		}
	}

	if raw := query.Get("limit"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			problems = append(problems, fieldError{Field: "limit", Message: "must be an integer"})
		} else {
			limit = value
		}
	}

	return offset, limit, problems
}
