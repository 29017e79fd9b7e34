package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"notification_service/internal/cache"
	"notification_service/internal/models"
)

const (
	minPageLimit = 1
	maxPageLimit = 100
)

// FeedService is the cached read/mutate surface for a user's notification
// feed. Cached pages are namespaced by a per-user version counter: every
// mutation increments the counter, which orphans all previously cached
// pages for that user in one cheap operation instead of enumerating every
// offset/limit combination. Orphaned entries expire on their own TTL.
type FeedService interface {
	List(ctx context.Context, userID int64, offset, limit int) (*models.Page, error)
	Create(ctx context.Context, userID int64, notifType models.NotificationType, text *string) error
	Delete(ctx context.Context, userID, notificationID int64) error
}

type feedService struct {
	notifications NotificationService
	cache         cache.Cache
	cacheTTL      time.Duration
	log           *slog.Logger
}

func NewFeedService(notifications NotificationService, c cache.Cache, cacheTTL time.Duration, log *slog.Logger) *feedService {
	return &feedService{
		notifications: notifications,
		cache:         c,
		cacheTTL:      cacheTTL,
		log:           log,
	}
}

func versionKey(userID int64) string {
	return fmt.Sprintf("notifications:ver:%d", userID)
}

func pageKey(userID int64, version int64, offset, limit int) string {
	return fmt.Sprintf("notifications:%d:%d:%d:%d", userID, version, offset, limit)
}

// cacheVersion reads the user's current version counter. A missing or
// unparsable value counts as version 0, matching INCR's 0-start semantics.
func (fs *feedService) cacheVersion(ctx context.Context, userID int64) int64 {
	value, err := fs.cache.Get(ctx, versionKey(userID))
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			fs.log.Warn("failed to read cache version", slog.Int64("user_id", userID), slog.Any("error", err))
		}
		return 0
	}

	version, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}

	return version
}

func (fs *feedService) bumpCacheVersion(ctx context.Context, userID int64) {
	if _, err := fs.cache.Incr(ctx, versionKey(userID)); err != nil {
		// The stale pages still expire on their TTL, so this only extends
		// staleness, it does not break the feed.
		fs.log.Warn("failed to bump cache version", slog.Int64("user_id", userID), slog.Any("error", err))
	}
}

func (fs *feedService) List(ctx context.Context, userID int64, offset, limit int) (*models.Page, error) {
	const op = "services.FeedList"

	if limit < minPageLimit {
		limit = minPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	key := pageKey(userID, fs.cacheVersion(ctx, userID), offset, limit)

	data, err := fs.cache.Get(ctx, key)
	if err == nil {
		var page models.Page
		if err := json.Unmarshal([]byte(data), &page); err == nil {
			return &page, nil
		}
		fs.log.Warn("discarding malformed cache entry", slog.String("key", key))
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		fs.log.Warn("cache read failed", slog.String("key", key), slog.Any("error", err))
	}

	items, total, err := fs.notifications.FetchPage(ctx, userID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}

	page := &models.Page{
		Data: items,
		Meta: models.PageMeta{
			Offset:     offset,
			Limit:      limit,
			TotalItems: total,
			TotalPages: totalPages,
			HasNext:    offset+limit < total,
			HasPrev:    offset > 0,
		},
	}

	payload, err := json.Marshal(page)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := fs.cache.Set(ctx, key, string(payload), fs.cacheTTL); err != nil {
		// Serve the page anyway; the next request just recomputes it.
		fs.log.Warn("cache write failed", slog.String("key", key), slog.Any("error", err))
	}

	return page, nil
}

func (fs *feedService) Create(ctx context.Context, userID int64, notifType models.NotificationType, text *string) error {
	const op = "services.FeedCreate"

	if err := fs.notifications.CreateNotification(ctx, userID, notifType, text); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	fs.bumpCacheVersion(ctx, userID)

	return nil
}

func (fs *feedService) Delete(ctx context.Context, userID, notificationID int64) error {
	const op = "services.FeedDelete"

	if err := fs.notifications.DeleteNotification(ctx, userID, notificationID); err != nil {
		if errors.Is(err, models.ErrNotificationNotFound) {
			return err
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	fs.bumpCacheVersion(ctx, userID)

	return nil
}
