package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4/pgxpool"

	"notification_service/internal/models"
)

// NotificationService is the persistence side of the feed: page queries
// and row mutations, no caching concerns.
type NotificationService interface {
	FetchPage(ctx context.Context, userID int64, offset, limit int) ([]models.Notification, int, error)
	CreateNotification(ctx context.Context, userID int64, notifType models.NotificationType, text *string) error
	DeleteNotification(ctx context.Context, userID, notificationID int64) error
}

type notificationService struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewNotificationService(pool *pgxpool.Pool, log *slog.Logger) *notificationService {
	return &notificationService{
		pool: pool,
		log:  log,
	}
}

// FetchPage returns one page of the user's notifications together with the
// unbounded total count. Rows are ordered by creation time, newest first,
// with id as tie-break so the order is total and stable.
func (ns *notificationService) FetchPage(ctx context.Context, userID int64, offset, limit int) ([]models.Notification, int, error) {
	const op = "services.FetchPage"

	query := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select("n.id", "n.type", "n.text", "n.created_at", "u.username", "u.avatar_url").
		From("notifications n").
		Join("users u ON u.id = n.user_id").
		Where(squirrel.Eq{"n.user_id": userID}).
		OrderBy("n.created_at DESC", "n.id DESC").
		Offset(uint64(offset)).
		Limit(uint64(limit))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := ns.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	items := make([]models.Notification, 0, limit)
	for rows.Next() {
		var item models.Notification
		err := rows.Scan(&item.ID, &item.Type, &item.Text, &item.CreatedAt,
			&item.User.Username, &item.User.AvatarURL)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	countQuery := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select("COUNT(*)").
		From("notifications").
		Where(squirrel.Eq{"user_id": userID})

	sqlStr, args, err = countQuery.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	var total int
	if err := ns.pool.QueryRow(ctx, sqlStr, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return items, total, nil
}

func (ns *notificationService) CreateNotification(ctx context.Context, userID int64, notifType models.NotificationType, text *string) error {
	const op = "services.CreateNotification"

	query := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Insert("notifications").
		Columns("user_id", "type", "text").
		Values(userID, notifType, text).
		Suffix("RETURNING id")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var notificationID int64
	if err := ns.pool.QueryRow(ctx, sqlStr, args...).Scan(&notificationID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	ns.log.Info("notification created",
		slog.Int64("user_id", userID),
		slog.Int64("notification_id", notificationID),
		slog.String("type", string(notifType)))

	return nil
}

// DeleteNotification removes the row only when it belongs to userID. A row
// owned by someone else and a missing row are both ErrNotificationNotFound,
// so existence never leaks across users.
func (ns *notificationService) DeleteNotification(ctx context.Context, userID, notificationID int64) error {
	const op = "services.DeleteNotification"

	query := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Delete("notifications").
		Where(squirrel.Eq{"id": notificationID, "user_id": userID})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	result, err := ns.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotificationNotFound
	}

	ns.log.Info("notification deleted",
		slog.Int64("user_id", userID),
		slog.Int64("notification_id", notificationID))

	return nil
}
