package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"notification_service/internal/models"
)

type UserService interface {
	UserExists(ctx context.Context, username string) (bool, error)
	CreateUser(ctx context.Context, username, passwordHash string, avatarURL *string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

type userService struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewUserService(pool *pgxpool.Pool, log *slog.Logger) *userService {
	return &userService{
		pool: pool,
		log:  log,
	}
}

func (us *userService) UserExists(ctx context.Context, username string) (bool, error) {
	const op = "services.UserExists"

	query := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select("COUNT(*)").
		From("users").
		Where(squirrel.Eq{"username": username})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	var count int
	if err := us.pool.QueryRow(ctx, sqlStr, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return count > 0, nil
}

func (us *userService) CreateUser(ctx context.Context, username, passwordHash string, avatarURL *string) (*models.User, error) {
	const op = "services.CreateUser"

	query := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Insert("users").
		Columns("username", "password_hash", "avatar_url").
		Values(username, passwordHash, avatarURL).
		Suffix("RETURNING id, username, avatar_url, password_hash, blocked, created_at")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var user models.User
	err = us.pool.QueryRow(ctx, sqlStr, args...).
		Scan(&user.ID, &user.Username, &user.AvatarURL, &user.PasswordHash, &user.Blocked, &user.CreatedAt)
	if err != nil {
		// Unique violation on username: a concurrent registration won the race.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, models.ErrUserExists
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	us.log.Info("user created", slog.String("username", user.Username), slog.Int64("user_id", user.ID))

	return &user, nil
}

func (us *userService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "services.GetUserByUsername"

	query := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select("id", "username", "avatar_url", "password_hash", "blocked", "created_at").
		From("users").
		Where(squirrel.Eq{"username": username})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var user models.User
	err = us.pool.QueryRow(ctx, sqlStr, args...).
		Scan(&user.ID, &user.Username, &user.AvatarURL, &user.PasswordHash, &user.Blocked, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &user, nil
}

func (us *userService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	const op = "services.GetUserByID"

	query := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select("id", "username", "avatar_url", "password_hash", "blocked", "created_at").
		From("users").
		Where(squirrel.Eq{"id": id})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var user models.User
	err = us.pool.QueryRow(ctx, sqlStr, args...).
		Scan(&user.ID, &user.Username, &user.AvatarURL, &user.PasswordHash, &user.Blocked, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &user, nil
}
