package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	_ "github.com/jackc/pgx/v4/stdlib" // database/sql driver for goose
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// NewPool opens a pgx connection pool and verifies it with a ping.
func NewPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	const op = "db.NewPool"

	pool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return pool, nil
}

// RunMigrations applies the embedded goose migrations. It uses a separate
// database/sql connection because goose does not speak the pgx pool API.
func RunMigrations(url string) error {
	const op = "db.RunMigrations"

	conn, err := sql.Open("pgx", url)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer conn.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	goose.SetBaseFS(embedMigrations)

	if err := goose.Up(conn, "migrations"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
