package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/mediaplatform/catalog-service/internal/config"
	"github.com/mediaplatform/catalog-service/internal/storage"
	"github.com/mediaplatform/catalog-service/internal/types"
)

// queryTimeout bounds every statement so a stuck backend surfaces as
// an error instead of hanging the request.
const queryTimeout = 5 * time.Second

type Postgres struct {
	Db *sql.DB
}

func NewPostgres(cfg *config.Config) (*Postgres, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.PGSQL.Host, cfg.PGSQL.Port, cfg.PGSQL.User, cfg.PGSQL.Password, cfg.PGSQL.DBName, cfg.PGSQL.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	err = db.Ping()
	if err != nil {
		return nil, err
	}

	pg := &Postgres{Db: db}
	if err := pg.CreateTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return pg, nil
}

func (p *Postgres) CreateTables() error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS accounts (
			id SERIAL PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			password TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS media_assets (
			id SERIAL PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			type VARCHAR(50) NOT NULL,
			file_url TEXT NOT NULL,
			views INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS media_view_logs (
			id SERIAL PRIMARY KEY,
			media_id INTEGER NOT NULL REFERENCES media_assets(id) ON DELETE CASCADE,
			viewed_by_ip VARCHAR(64),
			viewed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		`,
	}

	for _, q := range queries {
		if _, err := p.Db.Exec(q); err != nil {
			return err
		}
	}

	return nil
}

func (p *Postgres) CreateAccount(ctx context.Context, email, passwordHash string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var accountID int64
	query := `
	INSERT INTO accounts (email, password)
	VALUES ($1, $2)
	RETURNING id
	`

	err := p.Db.QueryRowContext(ctx, query, email, passwordHash).Scan(&accountID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return 0, storage.ErrDuplicateEmail
		}
		return 0, err
	}

	return accountID, nil
}

func (p *Postgres) GetAccountByEmail(ctx context.Context, email string) (int64, string, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var accountID int64
	var hashedPassword string
	query := `
	SELECT id, password FROM accounts WHERE email = $1
	`

	err := p.Db.QueryRowContext(ctx, query, email).Scan(&accountID, &hashedPassword)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, "", storage.ErrNotFound
		}
		return 0, "", err
	}

	return accountID, hashedPassword, nil
}

func (p *Postgres) CreateMedia(ctx context.Context, title, mediaType, fileURL string) (types.MediaAsset, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var media types.MediaAsset
	query := `
	INSERT INTO media_assets (title, type, file_url)
	VALUES ($1, $2, $3)
	RETURNING id, title, type, file_url, views, created_at
	`

	err := p.Db.QueryRowContext(ctx, query, title, mediaType, fileURL).
		Scan(&media.ID, &media.Title, &media.Type, &media.FileURL, &media.Views, &media.CreatedAt)
	if err != nil {
		return types.MediaAsset{}, err
	}

	return media, nil
}

func (p *Postgres) GetMediaByID(ctx context.Context, mediaID int64) (types.MediaAsset, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var media types.MediaAsset
	query := `
	SELECT id, title, type, file_url, views, created_at FROM media_assets WHERE id = $1
	`

	err := p.Db.QueryRowContext(ctx, query, mediaID).
		Scan(&media.ID, &media.Title, &media.Type, &media.FileURL, &media.Views, &media.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.MediaAsset{}, storage.ErrNotFound
		}
		return types.MediaAsset{}, err
	}

	return media, nil
}

// IncrementViews bumps the counter in a single UPDATE so concurrent
// callers serialize on the row and no increment is lost.
func (p *Postgres) IncrementViews(ctx context.Context, mediaID int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var views int64
	query := `
	UPDATE media_assets SET views = views + 1 WHERE id = $1
	RETURNING views
	`

	err := p.Db.QueryRowContext(ctx, query, mediaID).Scan(&views)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, storage.ErrNotFound
		}
		return 0, err
	}

	return views, nil
}
