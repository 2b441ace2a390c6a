package storage

import (
	"context"
	"errors"

	"github.com/mediaplatform/catalog-service/internal/types"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when an account with the same
	// email already exists.
	ErrDuplicateEmail = errors.New("email already exists")
)

type Storage interface {
	CreateAccount(ctx context.Context, email, passwordHash string) (int64, error)
	GetAccountByEmail(ctx context.Context, email string) (int64, string, error)
	CreateMedia(ctx context.Context, title, mediaType, fileURL string) (types.MediaAsset, error)
	GetMediaByID(ctx context.Context, mediaID int64) (types.MediaAsset, error)
	IncrementViews(ctx context.Context, mediaID int64) (int64, error)
}
