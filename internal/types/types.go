package types

import "time"

type MediaType string

const (
	MediaTypeAudio MediaType = "audio"
	MediaTypeVideo MediaType = "video"
)

// MediaAsset is a catalog entry. Only Views is ever mutated after
// creation; the column default keeps it present on every row.
type MediaAsset struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Type      string    `json:"type"`
	FileURL   string    `json:"file_url"`
	Views     int64     `json:"views"`
	CreatedAt time.Time `json:"created_at"`
}

type MediaCreateRequest struct {
	Title   string `json:"title" validate:"required"`
	Type    string `json:"type" validate:"required"`
	FileURL string `json:"file_url" validate:"required"`
}

// Analytics is the cached per-asset snapshot.
type Analytics struct {
	MediaID int64  `json:"media_id"`
	Title   string `json:"title"`
	Views   int64  `json:"views"`
}

// ViewLogEntry is reserved for per-view audit logging. The view
// endpoint currently updates the aggregate counter only; no code
// path writes these rows yet.
type ViewLogEntry struct {
	ID         int64     `json:"id"`
	MediaID    int64     `json:"media_id"`
	ViewedByIP string    `json:"viewed_by_ip"`
	ViewedAt   time.Time `json:"viewed_at"`
}
