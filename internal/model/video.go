package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinVideoDurationSeconds = 1
	MaxVideoDurationSeconds = 20
)

// Video is an immutable content reference. The binary lives in object storage.
type Video struct {
	ID              uuid.UUID  `db:"id"               json:"video_id"`
	ClientID        uuid.UUID  `db:"client_id"        json:"client_id"`
	Title           string     `db:"title"            json:"title"`
	ContentHash     string     `db:"content_hash"     json:"content_hash"`
	DurationSeconds int        `db:"duration_seconds" json:"duration_seconds"`
	RetractedAt     *time.Time `db:"retracted_at"     json:"retracted_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at"       json:"created_at"`
}

func (v Video) Retracted() bool {
	return v.RetractedAt != nil
}
