// Package db holds the repositories of the playout service: a PostgreSQL
// implementation on sqlx and an in-memory one for development and tests.
package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Nixie-Tech-LLC/playout/internal/model"
)

// Every read keyed by a per-client ID takes the client ID and reports
// apperrors.ErrNotFound for records of other clients.
type Store interface {
	// screen functions
	CreateScreen(ctx context.Context, s model.Screen) error
	GetScreen(ctx context.Context, clientID, id uuid.UUID) (model.Screen, error)
	GetScreenByCode(ctx context.Context, code string) (model.Screen, error)
	ListScreens(ctx context.Context, clientID uuid.UUID) ([]model.Screen, error)
	ListActiveScreens(ctx context.Context) ([]model.Screen, error)
	UpdateScreenHealth(ctx context.Context, s model.Screen) error
	// SetScreenStatus writes s.Status only if the screen still has the
	// heartbeat and fault it was derived from. It reports whether it wrote.
	SetScreenStatus(ctx context.Context, s model.Screen) (bool, error)
	RetireScreen(ctx context.Context, clientID, id uuid.UUID, at time.Time) error

	// video functions
	CreateVideo(ctx context.Context, v model.Video) error
	GetVideo(ctx context.Context, clientID, id uuid.UUID) (model.Video, error)
	RetractVideo(ctx context.Context, clientID, id uuid.UUID, at time.Time) error
	ScreensForVideo(ctx context.Context, clientID, videoID uuid.UUID) ([]uuid.UUID, error)

	// schedule functions
	CreateRule(ctx context.Context, r model.ScheduleRule) error
	GetRule(ctx context.Context, clientID, id uuid.UUID) (model.ScheduleRule, error)
	CreateSlot(ctx context.Context, s model.TimeSlot) error
	DeleteSlot(ctx context.Context, clientID, id uuid.UUID) (model.TimeSlot, error)
	ScreensForRule(ctx context.Context, clientID, ruleID uuid.UUID) ([]uuid.UUID, error)
	GetScreenSnapshot(ctx context.Context, clientID, screenID uuid.UUID) (model.ScreenSnapshot, error)

	// desired state functions
	GetDesiredState(ctx context.Context, screenID uuid.UUID) (model.DesiredState, error)
	CompareAndSwapDesiredState(ctx context.Context, expected int64, next model.DesiredState) error

	// sync status functions
	GetSyncStatus(ctx context.Context, screenID uuid.UUID) (model.PlayerSyncStatus, error)
	SaveSyncStatus(ctx context.Context, st model.PlayerSyncStatus) error
}

type pgStore struct {
	db *sqlx.DB
}

// compile-time checks
var (
	_ Store = (*pgStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

func NewStore(db *sqlx.DB) Store {
	return &pgStore{db: db}
}
