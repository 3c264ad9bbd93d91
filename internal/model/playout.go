package model

import (
	"time"

	"github.com/google/uuid"
)

// DesiredState is the committed playout manifest for a screen.
// Version is monotonic per screen and never reused.
type DesiredState struct {
	ScreenID    uuid.UUID `db:"screen_id"    json:"screen_id"`
	Version     int64     `db:"version"      json:"desired_state_version"`
	Fingerprint string    `db:"fingerprint"  json:"fingerprint"`
	Manifest    []byte    `db:"manifest"     json:"-"`
	HorizonFrom time.Time `db:"horizon_from" json:"horizon_from"`
	HorizonTo   time.Time `db:"horizon_to"   json:"horizon_to"`
	CommittedAt time.Time `db:"committed_at" json:"committed_at"`
}
