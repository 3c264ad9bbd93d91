package model

import (
	"time"

	"github.com/google/uuid"
)

type ScreenStatus string

const (
	ScreenOnline  ScreenStatus = "online"
	ScreenOffline ScreenStatus = "offline"
	ScreenError   ScreenStatus = "error"
)

// Screen represents a display device registered by a client.
// Status is derived from LastHeartbeat and Fault, never set by hand.
type Screen struct {
	ID            uuid.UUID    `db:"id"             json:"screen_id"`
	ClientID      uuid.UUID    `db:"client_id"      json:"client_id"`
	Code          string       `db:"screen_code"    json:"screen_code"`
	Name          string       `db:"name"           json:"name"`
	Location      *string      `db:"location"       json:"location,omitempty"`
	Status        ScreenStatus `db:"status"         json:"status"`
	LastHeartbeat *time.Time   `db:"last_heartbeat" json:"last_heartbeat,omitempty"`
	Fault         bool         `db:"fault"          json:"fault"`
	RetiredAt     *time.Time   `db:"retired_at"     json:"retired_at,omitempty"`
	CreatedAt     time.Time    `db:"created_at"     json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at"     json:"updated_at"`
}

func (s Screen) Retired() bool {
	return s.RetiredAt != nil
}
