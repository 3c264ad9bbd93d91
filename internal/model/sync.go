package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SyncStatus string

const (
	SyncPending    SyncStatus = "pending"
	SyncInProgress SyncStatus = "in_progress"
	SyncSuccess    SyncStatus = "success"
	SyncFailed     SyncStatus = "failed"
)

type PlayerSyncStatus struct {
	ScreenID            uuid.UUID     `db:"screen_id"             json:"screen_id"`
	ScreenCode          string        `db:"screen_code"           json:"screen_code"`
	DesiredStateVersion int64         `db:"desired_state_version" json:"desired_state_version"`
	AppliedStateVersion int64         `db:"applied_state_version" json:"applied_state_version"`
	SyncStatus          SyncStatus    `db:"sync_status"           json:"sync_status"`
	LastSyncAttempt     *time.Time    `db:"last_sync_attempt"     json:"last_sync_attempt,omitempty"`
	LastSuccessfulSync  *time.Time    `db:"last_successful_sync"  json:"last_successful_sync,omitempty"`
	ErrorMessage        *string       `db:"error_message"         json:"error_message,omitempty"`
	LastHeartbeat       *time.Time    `db:"last_heartbeat"        json:"last_heartbeat,omitempty"`
	HealthMetrics       HealthMetrics `db:"health_metrics"        json:"health_metrics,omitempty"`
	UpdatedAt           time.Time     `db:"updated_at"            json:"updated_at"`
}

// HealthMetrics is opaque player telemetry. Values are restricted to
// strings, booleans, numbers and null.
type HealthMetrics map[string]any

// NewHealthMetrics copies raw into HealthMetrics, rejecting nested values.
func NewHealthMetrics(raw map[string]any) (HealthMetrics, error) {
	if raw == nil {
		return nil, nil
	}
	out := make(HealthMetrics, len(raw))
	for k, v := range raw {
		switch v.(type) {
		case nil, string, bool, float64, float32, int, int64, json.Number:
			out[k] = v
		default:
			return nil, fmt.Errorf("health metric %q: unsupported value type %T", k, v)
		}
	}
	return out, nil
}

func (m HealthMetrics) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *HealthMetrics) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return errors.New("health_metrics: unsupported scan type")
	}
}
