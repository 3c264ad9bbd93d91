package packets

// RESPONSES FOR /api/admin/* and /api/recompute

import (
	"time"

	"github.com/Nixie-Tech-LLC/playout/internal/http/api"
)

type RecomputeResult struct {
	ScreenID            string        `json:"screen_id"`
	DesiredStateVersion int64         `json:"desired_state_version"`
	Fingerprint         string        `json:"fingerprint,omitempty"`
	Changed             bool          `json:"changed"`
	Error               *api.APIError `json:"error,omitempty"`
}

type RecomputeResponse struct {
	Results []RecomputeResult `json:"results"`
	// set only when a single screen was requested
	DesiredStateVersion *int64 `json:"desired_state_version,omitempty"`
}

// SyncStatusResponse mirrors model.PlayerSyncStatus but flattens times to RFC3339.
type SyncStatusResponse struct {
	ScreenID            string         `json:"screen_id"`
	ScreenCode          string         `json:"screen_code"`
	DesiredStateVersion int64          `json:"desired_state_version"`
	AppliedStateVersion int64          `json:"applied_state_version"`
	SyncStatus          string         `json:"sync_status"`
	LastSyncAttempt     *string        `json:"last_sync_attempt"`
	LastSuccessfulSync  *string        `json:"last_successful_sync"`
	ErrorMessage        *string        `json:"error_message"`
	LastHeartbeat       *string        `json:"last_heartbeat"`
	HealthMetrics       map[string]any `json:"health_metrics"`
}

type ScreenResponse struct {
	ID            string  `json:"screen_id"`
	ScreenCode    string  `json:"screen_code"`
	Name          string  `json:"name"`
	Location      *string `json:"location"`
	Status        string  `json:"status"`
	Fault         bool    `json:"fault"`
	LastHeartbeat *string `json:"last_heartbeat"`
	RetiredAt     *string `json:"retired_at"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

type VideoResponse struct {
	ID              string  `json:"video_id"`
	Title           string  `json:"title"`
	ContentHash     string  `json:"content_hash"`
	DurationSeconds int     `json:"duration_seconds"`
	RetractedAt     *string `json:"retracted_at"`
	CreatedAt       string  `json:"created_at"`
}

type RetractVideoResponse struct {
	Video   VideoResponse     `json:"video"`
	Results []RecomputeResult `json:"results"`
}

type RuleResponse struct {
	ID          string  `json:"rule_id"`
	Name        string  `json:"name"`
	RuleType    string  `json:"rule_type"`
	ActiveFrom  string  `json:"active_from"`
	ActiveUntil *string `json:"active_until"`
	CreatedAt   string  `json:"created_at"`
}

type SlotResponse struct {
	ID        string `json:"slot_id"`
	RuleID    string `json:"rule_id"`
	ScreenID  string `json:"screen_id"`
	VideoID   string `json:"video_id"`
	DayOfWeek *int   `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type AddSlotResponse struct {
	Slot      SlotResponse    `json:"slot"`
	Recompute RecomputeResult `json:"recompute"`
}

func FormatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
