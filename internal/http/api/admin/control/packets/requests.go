package packets

import "time"

// RecomputeRequest names exactly one of screen_id or rule_id.
type RecomputeRequest struct {
	ScreenID *string `json:"screen_id"`
	RuleID   *string `json:"rule_id"`
}

type CreateScreenRequest struct {
	ScreenCode string  `json:"screen_code" binding:"required"`
	Name       string  `json:"name"        binding:"required"`
	Location   *string `json:"location"`
}

type CreateVideoRequest struct {
	Title           string `json:"title"            binding:"required"`
	ContentHash     string `json:"content_hash"     binding:"required"`
	DurationSeconds int    `json:"duration_seconds" binding:"required"`
}

type CreateRuleRequest struct {
	Name        string     `json:"name"        binding:"required"`
	RuleType    string     `json:"rule_type"   binding:"required"`
	ActiveFrom  time.Time  `json:"active_from" binding:"required"`
	ActiveUntil *time.Time `json:"active_until"`
}

// AddSlotRequest times are "HH:MM"; day_of_week (0=Monday) only applies to weekly rules.
type AddSlotRequest struct {
	ScreenID  string `json:"screen_id"  binding:"required"`
	VideoID   string `json:"video_id"   binding:"required"`
	DayOfWeek *int   `json:"day_of_week"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time"   binding:"required"`
}
