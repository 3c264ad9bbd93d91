package model

import (
	"time"

	"github.com/google/uuid"
)

type RuleType string

const (
	RuleDaily     RuleType = "daily"
	RuleWeekly    RuleType = "weekly"
	RuleDateRange RuleType = "date_range"
)

func (t RuleType) Valid() bool {
	switch t {
	case RuleDaily, RuleWeekly, RuleDateRange:
		return true
	}
	return false
}

type ScheduleRule struct {
	ID          uuid.UUID  `db:"id"           json:"rule_id"`
	ClientID    uuid.UUID  `db:"client_id"    json:"client_id"`
	Name        string     `db:"name"         json:"name"`
	RuleType    RuleType   `db:"rule_type"    json:"rule_type"`
	ActiveFrom  time.Time  `db:"active_from"  json:"active_from"`
	ActiveUntil *time.Time `db:"active_until" json:"active_until,omitempty"`
	CreatedAt   time.Time  `db:"created_at"   json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"   json:"updated_at"`
}

// TimeSlot is one playout window owned by a rule. StartTime and EndTime
// are "HH:MM" in the schedule time zone; DayOfWeek is 0=Monday..6=Sunday.
type TimeSlot struct {
	ID        uuid.UUID `db:"id"               json:"slot_id"`
	RuleID    uuid.UUID `db:"schedule_rule_id" json:"rule_id"`
	ScreenID  uuid.UUID `db:"screen_id"        json:"screen_id"`
	VideoID   uuid.UUID `db:"video_id"         json:"video_id"`
	DayOfWeek *int      `db:"day_of_week"      json:"day_of_week,omitempty"`
	StartTime string    `db:"start_time"       json:"start_time"`
	EndTime   string    `db:"end_time"         json:"end_time"`
	CreatedAt time.Time `db:"created_at"       json:"created_at"`
}

// ScreenSnapshot is the pre-joined, client-scoped read model for a single
// screen: every rule owning a slot on it, those slots, and their videos.
type ScreenSnapshot struct {
	ClientID uuid.UUID
	ScreenID uuid.UUID
	Rules    []ScheduleRule
	Slots    []TimeSlot
	Videos   map[uuid.UUID]Video
}
