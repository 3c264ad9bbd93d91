package schedule

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Nixie-Tech-LLC/playout/internal/apperrors"
	"github.com/Nixie-Tech-LLC/playout/internal/model"
)

func ValidateRule(rule model.ScheduleRule) error {
	if strings.TrimSpace(rule.Name) == "" {
		return apperrors.Validation("rule name is required", nil)
	}
	if !rule.RuleType.Valid() {
		return apperrors.Validation(fmt.Sprintf("unknown rule type %q", rule.RuleType), map[string]any{"rule_type": string(rule.RuleType)})
	}
	if rule.ActiveFrom.IsZero() {
		return apperrors.Validation("active_from is required", nil)
	}
	if rule.ActiveUntil != nil && rule.ActiveUntil.Before(rule.ActiveFrom) {
		return apperrors.Validation("active_until must not be before active_from", nil)
	}
	return nil
}

// ValidateVideo checks the duration bounds and that the content hash is a
// hex SHA-256 digest.
func ValidateVideo(v model.Video) error {
	if v.DurationSeconds < model.MinVideoDurationSeconds || v.DurationSeconds > model.MaxVideoDurationSeconds {
		return apperrors.Validation(
			fmt.Sprintf("duration must be between %d and %d seconds", model.MinVideoDurationSeconds, model.MaxVideoDurationSeconds),
			map[string]any{"duration_seconds": v.DurationSeconds},
		)
	}
	if b, err := hex.DecodeString(v.ContentHash); err != nil || len(b) != 32 {
		return apperrors.Validation("content_hash must be a hex sha256 digest", nil)
	}
	return nil
}

// NormalizeSlot validates a slot against its rule and returns it in stored
// form: canonical clock strings, and no day for non-weekly rules.
func NormalizeSlot(rule model.ScheduleRule, slot model.TimeSlot) (model.TimeSlot, error) {
	w, err := ParseWindow(strings.TrimSpace(slot.StartTime), strings.TrimSpace(slot.EndTime))
	if err != nil {
		return slot, apperrors.Validation(err.Error(), nil)
	}
	slot.StartTime, slot.EndTime = FormatClock(w.Start), FormatClock(w.End)
	slot.RuleID = rule.ID

	if rule.RuleType == model.RuleWeekly {
		if slot.DayOfWeek == nil || *slot.DayOfWeek < 0 || *slot.DayOfWeek > 6 {
			return slot, apperrors.Validation("weekly slots require day_of_week between 0 (Monday) and 6 (Sunday)", nil)
		}
	} else {
		slot.DayOfWeek = nil
	}
	return slot, nil
}

// CheckAmbiguity rejects a slot that could overlap an existing slot on the
// same screen with no way to arbitrate between them: equal precedence and
// rules created at the same instant. rules must hold the rule of every
// existing slot.
func CheckAmbiguity(rule model.ScheduleRule, slot model.TimeSlot, existing []model.TimeSlot, rules map[uuid.UUID]model.ScheduleRule) error {
	w, err := ParseWindow(slot.StartTime, slot.EndTime)
	if err != nil {
		return apperrors.Validation(err.Error(), nil)
	}
	act := ActivationOf(rule)

	for _, other := range existing {
		if other.ID == slot.ID || other.ScreenID != slot.ScreenID {
			continue
		}
		otherRule, ok := rules[other.RuleID]
		if !ok {
			continue
		}
		if Precedence(otherRule.RuleType) != Precedence(rule.RuleType) || !otherRule.CreatedAt.Equal(rule.CreatedAt) {
			continue
		}
		if !act.overlapsActivation(ActivationOf(otherRule)) {
			continue
		}
		if rule.RuleType == model.RuleWeekly && (other.DayOfWeek == nil || slot.DayOfWeek == nil || *other.DayOfWeek != *slot.DayOfWeek) {
			continue
		}
		ow, err := ParseWindow(other.StartTime, other.EndTime)
		if err != nil || !Overlaps(w, ow) {
			continue
		}
		return apperrors.Validation("slot overlaps a slot of equal precedence", map[string]any{
			"slot_ids": []string{other.ID.String(), slot.ID.String()},
		})
	}
	return nil
}
