package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/playout/internal/apperrors"
	"github.com/Nixie-Tech-LLC/playout/internal/model"
)

const (
	ruleColumns = `id, client_id, name, rule_type, active_from, active_until, created_at, updated_at`
	slotColumns = `id, schedule_rule_id, screen_id, video_id, day_of_week, start_time, end_time, created_at`
)

func (s *pgStore) CreateRule(ctx context.Context, r model.ScheduleRule) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO schedule_rules (`+ruleColumns+`)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.ID, r.ClientID, r.Name, r.RuleType, r.ActiveFrom, r.ActiveUntil, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		log.Error().Err(err).Str("rule_id", r.ID.String()).Msg("CreateRule failed")
	}
	return err
}

func (s *pgStore) GetRule(ctx context.Context, clientID, id uuid.UUID) (model.ScheduleRule, error) {
	var r model.ScheduleRule
	err := s.db.GetContext(ctx, &r, `
		SELECT `+ruleColumns+`
		FROM schedule_rules
		WHERE id = $1 AND client_id = $2`, id, clientID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ScheduleRule{}, apperrors.NotFound("rule", id.String())
	}
	if err != nil {
		log.Error().Err(err).Str("rule_id", id.String()).Msg("GetRule failed")
	}
	return r, err
}

func (s *pgStore) CreateSlot(ctx context.Context, slot model.TimeSlot) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO time_slots (`+slotColumns+`)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		slot.ID, slot.RuleID, slot.ScreenID, slot.VideoID, slot.DayOfWeek, slot.StartTime, slot.EndTime, slot.CreatedAt)
	if err != nil {
		log.Error().Err(err).Str("slot_id", slot.ID.String()).Msg("CreateSlot failed")
	}
	return err
}

func (s *pgStore) DeleteSlot(ctx context.Context, clientID, id uuid.UUID) (model.TimeSlot, error) {
	var slot model.TimeSlot
	err := s.db.GetContext(ctx, &slot, `
		DELETE FROM time_slots ts
		USING schedule_rules r
		WHERE ts.id = $1 AND r.id = ts.schedule_rule_id AND r.client_id = $2
		RETURNING ts.id, ts.schedule_rule_id, ts.screen_id, ts.video_id, ts.day_of_week, ts.start_time, ts.end_time, ts.created_at`,
		id, clientID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TimeSlot{}, apperrors.NotFound("slot", id.String())
	}
	if err != nil {
		log.Error().Err(err).Str("slot_id", id.String()).Msg("DeleteSlot failed")
	}
	return slot, err
}

func (s *pgStore) ScreensForRule(ctx context.Context, clientID, ruleID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.SelectContext(ctx, &ids, `
		SELECT DISTINCT ts.screen_id
		FROM time_slots ts
		JOIN schedule_rules r ON r.id = ts.schedule_rule_id
		JOIN screens sc ON sc.id = ts.screen_id
		WHERE r.id = $1 AND r.client_id = $2 AND sc.retired_at IS NULL
		ORDER BY ts.screen_id`, ruleID, clientID)
	if err != nil {
		log.Error().Err(err).Str("rule_id", ruleID.String()).Msg("ScreensForRule failed")
	}
	return ids, err
}

// GetScreenSnapshot reads every rule, slot and video scheduled on the screen
// in one repeatable-read transaction.
func (s *pgStore) GetScreenSnapshot(ctx context.Context, clientID, screenID uuid.UUID) (model.ScreenSnapshot, error) {
	snap := model.ScreenSnapshot{ClientID: clientID, ScreenID: screenID, Videos: map[uuid.UUID]model.Video{}}

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return snap, err
	}
	defer tx.Rollback()

	if err := tx.SelectContext(ctx, &snap.Slots, `
		SELECT ts.id, ts.schedule_rule_id, ts.screen_id, ts.video_id, ts.day_of_week, ts.start_time, ts.end_time, ts.created_at
		FROM time_slots ts
		JOIN schedule_rules r ON r.id = ts.schedule_rule_id
		WHERE ts.screen_id = $1 AND r.client_id = $2
		ORDER BY ts.id`, screenID, clientID); err != nil {
		log.Error().Err(err).Str("screen_id", screenID.String()).Msg("GetScreenSnapshot slots failed")
		return snap, err
	}

	if err := tx.SelectContext(ctx, &snap.Rules, `
		SELECT `+ruleColumns+`
		FROM schedule_rules
		WHERE client_id = $2
		AND id IN (SELECT schedule_rule_id FROM time_slots WHERE screen_id = $1)
		ORDER BY id`, screenID, clientID); err != nil {
		log.Error().Err(err).Str("screen_id", screenID.String()).Msg("GetScreenSnapshot rules failed")
		return snap, err
	}

	var videos []model.Video
	if err := tx.SelectContext(ctx, &videos, `
		SELECT `+videoColumns+`
		FROM videos
		WHERE client_id = $2
		AND id IN (SELECT video_id FROM time_slots WHERE screen_id = $1)`, screenID, clientID); err != nil {
		log.Error().Err(err).Str("screen_id", screenID.String()).Msg("GetScreenSnapshot videos failed")
		return snap, err
	}
	for _, v := range videos {
		snap.Videos[v.ID] = v
	}

	return snap, tx.Commit()
}
