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

func (s *pgStore) GetSyncStatus(ctx context.Context, screenID uuid.UUID) (model.PlayerSyncStatus, error) {
	var st model.PlayerSyncStatus
	err := s.db.GetContext(ctx, &st, `
		SELECT p.screen_id, sc.screen_code, p.desired_state_version, p.applied_state_version,
		p.sync_status, p.last_sync_attempt, p.last_successful_sync, p.error_message,
		p.last_heartbeat, p.health_metrics, p.updated_at
		FROM player_sync_status p
		JOIN screens sc ON sc.id = p.screen_id
		WHERE p.screen_id = $1`, screenID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PlayerSyncStatus{}, apperrors.NotFound("sync status", screenID.String())
	}
	if err != nil {
		log.Error().Err(err).Str("screen_id", screenID.String()).Msg("GetSyncStatus failed")
	}
	return st, err
}

func (s *pgStore) SaveSyncStatus(ctx context.Context, st model.PlayerSyncStatus) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO player_sync_status (screen_id, desired_state_version, applied_state_version, sync_status,
		last_sync_attempt, last_successful_sync, error_message, last_heartbeat, health_metrics, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (screen_id) DO UPDATE SET
		desired_state_version = EXCLUDED.desired_state_version,
		applied_state_version = EXCLUDED.applied_state_version,
		sync_status = EXCLUDED.sync_status,
		last_sync_attempt = EXCLUDED.last_sync_attempt,
		last_successful_sync = EXCLUDED.last_successful_sync,
		error_message = EXCLUDED.error_message,
		last_heartbeat = EXCLUDED.last_heartbeat,
		health_metrics = EXCLUDED.health_metrics,
		updated_at = EXCLUDED.updated_at`,
		st.ScreenID, st.DesiredStateVersion, st.AppliedStateVersion, st.SyncStatus,
		st.LastSyncAttempt, st.LastSuccessfulSync, st.ErrorMessage, st.LastHeartbeat, st.HealthMetrics, st.UpdatedAt)
	if err != nil {
		log.Error().Err(err).Str("screen_id", st.ScreenID.String()).Msg("SaveSyncStatus failed")
	}
	return err
}
