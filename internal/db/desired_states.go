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

func (s *pgStore) GetDesiredState(ctx context.Context, screenID uuid.UUID) (model.DesiredState, error) {
	var st model.DesiredState
	err := s.db.GetContext(ctx, &st, `
		SELECT screen_id, version, fingerprint, manifest, horizon_from, horizon_to, committed_at
		FROM desired_states
		WHERE screen_id = $1`, screenID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DesiredState{}, apperrors.NotFound("desired state", screenID.String())
	}
	if err != nil {
		log.Error().Err(err).Str("screen_id", screenID.String()).Msg("GetDesiredState failed")
	}
	return st, err
}

// CompareAndSwapDesiredState replaces the current desired state only when its
// version still equals expected, and appends the version to the history
// table whose primary key rejects any reuse.
func (s *pgStore) CompareAndSwapDesiredState(ctx context.Context, expected int64, next model.DesiredState) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var res sql.Result
	if expected == 0 {
		res, err = tx.ExecContext(ctx, `
		INSERT INTO desired_states (screen_id, version, fingerprint, manifest, horizon_from, horizon_to, committed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (screen_id) DO NOTHING`,
			next.ScreenID, next.Version, next.Fingerprint, next.Manifest, next.HorizonFrom, next.HorizonTo, next.CommittedAt)
	} else {
		res, err = tx.ExecContext(ctx, `
		UPDATE desired_states
		SET version = $2,
		fingerprint = $3,
		manifest = $4,
		horizon_from = $5,
		horizon_to = $6,
		committed_at = $7
		WHERE screen_id = $1 AND version = $8`,
			next.ScreenID, next.Version, next.Fingerprint, next.Manifest, next.HorizonFrom, next.HorizonTo, next.CommittedAt, expected)
	}
	if err != nil {
		log.Error().Err(err).Str("screen_id", next.ScreenID.String()).Msg("CompareAndSwapDesiredState failed")
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrVersionConflict
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO desired_state_history (screen_id, version, fingerprint, committed_at)
		VALUES ($1, $2, $3, $4)`,
		next.ScreenID, next.Version, next.Fingerprint, next.CommittedAt)
	if isUniqueViolation(err) {
		return apperrors.ErrVersionConflict
	}
	if err != nil {
		return err
	}
	return tx.Commit()
}
