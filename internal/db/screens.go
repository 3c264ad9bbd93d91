package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/playout/internal/apperrors"
	"github.com/Nixie-Tech-LLC/playout/internal/model"
)

const screenColumns = `id, client_id, screen_code, name, location, status, last_heartbeat, fault, retired_at, created_at, updated_at`

func (s *pgStore) CreateScreen(ctx context.Context, screen model.Screen) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO screens (`+screenColumns+`)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		screen.ID, screen.ClientID, screen.Code, screen.Name, screen.Location, screen.Status,
		screen.LastHeartbeat, screen.Fault, screen.RetiredAt, screen.CreatedAt, screen.UpdatedAt)
	if isUniqueViolation(err) {
		return apperrors.Validation("screen code already registered", map[string]any{"screen_code": screen.Code})
	}
	if err != nil {
		log.Error().Err(err).Str("screen_code", screen.Code).Msg("CreateScreen failed")
	}
	return err
}

func (s *pgStore) GetScreen(ctx context.Context, clientID, id uuid.UUID) (model.Screen, error) {
	var screen model.Screen
	err := s.db.GetContext(ctx, &screen, `
		SELECT `+screenColumns+`
		FROM screens
		WHERE id = $1 AND client_id = $2`, id, clientID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Screen{}, apperrors.NotFound("screen", id.String())
	}
	if err != nil {
		log.Error().Err(err).Str("screen_id", id.String()).Msg("GetScreen failed")
	}
	return screen, err
}

func (s *pgStore) GetScreenByCode(ctx context.Context, code string) (model.Screen, error) {
	var screen model.Screen
	err := s.db.GetContext(ctx, &screen, `
		SELECT `+screenColumns+`
		FROM screens
		WHERE screen_code = $1`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Screen{}, apperrors.NotFound("screen", code)
	}
	if err != nil {
		log.Error().Err(err).Str("screen_code", code).Msg("GetScreenByCode failed")
	}
	return screen, err
}

func (s *pgStore) ListScreens(ctx context.Context, clientID uuid.UUID) ([]model.Screen, error) {
	var screens []model.Screen
	err := s.db.SelectContext(ctx, &screens, `
		SELECT `+screenColumns+`
		FROM screens
		WHERE client_id = $1
		ORDER BY created_at, id`, clientID)
	if err != nil {
		log.Error().Err(err).Msg("ListScreens failed")
	}
	return screens, err
}

func (s *pgStore) ListActiveScreens(ctx context.Context) ([]model.Screen, error) {
	var screens []model.Screen
	err := s.db.SelectContext(ctx, &screens, `
		SELECT `+screenColumns+`
		FROM screens
		WHERE retired_at IS NULL
		ORDER BY id`)
	if err != nil {
		log.Error().Err(err).Msg("ListActiveScreens failed")
	}
	return screens, err
}

func (s *pgStore) UpdateScreenHealth(ctx context.Context, screen model.Screen) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE screens
		SET status = $2,
		last_heartbeat = $3,
		fault = $4,
		updated_at = now()
		WHERE id = $1 AND retired_at IS NULL`, screen.ID, screen.Status, screen.LastHeartbeat, screen.Fault)
	if err != nil {
		log.Error().Err(err).Str("screen_id", screen.ID.String()).Msg("UpdateScreenHealth failed")
		return err
	}
	return expectOne(res, "screen", screen.ID)
}

func (s *pgStore) SetScreenStatus(ctx context.Context, screen model.Screen) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE screens
		SET status = $2,
		updated_at = now()
		WHERE id = $1
		AND retired_at IS NULL
		AND last_heartbeat IS NOT DISTINCT FROM $3
		AND fault = $4`, screen.ID, screen.Status, screen.LastHeartbeat, screen.Fault)
	if err != nil {
		log.Error().Err(err).Str("screen_id", screen.ID.String()).Msg("SetScreenStatus failed")
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *pgStore) RetireScreen(ctx context.Context, clientID, id uuid.UUID, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE screens
		SET retired_at = COALESCE(retired_at, $3),
		updated_at = now()
		WHERE id = $1 AND client_id = $2`, id, clientID, at)
	if err != nil {
		log.Error().Err(err).Str("screen_id", id.String()).Msg("RetireScreen failed")
		return err
	}
	return expectOne(res, "screen", id)
}

func expectOne(res sql.Result, resource string, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.NotFound(resource, id.String())
	}
	return nil
}
