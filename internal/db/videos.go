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

const videoColumns = `id, client_id, title, content_hash, duration_seconds, retracted_at, created_at`

func (s *pgStore) CreateVideo(ctx context.Context, v model.Video) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO videos (`+videoColumns+`)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		v.ID, v.ClientID, v.Title, v.ContentHash, v.DurationSeconds, v.RetractedAt, v.CreatedAt)
	if err != nil {
		log.Error().Err(err).Str("video_id", v.ID.String()).Msg("CreateVideo failed")
	}
	return err
}

func (s *pgStore) GetVideo(ctx context.Context, clientID, id uuid.UUID) (model.Video, error) {
	var v model.Video
	err := s.db.GetContext(ctx, &v, `
		SELECT `+videoColumns+`
		FROM videos
		WHERE id = $1 AND client_id = $2`, id, clientID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Video{}, apperrors.NotFound("video", id.String())
	}
	if err != nil {
		log.Error().Err(err).Str("video_id", id.String()).Msg("GetVideo failed")
	}
	return v, err
}

func (s *pgStore) RetractVideo(ctx context.Context, clientID, id uuid.UUID, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE videos
		SET retracted_at = COALESCE(retracted_at, $3)
		WHERE id = $1 AND client_id = $2`, id, clientID, at)
	if err != nil {
		log.Error().Err(err).Str("video_id", id.String()).Msg("RetractVideo failed")
		return err
	}
	return expectOne(res, "video", id)
}

func (s *pgStore) ScreensForVideo(ctx context.Context, clientID, videoID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.SelectContext(ctx, &ids, `
		SELECT DISTINCT ts.screen_id
		FROM time_slots ts
		JOIN videos v ON v.id = ts.video_id
		JOIN screens sc ON sc.id = ts.screen_id
		WHERE ts.video_id = $1 AND v.client_id = $2 AND sc.retired_at IS NULL
		ORDER BY ts.screen_id`, videoID, clientID)
	if err != nil {
		log.Error().Err(err).Str("video_id", videoID.String()).Msg("ScreensForVideo failed")
	}
	return ids, err
}
