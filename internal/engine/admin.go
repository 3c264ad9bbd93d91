package engine

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/playout/internal/apperrors"
	"github.com/Nixie-Tech-LLC/playout/internal/model"
	"github.com/Nixie-Tech-LLC/playout/internal/schedule"
)

func (e *Engine) RegisterScreen(ctx context.Context, clientID uuid.UUID, code, name string, location *string) (model.Screen, error) {
	code, name = strings.TrimSpace(code), strings.TrimSpace(name)
	if code == "" || name == "" {
		return model.Screen{}, apperrors.Validation("screen_code and name are required", nil)
	}
	now := e.opts.Now().UTC()
	s := model.Screen{
		ID:        uuid.New(),
		ClientID:  clientID,
		Code:      code,
		Name:      name,
		Location:  location,
		Status:    model.ScreenOffline,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.store.CreateScreen(ctx, s); err != nil {
		return model.Screen{}, err
	}
	log.Info().Str("screen_id", s.ID.String()).Str("screen_code", code).Msg("screen registered")
	return s, nil
}

func (e *Engine) GetScreen(ctx context.Context, clientID, screenID uuid.UUID) (model.Screen, error) {
	return e.store.GetScreen(ctx, clientID, screenID)
}

func (e *Engine) ListScreens(ctx context.Context, clientID uuid.UUID) ([]model.Screen, error) {
	return e.store.ListScreens(ctx, clientID)
}

// RetireScreen soft-deletes a screen. Its desired state history is kept.
func (e *Engine) RetireScreen(ctx context.Context, clientID, screenID uuid.UUID) error {
	screen, err := e.store.GetScreen(ctx, clientID, screenID)
	if err != nil {
		return err
	}
	return e.withScreenLock(ctx, screenID.String(), func(ctx context.Context) error {
		if err := e.store.RetireScreen(ctx, clientID, screenID, e.opts.Now().UTC()); err != nil {
			return err
		}
		e.screens.Remove(screen.Code)
		log.Info().Str("screen_id", screenID.String()).Msg("screen retired")
		return nil
	})
}

func (e *Engine) RegisterVideo(ctx context.Context, clientID uuid.UUID, title, contentHash string, durationSeconds int) (model.Video, error) {
	v := model.Video{
		ID:              uuid.New(),
		ClientID:        clientID,
		Title:           strings.TrimSpace(title),
		ContentHash:     strings.ToLower(strings.TrimSpace(contentHash)),
		DurationSeconds: durationSeconds,
		CreatedAt:       e.opts.Now().UTC(),
	}
	if err := schedule.ValidateVideo(v); err != nil {
		return model.Video{}, err
	}
	if err := e.store.CreateVideo(ctx, v); err != nil {
		return model.Video{}, err
	}
	return v, nil
}

func (e *Engine) GetVideo(ctx context.Context, clientID, videoID uuid.UUID) (model.Video, error) {
	return e.store.GetVideo(ctx, clientID, videoID)
}

// RetractVideo withdraws a video and recomputes the screens scheduling it.
// Those screens keep their previous state and report a resolution error
// until the slots are removed.
func (e *Engine) RetractVideo(ctx context.Context, clientID, videoID uuid.UUID) ([]RecomputeResult, error) {
	if err := e.store.RetractVideo(ctx, clientID, videoID, e.opts.Now().UTC()); err != nil {
		return nil, err
	}
	ids, err := e.store.ScreensForVideo(ctx, clientID, videoID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "list screens for video", err)
	}
	return e.recomputeMany(ctx, clientID, ids), nil
}

type NewRule struct {
	Name        string
	RuleType    model.RuleType
	ActiveFrom  time.Time
	ActiveUntil *time.Time
}

func (e *Engine) CreateRule(ctx context.Context, clientID uuid.UUID, in NewRule) (model.ScheduleRule, error) {
	now := e.opts.Now().UTC()
	r := model.ScheduleRule{
		ID:          uuid.New(),
		ClientID:    clientID,
		Name:        strings.TrimSpace(in.Name),
		RuleType:    in.RuleType,
		ActiveFrom:  in.ActiveFrom.UTC(),
		ActiveUntil: in.ActiveUntil,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if r.ActiveUntil != nil {
		until := r.ActiveUntil.UTC()
		r.ActiveUntil = &until
	}
	if err := schedule.ValidateRule(r); err != nil {
		return model.ScheduleRule{}, err
	}
	if err := e.store.CreateRule(ctx, r); err != nil {
		return model.ScheduleRule{}, err
	}
	return r, nil
}

type NewSlot struct {
	ScreenID  uuid.UUID
	VideoID   uuid.UUID
	DayOfWeek *int
	StartTime string
	EndTime   string
}

// AddSlot validates and stores a slot, then recomputes its screen. The
// ambiguity check and the insert share the screen's lock so two
// conflicting slots cannot both be accepted.
func (e *Engine) AddSlot(ctx context.Context, clientID, ruleID uuid.UUID, in NewSlot) (model.TimeSlot, RecomputeResult, error) {
	rule, err := e.store.GetRule(ctx, clientID, ruleID)
	if err != nil {
		return model.TimeSlot{}, RecomputeResult{}, err
	}
	screen, err := e.store.GetScreen(ctx, clientID, in.ScreenID)
	if err != nil {
		return model.TimeSlot{}, RecomputeResult{}, err
	}
	if screen.Retired() {
		return model.TimeSlot{}, RecomputeResult{}, apperrors.Validation("screen is retired", map[string]any{"screen_id": screen.ID.String()})
	}
	if _, err := e.store.GetVideo(ctx, clientID, in.VideoID); err != nil {
		return model.TimeSlot{}, RecomputeResult{}, err
	}

	slot, err := schedule.NormalizeSlot(rule, model.TimeSlot{
		ID:        uuid.New(),
		ScreenID:  in.ScreenID,
		VideoID:   in.VideoID,
		DayOfWeek: in.DayOfWeek,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		CreatedAt: e.opts.Now().UTC(),
	})
	if err != nil {
		return model.TimeSlot{}, RecomputeResult{}, err
	}

	var res RecomputeResult
	err = e.withScreenLock(ctx, screen.ID.String(), func(ctx context.Context) error {
		snap, err := e.store.GetScreenSnapshot(ctx, clientID, screen.ID)
		if err != nil {
			return apperrors.Wrap(apperrors.KindInternal, "load screen snapshot", err)
		}
		rules := make(map[uuid.UUID]model.ScheduleRule, len(snap.Rules)+1)
		for _, r := range snap.Rules {
			rules[r.ID] = r
		}
		rules[rule.ID] = rule
		if err := schedule.CheckAmbiguity(rule, slot, snap.Slots, rules); err != nil {
			return err
		}
		if err := e.store.CreateSlot(ctx, slot); err != nil {
			return err
		}
		res, err = e.recomputeLocked(ctx, clientID, screen.ID)
		res.ScreenID, res.Err = screen.ID, err
		return nil
	})
	if err != nil {
		return model.TimeSlot{}, RecomputeResult{}, err
	}
	return slot, res, nil
}

// DeleteSlot removes a slot and recomputes its screen.
func (e *Engine) DeleteSlot(ctx context.Context, clientID, slotID uuid.UUID) (RecomputeResult, error) {
	slot, err := e.store.DeleteSlot(ctx, clientID, slotID)
	if err != nil {
		return RecomputeResult{}, err
	}
	res, _ := e.RecomputeScreen(ctx, clientID, slot.ScreenID)
	return res, nil
}
