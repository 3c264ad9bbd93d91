// Package ledger assigns monotonic desired-state versions to materialized
// manifests.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/playout/internal/apperrors"
	"github.com/Nixie-Tech-LLC/playout/internal/metrics"
	"github.com/Nixie-Tech-LLC/playout/internal/model"
	"github.com/Nixie-Tech-LLC/playout/internal/schedule"
)

const DefaultMaxAttempts = 5

// Store persists the current desired state of each screen.
//
// GetDesiredState returns apperrors.ErrNotFound when nothing was committed.
// CompareAndSwapDesiredState stores next only if the current version equals
// expected (0 meaning none) and returns apperrors.ErrVersionConflict otherwise.
type Store interface {
	GetDesiredState(ctx context.Context, screenID uuid.UUID) (model.DesiredState, error)
	CompareAndSwapDesiredState(ctx context.Context, expected int64, next model.DesiredState) error
}

type Result struct {
	Version     int64
	Fingerprint string
	Changed     bool
}

type Ledger struct {
	store       Store
	maxAttempts int
	now         func() time.Time
}

type Option func(*Ledger)

func WithMaxAttempts(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.maxAttempts = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func New(store Store, opts ...Option) *Ledger {
	l := &Ledger{store: store, maxAttempts: DefaultMaxAttempts, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Commit records a manifest for the screen. A fingerprint equal to the
// current one is a no-op that returns the current version; anything else
// is stored as current+1. Lost races are retried against the fresh state.
func (l *Ledger) Commit(ctx context.Context, screenID uuid.UUID, canonical []byte, fingerprint string, h schedule.Horizon) (Result, error) {
	for attempt := 1; attempt <= l.maxAttempts; attempt++ {
		current, err := l.Current(ctx, screenID)
		if err != nil {
			return Result{}, err
		}
		if current.Version > 0 && current.Fingerprint == fingerprint {
			metrics.LedgerCommitsTotal.WithLabelValues("unchanged").Inc()
			return Result{Version: current.Version, Fingerprint: fingerprint}, nil
		}

		next := model.DesiredState{
			ScreenID:    screenID,
			Version:     current.Version + 1,
			Fingerprint: fingerprint,
			Manifest:    canonical,
			HorizonFrom: h.From.UTC(),
			HorizonTo:   h.To.UTC(),
			CommittedAt: l.now().UTC(),
		}
		err = l.store.CompareAndSwapDesiredState(ctx, current.Version, next)
		switch {
		case err == nil:
			metrics.LedgerCommitsTotal.WithLabelValues("changed").Inc()
			log.Info().
				Str("screen_id", screenID.String()).
				Int64("version", next.Version).
				Str("fingerprint", fingerprint).
				Msg("committed desired state")
			return Result{Version: next.Version, Fingerprint: fingerprint, Changed: true}, nil
		case errors.Is(err, apperrors.ErrVersionConflict):
			metrics.LedgerCommitsTotal.WithLabelValues("conflict").Inc()
			log.Debug().
				Str("screen_id", screenID.String()).
				Int64("expected_version", current.Version).
				Int("attempt", attempt).
				Msg("desired state version conflict, retrying")
		default:
			return Result{}, apperrors.Wrap(apperrors.KindInternal, "commit desired state", err)
		}
	}
	return Result{}, &apperrors.Error{
		Kind:    apperrors.KindVersionConflict,
		Message: "desired state kept changing concurrently",
		Details: map[string]any{"screen_id": screenID.String(), "attempts": l.maxAttempts},
		Err:     apperrors.ErrVersionConflict,
	}
}

// Current returns the committed desired state, or a zero state with
// Version 0 when the screen has none yet.
func (l *Ledger) Current(ctx context.Context, screenID uuid.UUID) (model.DesiredState, error) {
	st, err := l.store.GetDesiredState(ctx, screenID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return model.DesiredState{ScreenID: screenID}, nil
	}
	if err != nil {
		return model.DesiredState{}, apperrors.Wrap(apperrors.KindInternal, "load desired state", err)
	}
	return st, nil
}
