package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Nixie-Tech-LLC/playout/internal/apperrors"
	"github.com/Nixie-Tech-LLC/playout/internal/manifest"
	"github.com/Nixie-Tech-LLC/playout/internal/metrics"
	"github.com/Nixie-Tech-LLC/playout/internal/schedule"
)

// RecomputeResult is the outcome of recomputing one screen. Err is set
// when the screen's previous state was kept.
type RecomputeResult struct {
	ScreenID    uuid.UUID
	Version     int64
	Fingerprint string
	Changed     bool
	Err         error
}

// RecomputeScreen resolves, materializes and commits the screen's desired
// state. On any error the previously committed state stays current.
func (e *Engine) RecomputeScreen(ctx context.Context, clientID, screenID uuid.UUID) (RecomputeResult, error) {
	var res RecomputeResult
	err := e.withScreenLock(ctx, screenID.String(), func(ctx context.Context) error {
		var err error
		res, err = e.recomputeLocked(ctx, clientID, screenID)
		return err
	})
	if err != nil {
		res = RecomputeResult{ScreenID: screenID, Err: err}
	}
	return res, err
}

func (e *Engine) recomputeLocked(ctx context.Context, clientID, screenID uuid.UUID) (res RecomputeResult, err error) {
	start := time.Now()
	defer func() {
		metrics.RecomputeDuration.Observe(time.Since(start).Seconds())
		outcome := "unchanged"
		switch {
		case err != nil:
			outcome = string(apperrors.KindOf(err))
		case res.Changed:
			outcome = "changed"
		}
		metrics.RecomputeTotal.WithLabelValues(outcome).Inc()
	}()

	screen, err := e.store.GetScreen(ctx, clientID, screenID)
	if err != nil {
		return res, err
	}
	if screen.Retired() {
		return res, apperrors.Validation("screen is retired", map[string]any{"screen_id": screenID.String()})
	}

	snap, err := e.store.GetScreenSnapshot(ctx, clientID, screenID)
	if err != nil {
		return res, apperrors.Wrap(apperrors.KindInternal, "load screen snapshot", err)
	}

	h := e.Horizon()
	entries, err := schedule.Resolve(snap, h)
	if err != nil {
		log.Warn().Err(err).Str("screen_id", screenID.String()).Msg("schedule resolution failed, keeping previous state")
		return res, err
	}

	canonical, fingerprint, err := manifest.Materialize(screenID, entries)
	if err != nil {
		return res, apperrors.Wrap(apperrors.KindInternal, "materialize manifest", err)
	}

	committed, err := e.ledger.Commit(ctx, screenID, canonical, fingerprint, h)
	if err != nil {
		return res, err
	}
	res = RecomputeResult{
		ScreenID:    screenID,
		Version:     committed.Version,
		Fingerprint: committed.Fingerprint,
		Changed:     committed.Changed,
	}

	if committed.Changed {
		if err := e.reconciler.MarkPending(ctx, screen, committed.Version); err != nil {
			return res, err
		}
		if err := e.notifier.NotifySync(ctx, screen.Code, committed.Version); err != nil {
			log.Warn().Err(err).Str("screen_code", screen.Code).Msg("sync nudge failed")
		}
	}
	return res, nil
}

// RecomputeRule recomputes every active screen the rule has slots on.
func (e *Engine) RecomputeRule(ctx context.Context, clientID, ruleID uuid.UUID) ([]RecomputeResult, error) {
	if _, err := e.store.GetRule(ctx, clientID, ruleID); err != nil {
		return nil, err
	}
	ids, err := e.store.ScreensForRule(ctx, clientID, ruleID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "list screens for rule", err)
	}
	return e.recomputeMany(ctx, clientID, ids), nil
}

// recomputeMany fans out over screens. A failing screen never affects the
// others; its error is carried in its result.
func (e *Engine) recomputeMany(ctx context.Context, clientID uuid.UUID, screenIDs []uuid.UUID) []RecomputeResult {
	results := make([]RecomputeResult, len(screenIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	for i, id := range screenIDs {
		g.Go(func() error {
			results[i], _ = e.RecomputeScreen(gctx, clientID, id)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// RollHorizon recomputes every active screen so manifests keep covering the
// horizon as days pass.
func (e *Engine) RollHorizon(ctx context.Context) error {
	screens, err := e.store.ListActiveScreens(ctx)
	if err != nil {
		return err
	}

	byClient := map[uuid.UUID][]uuid.UUID{}
	for _, s := range screens {
		byClient[s.ClientID] = append(byClient[s.ClientID], s.ID)
	}

	failed := 0
	for clientID, ids := range byClient {
		for _, r := range e.recomputeMany(ctx, clientID, ids) {
			if r.Err != nil {
				failed++
				log.Error().Err(r.Err).Str("screen_id", r.ScreenID.String()).Msg("horizon roll failed for screen")
			}
		}
	}
	log.Info().Int("screens", len(screens)).Int("failed", failed).Msg("horizon rolled")
	return nil
}
