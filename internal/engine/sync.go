package engine

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/Nixie-Tech-LLC/playout/internal/apperrors"
	"github.com/Nixie-Tech-LLC/playout/internal/model"
	"github.com/Nixie-Tech-LLC/playout/internal/reconcile"
)

type HeartbeatRequest struct {
	ScreenCode string
	reconcile.Heartbeat
}

type HeartbeatResult struct {
	DesiredStateVersion int64
	SyncStatus          model.SyncStatus
	Manifest            json.RawMessage
	Anomaly             error
}

// Heartbeat records player liveness and advances the screen's sync state.
// Retired and unknown screens are rejected as not found.
func (e *Engine) Heartbeat(ctx context.Context, req HeartbeatRequest) (HeartbeatResult, error) {
	screen, err := e.screenByCode(ctx, req.ScreenCode)
	if errors.Is(err, apperrors.ErrNotFound) || (err == nil && screen.Retired()) {
		return HeartbeatResult{}, apperrors.NotFound("screen", req.ScreenCode)
	}
	if err != nil {
		return HeartbeatResult{}, apperrors.Wrap(apperrors.KindInternal, "load screen", err)
	}

	// the cached screen may have been retired elsewhere; the store refuses
	// heartbeats for retired screens
	if _, err := e.monitor.Observe(ctx, screen, req.Fault, e.opts.Now()); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			e.screens.Remove(req.ScreenCode)
			return HeartbeatResult{}, apperrors.NotFound("screen", req.ScreenCode)
		}
		return HeartbeatResult{}, apperrors.Wrap(apperrors.KindInternal, "record heartbeat", err)
	}

	out, err := e.reconciler.HandleHeartbeat(ctx, screen, req.Heartbeat)
	if err != nil {
		return HeartbeatResult{}, err
	}
	return HeartbeatResult{
		DesiredStateVersion: out.Status.DesiredStateVersion,
		SyncStatus:          out.Status.SyncStatus,
		Manifest:            out.Manifest,
		Anomaly:             out.Anomaly,
	}, nil
}

// SyncStatus returns the sync row of one of the client's screens.
func (e *Engine) SyncStatus(ctx context.Context, clientID, screenID uuid.UUID) (model.PlayerSyncStatus, error) {
	screen, err := e.store.GetScreen(ctx, clientID, screenID)
	if err != nil {
		return model.PlayerSyncStatus{}, err
	}
	return e.reconciler.Get(ctx, screen)
}

// SweepLiveness marks screens without a fresh heartbeat offline.
func (e *Engine) SweepLiveness(ctx context.Context) (int, error) {
	return e.monitor.Sweep(ctx)
}
