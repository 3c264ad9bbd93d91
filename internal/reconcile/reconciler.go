package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/playout/internal/apperrors"
	"github.com/Nixie-Tech-LLC/playout/internal/health"
	"github.com/Nixie-Tech-LLC/playout/internal/lock"
	"github.com/Nixie-Tech-LLC/playout/internal/metrics"
	"github.com/Nixie-Tech-LLC/playout/internal/model"
)

type Store interface {
	GetSyncStatus(ctx context.Context, screenID uuid.UUID) (model.PlayerSyncStatus, error)
	SaveSyncStatus(ctx context.Context, st model.PlayerSyncStatus) error
}

// DesiredSource reads the committed desired state of a screen.
type DesiredSource interface {
	Current(ctx context.Context, screenID uuid.UUID) (model.DesiredState, error)
}

type Outcome struct {
	Status   model.PlayerSyncStatus
	Manifest json.RawMessage
	Anomaly  error
}

type Reconciler struct {
	store   Store
	desired DesiredSource
	locker  lock.Locker
	now     func() time.Time
}

func New(store Store, desired DesiredSource, locker lock.Locker, now func() time.Time) *Reconciler {
	if now == nil {
		now = time.Now
	}
	return &Reconciler{store: store, desired: desired, locker: locker, now: now}
}

func lockKey(screenID uuid.UUID) string {
	return "sync:" + screenID.String()
}

// Get returns the sync row of a screen, or a fresh pending row if the
// screen has never been synced.
func (r *Reconciler) Get(ctx context.Context, screen model.Screen) (model.PlayerSyncStatus, error) {
	st, err := r.store.GetSyncStatus(ctx, screen.ID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return model.PlayerSyncStatus{
			ScreenID:   screen.ID,
			ScreenCode: screen.Code,
			SyncStatus: model.SyncPending,
			UpdatedAt:  r.now().UTC(),
		}, nil
	}
	if err != nil {
		return model.PlayerSyncStatus{}, apperrors.Wrap(apperrors.KindInternal, "load sync status", err)
	}
	return st, nil
}

// MarkPending points the screen at a newly committed version. The applied
// version is left alone.
func (r *Reconciler) MarkPending(ctx context.Context, screen model.Screen, version int64) error {
	return r.locker.WithLock(ctx, lockKey(screen.ID), func(ctx context.Context) error {
		st, err := r.Get(ctx, screen)
		if err != nil {
			return err
		}
		if version <= st.DesiredStateVersion {
			return nil
		}
		st.DesiredStateVersion = version
		st.SyncStatus = model.SyncPending
		st.ErrorMessage = nil
		st.UpdatedAt = r.now().UTC()
		if err := r.store.SaveSyncStatus(ctx, st); err != nil {
			return apperrors.Wrap(apperrors.KindInternal, "save sync status", err)
		}
		log.Debug().Str("screen_id", screen.ID.String()).Int64("version", version).Msg("sync marked pending")
		return nil
	})
}

// HandleHeartbeat applies one heartbeat under the screen's sync lock. A
// sync anomaly is recorded and returned in the outcome, not as an error.
func (r *Reconciler) HandleHeartbeat(ctx context.Context, screen model.Screen, hb Heartbeat) (Outcome, error) {
	var out Outcome
	err := r.locker.WithLock(ctx, lockKey(screen.ID), func(ctx context.Context) error {
		cur, err := r.Get(ctx, screen)
		if err != nil {
			return err
		}
		desired, err := r.desired.Current(ctx, screen.ID)
		if err != nil {
			return err
		}

		now := r.now()
		d := Decide(cur, desired.Version, hb, now)
		health.Stamp(&d.Next, d.Metrics, now)

		if err := r.store.SaveSyncStatus(ctx, d.Next); err != nil {
			return apperrors.Wrap(apperrors.KindInternal, "save sync status", err)
		}

		out = Outcome{Status: d.Next, Anomaly: d.Anomaly}
		if d.Deliver && desired.Version == d.Next.DesiredStateVersion {
			out.Manifest = json.RawMessage(desired.Manifest)
		}
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}

	out.Status.ScreenCode = screen.Code
	metrics.HeartbeatsTotal.WithLabelValues(string(out.Status.SyncStatus)).Inc()
	if out.Anomaly != nil {
		reason, _ := apperrors.DetailsOf(out.Anomaly)["reason"].(string)
		metrics.SyncAnomaliesTotal.WithLabelValues(reason).Inc()
		log.Warn().
			Err(out.Anomaly).
			Str("screen_id", screen.ID.String()).
			Str("reason", reason).
			Int64("applied_state_version", hb.AppliedStateVersion).
			Int64("desired_state_version", out.Status.DesiredStateVersion).
			Msg("sync anomaly")
	}
	return out, nil
}
