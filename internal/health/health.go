// Package health derives screen liveness from heartbeats.
package health

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/playout/internal/model"
)

const DefaultFreshness = 90 * time.Second

// Liveness derives a screen status. A reported fault wins over freshness.
func Liveness(lastHeartbeat *time.Time, fault bool, now time.Time, freshness time.Duration) model.ScreenStatus {
	switch {
	case fault:
		return model.ScreenError
	case lastHeartbeat == nil:
		return model.ScreenOffline
	case now.Sub(*lastHeartbeat) <= freshness:
		return model.ScreenOnline
	default:
		return model.ScreenOffline
	}
}

type Store interface {
	UpdateScreenHealth(ctx context.Context, s model.Screen) error
	SetScreenStatus(ctx context.Context, s model.Screen) (bool, error)
	ListActiveScreens(ctx context.Context) ([]model.Screen, error)
}

type Monitor struct {
	store     Store
	freshness time.Duration
	now       func() time.Time
}

func NewMonitor(store Store, freshness time.Duration, now func() time.Time) *Monitor {
	if freshness <= 0 {
		freshness = DefaultFreshness
	}
	if now == nil {
		now = time.Now
	}
	return &Monitor{store: store, freshness: freshness, now: now}
}

// Observe records a heartbeat received at the given instant.
func (m *Monitor) Observe(ctx context.Context, screen model.Screen, fault bool, at time.Time) (model.Screen, error) {
	at = at.UTC()
	screen.LastHeartbeat = &at
	screen.Fault = fault
	screen.Status = Liveness(screen.LastHeartbeat, fault, at, m.freshness)
	if err := m.store.UpdateScreenHealth(ctx, screen); err != nil {
		return screen, err
	}
	return screen, nil
}

// Sweep re-derives the status of every active screen so that silent
// players go offline. It returns how many screens changed. A screen that
// got a heartbeat after it was listed is left to that heartbeat.
func (m *Monitor) Sweep(ctx context.Context) (int, error) {
	screens, err := m.store.ListActiveScreens(ctx)
	if err != nil {
		return 0, err
	}
	now := m.now()
	changed := 0
	for _, s := range screens {
		status := Liveness(s.LastHeartbeat, s.Fault, now, m.freshness)
		if status == s.Status {
			continue
		}
		from := s.Status
		s.Status = status
		ok, err := m.store.SetScreenStatus(ctx, s)
		if err != nil {
			return changed, err
		}
		if !ok {
			continue
		}
		log.Info().
			Str("screen_id", s.ID.String()).
			Str("from", string(from)).
			Str("to", string(status)).
			Msg("screen liveness changed")
		changed++
	}
	return changed, nil
}

// Stamp copies heartbeat telemetry onto a sync row. Nil metrics keep the
// previously reported ones.
func Stamp(st *model.PlayerSyncStatus, metrics model.HealthMetrics, at time.Time) {
	at = at.UTC()
	st.LastHeartbeat = &at
	if metrics != nil {
		st.HealthMetrics = metrics
	}
}
