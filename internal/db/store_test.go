package db

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/playout/internal/apperrors"
	"github.com/Nixie-Tech-LLC/playout/internal/model"
)

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store { return NewMemoryStore() })
}

// Runs against a real database only when TEST_DATABASE_URL is set.
func TestPostgresStore(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	require.NoError(t, Migrate(dbURL))
	conn, err := Open(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	runStoreContract(t, func(t *testing.T) Store { return NewStore(conn) })
}

type seeded struct {
	client uuid.UUID
	screen model.Screen
	video  model.Video
	rule   model.ScheduleRule
	slot   model.TimeSlot
}

func seed(t *testing.T, s Store) seeded {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	client := uuid.New()

	screen := model.Screen{
		ID: uuid.New(), ClientID: client, Code: "scr-" + uuid.NewString()[:8], Name: "Lobby",
		Status: model.ScreenOffline, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.CreateScreen(ctx, screen))

	video := model.Video{
		ID: uuid.New(), ClientID: client, Title: "clip", DurationSeconds: 10, CreatedAt: now,
		ContentHash: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
	}
	require.NoError(t, s.CreateVideo(ctx, video))

	rule := model.ScheduleRule{
		ID: uuid.New(), ClientID: client, Name: "mornings", RuleType: model.RuleDaily,
		ActiveFrom: now.Add(-time.Hour), CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.CreateRule(ctx, rule))

	slot := model.TimeSlot{
		ID: uuid.New(), RuleID: rule.ID, ScreenID: screen.ID, VideoID: video.ID,
		StartTime: "09:00", EndTime: "10:00", CreatedAt: now,
	}
	require.NoError(t, s.CreateSlot(ctx, slot))

	return seeded{client: client, screen: screen, video: video, rule: rule, slot: slot}
}

func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("tenant scoping", func(t *testing.T) {
		s := newStore(t)
		d := seed(t, s)

		_, err := s.GetScreen(ctx, uuid.New(), d.screen.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		_, err = s.GetRule(ctx, uuid.New(), d.rule.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		_, err = s.DeleteSlot(ctx, uuid.New(), d.slot.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		got, err := s.GetScreenByCode(ctx, d.screen.Code)
		require.NoError(t, err)
		assert.Equal(t, d.screen.ID, got.ID)
	})

	t.Run("duplicate screen code", func(t *testing.T) {
		s := newStore(t)
		d := seed(t, s)
		dup := d.screen
		dup.ID = uuid.New()
		err := s.CreateScreen(ctx, dup)
		assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	})

	t.Run("snapshot", func(t *testing.T) {
		s := newStore(t)
		d := seed(t, s)

		snap, err := s.GetScreenSnapshot(ctx, d.client, d.screen.ID)
		require.NoError(t, err)
		require.Len(t, snap.Slots, 1)
		require.Len(t, snap.Rules, 1)
		assert.Equal(t, d.slot.ID, snap.Slots[0].ID)
		assert.Equal(t, d.video.ID, snap.Videos[d.video.ID].ID)

		other, err := s.GetScreenSnapshot(ctx, uuid.New(), d.screen.ID)
		require.NoError(t, err)
		assert.Empty(t, other.Slots)
	})

	t.Run("affected screens", func(t *testing.T) {
		s := newStore(t)
		d := seed(t, s)

		ids, err := s.ScreensForRule(ctx, d.client, d.rule.ID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{d.screen.ID}, ids)

		ids, err = s.ScreensForVideo(ctx, d.client, d.video.ID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{d.screen.ID}, ids)

		require.NoError(t, s.RetireScreen(ctx, d.client, d.screen.ID, time.Now().UTC()))
		ids, err = s.ScreensForRule(ctx, d.client, d.rule.ID)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("retract video", func(t *testing.T) {
		s := newStore(t)
		d := seed(t, s)
		require.NoError(t, s.RetractVideo(ctx, d.client, d.video.ID, time.Now().UTC()))
		v, err := s.GetVideo(ctx, d.client, d.video.ID)
		require.NoError(t, err)
		assert.True(t, v.Retracted())
	})

	t.Run("desired state compare and swap", func(t *testing.T) {
		s := newStore(t)
		d := seed(t, s)
		now := time.Now().UTC().Truncate(time.Microsecond)
		state := func(v int64, fp string) model.DesiredState {
			return model.DesiredState{
				ScreenID: d.screen.ID, Version: v, Fingerprint: fp, Manifest: []byte(`{"items":[]}`),
				HorizonFrom: now, HorizonTo: now.Add(24 * time.Hour), CommittedAt: now,
			}
		}

		_, err := s.GetDesiredState(ctx, d.screen.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		require.NoError(t, s.CompareAndSwapDesiredState(ctx, 0, state(1, "a")))
		assert.ErrorIs(t, s.CompareAndSwapDesiredState(ctx, 0, state(1, "b")), apperrors.ErrVersionConflict)
		require.NoError(t, s.CompareAndSwapDesiredState(ctx, 1, state(2, "b")))
		assert.ErrorIs(t, s.CompareAndSwapDesiredState(ctx, 1, state(2, "c")), apperrors.ErrVersionConflict)

		got, err := s.GetDesiredState(ctx, d.screen.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.Version)
		assert.Equal(t, "b", got.Fingerprint)
		assert.Equal(t, `{"items":[]}`, string(got.Manifest))
	})

	t.Run("concurrent compare and swap", func(t *testing.T) {
		s := newStore(t)
		d := seed(t, s)

		var wg sync.WaitGroup
		wins := make(chan int, 8)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				err := s.CompareAndSwapDesiredState(ctx, 0, model.DesiredState{
					ScreenID: d.screen.ID, Version: 1, Fingerprint: uuid.NewString(), Manifest: []byte("{}"),
					CommittedAt: time.Now().UTC(),
				})
				if err == nil {
					wins <- i
				}
			}(i)
		}
		wg.Wait()
		close(wins)
		assert.Len(t, wins, 1)
	})

	t.Run("sync status upsert", func(t *testing.T) {
		s := newStore(t)
		d := seed(t, s)
		now := time.Now().UTC().Truncate(time.Microsecond)

		_, err := s.GetSyncStatus(ctx, d.screen.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		st := model.PlayerSyncStatus{
			ScreenID: d.screen.ID, DesiredStateVersion: 1, SyncStatus: model.SyncPending,
			HealthMetrics: model.HealthMetrics{"cpu": 0.5}, UpdatedAt: now,
		}
		require.NoError(t, s.SaveSyncStatus(ctx, st))
		st.SyncStatus, st.AppliedStateVersion = model.SyncSuccess, 1
		require.NoError(t, s.SaveSyncStatus(ctx, st))

		got, err := s.GetSyncStatus(ctx, d.screen.ID)
		require.NoError(t, err)
		assert.Equal(t, model.SyncSuccess, got.SyncStatus)
		assert.Equal(t, int64(1), got.AppliedStateVersion)
		assert.Equal(t, d.screen.Code, got.ScreenCode)
		assert.Equal(t, 0.5, got.HealthMetrics["cpu"])
	})

	t.Run("screen health", func(t *testing.T) {
		s := newStore(t)
		d := seed(t, s)
		now := time.Now().UTC().Truncate(time.Microsecond)

		sc := d.screen
		sc.Status, sc.LastHeartbeat, sc.Fault = model.ScreenError, &now, true
		require.NoError(t, s.UpdateScreenHealth(ctx, sc))

		got, err := s.GetScreen(ctx, d.client, sc.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ScreenError, got.Status)
		assert.True(t, got.Fault)
		require.NotNil(t, got.LastHeartbeat)
		assert.True(t, got.LastHeartbeat.Equal(now))
	})

	t.Run("status write is conditional on heartbeat", func(t *testing.T) {
		s := newStore(t)
		d := seed(t, s)
		old := time.Now().UTC().Add(-time.Hour).Truncate(time.Microsecond)
		fresh := old.Add(59 * time.Minute)

		sc := d.screen
		sc.Status, sc.LastHeartbeat, sc.Fault = model.ScreenOnline, &old, false
		require.NoError(t, s.UpdateScreenHealth(ctx, sc))

		stale := sc
		sc.LastHeartbeat = &fresh
		require.NoError(t, s.UpdateScreenHealth(ctx, sc))

		stale.Status = model.ScreenOffline
		ok, err := s.SetScreenStatus(ctx, stale)
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := s.GetScreen(ctx, d.client, sc.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ScreenOnline, got.Status)
		assert.True(t, got.LastHeartbeat.Equal(fresh))

		sc.Status = model.ScreenOffline
		ok, err = s.SetScreenStatus(ctx, sc)
		require.NoError(t, err)
		assert.True(t, ok)
		got, err = s.GetScreen(ctx, d.client, sc.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ScreenOffline, got.Status)
	})

	t.Run("retired screens refuse heartbeats", func(t *testing.T) {
		s := newStore(t)
		d := seed(t, s)
		require.NoError(t, s.RetireScreen(ctx, d.client, d.screen.ID, time.Now().UTC()))

		now := time.Now().UTC()
		sc := d.screen
		sc.LastHeartbeat = &now
		assert.ErrorIs(t, s.UpdateScreenHealth(ctx, sc), apperrors.ErrNotFound)
	})
}
