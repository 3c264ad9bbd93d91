package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/playout/internal/apperrors"
	"github.com/Nixie-Tech-LLC/playout/internal/db"
	"github.com/Nixie-Tech-LLC/playout/internal/ledger"
	"github.com/Nixie-Tech-LLC/playout/internal/lock"
	"github.com/Nixie-Tech-LLC/playout/internal/model"
	"github.com/Nixie-Tech-LLC/playout/internal/schedule"
)

type harness struct {
	store  *db.MemoryStore
	ledger *ledger.Ledger
	rec    *Reconciler
	screen model.Screen
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := db.NewMemoryStore()
	screen := model.Screen{ID: uuid.New(), ClientID: uuid.New(), Code: "lobby"}
	require.NoError(t, store.CreateScreen(context.Background(), screen))
	l := ledger.New(store)
	return &harness{
		store:  store,
		ledger: l,
		rec:    New(store, l, lock.NewKeyedMutex(), func() time.Time { return now }),
		screen: screen,
	}
}

// commitVersions commits n distinct manifests and marks the last pending.
func (h *harness) commitVersions(t *testing.T, n int) int64 {
	t.Helper()
	var v int64
	for i := 0; i < n; i++ {
		fp := uuid.NewString()
		res, err := h.ledger.Commit(context.Background(), h.screen.ID, []byte(`{"v":"`+fp+`"}`), fp, schedule.Horizon{})
		require.NoError(t, err)
		v = res.Version
	}
	require.NoError(t, h.rec.MarkPending(context.Background(), h.screen, v))
	return v
}

func TestHeartbeatMatchingPendingVersionSucceeds(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.Equal(t, int64(3), h.commitVersions(t, 3))

	st, err := h.rec.Get(ctx, h.screen)
	require.NoError(t, err)
	require.Equal(t, model.SyncPending, st.SyncStatus)

	out, err := h.rec.HandleHeartbeat(ctx, h.screen, Heartbeat{AppliedStateVersion: 3})
	require.NoError(t, err)
	assert.NoError(t, out.Anomaly)
	assert.Equal(t, model.SyncSuccess, out.Status.SyncStatus)
	require.NotNil(t, out.Status.LastSuccessfulSync)

	stored, err := h.store.GetSyncStatus(ctx, h.screen.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SyncSuccess, stored.SyncStatus)
	assert.Equal(t, int64(3), stored.AppliedStateVersion)
}

func TestHeartbeatAheadOfDesiredIsAnomaly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.Equal(t, int64(4), h.commitVersions(t, 4))

	out, err := h.rec.HandleHeartbeat(ctx, h.screen, Heartbeat{AppliedStateVersion: 5})
	require.NoError(t, err)
	assert.True(t, apperrors.Is(out.Anomaly, apperrors.KindSyncAnomaly))
	assert.Equal(t, model.SyncFailed, out.Status.SyncStatus)

	stored, err := h.store.GetSyncStatus(ctx, h.screen.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SyncFailed, stored.SyncStatus)
	assert.Equal(t, int64(4), stored.DesiredStateVersion)
	assert.Zero(t, stored.AppliedStateVersion)

	cur, err := h.ledger.Current(ctx, h.screen.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), cur.Version)
}

func TestHeartbeatDeliversManifestWhenBehind(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.commitVersions(t, 1)

	out, err := h.rec.HandleHeartbeat(ctx, h.screen, Heartbeat{AppliedStateVersion: 0, Metrics: map[string]any{"cpu": 0.5}})
	require.NoError(t, err)
	assert.Equal(t, model.SyncInProgress, out.Status.SyncStatus)
	assert.NotEmpty(t, out.Manifest)
	assert.Equal(t, "lobby", out.Status.ScreenCode)

	stored, err := h.store.GetSyncStatus(ctx, h.screen.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.5, stored.HealthMetrics["cpu"])
	require.NotNil(t, stored.LastHeartbeat)
	assert.True(t, stored.LastHeartbeat.Equal(now))

	out, err = h.rec.HandleHeartbeat(ctx, h.screen, Heartbeat{AppliedStateVersion: 1, Result: ResultOK})
	require.NoError(t, err)
	assert.Equal(t, model.SyncSuccess, out.Status.SyncStatus)
	assert.Empty(t, out.Manifest)
}

func TestHeartbeatBeforeAnyCommit(t *testing.T) {
	h := newHarness(t)
	out, err := h.rec.HandleHeartbeat(context.Background(), h.screen, Heartbeat{})
	require.NoError(t, err)
	assert.Equal(t, model.SyncPending, out.Status.SyncStatus)
	assert.Empty(t, out.Manifest)
}

func TestMarkPendingKeepsAppliedAndIgnoresStaleVersions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.commitVersions(t, 1)
	_, err := h.rec.HandleHeartbeat(ctx, h.screen, Heartbeat{AppliedStateVersion: 1})
	require.NoError(t, err)

	require.NoError(t, h.rec.MarkPending(ctx, h.screen, 2))
	st, err := h.rec.Get(ctx, h.screen)
	require.NoError(t, err)
	assert.Equal(t, model.SyncPending, st.SyncStatus)
	assert.Equal(t, int64(2), st.DesiredStateVersion)
	assert.Equal(t, int64(1), st.AppliedStateVersion)

	require.NoError(t, h.rec.MarkPending(ctx, h.screen, 1))
	st, err = h.rec.Get(ctx, h.screen)
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.DesiredStateVersion)
}
