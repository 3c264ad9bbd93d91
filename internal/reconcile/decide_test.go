package reconcile

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/playout/internal/apperrors"
	"github.com/Nixie-Tech-LLC/playout/internal/model"
)

var now = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

func row(status model.SyncStatus, desired, applied int64) model.PlayerSyncStatus {
	return model.PlayerSyncStatus{
		ScreenID:            uuid.New(),
		DesiredStateVersion: desired,
		AppliedStateVersion: applied,
		SyncStatus:          status,
	}
}

func TestDecidePendingMatchingVersionSucceeds(t *testing.T) {
	d := Decide(row(model.SyncPending, 3, 2), 3, Heartbeat{AppliedStateVersion: 3}, now)

	require.NoError(t, d.Anomaly)
	assert.Equal(t, model.SyncSuccess, d.Next.SyncStatus)
	assert.Equal(t, int64(3), d.Next.AppliedStateVersion)
	require.NotNil(t, d.Next.LastSuccessfulSync)
	assert.True(t, d.Next.LastSuccessfulSync.Equal(now))
	assert.False(t, d.Deliver)
}

func TestDecideSkewIsAnomaly(t *testing.T) {
	cur := row(model.SyncInProgress, 4, 3)
	d := Decide(cur, 4, Heartbeat{AppliedStateVersion: 5}, now)

	require.Error(t, d.Anomaly)
	assert.True(t, apperrors.Is(d.Anomaly, apperrors.KindSyncAnomaly))
	assert.Equal(t, ReasonVersionSkew, apperrors.DetailsOf(d.Anomaly)["reason"])
	assert.Equal(t, model.SyncFailed, d.Next.SyncStatus)
	assert.Equal(t, int64(4), d.Next.DesiredStateVersion)
	assert.Equal(t, int64(3), d.Next.AppliedStateVersion)
	require.NotNil(t, d.Next.ErrorMessage)
}

func TestDecideTransitions(t *testing.T) {
	cases := []struct {
		name        string
		cur         model.PlayerSyncStatus
		desired     int64
		hb          Heartbeat
		wantStatus  model.SyncStatus
		wantApplied int64
		wantDeliver bool
	}{
		{"pending behind delivers", row(model.SyncPending, 2, 1), 2, Heartbeat{AppliedStateVersion: 1}, model.SyncInProgress, 1, true},
		{"in progress behind redelivers", row(model.SyncInProgress, 2, 1), 2, Heartbeat{AppliedStateVersion: 1}, model.SyncInProgress, 1, true},
		{"success behind goes pending", row(model.SyncSuccess, 2, 1), 2, Heartbeat{AppliedStateVersion: 1}, model.SyncPending, 1, false},
		{"failed behind goes pending", row(model.SyncFailed, 2, 1), 2, Heartbeat{AppliedStateVersion: 1}, model.SyncPending, 1, false},
		{"in progress caught up", row(model.SyncInProgress, 2, 1), 2, Heartbeat{AppliedStateVersion: 2, Result: ResultOK}, model.SyncSuccess, 2, false},
		{"failed caught up", row(model.SyncFailed, 2, 1), 2, Heartbeat{AppliedStateVersion: 2}, model.SyncSuccess, 2, false},
		{"nothing committed", row(model.SyncPending, 0, 0), 0, Heartbeat{}, model.SyncPending, 0, false},
		{"report failure", row(model.SyncInProgress, 2, 1), 2, Heartbeat{AppliedStateVersion: 1, Result: ResultFailed, ErrorMessage: "disk full"}, model.SyncFailed, 1, false},
		{"ledger ahead of row", row(model.SyncSuccess, 2, 2), 3, Heartbeat{AppliedStateVersion: 2}, model.SyncInProgress, 2, true},
		{"empty row", model.PlayerSyncStatus{}, 1, Heartbeat{}, model.SyncInProgress, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Decide(tc.cur, tc.desired, tc.hb, now)
			require.NoError(t, d.Anomaly)
			assert.Equal(t, tc.wantStatus, d.Next.SyncStatus)
			assert.Equal(t, tc.wantApplied, d.Next.AppliedStateVersion)
			assert.Equal(t, tc.wantDeliver, d.Deliver)
			if tc.wantDeliver {
				require.NotNil(t, d.Next.LastSyncAttempt)
				assert.True(t, d.Next.LastSyncAttempt.Equal(now))
			}
		})
	}
}

func TestDecideFailureKeepsDesired(t *testing.T) {
	d := Decide(row(model.SyncInProgress, 5, 4), 5, Heartbeat{AppliedStateVersion: 4, Result: ResultFailed, ErrorMessage: "decode error"}, now)
	assert.Equal(t, int64(5), d.Next.DesiredStateVersion)
	require.NotNil(t, d.Next.ErrorMessage)
	assert.Equal(t, "decode error", *d.Next.ErrorMessage)
}

func TestDecideSuccessClearsError(t *testing.T) {
	cur := row(model.SyncFailed, 2, 1)
	msg := "boom"
	cur.ErrorMessage = &msg
	d := Decide(cur, 2, Heartbeat{AppliedStateVersion: 2}, now)
	assert.Nil(t, d.Next.ErrorMessage)
}

func TestDecideRepeatedSuccessKeepsTimestamp(t *testing.T) {
	earlier := now.Add(-time.Hour)
	cur := row(model.SyncSuccess, 2, 2)
	cur.LastSuccessfulSync = &earlier
	d := Decide(cur, 2, Heartbeat{AppliedStateVersion: 2}, now)
	assert.True(t, d.Next.LastSuccessfulSync.Equal(earlier))
}

func TestDecideMalformedHeartbeats(t *testing.T) {
	cases := map[string]Heartbeat{
		"negative version": {AppliedStateVersion: -1},
		"unknown result":   {Result: "maybe"},
		"nested metrics":   {Metrics: map[string]any{"disk": map[string]any{"free": 1}}},
	}
	for name, hb := range cases {
		t.Run(name, func(t *testing.T) {
			cur := row(model.SyncPending, 2, 1)
			d := Decide(cur, 2, hb, now)
			require.Error(t, d.Anomaly)
			assert.Equal(t, ReasonMalformed, apperrors.DetailsOf(d.Anomaly)["reason"])
			assert.Equal(t, model.SyncFailed, d.Next.SyncStatus)
			assert.Equal(t, int64(2), d.Next.DesiredStateVersion)
			assert.Equal(t, int64(1), d.Next.AppliedStateVersion)
			assert.False(t, d.Deliver)
		})
	}
}

func TestDecideAcceptsPrimitiveMetrics(t *testing.T) {
	d := Decide(row(model.SyncPending, 1, 1), 1, Heartbeat{
		AppliedStateVersion: 1,
		Metrics:             map[string]any{"cpu": 0.25, "player": "v2", "hdmi": true, "temp_c": nil},
	}, now)
	require.NoError(t, d.Anomaly)
	assert.Equal(t, model.SyncSuccess, d.Next.SyncStatus)
	assert.Equal(t, "v2", d.Metrics["player"])
	v, ok := d.Metrics["temp_c"]
	assert.True(t, ok)
	assert.Nil(t, v)
}
