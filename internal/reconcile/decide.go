// Package reconcile drives the per-screen sync state machine from player
// heartbeats.
package reconcile

import (
	"fmt"
	"time"

	"github.com/Nixie-Tech-LLC/playout/internal/apperrors"
	"github.com/Nixie-Tech-LLC/playout/internal/model"
)

// Report results a player may send.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// Anomaly reasons, used as metric labels and error details.
const (
	ReasonVersionSkew = "version_skew"
	ReasonMalformed   = "malformed_heartbeat"
)

type Heartbeat struct {
	AppliedStateVersion int64
	// Result is empty when the player sent no status report.
	Result       string
	ErrorMessage string
	Fault        bool
	Metrics      map[string]any
}

type Decision struct {
	Next    model.PlayerSyncStatus
	Deliver bool
	Metrics model.HealthMetrics
	// Anomaly is a SyncAnomaly error when the heartbeat contradicts the
	// server state; Next already records it.
	Anomaly error
}

// Decide computes the next sync row for a heartbeat. desired is the
// version currently committed in the ledger, 0 when none. It does no I/O.
func Decide(cur model.PlayerSyncStatus, desired int64, hb Heartbeat, now time.Time) Decision {
	now = now.UTC()
	next := cur
	next.UpdatedAt = now
	if next.SyncStatus == "" {
		next.SyncStatus = model.SyncPending
	}

	metrics, err := model.NewHealthMetrics(hb.Metrics)
	if err == nil {
		err = validate(hb)
	}
	if err != nil {
		return anomaly(next, ReasonMalformed, err.Error(), false)
	}

	// the ledger moved ahead of the row, e.g. a commit whose MarkPending was lost
	if desired > next.DesiredStateVersion {
		next.DesiredStateVersion = desired
		next.SyncStatus = model.SyncPending
		next.ErrorMessage = nil
	}
	d := Decision{Next: next, Metrics: metrics}

	switch {
	case hb.AppliedStateVersion > next.DesiredStateVersion:
		msg := fmt.Sprintf("player reports version %d ahead of desired version %d", hb.AppliedStateVersion, next.DesiredStateVersion)
		out := anomaly(next, ReasonVersionSkew, msg, next.DesiredStateVersion > 0)
		out.Metrics = metrics
		return out

	case hb.Result == ResultFailed:
		d.Next.SyncStatus = model.SyncFailed
		msg := hb.ErrorMessage
		if msg == "" {
			msg = "player reported a failed sync"
		}
		d.Next.ErrorMessage = &msg

	case next.DesiredStateVersion == 0:
		d.Next.SyncStatus = model.SyncPending

	case hb.AppliedStateVersion == next.DesiredStateVersion:
		if next.SyncStatus != model.SyncSuccess || next.AppliedStateVersion != hb.AppliedStateVersion {
			d.Next.LastSuccessfulSync = &now
		}
		d.Next.SyncStatus = model.SyncSuccess
		d.Next.AppliedStateVersion = hb.AppliedStateVersion
		d.Next.ErrorMessage = nil

	default: // behind
		d.Next.AppliedStateVersion = hb.AppliedStateVersion
		switch next.SyncStatus {
		case model.SyncPending, model.SyncInProgress:
			d.Next.SyncStatus = model.SyncInProgress
			d.Next.LastSyncAttempt = &now
			d.Deliver = true
		default:
			d.Next.SyncStatus = model.SyncPending
		}
	}
	return d
}

func validate(hb Heartbeat) error {
	if hb.AppliedStateVersion < 0 {
		return fmt.Errorf("applied_state_version must not be negative, got %d", hb.AppliedStateVersion)
	}
	switch hb.Result {
	case "", ResultOK, ResultFailed:
		return nil
	}
	return fmt.Errorf("unknown status report result %q", hb.Result)
}

func anomaly(next model.PlayerSyncStatus, reason, msg string, deliver bool) Decision {
	next.SyncStatus = model.SyncFailed
	next.ErrorMessage = &msg
	return Decision{
		Next:    next,
		Deliver: deliver,
		Anomaly: apperrors.SyncAnomaly(msg, map[string]any{
			"reason":                reason,
			"screen_id":             next.ScreenID.String(),
			"desired_state_version": next.DesiredStateVersion,
		}),
	}
}
