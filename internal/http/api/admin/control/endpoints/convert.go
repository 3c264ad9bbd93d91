package endpoints

import (
	"time"

	"github.com/Nixie-Tech-LLC/playout/internal/engine"
	"github.com/Nixie-Tech-LLC/playout/internal/http/api"
	"github.com/Nixie-Tech-LLC/playout/internal/http/api/admin/control/packets"
	"github.com/Nixie-Tech-LLC/playout/internal/model"
)

func recomputeResult(r engine.RecomputeResult) packets.RecomputeResult {
	return packets.RecomputeResult{
		ScreenID:            r.ScreenID.String(),
		DesiredStateVersion: r.Version,
		Fingerprint:         r.Fingerprint,
		Changed:             r.Changed,
		Error:               api.FromError(r.Err),
	}
}

func recomputeResults(rs []engine.RecomputeResult) []packets.RecomputeResult {
	out := make([]packets.RecomputeResult, 0, len(rs))
	for _, r := range rs {
		out = append(out, recomputeResult(r))
	}
	return out
}

func screenResponse(s model.Screen) packets.ScreenResponse {
	return packets.ScreenResponse{
		ID:            s.ID.String(),
		ScreenCode:    s.Code,
		Name:          s.Name,
		Location:      s.Location,
		Status:        string(s.Status),
		Fault:         s.Fault,
		LastHeartbeat: packets.FormatTime(s.LastHeartbeat),
		RetiredAt:     packets.FormatTime(s.RetiredAt),
		CreatedAt:     s.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func videoResponse(v model.Video) packets.VideoResponse {
	return packets.VideoResponse{
		ID:              v.ID.String(),
		Title:           v.Title,
		ContentHash:     v.ContentHash,
		DurationSeconds: v.DurationSeconds,
		RetractedAt:     packets.FormatTime(v.RetractedAt),
		CreatedAt:       v.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func ruleResponse(r model.ScheduleRule) packets.RuleResponse {
	return packets.RuleResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		RuleType:    string(r.RuleType),
		ActiveFrom:  r.ActiveFrom.UTC().Format(time.RFC3339),
		ActiveUntil: packets.FormatTime(r.ActiveUntil),
		CreatedAt:   r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func slotResponse(s model.TimeSlot) packets.SlotResponse {
	return packets.SlotResponse{
		ID:        s.ID.String(),
		RuleID:    s.RuleID.String(),
		ScreenID:  s.ScreenID.String(),
		VideoID:   s.VideoID.String(),
		DayOfWeek: s.DayOfWeek,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
	}
}

func syncStatusResponse(st model.PlayerSyncStatus) packets.SyncStatusResponse {
	return packets.SyncStatusResponse{
		ScreenID:            st.ScreenID.String(),
		ScreenCode:          st.ScreenCode,
		DesiredStateVersion: st.DesiredStateVersion,
		AppliedStateVersion: st.AppliedStateVersion,
		SyncStatus:          string(st.SyncStatus),
		LastSyncAttempt:     packets.FormatTime(st.LastSyncAttempt),
		LastSuccessfulSync:  packets.FormatTime(st.LastSuccessfulSync),
		ErrorMessage:        st.ErrorMessage,
		LastHeartbeat:       packets.FormatTime(st.LastHeartbeat),
		HealthMetrics:       st.HealthMetrics,
	}
}
