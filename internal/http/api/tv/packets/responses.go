package packets

import "encoding/json"

// RESPONSES FOR /api/tv/heartbeat

// HeartbeatResponse carries the manifest only when the player has to
// fetch a newer version.
type HeartbeatResponse struct {
	DesiredStateVersion int64           `json:"desired_state_version"`
	SyncStatus          string          `json:"sync_status"`
	Manifest            json.RawMessage `json:"manifest,omitempty"`
}
