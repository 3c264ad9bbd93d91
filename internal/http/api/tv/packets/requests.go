package packets

// REQUESTS FOR /api/tv/heartbeat

type StatusReport struct {
	// "ok" or "failed" for the version in applied_state_version
	Result       string `json:"result"`
	ErrorMessage string `json:"error_message"`
	Fault        bool   `json:"fault"`
}

type HeartbeatRequest struct {
	ScreenCode          string         `json:"screen_code" binding:"required"`
	AppliedStateVersion int64          `json:"applied_state_version"`
	StatusReport        *StatusReport  `json:"status_report"`
	HealthMetrics       map[string]any `json:"health_metrics"`
}
