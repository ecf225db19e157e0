package domain

// ChatMetrics is the snapshot returned by GET /v1/metrics/chat.
// Values are cumulative since process start.
type ChatMetrics struct {
	TotalTurns          int64   `json:"total_turns"`
	RepliedTurns        int64   `json:"replied_turns"`
	EmptyTurns          int64   `json:"empty_turns"`
	FailedTurns         int64   `json:"failed_turns"`
	MissingCredential   int64   `json:"missing_credential_turns"`
	ErrorRate           float64 `json:"error_rate"`
	ActionsApplied      int64   `json:"actions_applied"`
	ActionsInvalid      int64   `json:"actions_invalid"`
	ActionsApplyFailed  int64   `json:"actions_apply_failed"`
	SettingsCacheHits   int64   `json:"settings_cache_hits"`
	SettingsCacheMisses int64   `json:"settings_cache_misses"`
	Period              string  `json:"period"`
}
