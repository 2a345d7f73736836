package users

// BanStatus reports a user's standing under the strike policy.
type BanStatus struct {
	Banned       bool  `json:"banned"`
	FailureCount int   `json:"failure_count"`
	TelegramID   int64 `json:"telegram_id"`
}
