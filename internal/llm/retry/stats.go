package retry

import "sync/atomic"

// retryStats tracks retry middleware behavior with atomic counters.
// Counters are monotonically increasing and safe for concurrent access.
type retryStats struct {
	totalAttempts           atomic.Int64
	successfulFirstAttempts atomic.Int64
	successfulRetries       atomic.Int64
	failedRetries           atomic.Int64
}

// Snapshot is a point-in-time copy of retry counters for observability.
type Snapshot struct {
	TotalAttempts           int64 `json:"total_attempts"`
	SuccessfulFirstAttempts int64 `json:"successful_first_attempts"`
	SuccessfulRetries       int64 `json:"successful_retries"`
	FailedRetries           int64 `json:"failed_retries"`
}

func (s *retryStats) snapshot() Snapshot {
	return Snapshot{
		TotalAttempts:           s.totalAttempts.Load(),
		SuccessfulFirstAttempts: s.successfulFirstAttempts.Load(),
		SuccessfulRetries:       s.successfulRetries.Load(),
		FailedRetries:           s.failedRetries.Load(),
	}
}
