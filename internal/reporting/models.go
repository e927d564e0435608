package reporting

import "time"

// TimeRange bounds the sessions by start time. A zero bound is open.
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (r TimeRange) contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && !t.Before(r.To) {
		return false
	}
	return true
}

// SummaryRequest asks for a user's aggregated call metrics.
type SummaryRequest struct {
	UserID string    `json:"userId"`
	Range  TimeRange `json:"range"`
}

type UserSummary struct {
	UserID string `json:"userId"`

	TotalCalls      int `json:"totalCalls"`
	CompletedCalls  int `json:"completedCalls"`
	FailedCalls     int `json:"failedCalls"`
	InProgressCalls int `json:"inProgressCalls"`
	RecordedCalls   int `json:"recordedCalls"`

	TotalDurationSeconds   int64 `json:"totalDurationSeconds"`
	AverageDurationSeconds int64 `json:"averageDurationSeconds"`
}
