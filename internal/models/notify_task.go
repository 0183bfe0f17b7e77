package models

import "time"

// NotifyTask represents a queued outbound-notification job.
type NotifyTask struct {
	ID            int64      `json:"id"`
	TaskType      string     `json:"task_type"`
	AppointmentID int64      `json:"appointment_id"`
	Payload       string     `json:"payload"`
	Status        string     `json:"status"`
	RetryCount    int        `json:"retry_count"`
	LastError     *string    `json:"last_error"`
	CreatedAt     time.Time  `json:"created_at"`
	ProcessedAt   *time.Time `json:"processed_at"`
	NextRetryAt   *time.Time `json:"next_retry_at"`
}

// Summary is the aggregate view over the appointment store.
type Summary struct {
	TodayCount      int            `json:"today_count"`
	PendingCount    int            `json:"pending_count"`
	StatusBreakdown map[string]int `json:"status_breakdown"`
}
