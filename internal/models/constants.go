package models

const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// CountedStatuses are the statuses that consume daily capacity.
// Rejected appointments never count toward a day.
var CountedStatuses = []string{StatusPending, StatusAccepted}

const (
	// DefaultMaxPerDay максимальное количество заявок на день по умолчанию
	DefaultMaxPerDay = 3

	// WorkerQueueSize размер очереди воркера уведомлений
	WorkerQueueSize = 128

	// RateLimitRequests количество публичных заявок с одного телефона в окне
	RateLimitRequests = 5

	// RateLimitWindow окно ограничения частоты в секундах
	RateLimitWindow = 60
)
