package domain

import (
	"context"
	"time"

	"pitline/internal/models"
)

// Store is the durable collection of appointments, blackout dates and the
// service-type catalog.
type Store interface {
	CreateAppointmentAdmitted(ctx context.Context, appt *models.Appointment, maxPerDay int) error
	UpdateAppointmentAdmitted(ctx context.Context, appt *models.Appointment, maxPerDay int) error
	UpdateAppointment(ctx context.Context, appt *models.Appointment) error
	GetAppointment(ctx context.Context, id int64) (*models.Appointment, error)
	DeleteAppointment(ctx context.Context, id int64) error
	CountByDate(ctx context.Context, date time.Time, statuses []string, excludeID int64) (int, error)
	ListAppointments(ctx context.Context) ([]*models.Appointment, error)
	ListAppointmentsByPhone(ctx context.Context, phone string) ([]*models.Appointment, error)
	ListAppointmentsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Appointment, error)
	FullDates(ctx context.Context, statuses []string, threshold int) ([]string, error)
	CountOnDay(ctx context.Context, day time.Time) (int, error)
	StatusCounts(ctx context.Context) (map[string]int, error)

	IsBlackout(ctx context.Context, date time.Time) (bool, error)
	AddBlackoutDate(ctx context.Context, date time.Time) (*models.BlackoutDate, error)
	RemoveBlackoutDate(ctx context.Context, date time.Time) error
	ListBlackoutDates(ctx context.Context) ([]*models.BlackoutDate, error)

	CreateServiceType(ctx context.Context, name string) (*models.ServiceType, error)
	DeleteServiceType(ctx context.Context, id int64) error
	ListServiceTypes(ctx context.Context) ([]*models.ServiceType, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Sink delivers a notification text to a chat. Implementations must not
// assume delivery success matters to the booking flow.
type Sink interface {
	Send(chatID int64, text string) error
}

// RateLimiter bounds how often a key (phone number, address) may perform an
// action inside a window.
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type AppointmentService interface {
	Create(ctx context.Context, req models.CreateAppointmentRequest) (*models.Appointment, error)
	Update(ctx context.Context, id int64, patch models.AppointmentPatch) (*models.Appointment, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*models.Appointment, error)
	List(ctx context.Context) ([]*models.Appointment, error)
}

type ReportService interface {
	BookedDates(ctx context.Context) ([]string, error)
	Summary(ctx context.Context) (*models.Summary, error)
	FindByPhone(ctx context.Context, phone string) ([]*models.Appointment, error)
}

type BlackoutService interface {
	Add(ctx context.Context, date string) (*models.BlackoutDate, error)
	Remove(ctx context.Context, date string) error
	List(ctx context.Context) ([]*models.BlackoutDate, error)
}

type CatalogService interface {
	CreateServiceType(ctx context.Context, name string) (*models.ServiceType, error)
	DeleteServiceType(ctx context.Context, id int64) error
	ListServiceTypes(ctx context.Context) ([]*models.ServiceType, error)
}
