package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pitline/internal/capacity"
	"pitline/internal/database"
	"pitline/internal/domain"
	"pitline/internal/events"
	"pitline/internal/metrics"
	"pitline/internal/models"
)

// AppointmentService runs the admission flow: validation, blackout and
// capacity checks, persistence and the created event.
type AppointmentService struct {
	store     domain.Store
	eventBus  domain.EventPublisher
	limiter   domain.RateLimiter
	policy    capacity.Policy
	loc       *time.Location
	rateLimit int
	rateWin   time.Duration
	logger    *zerolog.Logger
}

func NewAppointmentService(
	store domain.Store,
	eventBus domain.EventPublisher,
	limiter domain.RateLimiter,
	policy capacity.Policy,
	loc *time.Location,
	rateLimit int,
	rateWindow time.Duration,
	logger *zerolog.Logger,
) *AppointmentService {
	if loc == nil {
		loc = time.UTC
	}
	return &AppointmentService{
		store:     store,
		eventBus:  eventBus,
		limiter:   limiter,
		policy:    policy,
		loc:       loc,
		rateLimit: rateLimit,
		rateWin:   rateWindow,
		logger:    logger,
	}
}

func (s *AppointmentService) Create(ctx context.Context, req models.CreateAppointmentRequest) (*models.Appointment, error) {
	appt := &models.Appointment{
		CustomerName: strings.TrimSpace(req.CustomerName),
		Phone:        strings.TrimSpace(req.Phone),
		VehicleModel: strings.TrimSpace(req.VehicleModel),
		LicensePlate: strings.TrimSpace(req.LicensePlate),
		ServiceType:  strings.TrimSpace(req.ServiceType),
		Status:       models.StatusPending,
	}

	switch {
	case appt.CustomerName == "":
		return nil, validationErr("customer name is required")
	case appt.Phone == "":
		return nil, validationErr("phone is required")
	case appt.VehicleModel == "":
		return nil, validationErr("vehicle model is required")
	case appt.LicensePlate == "":
		return nil, validationErr("license plate is required")
	case appt.ServiceType == "":
		return nil, validationErr("service type is required")
	}

	date, err := s.parseDate(req.PreferredDate)
	if err != nil {
		return nil, err
	}
	appt.PreferredDate = date

	if err := s.checkRateLimit(ctx, appt.Phone); err != nil {
		return nil, err
	}

	// Быстрая проверка до транзакции; внутри вставки она повторяется
	// с блокировкой, так что гонка двух заявок не переполнит день.
	if err := s.precheckDay(ctx, date, 0); err != nil {
		return nil, err
	}

	if err := s.store.CreateAppointmentAdmitted(ctx, appt, s.policy.MaxPerDay); err != nil {
		s.countDenied(err)
		return nil, err
	}
	metrics.IncAdmitted()

	s.publishCreated(appt)

	s.logger.Info().
		Int64("appointment_id", appt.ID).
		Str("date", models.DayKey(appt.PreferredDate, s.loc)).
		Str("phone", appt.Phone).
		Msg("appointment admitted")

	return appt, nil
}

func (s *AppointmentService) Update(ctx context.Context, id int64, patch models.AppointmentPatch) (*models.Appointment, error) {
	appt, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Status != nil {
		status := strings.TrimSpace(*patch.Status)
		if !models.ValidStatus(status) {
			return nil, validationErr("unknown status: " + status)
		}
		appt.Status = status
	}
	if patch.ServiceType != nil {
		// Пустое значение не затирает поле.
		if st := strings.TrimSpace(*patch.ServiceType); st != "" {
			appt.ServiceType = st
		}
	}

	if patch.PreferredDate != nil {
		date, err := s.parseDate(*patch.PreferredDate)
		if err != nil {
			return nil, err
		}
		appt.PreferredDate = date

		// Перенос на другой день проходит проверку вместимости заново;
		// собственная заявка в счёт не идёт.
		if err := s.precheckDay(ctx, date, id); err != nil {
			return nil, err
		}
		if err := s.store.UpdateAppointmentAdmitted(ctx, appt, s.policy.MaxPerDay); err != nil {
			s.countDenied(err)
			return nil, err
		}
		return appt, nil
	}

	if err := s.store.UpdateAppointment(ctx, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

func (s *AppointmentService) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteAppointment(ctx, id)
}

func (s *AppointmentService) Get(ctx context.Context, id int64) (*models.Appointment, error) {
	return s.store.GetAppointment(ctx, id)
}

func (s *AppointmentService) List(ctx context.Context) ([]*models.Appointment, error) {
	return s.store.ListAppointments(ctx)
}

// parseDate accepts a calendar day or a full timestamp; either way the
// result is the day in the canonical zone.
func (s *AppointmentService) parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, validationErr("preferred date is required")
	}
	if t, err := time.ParseInLocation("2006-01-02", raw, s.loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(s.loc), nil
	}
	return time.Time{}, validationErr("unparseable preferred date: " + raw)
}

func (s *AppointmentService) checkRateLimit(ctx context.Context, phone string) error {
	if s.limiter == nil || s.rateLimit <= 0 {
		return nil
	}
	allowed, err := s.limiter.CheckRateLimit(ctx, phone, s.rateLimit, s.rateWin)
	if err != nil {
		// Лимитер не должен ронять запись: пропускаем и логируем.
		s.logger.Warn().Err(err).Msg("rate limit check failed, allowing request")
		return nil
	}
	if !allowed {
		metrics.IncDenied("rate_limited")
		return ErrRateLimited
	}
	return nil
}

func (s *AppointmentService) precheckDay(ctx context.Context, date time.Time, excludeID int64) error {
	isBlackout, err := s.store.IsBlackout(ctx, date)
	if err != nil {
		return err
	}
	if isBlackout {
		metrics.IncDenied("closed")
		return database.ErrDateClosed
	}

	count, err := s.store.CountByDate(ctx, date, models.CountedStatuses, excludeID)
	if err != nil {
		return err
	}
	if !s.policy.CanAdmit(count, false) {
		metrics.IncDenied("full")
		return database.ErrDateFull
	}
	return nil
}

func (s *AppointmentService) countDenied(err error) {
	switch {
	case errors.Is(err, database.ErrDateClosed):
		metrics.IncDenied("closed")
	case errors.Is(err, database.ErrDateFull):
		metrics.IncDenied("full")
	}
}

func (s *AppointmentService) publishCreated(appt *models.Appointment) {
	if s.eventBus == nil {
		return
	}
	err := s.eventBus.PublishJSON(events.EventAppointmentCreated, events.AppointmentEventPayload{
		AppointmentID: appt.ID,
		CustomerName:  appt.CustomerName,
		Phone:         appt.Phone,
		VehicleModel:  appt.VehicleModel,
		LicensePlate:  appt.LicensePlate,
		PreferredDate: appt.PreferredDate,
		ServiceType:   appt.ServiceType,
		Status:        appt.Status,
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("appointment_id", appt.ID).Msg("failed to publish created event")
	}
}
