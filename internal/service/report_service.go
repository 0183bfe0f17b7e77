package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pitline/internal/domain"
	"pitline/internal/models"
)

// ReportService builds the read-side views: booked dates, summary,
// lookups by phone.
type ReportService struct {
	store     domain.Store
	maxPerDay int
	loc       *time.Location
	logger    *zerolog.Logger
}

func NewReportService(store domain.Store, maxPerDay int, loc *time.Location, logger *zerolog.Logger) *ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportService{store: store, maxPerDay: maxPerDay, loc: loc, logger: logger}
}

// BookedDates returns day keys closed to new bookings: days at capacity
// plus blackout days, de-duplicated and sorted.
func (s *ReportService) BookedDates(ctx context.Context) ([]string, error) {
	fullDates, err := s.store.FullDates(ctx, models.CountedStatuses, s.maxPerDay)
	if err != nil {
		return nil, err
	}

	blackouts, err := s.store.ListBlackoutDates(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(fullDates)+len(blackouts))
	dates := make([]string, 0, len(fullDates)+len(blackouts))
	for _, d := range fullDates {
		if _, ok := seen[d]; !ok {
			seen[d] = struct{}{}
			dates = append(dates, d)
		}
	}
	for _, b := range blackouts {
		key := models.DayKey(b.Date, s.loc)
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			dates = append(dates, key)
		}
	}

	sort.Strings(dates)
	return dates, nil
}

// Summary returns today's load and the status breakdown.
func (s *ReportService) Summary(ctx context.Context) (*models.Summary, error) {
	today, err := s.store.CountOnDay(ctx, time.Now().In(s.loc))
	if err != nil {
		return nil, err
	}

	breakdown, err := s.store.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}

	return &models.Summary{
		TodayCount:      today,
		PendingCount:    breakdown[models.StatusPending],
		StatusBreakdown: breakdown,
	}, nil
}

func (s *ReportService) FindByPhone(ctx context.Context, phone string) ([]*models.Appointment, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, validationErr("phone is required")
	}
	return s.store.ListAppointmentsByPhone(ctx, phone)
}
