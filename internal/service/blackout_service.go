package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pitline/internal/domain"
	"pitline/internal/events"
	"pitline/internal/models"
)

// BlackoutManager closes and reopens calendar days.
type BlackoutManager struct {
	store    domain.Store
	eventBus domain.EventPublisher
	loc      *time.Location
	logger   *zerolog.Logger
}

func NewBlackoutManager(store domain.Store, eventBus domain.EventPublisher, loc *time.Location, logger *zerolog.Logger) *BlackoutManager {
	if loc == nil {
		loc = time.UTC
	}
	return &BlackoutManager{store: store, eventBus: eventBus, loc: loc, logger: logger}
}

func (s *BlackoutManager) Add(ctx context.Context, date string) (*models.BlackoutDate, error) {
	day, err := s.parseDay(date)
	if err != nil {
		return nil, err
	}

	blackout, err := s.store.AddBlackoutDate(ctx, day)
	if err != nil {
		return nil, err
	}

	s.publish(events.EventBlackoutAdded, day)
	s.logger.Info().Str("date", models.DayKey(day, s.loc)).Msg("date closed for booking")
	return blackout, nil
}

func (s *BlackoutManager) Remove(ctx context.Context, date string) error {
	day, err := s.parseDay(date)
	if err != nil {
		return err
	}

	if err := s.store.RemoveBlackoutDate(ctx, day); err != nil {
		return err
	}

	s.publish(events.EventBlackoutRemoved, day)
	s.logger.Info().Str("date", models.DayKey(day, s.loc)).Msg("date reopened for booking")
	return nil
}

func (s *BlackoutManager) List(ctx context.Context) ([]*models.BlackoutDate, error) {
	return s.store.ListBlackoutDates(ctx)
}

func (s *BlackoutManager) parseDay(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, validationErr("date is required")
	}
	day, err := time.ParseInLocation("2006-01-02", raw, s.loc)
	if err != nil {
		return time.Time{}, validationErr("unparseable date: " + raw)
	}
	return day, nil
}

func (s *BlackoutManager) publish(eventType string, day time.Time) {
	if s.eventBus == nil {
		return
	}
	err := s.eventBus.PublishJSON(eventType, events.BlackoutEventPayload{
		Date: models.DayKey(day, s.loc),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("failed to publish blackout event")
	}
}
