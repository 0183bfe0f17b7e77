package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"pitline/internal/domain"
	"pitline/internal/models"
)

// Catalog manages the service-type dictionary shown on the booking form.
type Catalog struct {
	store  domain.Store
	logger *zerolog.Logger
}

func NewCatalog(store domain.Store, logger *zerolog.Logger) *Catalog {
	return &Catalog{store: store, logger: logger}
}

func (s *Catalog) CreateServiceType(ctx context.Context, name string) (*models.ServiceType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationErr("service type name is required")
	}
	return s.store.CreateServiceType(ctx, name)
}

func (s *Catalog) DeleteServiceType(ctx context.Context, id int64) error {
	return s.store.DeleteServiceType(ctx, id)
}

func (s *Catalog) ListServiceTypes(ctx context.Context) ([]*models.ServiceType, error) {
	return s.store.ListServiceTypes(ctx)
}
