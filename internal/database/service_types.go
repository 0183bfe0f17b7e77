package database

import (
	"context"
	"fmt"
	"time"

	"pitline/internal/models"

	"github.com/mattn/go-sqlite3"
)

func (db *DB) CreateServiceType(ctx context.Context, name string) (*models.ServiceType, error) {
	now := time.Now()
	result, err := db.ExecContext(ctx,
		`INSERT INTO service_types (name, created_at) VALUES (?, ?)`, name, now)
	if err != nil {
		if sqliteErr, ok := err.(sqlite3.Error); ok && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, ErrServiceTypeExists
		}
		return nil, fmt.Errorf("failed to create service type: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return &models.ServiceType{ID: id, Name: name, CreatedAt: now}, nil
}

func (db *DB) DeleteServiceType(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM service_types WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete service type: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) ListServiceTypes(ctx context.Context) ([]*models.ServiceType, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, created_at FROM service_types ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list service types: %w", err)
	}
	defer rows.Close()

	var types []*models.ServiceType
	for rows.Next() {
		var st models.ServiceType
		if err := rows.Scan(&st.ID, &st.Name, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan service type: %w", err)
		}
		types = append(types, &st)
	}
	return types, rows.Err()
}
