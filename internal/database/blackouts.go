package database

import (
	"context"
	"fmt"
	"time"

	"pitline/internal/models"

	"github.com/mattn/go-sqlite3"
)

// IsBlackout проверяет, закрыт ли день для записи.
func (db *DB) IsBlackout(ctx context.Context, date time.Time) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM blackout_dates WHERE date = ?)`, db.dayKey(date)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check blackout date: %w", err)
	}
	return exists, nil
}

func (db *DB) AddBlackoutDate(ctx context.Context, date time.Time) (*models.BlackoutDate, error) {
	day := db.dayKey(date)
	now := time.Now()

	result, err := db.ExecContext(ctx,
		`INSERT INTO blackout_dates (date, created_at) VALUES (?, ?)`, day, now)
	if err != nil {
		if sqliteErr, ok := err.(sqlite3.Error); ok && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, ErrBlackoutExists
		}
		return nil, fmt.Errorf("failed to add blackout date: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	parsed, err := db.parseDay(day)
	if err != nil {
		return nil, err
	}
	return &models.BlackoutDate{ID: id, Date: parsed, CreatedAt: now}, nil
}

func (db *DB) RemoveBlackoutDate(ctx context.Context, date time.Time) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM blackout_dates WHERE date = ?`, db.dayKey(date))
	if err != nil {
		return fmt.Errorf("failed to remove blackout date: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) ListBlackoutDates(ctx context.Context) ([]*models.BlackoutDate, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, date, created_at FROM blackout_dates ORDER BY date ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list blackout dates: %w", err)
	}
	defer rows.Close()

	var dates []*models.BlackoutDate
	for rows.Next() {
		var bd models.BlackoutDate
		var dateStr string
		if err := rows.Scan(&bd.ID, &dateStr, &bd.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan blackout date: %w", err)
		}
		bd.Date, err = db.parseDay(dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse blackout date %s: %w", dateStr, err)
		}
		dates = append(dates, &bd)
	}
	return dates, rows.Err()
}
