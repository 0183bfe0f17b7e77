package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"pitline/internal/models"
)

const appointmentColumns = `id, customer_name, phone, vehicle_model, license_plate,
                 preferred_date, service_type, status, created_at, updated_at`

// CountByDate возвращает количество заявок на дату с указанными статусами.
// excludeID > 0 исключает заявку из подсчета (перенос на ту же дату).
func (db *DB) CountByDate(ctx context.Context, date time.Time, statuses []string, excludeID int64) (int, error) {
	if len(statuses) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(
		`SELECT COUNT(*) FROM appointments WHERE preferred_date = ? AND status IN (%s)`,
		placeholders(len(statuses)))
	args := []any{db.dayKey(date)}
	for _, s := range statuses {
		args = append(args, s)
	}
	if excludeID > 0 {
		query += ` AND id != ?`
		args = append(args, excludeID)
	}

	var count int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count appointments: %w", err)
	}
	return count, nil
}

// CreateAppointmentAdmitted re-checks blackout and capacity inside a single
// transaction before inserting, so two concurrent bookings for the same day
// cannot both slip under the cap.
func (db *DB) CreateAppointmentAdmitted(ctx context.Context, appt *models.Appointment, maxPerDay int) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	day := db.dayKey(appt.PreferredDate)

	if err := admitDay(ctx, tx, day, 0, maxPerDay); err != nil {
		return err
	}

	now := time.Now()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO appointments (
			customer_name, phone, vehicle_model, license_plate,
			preferred_date, service_type, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		appt.CustomerName,
		appt.Phone,
		appt.VehicleModel,
		appt.LicensePlate,
		day,
		appt.ServiceType,
		appt.Status,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert appointment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	appt.ID = id
	appt.CreatedAt = now
	appt.UpdatedAt = now

	return tx.Commit()
}

// UpdateAppointmentAdmitted moves an appointment to a new date, re-checking
// blackout and capacity in the same transaction. The appointment itself is
// excluded from the count so a reschedule onto its own date passes.
func (db *DB) UpdateAppointmentAdmitted(ctx context.Context, appt *models.Appointment, maxPerDay int) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	day := db.dayKey(appt.PreferredDate)

	if err := admitDay(ctx, tx, day, appt.ID, maxPerDay); err != nil {
		return err
	}

	now := time.Now()
	result, err := tx.ExecContext(ctx,
		`UPDATE appointments SET preferred_date = ?, service_type = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		day, appt.ServiceType, appt.Status, now, appt.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	appt.UpdatedAt = now

	return tx.Commit()
}

// admitDay enforces blackout and cap rules for a day inside tx.
func admitDay(ctx context.Context, tx *sql.Tx, day string, excludeID int64, maxPerDay int) error {
	var blackout bool
	err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM blackout_dates WHERE date = ?)`, day).Scan(&blackout)
	if err != nil {
		return fmt.Errorf("failed to check blackout in tx: %w", err)
	}
	if blackout {
		return ErrDateClosed
	}

	query := `SELECT COUNT(*) FROM appointments WHERE preferred_date = ? AND status IN (?, ?)`
	args := []any{day, models.StatusPending, models.StatusAccepted}
	if excludeID > 0 {
		query += ` AND id != ?`
		args = append(args, excludeID)
	}

	var count int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return fmt.Errorf("failed to count appointments in tx: %w", err)
	}
	if count >= maxPerDay {
		return ErrDateFull
	}
	return nil
}

func (db *DB) GetAppointment(ctx context.Context, id int64) (*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = ?`
	appt, err := db.scanAppointment(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return appt, nil
}

// UpdateAppointment replaces the mutable fields of an existing record.
// Use UpdateAppointmentAdmitted when the preferred date changes.
func (db *DB) UpdateAppointment(ctx context.Context, appt *models.Appointment) error {
	now := time.Now()
	result, err := db.ExecContext(ctx,
		`UPDATE appointments SET service_type = ?, status = ?, updated_at = ? WHERE id = ?`,
		appt.ServiceType, appt.Status, now, appt.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	appt.UpdatedAt = now
	return nil
}

func (db *DB) DeleteAppointment(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM appointments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAppointments возвращает все заявки, новые первыми.
func (db *DB) ListAppointments(ctx context.Context) ([]*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments ORDER BY created_at DESC, id DESC`
	return db.queryAppointments(ctx, query)
}

func (db *DB) ListAppointmentsByPhone(ctx context.Context, phone string) ([]*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE phone = ? ORDER BY created_at DESC, id DESC`
	return db.queryAppointments(ctx, query, phone)
}

func (db *DB) ListAppointmentsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments
              WHERE preferred_date >= ? AND preferred_date <= ?
              ORDER BY preferred_date ASC, created_at ASC`
	return db.queryAppointments(ctx, query, db.dayKey(start), db.dayKey(end))
}

// FullDates returns the day keys whose count of appointments with the given
// statuses has reached threshold.
func (db *DB) FullDates(ctx context.Context, statuses []string, threshold int) ([]string, error) {
	if len(statuses) == 0 || threshold <= 0 {
		return nil, nil
	}

	query := fmt.Sprintf(
		`SELECT preferred_date FROM appointments WHERE status IN (%s)
         GROUP BY preferred_date HAVING COUNT(*) >= ? ORDER BY preferred_date ASC`,
		placeholders(len(statuses)))
	args := make([]any, 0, len(statuses)+1)
	for _, s := range statuses {
		args = append(args, s)
	}
	args = append(args, threshold)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get full dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan full date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// CountOnDay counts appointments of any status whose preferred date falls on
// the given calendar day.
func (db *DB) CountOnDay(ctx context.Context, day time.Time) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM appointments WHERE preferred_date = ?`, db.dayKey(day)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count appointments on day: %w", err)
	}
	return count, nil
}

// StatusCounts groups appointments by status.
func (db *DB) StatusCounts(ctx context.Context) (map[string]int, error) {
	rows, err := db.QueryContext(ctx, `SELECT status, COUNT(*) FROM appointments GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (db *DB) queryAppointments(ctx context.Context, query string, args ...any) ([]*models.Appointment, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	var appts []*models.Appointment
	for rows.Next() {
		appt, err := db.scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appts = append(appts, appt)
	}
	return appts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (db *DB) scanAppointment(row rowScanner) (*models.Appointment, error) {
	var appt models.Appointment
	var dateStr string
	err := row.Scan(
		&appt.ID, &appt.CustomerName, &appt.Phone, &appt.VehicleModel, &appt.LicensePlate,
		&dateStr, &appt.ServiceType, &appt.Status, &appt.CreatedAt, &appt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	appt.PreferredDate, err = db.parseDay(dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse appointment date %s: %w", dateStr, err)
	}
	return &appt, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
