package models

import "time"

type Appointment struct {
	ID            int64     `json:"id"`
	CustomerName  string    `json:"customer_name"`
	Phone         string    `json:"phone"`
	VehicleModel  string    `json:"vehicle_model"`
	LicensePlate  string    `json:"license_plate"`
	PreferredDate time.Time `json:"preferred_date"`
	ServiceType   string    `json:"service_type"`
	Status        string    `json:"status"` // pending, accepted, rejected
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DayKey returns the calendar-day key used for capacity and blackout
// comparisons. Two timestamps on the same day in loc map to the same key.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006-01-02")
}

// ValidStatus reports whether s is one of the known appointment statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}
