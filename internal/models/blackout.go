package models

import "time"

// BlackoutDate is a calendar day closed for booking. A blackout day is
// always full regardless of how many appointments exist on it.
type BlackoutDate struct {
	ID        int64     `json:"id"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

type ServiceType struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
