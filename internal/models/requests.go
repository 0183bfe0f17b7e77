package models

// CreateAppointmentRequest is an inbound booking request. Dates arrive as
// strings and are parsed by the admission engine before anything is stored.
type CreateAppointmentRequest struct {
	CustomerName  string `json:"customer_name"`
	Phone         string `json:"phone"`
	VehicleModel  string `json:"vehicle_model"`
	LicensePlate  string `json:"license_plate"`
	PreferredDate string `json:"preferred_date"`
	ServiceType   string `json:"service_type"`
}

// AppointmentPatch carries the optional fields of an update request.
// Nil means "leave unchanged".
type AppointmentPatch struct {
	PreferredDate *string `json:"preferred_date,omitempty"`
	Status        *string `json:"status,omitempty"`
	ServiceType   *string `json:"service_type,omitempty"`
}
