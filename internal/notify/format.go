package notify

import (
	"fmt"
	"strings"

	"pitline/internal/events"
)

// FormatAppointmentCreated renders the manager notification for a new
// appointment request.
func FormatAppointmentCreated(p events.AppointmentEventPayload) string {
	var b strings.Builder
	b.WriteString("🔔 New service appointment\n\n")
	fmt.Fprintf(&b, "Customer: %s\n", p.CustomerName)
	fmt.Fprintf(&b, "Phone: %s\n", p.Phone)
	fmt.Fprintf(&b, "Vehicle: %s (%s)\n", p.VehicleModel, p.LicensePlate)
	fmt.Fprintf(&b, "Date: %s\n", p.PreferredDate.Format("2006-01-02"))
	if p.ServiceType != "" {
		fmt.Fprintf(&b, "Service: %s\n", p.ServiceType)
	}
	fmt.Fprintf(&b, "Status: %s", p.Status)
	return b.String()
}

// FormatBlackoutChanged renders the notification for a closed-date change.
func FormatBlackoutChanged(eventType string, p events.BlackoutEventPayload) string {
	switch eventType {
	case events.EventBlackoutAdded:
		return fmt.Sprintf("🚫 Date closed for booking: %s", p.Date)
	case events.EventBlackoutRemoved:
		return fmt.Sprintf("✅ Date reopened for booking: %s", p.Date)
	default:
		return fmt.Sprintf("Schedule change: %s", p.Date)
	}
}
