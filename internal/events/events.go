package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventAppointmentCreated = "appointment_created"
	EventBlackoutAdded      = "blackout_added"
	EventBlackoutRemoved    = "blackout_removed"
)

// AppointmentEventPayload is the appointment snapshot handed to event
// consumers (the notification worker among them).
type AppointmentEventPayload struct {
	AppointmentID int64     `json:"appointment_id"`
	CustomerName  string    `json:"customer_name"`
	Phone         string    `json:"phone"`
	VehicleModel  string    `json:"vehicle_model"`
	LicensePlate  string    `json:"license_plate"`
	PreferredDate time.Time `json:"preferred_date"`
	ServiceType   string    `json:"service_type"`
	Status        string    `json:"status"`
}

// BlackoutEventPayload describes a blackout-date change.
type BlackoutEventPayload struct {
	Date string `json:"date"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
	Processed bool
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
