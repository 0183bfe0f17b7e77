package notify

import (
	"fmt"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitline/internal/events"
)

type fakeBot struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func TestTelegramSink(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("Send", func(t *testing.T) {
		bot := &fakeBot{}
		sink := NewTelegramSink(bot, &logger)

		err := sink.Send(42, "hello")
		require.NoError(t, err)
		require.Len(t, bot.sent, 1)

		msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
		require.True(t, ok)
		assert.Equal(t, int64(42), msg.ChatID)
		assert.Equal(t, "hello", msg.Text)
	})

	t.Run("SendError", func(t *testing.T) {
		bot := &fakeBot{err: fmt.Errorf("network down")}
		sink := NewTelegramSink(bot, &logger)

		err := sink.Send(42, "hello")
		assert.Error(t, err)
	})
}

func TestFormatAppointmentCreated(t *testing.T) {
	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	text := FormatAppointmentCreated(events.AppointmentEventPayload{
		AppointmentID: 7,
		CustomerName:  "Somchai",
		Phone:         "0812345678",
		VehicleModel:  "Toyota Vios",
		LicensePlate:  "AB-1234",
		PreferredDate: date,
		ServiceType:   "oil change",
		Status:        "pending",
	})

	assert.Contains(t, text, "Somchai")
	assert.Contains(t, text, "0812345678")
	assert.Contains(t, text, "Toyota Vios (AB-1234)")
	assert.Contains(t, text, "2025-03-14")
	assert.Contains(t, text, "oil change")
	assert.Contains(t, text, "pending")
}

func TestFormatAppointmentCreatedNoServiceType(t *testing.T) {
	text := FormatAppointmentCreated(events.AppointmentEventPayload{
		CustomerName:  "Somchai",
		PreferredDate: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		Status:        "pending",
	})
	assert.NotContains(t, text, "Service:")
}

func TestFormatBlackoutChanged(t *testing.T) {
	added := FormatBlackoutChanged(events.EventBlackoutAdded, events.BlackoutEventPayload{Date: "2025-04-01"})
	assert.Contains(t, added, "closed")
	assert.Contains(t, added, "2025-04-01")

	removed := FormatBlackoutChanged(events.EventBlackoutRemoved, events.BlackoutEventPayload{Date: "2025-04-01"})
	assert.Contains(t, removed, "reopened")
}
