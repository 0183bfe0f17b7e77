package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitline/internal/capacity"
	"pitline/internal/config"
	"pitline/internal/database"
	"pitline/internal/export"
	"pitline/internal/models"
	"pitline/internal/service"
)

const testAPIKey = "test-secret-key"

func newTestServer(t *testing.T, cfg config.APIConfig) (*httptest.Server, *database.DB) {
	t.Helper()
	logger := zerolog.Nop()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"), time.UTC, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	appointments := service.NewAppointmentService(db, nil, nil, capacity.NewPolicy(3), time.UTC, 0, 0, &logger)
	reports := service.NewReportService(db, 3, time.UTC, &logger)
	blackouts := service.NewBlackoutManager(db, nil, time.UTC, &logger)
	catalog := service.NewCatalog(db, &logger)
	exporter := export.NewExporter(db, t.TempDir(), time.UTC, &logger)

	server := NewHTTPServer(cfg, appointments, reports, blackouts, catalog, exporter, &logger)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts, db
}

func defaultConfig() config.APIConfig {
	return config.APIConfig{
		Auth: config.APIAuthConfig{
			Enabled: true,
			APIKeys: []config.APIClientKey{{Key: testAPIKey, Name: "test"}},
		},
	}
}

func doJSON(t *testing.T, method, url string, body any, apiKey string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if apiKey != "" {
		req.Header.Set("X-Api-Key", apiKey)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func createRequest(date string) models.CreateAppointmentRequest {
	return models.CreateAppointmentRequest{
		CustomerName:  "Somchai",
		Phone:         "0812345678",
		VehicleModel:  "Toyota Vios",
		LicensePlate:  "AB-1234",
		PreferredDate: date,
		ServiceType:   "oil change",
	}
}

func TestCreateAppointmentEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, defaultConfig())

	t.Run("Success", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/appointments", createRequest("2025-03-14"), "")
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var appt models.Appointment
		decodeBody(t, resp, &appt)
		assert.NotZero(t, appt.ID)
		assert.Equal(t, models.StatusPending, appt.Status)
		assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/api/v1/appointments", "application/json", bytes.NewBufferString("{broken"))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("BlankField", func(t *testing.T) {
		req := createRequest("2025-03-15")
		req.Phone = "  "
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/appointments", req, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("MethodNotAllowed", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/v1/appointments")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestCapacityConflicts(t *testing.T) {
	ts, _ := newTestServer(t, defaultConfig())

	// fill 2025-05-05 to the cap of 3
	var first models.Appointment
	for i := 0; i < 3; i++ {
		req := createRequest("2025-05-05")
		req.Phone = fmt.Sprintf("081000000%d", i)
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/appointments", req, "")
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		if i == 0 {
			decodeBody(t, resp, &first)
		}
	}

	t.Run("FullDay", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/appointments", createRequest("2025-05-05"), "")
		require.Equal(t, http.StatusConflict, resp.StatusCode)

		var body map[string]string
		decodeBody(t, resp, &body)
		assert.Equal(t, "full", body["reason"])
	})

	t.Run("RejectFreesSlot", func(t *testing.T) {
		url := fmt.Sprintf("%s/api/v1/admin/appointments/%d", ts.URL, first.ID)
		resp := doJSON(t, http.MethodPatch, url, map[string]string{"status": "rejected"}, testAPIKey)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = doJSON(t, http.MethodPost, ts.URL+"/api/v1/appointments", createRequest("2025-05-05"), "")
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		// Back at the cap, the next request fails again.
		resp = doJSON(t, http.MethodPost, ts.URL+"/api/v1/appointments", createRequest("2025-05-05"), "")
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("ClosedDay", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/admin/blackout-dates",
			map[string]string{"date": "2025-05-06"}, testAPIKey)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		resp = doJSON(t, http.MethodPost, ts.URL+"/api/v1/appointments", createRequest("2025-05-06"), "")
		require.Equal(t, http.StatusConflict, resp.StatusCode)

		var body map[string]string
		decodeBody(t, resp, &body)
		assert.Equal(t, "closed", body["reason"])
	})

	t.Run("BookedDatesListsBoth", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/v1/appointments/booked-dates")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Dates []string `json:"dates"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, []string{"2025-05-05", "2025-05-06"}, body.Dates)
	})
}

func TestCheckStatusEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, defaultConfig())

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/appointments", createRequest("2025-03-14"), "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	t.Run("Found", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/appointments/check-status",
			map[string]string{"phone": "0812345678"}, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Appointments []models.Appointment `json:"appointments"`
		}
		decodeBody(t, resp, &body)
		require.Len(t, body.Appointments, 1)
		assert.Equal(t, "Somchai", body.Appointments[0].CustomerName)
	})

	t.Run("BlankPhone", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/appointments/check-status",
			map[string]string{"phone": ""}, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("UnknownPhone", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/appointments/check-status",
			map[string]string{"phone": "0000000000"}, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Appointments []models.Appointment `json:"appointments"`
		}
		decodeBody(t, resp, &body)
		assert.Empty(t, body.Appointments)
	})
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t, defaultConfig())

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAdminAuth(t *testing.T) {
	ts, _ := newTestServer(t, defaultConfig())

	t.Run("MissingKey", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/admin/appointments", nil, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("WrongKey", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/admin/appointments", nil, "not-the-key")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("ValidKey", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/admin/appointments", nil, testAPIKey)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("OpenEndpointNeedsNoKey", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/v1/service-types")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestAdminAppointmentLifecycle(t *testing.T) {
	ts, _ := newTestServer(t, defaultConfig())

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/appointments", createRequest("2025-03-14"), "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Appointment
	decodeBody(t, resp, &created)

	base := fmt.Sprintf("%s/api/v1/admin/appointments/%d", ts.URL, created.ID)

	t.Run("PatchStatus", func(t *testing.T) {
		resp := doJSON(t, http.MethodPatch, base, map[string]string{"status": "accepted"}, testAPIKey)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var appt models.Appointment
		decodeBody(t, resp, &appt)
		assert.Equal(t, models.StatusAccepted, appt.Status)
	})

	t.Run("PatchUnknownStatus", func(t *testing.T) {
		resp := doJSON(t, http.MethodPatch, base, map[string]string{"status": "confirmed"}, testAPIKey)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("PatchDate", func(t *testing.T) {
		resp := doJSON(t, http.MethodPatch, base, map[string]string{"preferred_date": "2025-03-20"}, testAPIKey)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var appt models.Appointment
		decodeBody(t, resp, &appt)
		assert.Equal(t, "2025-03-20", models.DayKey(appt.PreferredDate, time.UTC))
	})

	t.Run("Delete", func(t *testing.T) {
		resp := doJSON(t, http.MethodDelete, base, nil, testAPIKey)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("DeleteAbsent", func(t *testing.T) {
		resp := doJSON(t, http.MethodDelete, base, nil, testAPIKey)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("BadID", func(t *testing.T) {
		resp := doJSON(t, http.MethodDelete, ts.URL+"/api/v1/admin/appointments/abc", nil, testAPIKey)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestBlackoutAdminFlow(t *testing.T) {
	ts, _ := newTestServer(t, defaultConfig())

	t.Run("AddAndList", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/admin/blackout-dates",
			map[string]string{"date": "2025-04-01"}, testAPIKey)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		resp = doJSON(t, http.MethodGet, ts.URL+"/api/v1/admin/blackout-dates", nil, testAPIKey)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			BlackoutDates []models.BlackoutDate `json:"blackout_dates"`
		}
		decodeBody(t, resp, &body)
		require.Len(t, body.BlackoutDates, 1)
	})

	t.Run("Duplicate", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/admin/blackout-dates",
			map[string]string{"date": "2025-04-01"}, testAPIKey)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("BadDate", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/admin/blackout-dates",
			map[string]string{"date": "01.04.2025"}, testAPIKey)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Remove", func(t *testing.T) {
		resp := doJSON(t, http.MethodDelete, ts.URL+"/api/v1/admin/blackout-dates/2025-04-01", nil, testAPIKey)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("RemoveAbsent", func(t *testing.T) {
		resp := doJSON(t, http.MethodDelete, ts.URL+"/api/v1/admin/blackout-dates/2025-04-01", nil, testAPIKey)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestServiceTypeAdminFlow(t *testing.T) {
	ts, _ := newTestServer(t, defaultConfig())

	var created models.ServiceType

	t.Run("Create", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/admin/service-types",
			map[string]string{"name": "brake check"}, testAPIKey)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		decodeBody(t, resp, &created)
		assert.Equal(t, "brake check", created.Name)
	})

	t.Run("Duplicate", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/admin/service-types",
			map[string]string{"name": "brake check"}, testAPIKey)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("OpenList", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/v1/service-types")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			ServiceTypes []models.ServiceType `json:"service_types"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body.ServiceTypes, 1)
	})

	t.Run("Delete", func(t *testing.T) {
		url := fmt.Sprintf("%s/api/v1/admin/service-types/%d", ts.URL, created.ID)
		resp := doJSON(t, http.MethodDelete, url, nil, testAPIKey)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestSummaryEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, defaultConfig())

	today := time.Now().UTC().Format("2006-01-02")
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/appointments", createRequest(today), "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/v1/admin/appointments/summary", nil, testAPIKey)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary models.Summary
	decodeBody(t, resp, &summary)
	assert.Equal(t, 1, summary.TodayCount)
	assert.Equal(t, 1, summary.PendingCount)
	assert.Equal(t, 1, summary.StatusBreakdown[models.StatusPending])
}

func TestExportEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, defaultConfig())

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/appointments", createRequest("2025-03-14"), "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	url := ts.URL + "/api/v1/admin/appointments/export?start=2025-03-01&end=2025-03-31"
	resp = doJSON(t, http.MethodGet, url, nil, testAPIKey)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".xlsx")

	t.Run("BadRange", func(t *testing.T) {
		url := ts.URL + "/api/v1/admin/appointments/export?start=2025-03-31&end=2025-03-01"
		resp := doJSON(t, http.MethodGet, url, nil, testAPIKey)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAdminRateLimit(t *testing.T) {
	cfg := defaultConfig()
	cfg.RateLimit.RPS = 1
	cfg.RateLimit.Burst = 2
	ts, _ := newTestServer(t, cfg)

	statuses := make(map[int]int)
	for i := 0; i < 5; i++ {
		resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/admin/appointments", nil, testAPIKey)
		statuses[resp.StatusCode]++
	}

	assert.Positive(t, statuses[http.StatusOK])
	assert.Positive(t, statuses[http.StatusTooManyRequests])
}
