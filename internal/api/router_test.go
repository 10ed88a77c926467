package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SalonCalendar/internal/api/handlers"
	"github.com/m04kA/SMC-SalonCalendar/internal/domain"
	"github.com/m04kA/SMC-SalonCalendar/internal/events"
	"github.com/m04kA/SMC-SalonCalendar/internal/service/sessions"
	"github.com/m04kA/SMC-SalonCalendar/internal/usecase/dayview"
	"github.com/m04kA/SMC-SalonCalendar/pkg/logger"
	"github.com/m04kA/SMC-SalonCalendar/pkg/types"
)

type stubAppointments struct {
	mu    sync.Mutex
	byDay map[string][]*domain.Appointment
}

func (s *stubAppointments) Fetch(ctx context.Context, day types.Date) ([]*domain.Appointment, error) {
	return s.GetByDate(ctx, day)
}

func (s *stubAppointments) GetByDate(_ context.Context, day types.Date) ([]*domain.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := s.byDay[day.Key()]
	if result == nil {
		return []*domain.Appointment{}, nil
	}
	return result, nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

type testServer struct {
	router   http.Handler
	registry *sessions.Registry
	bus      *events.Bus
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	repo := &stubAppointments{byDay: map[string][]*domain.Appointment{
		"2024-03-09": {
			{
				ID:               "a1",
				ClientName:       "Ana",
				ProfessionalName: "Carla",
				Date:             types.MustParseDate("2024-03-09"),
				Time:             mustTime(t, "10:00"),
				DurationMinutes:  60,
				Services:         []string{"corte"},
				Status:           domain.StatusScheduled,
			},
		},
	}}

	bus := events.NewBus(nil)
	opts := dayview.Options{
		Location:     time.UTC,
		TimeProvider: fixedClock{now: time.Date(2024, 3, 9, 9, 0, 0, 0, time.UTC)},
	}
	registry := sessions.NewRegistry(repo, bus, opts, 0, nil, logger.Nop())
	t.Cleanup(registry.CloseAll)

	router := NewRouter(Dependencies{
		Sessions:     registry,
		Events:       bus,
		Appointments: repo,
		Logger:       logger.Nop(),
	})

	return &testServer{router: router, registry: registry, bus: bus}
}

func mustTime(t *testing.T, s string) types.TimeString {
	t.Helper()
	ts, err := types.NewTimeStringFromString(s)
	require.NoError(t, err)
	return ts
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) handlers.DayViewResponse {
	t.Helper()
	var view handlers.DayViewResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	return view
}

// createSession открывает сессию и ждет окончания первой загрузки
func (s *testServer) createSession(t *testing.T, date string) string {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/api/v1/day-views", map[string]string{"date": date})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeView(t, rec).SessionID
	require.NotEmpty(t, id)

	s.waitLoaded(t, id)
	return id
}

func (s *testServer) waitLoaded(t *testing.T, id string) handlers.DayViewResponse {
	t.Helper()

	var view handlers.DayViewResponse
	require.Eventually(t, func() bool {
		rec := s.do(t, http.MethodGet, "/api/v1/day-views/"+id, nil)
		if rec.Code != http.StatusOK {
			return false
		}
		view = decodeView(t, rec)
		return !view.Loading
	}, time.Second, 5*time.Millisecond)
	return view
}

func TestRouter_CreateGetClose(t *testing.T) {
	s := newTestServer(t)

	id := s.createSession(t, "2024-03-09")

	view := s.waitLoaded(t, id)
	assert.Equal(t, "2024-03-09", view.SelectedDate)
	assert.Equal(t, "Sábado, 9 de março de 2024", view.Label)
	assert.True(t, view.IsToday)
	assert.Equal(t, string(domain.OverlayClosed), view.Overlay)
	assert.Nil(t, view.Error)
	require.Len(t, view.Appointments, 1)
	assert.Equal(t, "a1", view.Appointments[0].ID)
	assert.Equal(t, "11:00", view.Appointments[0].EndTime)
	assert.NotEmpty(t, view.Slots)

	rec := s.do(t, http.MethodDelete, "/api/v1/day-views/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/day-views/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/v1/day-views/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_CreateValidation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/day-views", map[string]string{"date": "09/03/2024"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/day-views", strings.NewReader("{"))
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// пустое тело открывает сегодняшний день
	req = httptest.NewRequest(http.MethodPost, "/api/v1/day-views", nil)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "2024-03-09", decodeView(t, rec).SelectedDate)
}

func TestRouter_Navigation(t *testing.T) {
	s := newTestServer(t)
	id := s.createSession(t, "2024-03-09")
	path := "/api/v1/day-views/" + id + "/navigation"

	tests := []struct {
		name     string
		body     map[string]string
		wantCode int
		wantDay  string
	}{
		{name: "next", body: map[string]string{"action": "next"}, wantCode: http.StatusOK, wantDay: "2024-03-10"},
		{name: "previous", body: map[string]string{"action": "previous"}, wantCode: http.StatusOK, wantDay: "2024-03-09"},
		{name: "date", body: map[string]string{"action": "date", "date": "2024-02-29"}, wantCode: http.StatusOK, wantDay: "2024-02-29"},
		{name: "today", body: map[string]string{"action": "today"}, wantCode: http.StatusOK, wantDay: "2024-03-09"},
		{name: "retry", body: map[string]string{"action": "retry"}, wantCode: http.StatusOK, wantDay: "2024-03-09"},
		{name: "invalid date", body: map[string]string{"action": "date", "date": "nope"}, wantCode: http.StatusBadRequest},
		{name: "unknown action", body: map[string]string{"action": "jump"}, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, path, tt.body)
			require.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, tt.wantDay, decodeView(t, rec).SelectedDate)
			}
		})
	}

	rec := s.do(t, http.MethodPost, "/api/v1/day-views/missing/navigation", map[string]string{"action": "next"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_Swipe(t *testing.T) {
	s := newTestServer(t)
	id := s.createSession(t, "2024-03-09")
	path := "/api/v1/day-views/" + id + "/swipe"

	rec := s.do(t, http.MethodPost, path, map[string]float64{"startX": 300, "endX": 150})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-03-10", decodeView(t, rec).SelectedDate)

	rec = s.do(t, http.MethodPost, path, map[string]float64{"startX": 100, "endX": 200})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-03-10", decodeView(t, rec).SelectedDate, "exactly the threshold is ignored")

	rec = s.do(t, http.MethodPost, path, map[string]float64{"startX": 100})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Overlay(t *testing.T) {
	s := newTestServer(t)
	id := s.createSession(t, "2024-03-09")
	path := "/api/v1/day-views/" + id + "/overlay"

	rec := s.do(t, http.MethodPost, path, map[string]interface{}{"action": "new"})
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeView(t, rec)
	assert.Equal(t, string(domain.OverlayCreate), view.Overlay)
	assert.True(t, view.ShowForm)
	assert.Nil(t, view.Draft)

	rec = s.do(t, http.MethodPost, path, map[string]interface{}{"action": "edit", "appointmentId": "a1"})
	require.Equal(t, http.StatusOK, rec.Code)
	view = decodeView(t, rec)
	assert.Equal(t, string(domain.OverlayEdit), view.Overlay)
	require.NotNil(t, view.Draft)
	assert.Equal(t, "a1", view.Draft.ID)
	assert.Equal(t, 60, view.Draft.Duration)

	rec = s.do(t, http.MethodPost, path, map[string]interface{}{
		"action":      "edit",
		"appointment": map[string]interface{}{"id": "x9", "duration": "45"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	view = decodeView(t, rec)
	require.NotNil(t, view.Draft)
	assert.Equal(t, 45, view.Draft.Duration)
	assert.Equal(t, "2024-03-09", view.Draft.Date)

	rec = s.do(t, http.MethodPost, path, map[string]interface{}{"action": "close_product_sale"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(domain.OverlayEdit), decodeView(t, rec).Overlay, "closing another overlay is a no-op")

	rec = s.do(t, http.MethodPost, path, map[string]interface{}{"action": "close_form"})
	require.Equal(t, http.StatusOK, rec.Code)
	view = decodeView(t, rec)
	assert.Equal(t, string(domain.OverlayClosed), view.Overlay)
	assert.Nil(t, view.Draft)

	rec = s.do(t, http.MethodPost, path, map[string]interface{}{"action": "edit"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, path, map[string]interface{}{"action": "edit", "appointmentId": "zzz"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, path, map[string]interface{}{"action": "explode"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_PublishEvent(t *testing.T) {
	s := newTestServer(t)
	id := s.createSession(t, "2024-03-09")

	rec := s.do(t, http.MethodPost, "/api/v1/day-views/"+id+"/overlay", map[string]interface{}{"action": "new"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/events", map[string]interface{}{
		"type":   "appointmentCreated",
		"detail": map[string]string{"date": "2024-03-12"},
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	view := s.waitLoaded(t, id)
	assert.Equal(t, "2024-03-12", view.SelectedDate)
	assert.Equal(t, string(domain.OverlayClosed), view.Overlay)
	assert.Empty(t, view.Appointments)

	rec = s.do(t, http.MethodPost, "/api/v1/events", map[string]interface{}{"type": "openProductSale"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, s.waitLoaded(t, id).ShowProductSaleModal)

	rec = s.do(t, http.MethodPost, "/api/v1/events", map[string]interface{}{"type": "somethingElse"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/events", map[string]interface{}{
		"type":   "appointmentUpdated",
		"detail": map[string]string{"date": "12/03/2024"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_GetAppointments(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/appointments?date=2024-03-09", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var appointments []handlers.AppointmentResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&appointments))
	require.Len(t, appointments, 1)
	assert.Equal(t, "Ana", appointments[0].ClientName)
	assert.Equal(t, "10:00", appointments[0].Time)

	rec = s.do(t, http.MethodGet, "/api/v1/appointments", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/appointments?date=2024-13-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Stream(t *testing.T) {
	s := newTestServer(t)
	id := s.createSession(t, "2024-03-09")

	srv := httptest.NewServer(s.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/day-views/" + id + "/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var first handlers.DayViewResponse
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, id, first.SessionID)
	assert.Equal(t, "2024-03-09", first.SelectedDate)

	rec := s.do(t, http.MethodPost, "/api/v1/day-views/"+id+"/navigation", map[string]string{"action": "next"})
	require.Equal(t, http.StatusOK, rec.Code)

	// изменения могут схлопываться, ждем снимок нового дня
	for {
		var next handlers.DayViewResponse
		require.NoError(t, conn.ReadJSON(&next))
		if next.SelectedDate == "2024-03-10" {
			break
		}
	}

	session, err := s.registry.Get(id)
	require.NoError(t, err)
	require.NoError(t, s.registry.Close(id))
	assert.True(t, session.View.Closed())

	// после закрытия сессии сервер закрывает соединение нормально
	for {
		var msg handlers.DayViewResponse
		err = conn.ReadJSON(&msg)
		if err != nil {
			break
		}
	}
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestRouter_StreamUnknownSession(t *testing.T) {
	s := newTestServer(t)

	srv := httptest.NewServer(s.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/day-views/missing/stream"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
