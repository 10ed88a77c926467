package dayview

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SalonCalendar/internal/domain"
	"github.com/m04kA/SMC-SalonCalendar/internal/events"
	"github.com/m04kA/SMC-SalonCalendar/internal/service/dayloader"
	"github.com/m04kA/SMC-SalonCalendar/pkg/logger"
	"github.com/m04kA/SMC-SalonCalendar/pkg/types"
)

type fakeLoader struct {
	mu        sync.Mutex
	loads     []string
	reloads   int
	state     dayloader.State
	listeners map[int]func()
	nextID    int
	closed    bool
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{listeners: map[int]func(){}}
}

func (l *fakeLoader) Load(day types.Date) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loads = append(l.loads, day.Key())
	l.state = dayloader.State{Day: day, Loading: true}
}

func (l *fakeLoader) Reload() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reloads++
}

func (l *fakeLoader) State() dayloader.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *fakeLoader) Subscribe(listener func()) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	id := l.nextID
	l.listeners[id] = listener
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.listeners, id)
	}
}

func (l *fakeLoader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}

func (l *fakeLoader) setState(s dayloader.State) {
	l.mu.Lock()
	l.state = s
	listeners := make([]func(), 0, len(l.listeners))
	for _, fn := range l.listeners {
		listeners = append(listeners, fn)
	}
	l.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

func (l *fakeLoader) loadCalls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.loads...)
}

// spyEvents фиксирует подписки и позволяет отправить событие всем текущим подписчикам
type spyEvents struct {
	mu           sync.Mutex
	handlers     map[events.Type]map[int]events.Handler
	nextID       int
	subscribed   int
	unsubscribed int
}

func newSpyEvents() *spyEvents {
	return &spyEvents{handlers: map[events.Type]map[int]events.Handler{}}
}

func (s *spyEvents) Subscribe(t events.Type, handler events.Handler) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	if s.handlers[t] == nil {
		s.handlers[t] = map[int]events.Handler{}
	}
	s.handlers[t][id] = handler
	s.subscribed++

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.handlers[t][id]; ok {
			delete(s.handlers[t], id)
			s.unsubscribed++
		}
	}
}

func (s *spyEvents) dispatch(evt events.Event) {
	s.mu.Lock()
	handlers := make([]events.Handler, 0)
	for _, h := range s.handlers[evt.Type] {
		handlers = append(handlers, h)
	}
	s.mu.Unlock()

	for _, h := range handlers {
		h(evt)
	}
}

func (s *spyEvents) active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, hs := range s.handlers {
		n += len(hs)
	}
	return n
}

type fakeTimeProvider struct {
	now time.Time
}

func (f *fakeTimeProvider) Now() time.Time {
	return f.now
}

func datePtr(s string) *types.Date {
	d := types.MustParseDate(s)
	return &d
}

func newTestCoordinator(t *testing.T, start string) (*Coordinator, *fakeLoader, *spyEvents) {
	t.Helper()

	loc := time.FixedZone("BRT", -3*60*60)
	loader := newFakeLoader()
	bus := newSpyEvents()

	c, err := NewCoordinator(loader, bus, Options{
		Location:     loc,
		TimeProvider: &fakeTimeProvider{now: time.Date(2024, 3, 15, 22, 30, 0, 0, loc)},
	}, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, c.Mount(types.MustParseDate(start)))

	return c, loader, bus
}

func TestCoordinator_MountLoadsInitialDay(t *testing.T) {
	c, loader, bus := newTestCoordinator(t, "2024-03-09")

	assert.Equal(t, "2024-03-09", c.SelectedDate().Key())
	assert.Equal(t, []string{"2024-03-09"}, loader.loadCalls())
	assert.Equal(t, 4, bus.active())

	require.NoError(t, c.Mount(types.Date{}))
	assert.Equal(t, 4, bus.active(), "second mount does not subscribe again")
	assert.Len(t, loader.loadCalls(), 1)
}

func TestCoordinator_PreviousNextRoundTrip(t *testing.T) {
	days := []string{
		"2024-02-29", // високосный год
		"2024-02-28",
		"2023-12-31",
		"2024-01-01",
		"2024-03-10", // переход на летнее время в США
		"2024-11-03",
		"2018-11-04", // переход на летнее время в Сан-Паулу
	}

	for _, day := range days {
		t.Run(day, func(t *testing.T) {
			c, _, _ := newTestCoordinator(t, day)

			c.GoToPreviousDay()
			c.GoToNextDay()
			assert.Equal(t, day, c.SelectedDate().Key())

			c.GoToNextDay()
			c.GoToPreviousDay()
			assert.Equal(t, day, c.SelectedDate().Key())
		})
	}
}

func TestCoordinator_NavigationAcrossBoundaries(t *testing.T) {
	c, loader, _ := newTestCoordinator(t, "2024-02-28")

	c.GoToNextDay()
	assert.Equal(t, "2024-02-29", c.SelectedDate().Key())
	c.GoToNextDay()
	assert.Equal(t, "2024-03-01", c.SelectedDate().Key())

	c.SetSelectedDate(types.MustParseDate("2023-12-31"))
	c.GoToNextDay()
	assert.Equal(t, "2024-01-01", c.SelectedDate().Key())

	assert.Equal(t, []string{"2024-02-28", "2024-02-29", "2024-03-01", "2023-12-31", "2024-01-01"}, loader.loadCalls(),
		"each date change issues exactly one load")
}

func TestCoordinator_GoToToday(t *testing.T) {
	c, loader, _ := newTestCoordinator(t, "2020-01-01")

	c.GoToToday()
	// 22:30 в UTC-3 это уже 16-е в UTC, но локальный день 15-е
	assert.Equal(t, "2024-03-15", c.SelectedDate().Key())
	assert.True(t, c.View().IsToday)

	c.GoToToday()
	assert.Equal(t, []string{"2020-01-01", "2024-03-15"}, loader.loadCalls(), "same day does not reload")
}

func TestCoordinator_SetSelectedDateClosesDatePicker(t *testing.T) {
	c, _, _ := newTestCoordinator(t, "2024-03-09")

	c.OpenDatePicker()
	assert.True(t, c.View().ShowCalendar)

	c.SetSelectedDate(types.MustParseDate("2024-03-20"))
	view := c.View()
	assert.False(t, view.ShowCalendar)
	assert.Equal(t, domain.OverlayClosed, view.Overlay)
	assert.Equal(t, "2024-03-20", view.SelectedDate.Key())
}

func TestCoordinator_OpenEditAppointmentCoercesDuration(t *testing.T) {
	c, _, _ := newTestCoordinator(t, "2024-03-09")

	require.NoError(t, c.OpenEditAppointment(map[string]interface{}{
		"id":       "a1",
		"duration": "45",
	}))
	draft, ok := c.Overlay().Draft()
	require.True(t, ok)
	assert.Equal(t, 45, draft.Duration)
	assert.Equal(t, "2024-03-09", draft.Date)

	require.NoError(t, c.OpenEditAppointment(map[string]interface{}{"id": "a2"}))
	draft, ok = c.Overlay().Draft()
	require.True(t, ok)
	assert.Equal(t, 30, draft.Duration)
	assert.Equal(t, "scheduled", draft.Status)
	assert.Equal(t, []string{}, draft.Services)
}

type panickyStringer struct{}

func (panickyStringer) String() string { panic("broken record") }

func TestCoordinator_OpenEditAppointmentFailureKeepsOverlay(t *testing.T) {
	c, _, _ := newTestCoordinator(t, "2024-03-09")

	err := c.OpenEditAppointment(map[string]interface{}{"id": panickyStringer{}})
	require.ErrorIs(t, err, ErrDraftNormalization)

	view := c.View()
	assert.Equal(t, domain.OverlayClosed, view.Overlay)
	assert.Nil(t, view.Draft)
	assert.NotEmpty(t, view.Notification)

	c.OpenNewAppointment()
	assert.Empty(t, c.View().Notification)
}

func TestCoordinator_OpenNewAppointmentClearsDraft(t *testing.T) {
	c, _, _ := newTestCoordinator(t, "2024-03-09")

	require.NoError(t, c.OpenEditAppointment(map[string]interface{}{"id": "a1"}))
	c.OpenNewAppointment()

	view := c.View()
	assert.Equal(t, domain.OverlayCreate, view.Overlay)
	assert.True(t, view.ShowForm)
	assert.Nil(t, view.Draft)
}

func TestCoordinator_OpenEditAppointmentByID(t *testing.T) {
	c, loader, _ := newTestCoordinator(t, "2024-03-09")

	start, err := types.NewTimeStringFromString("10:00")
	require.NoError(t, err)
	loader.setState(dayloader.State{
		Day: types.MustParseDate("2024-03-09"),
		Appointments: []*domain.Appointment{{
			ID: "a1", Date: types.MustParseDate("2024-03-09"), Time: start, DurationMinutes: 60,
			Services: []string{"s1"}, Status: domain.StatusConfirmed, CustomTimes: map[string]string{},
		}},
	})

	require.NoError(t, c.OpenEditAppointmentByID("a1"))
	draft, ok := c.Overlay().Draft()
	require.True(t, ok)
	assert.Equal(t, "10:00", draft.Time)
	assert.Equal(t, 60, draft.Duration)
	assert.Equal(t, "confirmed", draft.Status)

	assert.ErrorIs(t, c.OpenEditAppointmentByID("missing"), ErrAppointmentNotFound)
}

func TestCoordinator_AppointmentSavedRetargetsDay(t *testing.T) {
	c, loader, bus := newTestCoordinator(t, "2024-03-09")

	c.OpenNewAppointment()
	bus.dispatch(events.Event{Type: events.TypeAppointmentCreated, Date: datePtr("2024-03-10")})

	view := c.View()
	assert.Equal(t, "2024-03-10", view.SelectedDate.Key())
	assert.False(t, view.ShowForm)
	assert.Equal(t, []string{"2024-03-09", "2024-03-10"}, loader.loadCalls())

	require.NoError(t, c.OpenEditAppointment(map[string]interface{}{"id": "a1"}))
	bus.dispatch(events.Event{Type: events.TypeAppointmentUpdated, Date: datePtr("2024-03-10")})

	view = c.View()
	assert.Equal(t, "2024-03-10", view.SelectedDate.Key())
	assert.False(t, view.ShowForm)
	assert.Nil(t, view.Draft)
	assert.Len(t, loader.loadCalls(), 2, "same day does not reload")
}

func TestCoordinator_AppointmentSavedWithoutDate(t *testing.T) {
	c, _, bus := newTestCoordinator(t, "2024-03-09")

	c.OpenNewAppointment()
	bus.dispatch(events.Event{Type: events.TypeAppointmentCreated})

	assert.Equal(t, "2024-03-09", c.SelectedDate().Key())
	assert.Equal(t, domain.OverlayClosed, c.Overlay().Kind())
}

func TestCoordinator_AppointmentSavedKeepsProductSale(t *testing.T) {
	c, _, bus := newTestCoordinator(t, "2024-03-09")

	c.OpenProductSale()
	bus.dispatch(events.Event{Type: events.TypeAppointmentUpdated})

	assert.Equal(t, domain.OverlayProductSale, c.Overlay().Kind())
}

func TestCoordinator_OpenEventsFromHeader(t *testing.T) {
	c, _, bus := newTestCoordinator(t, "2024-03-09")

	bus.dispatch(events.Event{Type: events.TypeOpenProductSale})
	assert.True(t, c.View().ShowProductSaleModal)

	c.CloseProductSaleModal()
	assert.Equal(t, domain.OverlayClosed, c.Overlay().Kind())

	bus.dispatch(events.Event{Type: events.TypeOpenNewAppointment})
	assert.Equal(t, domain.OverlayCreate, c.Overlay().Kind())

	c.CloseProductSaleModal()
	assert.Equal(t, domain.OverlayCreate, c.Overlay().Kind(), "closing another overlay leaves the form open")

	c.CloseAppointmentModal()
	assert.Equal(t, domain.OverlayClosed, c.Overlay().Kind())
	assert.Equal(t, "2024-03-09", c.SelectedDate().Key())
}

func TestCoordinator_Swipe(t *testing.T) {
	tests := []struct {
		name   string
		startX float64
		endX   float64
		want   string
	}{
		{name: "below threshold", startX: 200, endX: 160, want: "2024-03-09"},
		{name: "exactly threshold", startX: 200, endX: 100, want: "2024-03-09"},
		{name: "left advances", startX: 300, endX: 150, want: "2024-03-10"},
		{name: "right recedes", startX: 150, endX: 300, want: "2024-03-08"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := newTestCoordinator(t, "2024-03-09")
			c.Swipe(tt.startX, tt.endX)
			assert.Equal(t, tt.want, c.SelectedDate().Key())
		})
	}
}

func TestCoordinator_TouchEndWithoutStart(t *testing.T) {
	c, _, _ := newTestCoordinator(t, "2024-03-09")

	c.TouchEnd(500)
	assert.Equal(t, "2024-03-09", c.SelectedDate().Key())

	c.TouchStart(500)
	c.TouchEnd(100)
	c.TouchEnd(-300)
	assert.Equal(t, "2024-03-10", c.SelectedDate().Key(), "one start counts once")
}

func TestCoordinator_ViewPassesLoaderStateThrough(t *testing.T) {
	c, loader, _ := newTestCoordinator(t, "2024-03-09")

	loader.setState(dayloader.State{
		Day:   types.MustParseDate("2024-03-09"),
		Error: "appointment.repository: failed to execute query: connection refused",
	})

	view := c.View()
	assert.False(t, view.Loading)
	assert.Equal(t, "appointment.repository: failed to execute query: connection refused", view.Error)
	assert.Empty(t, view.Appointments)
	assert.Equal(t, "Sábado, 9 de março de 2024", view.Label)
	assert.Len(t, view.Slots, 24)

	c.Retry()
	loader.mu.Lock()
	assert.Equal(t, 1, loader.reloads)
	loader.mu.Unlock()
}

func TestCoordinator_SubscribeSignalsChanges(t *testing.T) {
	c, loader, _ := newTestCoordinator(t, "2024-03-09")

	ch, unsubscribe, err := c.Subscribe()
	require.NoError(t, err)
	defer unsubscribe()

	c.GoToNextDay()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no signal after navigation")
	}

	loader.setState(dayloader.State{Day: types.MustParseDate("2024-03-10")})
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no signal after loader change")
	}
}

func TestCoordinator_CloseRemovesEveryListener(t *testing.T) {
	c, loader, bus := newTestCoordinator(t, "2024-03-09")

	ch, _, err := c.Subscribe()
	require.NoError(t, err)

	c.Close()

	assert.Equal(t, 0, bus.active())
	assert.Equal(t, bus.subscribed, bus.unsubscribed)
	loader.mu.Lock()
	assert.Empty(t, loader.listeners)
	assert.True(t, loader.closed)
	loader.mu.Unlock()

	_, open := <-ch
	assert.False(t, open, "watchers are closed")

	bus.dispatch(events.Event{Type: events.TypeAppointmentCreated, Date: datePtr("2024-03-10")})
	c.GoToNextDay()
	c.OpenNewAppointment()
	c.Swipe(300, 0)

	assert.Equal(t, "2024-03-09", c.SelectedDate().Key())
	assert.Equal(t, domain.OverlayClosed, c.Overlay().Kind())
	assert.Equal(t, []string{"2024-03-09"}, loader.loadCalls())

	assert.ErrorIs(t, c.Mount(types.Date{}), ErrClosed)
	_, _, err = c.Subscribe()
	assert.ErrorIs(t, err, ErrClosed)
	assert.True(t, c.Closed())
}

func TestCoordinator_StaleHandlerAfterClose(t *testing.T) {
	c, _, bus := newTestCoordinator(t, "2024-03-09")

	// обработчик, снятый из шины уже после того, как она сделала снимок подписчиков
	bus.mu.Lock()
	var saved events.Handler
	for _, h := range bus.handlers[events.TypeAppointmentCreated] {
		saved = h
	}
	bus.mu.Unlock()
	require.NotNil(t, saved)

	c.Close()
	saved(events.Event{Type: events.TypeAppointmentCreated, Date: datePtr("2024-03-12")})

	assert.Equal(t, "2024-03-09", c.SelectedDate().Key())
}

func TestNewCoordinator_InvalidOptions(t *testing.T) {
	_, err := NewCoordinator(newFakeLoader(), newSpyEvents(), Options{Locale: "fr-FR"}, logger.Nop())
	assert.ErrorIs(t, err, ErrInvalidOptions)

	open, _ := types.NewTimeStringFromString("18:00")
	closeTime, _ := types.NewTimeStringFromString("09:00")
	_, err = NewCoordinator(newFakeLoader(), newSpyEvents(), Options{OpenTime: open, CloseTime: closeTime}, logger.Nop())
	assert.ErrorIs(t, err, ErrInvalidOptions)
}
