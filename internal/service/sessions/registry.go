package sessions

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-SalonCalendar/internal/events"
	"github.com/m04kA/SMC-SalonCalendar/internal/service/dayloader"
	"github.com/m04kA/SMC-SalonCalendar/internal/usecase/dayview"
	"github.com/m04kA/SMC-SalonCalendar/pkg/types"
)

// Session дневное представление одного клиента (вкладка браузера, киоск)
type Session struct {
	ID        string
	View      *dayview.Coordinator
	CreatedAt time.Time

	lastSeen  atomic.Int64 // unix nano
	streams   atomic.Int32
	teardowns []func()
}

// LastSeen время последнего обращения к сессии
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// AttachStream отмечает подключенный поток; сессия с потоком не считается простаивающей.
// Возвращает функцию отключения.
func (s *Session) AttachStream() (detach func()) {
	s.streams.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() { s.streams.Add(-1) })
	}
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

// Registry реестр сессий дневного представления
type Registry struct {
	fetcher      dayloader.Fetcher
	bus          EventBus
	opts         dayview.Options
	idleTimeout  time.Duration
	collector    Collector
	timeProvider TimeProvider
	logger       Logger

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

// NewRegistry создает реестр. idleTimeout = 0 отключает закрытие простаивающих сессий.
// collector может быть nil.
func NewRegistry(
	fetcher dayloader.Fetcher,
	bus EventBus,
	opts dayview.Options,
	idleTimeout time.Duration,
	collector Collector,
	logger Logger,
) *Registry {
	return &Registry{
		fetcher:      fetcher,
		bus:          bus,
		opts:         opts,
		idleTimeout:  idleTimeout,
		collector:    collector,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
		sessions:     make(map[string]*Session),
	}
}

// Create открывает новую сессию на дне initial (нулевой initial = сегодня)
func (r *Registry) Create(initial types.Date) (*Session, error) {
	loader := dayloader.NewLoader(r.fetcher, r.collector, r.logger)

	view, err := dayview.NewCoordinator(loader, r.bus, r.opts, r.logger)
	if err != nil {
		r.logger.Error("Create: failed to create day view: %v", err)
		return nil, fmt.Errorf("%w: Create - new coordinator: %v", ErrInternal, err)
	}

	if err := view.Mount(initial); err != nil {
		view.Close()
		r.logger.Error("Create: failed to mount day view: %v", err)
		return nil, fmt.Errorf("%w: Create - mount: %v", ErrInternal, err)
	}

	now := r.timeProvider.Now()
	session := &Session{
		ID:        uuid.NewString(),
		View:      view,
		CreatedAt: now,
	}
	session.touch(now)

	// Подписка после Mount: представление успевает перейти на день сохраненной записи, и тогда
	// обновление не нужно (загрузка уже идет). Если день тот же, кэш дня перечитывается.
	refresh := func(evt events.Event) {
		if evt.Date != nil && !evt.Date.IsZero() {
			loader.Refresh(*evt.Date)
		}
	}
	session.teardowns = []func(){
		r.bus.Subscribe(events.TypeAppointmentCreated, refresh),
		r.bus.Subscribe(events.TypeAppointmentUpdated, refresh),
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.teardown(session)
		return nil, fmt.Errorf("%w: Create - registry is closed", ErrInternal)
	}
	r.sessions[session.ID] = session
	count := len(r.sessions)
	r.mu.Unlock()

	r.observe(count)
	r.logger.Info("Create: session id=%s opened on day=%s", session.ID, view.SelectedDate().Key())
	return session, nil
}

// Get возвращает сессию и отмечает обращение к ней
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	session, ok := r.sessions[id]
	r.mu.Unlock()

	if !ok {
		return nil, ErrSessionNotFound
	}

	session.touch(r.timeProvider.Now())
	return session, nil
}

// Close закрывает сессию: снимает подписки представления и отменяет загрузку
func (r *Registry) Close(id string) error {
	session := r.remove(id)
	if session == nil {
		return ErrSessionNotFound
	}

	r.teardown(session)
	r.logger.Info("Close: session id=%s closed", id)
	return nil
}

// CloseAll закрывает все сессии; после него Create возвращает ошибку
func (r *Registry) CloseAll() {
	r.mu.Lock()
	r.closed = true
	sessions := make([]*Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		sessions = append(sessions, s)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		r.teardown(s)
	}
	r.observe(0)

	r.logger.Info("CloseAll: closed %d sessions", len(sessions))
}

// SweepIdle закрывает сессии без подключенного потока, к которым не обращались дольше idleTimeout.
// Возвращает количество закрытых сессий.
func (r *Registry) SweepIdle(now time.Time) int {
	if r.idleTimeout <= 0 {
		return 0
	}

	r.mu.Lock()
	idle := make([]*Session, 0)
	for id, s := range r.sessions {
		if s.streams.Load() > 0 {
			continue
		}
		if now.Sub(s.LastSeen()) > r.idleTimeout {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	count := len(r.sessions)
	r.mu.Unlock()

	for _, s := range idle {
		r.teardown(s)
		r.logger.Info("SweepIdle: session id=%s closed after %s idle", s.ID, now.Sub(s.LastSeen()).Round(time.Second))
	}
	if len(idle) > 0 {
		r.observe(count)
	}

	return len(idle)
}

// Len количество открытых сессий
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) remove(id string) *Session {
	r.mu.Lock()
	session, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	count := len(r.sessions)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	r.observe(count)
	return session
}

func (r *Registry) teardown(s *Session) {
	for _, fn := range s.teardowns {
		fn()
	}
	s.View.Close()
}

func (r *Registry) observe(count int) {
	if r.collector != nil {
		r.collector.SetActiveSessions(count)
	}
}
