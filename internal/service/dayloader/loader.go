package dayloader

import (
	"context"
	"sync"

	"github.com/m04kA/SMC-SalonCalendar/internal/domain"
	"github.com/m04kA/SMC-SalonCalendar/pkg/types"
)

// Результаты загрузки для метрик
const (
	resultOK    = "ok"
	resultError = "error"
	resultStale = "stale"
)

// State снимок состояния загрузчика
type State struct {
	Day          types.Date
	Appointments []*domain.Appointment
	Loading      bool
	Error        string // текст ошибки источника как есть, пусто если ошибки нет
}

// Loader загрузчик записей одного дня для одной сессии.
// Хранит в памяти записи только текущего дня. Каждый запрос помечается порядковым номером,
// и в состояние попадает только ответ на последний запрос: ответы на устаревшие дни отбрасываются.
type Loader struct {
	fetcher   Fetcher
	collector Collector
	logger    Logger

	mu         sync.Mutex
	state      State
	seq        uint64
	hasRequest bool
	cancel     context.CancelFunc
	closed     bool

	listenersMu  sync.Mutex
	listeners    map[uint64]func()
	nextListener uint64

	wg sync.WaitGroup
}

// NewLoader создает загрузчик; collector может быть nil
func NewLoader(fetcher Fetcher, collector Collector, logger Logger) *Loader {
	return &Loader{
		fetcher:   fetcher,
		collector: collector,
		logger:    logger,
		listeners: make(map[uint64]func()),
	}
}

// Load запрашивает записи дня асинхронно.
// Повторный вызов для дня, который уже загружается или загружен без ошибки, ничего не делает.
// Запрос другого дня отменяет незавершенный запрос.
func (l *Loader) Load(day types.Date) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	if l.hasRequest && l.state.Day.Equal(day) && (l.state.Loading || l.state.Error == "") {
		l.mu.Unlock()
		return
	}
	l.startLocked(day)
	l.mu.Unlock()

	l.notify()
}

// Reload повторно запрашивает текущий день, даже если он уже загружен
func (l *Loader) Reload() {
	l.mu.Lock()
	if l.closed || !l.hasRequest {
		l.mu.Unlock()
		return
	}
	l.startLocked(l.state.Day)
	l.mu.Unlock()

	l.notify()
}

// Refresh перечитывает day, если это текущий день и запрос по нему сейчас не выполняется.
// Используется после сохранения записи формой, чтобы кэш текущего дня не устаревал.
func (l *Loader) Refresh(day types.Date) {
	l.mu.Lock()
	if l.closed || !l.hasRequest || !l.state.Day.Equal(day) || l.state.Loading {
		l.mu.Unlock()
		return
	}
	l.startLocked(day)
	l.mu.Unlock()

	l.notify()
}

// State возвращает снимок состояния. Записи общие с другими сессиями, их нельзя менять.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.state
	if s.Appointments != nil {
		s.Appointments = append([]*domain.Appointment(nil), s.Appointments...)
	}
	return s
}

// Subscribe регистрирует listener, вызываемый после каждого изменения состояния.
// Listener вызывается без удержания блокировок загрузчика.
func (l *Loader) Subscribe(listener func()) (unsubscribe func()) {
	l.listenersMu.Lock()
	l.nextListener++
	id := l.nextListener
	l.listeners[id] = listener
	l.listenersMu.Unlock()

	return func() {
		l.listenersMu.Lock()
		delete(l.listeners, id)
		l.listenersMu.Unlock()
	}
}

// Wait ждет завершения всех запущенных запросов
func (l *Loader) Wait() {
	l.wg.Wait()
}

// Close отменяет незавершенный запрос и ждет его окончания. После Close загрузчик ничего не делает.
func (l *Loader) Close() {
	l.mu.Lock()
	l.closed = true
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.mu.Unlock()

	l.wg.Wait()

	l.listenersMu.Lock()
	l.listeners = make(map[uint64]func())
	l.listenersMu.Unlock()
}

func (l *Loader) startLocked(day types.Date) {
	if l.cancel != nil {
		l.cancel()
	}

	l.seq++
	seq := l.seq
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.hasRequest = true

	if !l.state.Day.Equal(day) {
		l.state.Appointments = nil
	}
	l.state.Day = day
	l.state.Loading = true
	l.state.Error = ""

	l.wg.Add(1)
	go l.run(ctx, cancel, seq, day)
}

func (l *Loader) run(ctx context.Context, cancel context.CancelFunc, seq uint64, day types.Date) {
	defer l.wg.Done()
	defer cancel()

	appointments, err := l.fetcher.Fetch(ctx, day)

	l.mu.Lock()
	if l.closed || seq != l.seq {
		l.mu.Unlock()
		l.logger.Info("Load: discarded stale response for day=%s (request #%d)", day.Key(), seq)
		l.observe(resultStale)
		return
	}

	l.cancel = nil
	l.state.Loading = false
	if err != nil {
		l.state.Appointments = nil
		l.state.Error = err.Error()
	} else {
		l.state.Appointments = appointments
		l.state.Error = ""
	}
	l.mu.Unlock()

	if err != nil {
		l.logger.Warn("Load: failed to load day=%s: %v", day.Key(), err)
		l.observe(resultError)
	} else {
		l.logger.Info("Load: loaded %d appointments for day=%s", len(appointments), day.Key())
		l.observe(resultOK)
	}

	l.notify()
}

func (l *Loader) observe(result string) {
	if l.collector != nil {
		l.collector.IncDayLoad(result)
	}
}

func (l *Loader) notify() {
	l.listenersMu.Lock()
	listeners := make([]func(), 0, len(l.listeners))
	for _, fn := range l.listeners {
		listeners = append(listeners, fn)
	}
	l.listenersMu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}
