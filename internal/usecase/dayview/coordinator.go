package dayview

import (
	"fmt"
	"math"
	"sync"

	"github.com/m04kA/SMC-SalonCalendar/internal/domain"
	"github.com/m04kA/SMC-SalonCalendar/internal/events"
	"github.com/m04kA/SMC-SalonCalendar/pkg/types"
)

// Coordinator дневное представление записей: выбранный день, открытое окно и жест свайпа.
// Единственный владелец выбранной даты и окон, все изменения идут через его методы.
// Каждое изменение выбранной даты запрашивает у загрузчика ровно один Load.
type Coordinator struct {
	loader Loader
	events EventSource
	opts   Options
	logger Logger

	mu            sync.Mutex
	selected      types.Date
	overlay       domain.Overlay
	touchStartX   float64
	touching      bool
	notification  string
	mounted       bool
	closed        bool
	unsubscribers []func()

	watchersMu  sync.Mutex
	watchers    map[uint64]chan struct{}
	nextWatcher uint64
}

// NewCoordinator создает представление. До Mount оно не слушает события и не загружает данные.
func NewCoordinator(loader Loader, eventSource EventSource, opts Options, logger Logger) (*Coordinator, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	c := &Coordinator{
		loader:   loader,
		events:   eventSource,
		opts:     opts,
		logger:   logger,
		watchers: make(map[uint64]chan struct{}),
	}
	c.selected = c.today()
	return c, nil
}

// Mount подписывается на события приложения и загрузчик и запрашивает записи начального дня.
// Нулевой initial оставляет текущий выбранный день (после создания это сегодня). Повторный Mount ничего не делает.
func (c *Coordinator) Mount(initial types.Date) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.mounted {
		return nil
	}
	c.mounted = true

	if !initial.IsZero() {
		c.selected = initial
	}

	c.unsubscribers = append(c.unsubscribers,
		c.loader.Subscribe(c.notify),
		c.events.Subscribe(events.TypeAppointmentCreated, c.onAppointmentSaved),
		c.events.Subscribe(events.TypeAppointmentUpdated, c.onAppointmentSaved),
		c.events.Subscribe(events.TypeOpenNewAppointment, c.onOpenNewAppointment),
		c.events.Subscribe(events.TypeOpenProductSale, c.onOpenProductSale),
	)

	c.logger.Info("Mount: day view mounted on day=%s", c.selected.Key())
	c.loader.Load(c.selected)
	c.notify()
	return nil
}

// Close снимает все подписки, сбрасывает отслеживание жеста, закрывает загрузчик и каналы Subscribe.
// После Close события и операции не меняют состояние.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.touching = false
	unsubscribers := c.unsubscribers
	c.unsubscribers = nil
	c.mu.Unlock()

	for _, unsubscribe := range unsubscribers {
		unsubscribe()
	}
	c.loader.Close()

	c.watchersMu.Lock()
	for id, ch := range c.watchers {
		close(ch)
		delete(c.watchers, id)
	}
	c.watchersMu.Unlock()

	c.logger.Info("Close: day view unmounted")
}

// SetSelectedDate выбирает день и закрывает выбор даты
func (c *Coordinator) SetSelectedDate(day types.Date) {
	c.update(func() {
		if c.overlay.Kind() == domain.OverlayDatePicker {
			c.overlay = domain.ClosedOverlay()
		}
		c.selectLocked(day)
	})
}

// GoToPreviousDay сдвигает выбранный день на один календарный день назад
func (c *Coordinator) GoToPreviousDay() {
	c.update(func() {
		c.selectLocked(c.selected.AddDays(-1))
	})
}

// GoToNextDay сдвигает выбранный день на один календарный день вперед
func (c *Coordinator) GoToNextDay() {
	c.update(func() {
		c.selectLocked(c.selected.AddDays(1))
	})
}

// GoToToday выбирает текущий день в зоне салона
func (c *Coordinator) GoToToday() {
	c.update(func() {
		c.selectLocked(c.today())
	})
}

// OpenNewAppointment открывает форму в режиме создания, черновик редактирования сбрасывается
func (c *Coordinator) OpenNewAppointment() {
	c.update(func() {
		c.overlay = domain.CreateOverlay()
		c.notification = ""
	})
}

// OpenEditAppointment собирает черновик из записи и открывает форму в режиме редактирования.
// Если черновик собрать не удалось, окно не меняется, а в представлении появляется уведомление.
func (c *Coordinator) OpenEditAppointment(raw map[string]interface{}) error {
	var result error

	c.update(func() {
		draft, err := BuildDraft(raw, c.selected.Key())
		if err != nil {
			c.logger.Error("OpenEditAppointment: failed to build draft: %v", err)
			c.notification = msgDraftFailed
			result = err
			return
		}

		c.overlay = domain.EditOverlay(draft)
		c.notification = ""
		c.logger.Info("OpenEditAppointment: editing appointment id=%s", draft.ID)
	})

	return result
}

// OpenEditAppointmentByID открывает на редактирование запись выбранного дня по её ID
func (c *Coordinator) OpenEditAppointmentByID(id string) error {
	state := c.loader.State()

	for _, a := range state.Appointments {
		if a.ID == id {
			return c.OpenEditAppointment(a.Record())
		}
	}

	c.logger.Warn("OpenEditAppointmentByID: appointment id=%s not loaded for day=%s", id, state.Day.Key())
	return fmt.Errorf("%w: id=%s", ErrAppointmentNotFound, id)
}

// OpenProductSale открывает окно продажи товара
func (c *Coordinator) OpenProductSale() {
	c.update(func() {
		c.overlay = domain.ProductSaleOverlay()
		c.notification = ""
	})
}

// OpenDatePicker открывает выбор даты
func (c *Coordinator) OpenDatePicker() {
	c.update(func() {
		c.overlay = domain.DatePickerOverlay()
	})
}

// CloseDatePicker закрывает выбор даты, если он открыт
func (c *Coordinator) CloseDatePicker() {
	c.closeOverlay(domain.OverlayDatePicker)
}

// CloseAppointmentModal закрывает форму записи и сбрасывает черновик; выбранный день не меняется
func (c *Coordinator) CloseAppointmentModal() {
	c.closeOverlay(domain.OverlayCreate, domain.OverlayEdit)
}

// CloseProductSaleModal закрывает окно продажи товара
func (c *Coordinator) CloseProductSaleModal() {
	c.closeOverlay(domain.OverlayProductSale)
}

// DismissNotification убирает уведомление пользователя
func (c *Coordinator) DismissNotification() {
	c.update(func() {
		c.notification = ""
	})
}

// TouchStart запоминает горизонтальную координату начала касания
func (c *Coordinator) TouchStart(x float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.touchStartX = x
	c.touching = true
}

// TouchEnd завершает жест. Смещение больше порога влево листает на следующий день, вправо на предыдущий.
// Без начала касания или при смещении не больше порога ничего не происходит.
func (c *Coordinator) TouchEnd(x float64) {
	c.update(func() {
		if !c.touching {
			return
		}
		c.touching = false

		delta := x - c.touchStartX
		if math.Abs(delta) <= c.opts.SwipeThresholdPx {
			return
		}

		if delta < 0 {
			c.selectLocked(c.selected.AddDays(1))
		} else {
			c.selectLocked(c.selected.AddDays(-1))
		}
	})
}

// Swipe обрабатывает жест целиком
func (c *Coordinator) Swipe(startX, endX float64) {
	c.TouchStart(startX)
	c.TouchEnd(endX)
}

// Retry повторяет загрузку выбранного дня
func (c *Coordinator) Retry() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.logger.Info("Retry: reloading day=%s", c.selected.Key())
	c.loader.Reload()
}

// SelectedDate возвращает выбранный день
func (c *Coordinator) SelectedDate() types.Date {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// Overlay возвращает открытое окно
func (c *Coordinator) Overlay() domain.Overlay {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.overlay
}

// View возвращает снимок представления
func (c *Coordinator) View() View {
	c.mu.Lock()
	selected := c.selected
	overlay := c.overlay
	notification := c.notification
	c.mu.Unlock()

	state := c.loader.State()

	view := View{
		SelectedDate:         selected,
		Label:                formatDayLabel(selected, c.opts.Locale),
		IsToday:              selected.Equal(c.today()),
		Overlay:              overlay.Kind(),
		ShowForm:             overlay.ShowForm(),
		ShowProductSaleModal: overlay.ShowProductSaleModal(),
		ShowCalendar:         overlay.ShowCalendar(),
		Notification:         notification,
	}

	if draft, ok := overlay.Draft(); ok {
		view.Draft = &draft
	}

	if state.Day.Equal(selected) {
		view.Appointments = state.Appointments
		view.Loading = state.Loading
		view.Error = state.Error
	} else {
		view.Loading = true
	}
	if view.Appointments == nil {
		view.Appointments = []*domain.Appointment{}
	}

	view.Slots = buildSlots(c.opts.OpenTime, c.opts.CloseTime, c.opts.SlotStepMinutes, view.Appointments)

	return view
}

// Subscribe возвращает канал, в который приходит сигнал после каждого изменения представления.
// Сигналы объединяются: канал с буфером 1, медленный читатель увидит последнее состояние через View.
// Канал закрывается при Close или вызове unsubscribe.
func (c *Coordinator) Subscribe() (<-chan struct{}, func(), error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, nil, ErrClosed
	}

	ch := make(chan struct{}, 1)

	c.watchersMu.Lock()
	c.nextWatcher++
	id := c.nextWatcher
	c.watchers[id] = ch
	c.watchersMu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			c.watchersMu.Lock()
			if w, ok := c.watchers[id]; ok {
				close(w)
				delete(c.watchers, id)
			}
			c.watchersMu.Unlock()
		})
	}

	return ch, unsubscribe, nil
}

// Closed возвращает true после Close
func (c *Coordinator) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Coordinator) onAppointmentSaved(evt events.Event) {
	c.update(func() {
		if c.overlay.ShowForm() {
			c.overlay = domain.ClosedOverlay()
		}

		if evt.Date == nil || evt.Date.IsZero() {
			return
		}
		if evt.Date.Key() != c.selected.Key() {
			c.logger.Info("%s: retargeting day view from %s to %s", evt.Type, c.selected.Key(), evt.Date.Key())
			c.selectLocked(*evt.Date)
		}
	})
}

func (c *Coordinator) onOpenNewAppointment(events.Event) {
	c.OpenNewAppointment()
}

func (c *Coordinator) onOpenProductSale(events.Event) {
	c.OpenProductSale()
}

// update выполняет fn под блокировкой и оповещает подписчиков; после Close ничего не делает
func (c *Coordinator) update(fn func()) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	fn()
	c.mu.Unlock()

	c.notify()
}

func (c *Coordinator) closeOverlay(kinds ...domain.OverlayKind) {
	c.update(func() {
		current := c.overlay.Kind()
		for _, kind := range kinds {
			if current == kind {
				c.overlay = domain.ClosedOverlay()
				return
			}
		}
	})
}

// selectLocked меняет выбранный день и запрашивает его загрузку; вызывается под c.mu.
// Загрузка запускается под блокировкой, чтобы порядок вызовов Load совпадал с порядком смены дня.
func (c *Coordinator) selectLocked(day types.Date) {
	if day.Equal(c.selected) {
		return
	}
	c.selected = day
	if c.mounted {
		c.loader.Load(day)
	}
}

func (c *Coordinator) today() types.Date {
	return types.DateOf(c.opts.TimeProvider.Now().In(c.opts.Location))
}

// notify неблокирующе сигнализирует всем подписчикам
func (c *Coordinator) notify() {
	c.watchersMu.Lock()
	defer c.watchersMu.Unlock()

	for _, ch := range c.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
