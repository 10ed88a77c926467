package events

import (
	"context"
	"fmt"
	"sync"
)

// Collector приемник метрик шины
type Collector interface {
	IncEventPublished(eventType string)
}

type subscription struct {
	id      uint64
	handler Handler
}

// Bus шина событий приложения (publish/subscribe).
// Обработчики вызываются синхронно в горутине публикующего, в порядке подписки.
type Bus struct {
	mu        sync.RWMutex
	nextID    uint64
	handlers  map[Type][]subscription
	collector Collector
}

// NewBus создает шину; collector может быть nil
func NewBus(collector Collector) *Bus {
	return &Bus{
		handlers:  make(map[Type][]subscription),
		collector: collector,
	}
}

// Subscribe подписывает handler на события типа t.
// Возвращаемая функция отписки идемпотентна.
func (b *Bus) Subscribe(t Type, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.handlers[t] = append(b.handlers[t], subscription{id: id, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.remove(t, id)
		})
	}
}

// Publish доставляет событие всем подписчикам его типа.
// Набор подписчиков фиксируется в момент публикации.
func (b *Bus) Publish(ctx context.Context, evt Event) error {
	if !evt.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownEventType, evt.Type)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	subs := make([]subscription, len(b.handlers[evt.Type]))
	copy(subs, b.handlers[evt.Type])
	b.mu.RUnlock()

	if b.collector != nil {
		b.collector.IncEventPublished(string(evt.Type))
	}

	for _, sub := range subs {
		sub.handler(evt)
	}

	return nil
}

// HandlerCount количество подписчиков на тип t
func (b *Bus) HandlerCount(t Type) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[t])
}

func (b *Bus) remove(t Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[t]
	for i, sub := range subs {
		if sub.id == id {
			b.handlers[t] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.handlers[t]) == 0 {
		delete(b.handlers, t)
	}
}
