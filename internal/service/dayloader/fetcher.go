package dayloader

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/m04kA/SMC-SalonCalendar/internal/domain"
	"github.com/m04kA/SMC-SalonCalendar/pkg/types"
)

// SharedFetcher общий для всех сессий источник записей.
// Одновременные запросы одного дня объединяются в один запрос к БД; запрос выполняется
// с собственным таймаутом и не отменяется, если вызвавшая сессия ушла на другой день.
type SharedFetcher struct {
	repo    AppointmentRepository
	group   singleflight.Group
	timeout time.Duration
	logger  Logger
}

// NewSharedFetcher создает общий источник записей
func NewSharedFetcher(repo AppointmentRepository, timeout time.Duration, logger Logger) *SharedFetcher {
	return &SharedFetcher{
		repo:    repo,
		timeout: timeout,
		logger:  logger,
	}
}

// Fetch возвращает записи дня. Возвращенный срез общий для всех ожидавших, его нельзя менять.
func (f *SharedFetcher) Fetch(ctx context.Context, day types.Date) ([]*domain.Appointment, error) {
	key := day.Key()

	ch := f.group.DoChan(key, func() (interface{}, error) {
		queryCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
		defer cancel()

		f.logger.Info("Fetch: querying appointments for day=%s", key)
		appointments, err := f.repo.GetByDate(queryCtx, day)
		if err != nil {
			f.logger.Error("Fetch: failed to load appointments for day=%s: %v", key, err)
			return nil, err
		}
		return appointments, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			f.logger.Info("Fetch: day=%s served by shared query", key)
		}
		return res.Val.([]*domain.Appointment), nil
	}
}
