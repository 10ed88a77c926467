package appointment

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-SalonCalendar/internal/domain"
	"github.com/m04kA/SMC-SalonCalendar/pkg/psqlbuilder"
	"github.com/m04kA/SMC-SalonCalendar/pkg/types"
)

// appointmentColumns колонки выборки записи вместе с именами клиента и специалиста
var appointmentColumns = []string{
	"a.id",
	"a.client_id",
	"c.name",
	"a.professional_id",
	"p.name",
	"a.date",
	"a.time",
	"a.duration",
	"a.services",
	"a.status",
	"a.notes",
	"a.custom_times",
	"a.pending_amount",
	"a.additional_products",
	"a.created_at",
	"a.updated_at",
}

// Repository репозиторий записей клиентов (только чтение: записи создают и меняют формы)
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория записей
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

func selectAppointments() squirrel.SelectBuilder {
	return psqlbuilder.Select(appointmentColumns...).
		From("appointments a").
		LeftJoin("clients c ON c.id = a.client_id").
		LeftJoin("professionals p ON p.id = a.professional_id")
}

// GetByDate получает все записи на указанный день, отсортированные по времени начала
func (r *Repository) GetByDate(ctx context.Context, day types.Date) ([]*domain.Appointment, error) {
	query, args, err := selectAppointments().
		Where(squirrel.Eq{"a.date": day.Key()}).
		OrderBy("a.time ASC", "a.created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByDate - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByDate - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	appointments := make([]*domain.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: GetByDate - scan row: %v", ErrScanRow, err)
		}
		appointments = append(appointments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetByDate - rows error: %v", ErrScanRow, err)
	}

	return appointments, nil
}

// GetByID получает запись по ID
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	query, args, err := selectAppointments().
		Where(squirrel.Eq{"a.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	a, err := scanAppointment(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan appointment: %v", ErrScanRow, err)
	}

	return a, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAppointment(row rowScanner) (*domain.Appointment, error) {
	var (
		a                    domain.Appointment
		clientID, clientName sql.NullString
		profID, profName     sql.NullString
		services             pq.StringArray
		status               string
		notes                sql.NullString
		customTimes          []byte
		pendingAmount        sql.NullFloat64
		additionalProducts   []byte
		createdAt, updatedAt sql.NullTime
	)

	err := row.Scan(
		&a.ID,
		&clientID,
		&clientName,
		&profID,
		&profName,
		&a.Date,
		&a.Time,
		&a.DurationMinutes,
		&services,
		&status,
		&notes,
		&customTimes,
		&pendingAmount,
		&additionalProducts,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.ClientID = clientID.String
	a.ClientName = clientName.String
	a.ProfessionalID = profID.String
	a.ProfessionalName = profName.String
	a.Services = []string(services)
	if a.Services == nil {
		a.Services = []string{}
	}
	a.Status = domain.AppointmentStatus(status)
	if notes.Valid {
		a.Notes = &notes.String
	}
	if pendingAmount.Valid {
		a.PendingAmount = &pendingAmount.Float64
	}

	a.CustomTimes = map[string]string{}
	if len(customTimes) > 0 {
		if err := json.Unmarshal(customTimes, &a.CustomTimes); err != nil {
			return nil, fmt.Errorf("decode custom_times: %w", err)
		}
		if a.CustomTimes == nil {
			a.CustomTimes = map[string]string{}
		}
	}

	if len(additionalProducts) > 0 {
		if err := json.Unmarshal(additionalProducts, &a.AdditionalProducts); err != nil {
			return nil, fmt.Errorf("decode additional_products: %w", err)
		}
	}

	a.CreatedAt = createdAt.Time
	a.UpdatedAt = updatedAt.Time

	return &a, nil
}
