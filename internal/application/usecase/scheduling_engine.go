package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Pottifar/calendar/internal/application/dto"
	"github.com/Pottifar/calendar/internal/application/port"
	"github.com/Pottifar/calendar/internal/domain/entity"
	"github.com/Pottifar/calendar/internal/domain/repository"
	"github.com/Pottifar/calendar/internal/domain/service"
	"github.com/Pottifar/calendar/internal/domain/valueobject"
	"github.com/Pottifar/calendar/pkg/logger"
)

// defaultWriteTimeout ограничивает запись, начатую после проверки пересечений
const defaultWriteTimeout = 5 * time.Second

// SchedulingEngineConfig содержит настройки движка бронирований
type SchedulingEngineConfig struct {
	// LockTimeout ограничивает ожидание блокировки даты, 0 - ждать до отмены ctx
	LockTimeout time.Duration
	// SubjectPrefix - префикс NATS subject для событий, например calendar.reservations
	SubjectPrefix string
	// WriteTimeout ограничивает запись в хранилище; отмена ctx вызывающего ее не прерывает
	WriteTimeout time.Duration
}

// SchedulingEngine создает, изменяет и удаляет бронирования так,
// что пересечение на одну дату никогда не фиксируется в хранилище.
// Проверка и запись для одной даты выполняются под блокировкой DateLocker.
type SchedulingEngine struct {
	repository repository.ReservationRepository
	locker     port.DateLocker
	policy     *service.BusinessHoursPolicy
	cache      port.ReservationCache
	events     port.EventPublisher
	notifier   port.NotificationService
	metrics    port.MetricsPublisher
	config     SchedulingEngineConfig
	logger     *logger.Logger
	now        func() time.Time
}

// NewSchedulingEngine создает новый движок; cache, events, notifier и metrics подключаются отдельно
func NewSchedulingEngine(
	repository repository.ReservationRepository,
	locker port.DateLocker,
	policy *service.BusinessHoursPolicy,
	config SchedulingEngineConfig,
	logger *logger.Logger,
) *SchedulingEngine {
	if policy == nil {
		policy = service.DefaultBusinessHoursPolicy()
	}

	return &SchedulingEngine{
		repository: repository,
		locker:     locker,
		policy:     policy,
		config:     config,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithCache включает кеширование ListByDate
func (e *SchedulingEngine) WithCache(cache port.ReservationCache) *SchedulingEngine {
	e.cache = cache
	return e
}

// WithEventPublisher включает публикацию событий после фиксации
func (e *SchedulingEngine) WithEventPublisher(events port.EventPublisher) *SchedulingEngine {
	e.events = events
	return e
}

// WithNotifier включает рассылку изменений подключенным клиентам
func (e *SchedulingEngine) WithNotifier(notifier port.NotificationService) *SchedulingEngine {
	e.notifier = notifier
	return e
}

// WithMetrics включает публикацию метрик операций
func (e *SchedulingEngine) WithMetrics(metrics port.MetricsPublisher) *SchedulingEngine {
	e.metrics = metrics
	return e
}

// Policy возвращает действующую политику часов работы
func (e *SchedulingEngine) Policy() *service.BusinessHoursPolicy {
	return e.policy
}

// Create создает бронирование, если интервал валиден, в часах работы и ни с чем не пересекается
func (e *SchedulingEngine) Create(
	ctx context.Context,
	owner string,
	date valueobject.CalendarDay,
	timeRange valueobject.TimeRange,
) (result *entity.Reservation, err error) {
	started := time.Now()
	var lockWait time.Duration
	defer func() { e.record(ctx, port.OperationCreate, started, lockWait, err) }()

	// 1. Валидация без обращения к хранилищу
	candidate, err := entity.NewReservation(owner, date, timeRange)
	if err != nil {
		return nil, err
	}
	if err := e.policy.Check(timeRange); err != nil {
		return nil, err
	}

	// 2. Проверка и запись под блокировкой даты
	release, waited, err := e.lock(ctx, date)
	lockWait = waited
	if err != nil {
		return nil, err
	}
	defer release()

	existing, err := e.repository.ListActive(ctx, date)
	if err != nil {
		e.logger.Error("Failed to list reservations", err, "date", date.String())
		return nil, wrapInfra("failed to list reservations", err)
	}

	if conflicts := service.NewConflictIndex(date, existing).FindConflicts(timeRange, ""); len(conflicts) > 0 {
		e.logger.Debug("Reservation rejected: overlap",
			"date", date.String(),
			"range", timeRange.String(),
			"conflicts", len(conflicts))
		return nil, ErrOverlap
	}

	// Отмененный вызывающий не должен приводить к записи
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("create cancelled before write: %w", err)
	}

	writeCtx, cancelWrite := e.writeContext(ctx)
	inserted, err := e.repository.Insert(writeCtx, candidate)
	cancelWrite()
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrOverlap
		}
		e.logger.Error("Failed to insert reservation", err, "date", date.String())
		e.invalidate(ctx, date)
		return nil, wrapInfra("failed to insert reservation", err)
	}

	e.logger.Info("Reservation created",
		"id", inserted.ID(),
		"owner", inserted.Owner(),
		"date", date.String(),
		"range", timeRange.String())

	e.afterCommit(ctx, dto.NewReservationEventDTO(dto.EventReservationCreated, inserted), date)

	return inserted, nil
}

// Update меняет интервал бронирования; владелец и дата не меняются
func (e *SchedulingEngine) Update(
	ctx context.Context,
	id string,
	timeRange valueobject.TimeRange,
) (result *entity.Reservation, err error) {
	started := time.Now()
	var lockWait time.Duration
	defer func() { e.record(ctx, port.OperationUpdate, started, lockWait, err) }()

	// 1. Поиск бронирования
	current, err := e.findByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// 2. Валидация нового интервала
	if err := timeRange.Validate(); err != nil {
		return nil, err
	}
	if err := e.policy.Check(timeRange); err != nil {
		return nil, err
	}

	// 3. Проверка и замена под блокировкой даты
	date := current.Date()
	release, waited, err := e.lock(ctx, date)
	lockWait = waited
	if err != nil {
		return nil, err
	}
	defer release()

	existing, err := e.repository.ListActive(ctx, date)
	if err != nil {
		e.logger.Error("Failed to list reservations", err, "date", date.String())
		return nil, wrapInfra("failed to list reservations", err)
	}

	if conflicts := service.NewConflictIndex(date, existing).FindConflicts(timeRange, id); len(conflicts) > 0 {
		e.logger.Debug("Reservation update rejected: overlap",
			"id", id,
			"date", date.String(),
			"range", timeRange.String(),
			"conflicts", len(conflicts))
		return nil, ErrOverlap
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("update cancelled before write: %w", err)
	}

	writeCtx, cancelWrite := e.writeContext(ctx)
	updated, err := e.repository.ReplaceRange(writeCtx, id, timeRange)
	cancelWrite()
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrOverlap
		}
		e.logger.Error("Failed to update reservation", err, "id", id)
		e.invalidate(ctx, date)
		return nil, wrapInfra("failed to update reservation", err)
	}

	e.logger.Info("Reservation updated",
		"id", id,
		"date", date.String(),
		"range", timeRange.String())

	e.afterCommit(ctx, dto.NewReservationEventDTO(dto.EventReservationUpdated, updated), date)

	return updated, nil
}

// Delete удаляет бронирование; отсутствие id не является ошибкой.
// Блокировка даты не берется: удаление не может создать пересечение.
func (e *SchedulingEngine) Delete(ctx context.Context, id string) (err error) {
	started := time.Now()
	defer func() { e.record(ctx, port.OperationDelete, started, 0, err) }()

	current, err := e.repository.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			e.logger.Debug("Delete of absent reservation", "id", id)
			return nil
		}
		e.logger.Error("Failed to find reservation", err, "id", id)
		return wrapInfra("failed to find reservation", err)
	}

	removed, err := e.repository.Remove(ctx, id)
	if err != nil {
		e.logger.Error("Failed to delete reservation", err, "id", id)
		return wrapInfra("failed to delete reservation", err)
	}

	if !removed {
		return nil
	}

	e.logger.Info("Reservation deleted", "id", id, "date", current.Date().String())
	e.afterCommit(ctx, dto.NewReservationDeletedEventDTO(id, current.Date().String()), current.Date())

	return nil
}

// ListByDate возвращает бронирования на дату по возрастанию начала
func (e *SchedulingEngine) ListByDate(ctx context.Context, date valueobject.CalendarDay) ([]*entity.Reservation, error) {
	if date.IsZero() {
		return nil, entity.ErrMissingDate
	}

	if e.cache != nil {
		if cached, err := e.cache.GetDay(ctx, date); err == nil {
			if reservations, err := dto.ToEntities(cached); err == nil {
				e.logger.Debug("Cache hit for reservations", "date", date.String(), "count", len(reservations))
				return reservations, nil
			}
		}
	}

	reservations, err := e.repository.ListActive(ctx, date)
	if err != nil {
		e.logger.Error("Failed to list reservations", err, "date", date.String())
		return nil, wrapInfra("failed to list reservations", err)
	}
	sortReservations(reservations)

	if e.cache != nil {
		if err := e.cache.SetDay(ctx, date, dto.ToReservationDTOs(reservations)); err != nil {
			e.logger.Warn("Failed to cache reservations", "date", date.String(), "error", err)
		}
	}

	return reservations, nil
}

// ListByOwner возвращает бронирования владельца по возрастанию (дата, начало)
func (e *SchedulingEngine) ListByOwner(ctx context.Context, owner string) ([]*entity.Reservation, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, entity.ErrEmptyOwner
	}

	reservations, err := e.repository.ListByOwner(ctx, owner)
	if err != nil {
		e.logger.Error("Failed to list reservations by owner", err, "owner", owner)
		return nil, wrapInfra("failed to list reservations by owner", err)
	}
	sortReservations(reservations)

	return reservations, nil
}

func (e *SchedulingEngine) findByID(ctx context.Context, id string) (*entity.Reservation, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}

	reservation, err := e.repository.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		e.logger.Error("Failed to find reservation", err, "id", id)
		return nil, wrapInfra("failed to find reservation", err)
	}
	return reservation, nil
}

// lock берет блокировку даты с учетом LockTimeout
func (e *SchedulingEngine) lock(ctx context.Context, date valueobject.CalendarDay) (port.ReleaseFunc, time.Duration, error) {
	lockCtx := ctx
	if e.config.LockTimeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, e.config.LockTimeout)
		defer cancel()
	}

	started := time.Now()
	release, err := e.locker.Lock(lockCtx, date)
	waited := time.Since(started)
	if err != nil {
		e.logger.Warn("Failed to acquire date lock", "date", date.String(), "waited", waited.String(), "error", err)
		return nil, waited, wrapInfra("failed to acquire lock for "+date.String(), err)
	}

	return release, waited, nil
}

// writeContext отвязывает запись от отмены вызывающего и ограничивает ее WriteTimeout
func (e *SchedulingEngine) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := e.config.WriteTimeout
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

// invalidate сбрасывает кеш даты, когда исход записи неизвестен
func (e *SchedulingEngine) invalidate(ctx context.Context, date valueobject.CalendarDay) {
	if e.cache == nil {
		return
	}
	if err := e.cache.InvalidateDay(context.WithoutCancel(ctx), date); err != nil {
		e.logger.Warn("Failed to invalidate reservations cache", "date", date.String(), "error", err)
	}
}

// afterCommit выполняет побочные эффекты; их ошибки не меняют результат операции
func (e *SchedulingEngine) afterCommit(ctx context.Context, event *dto.ReservationEventDTO, date valueobject.CalendarDay) {
	ctx = context.WithoutCancel(ctx)

	e.invalidate(ctx, date)

	if e.events != nil {
		subject := e.subject(event.Type)
		if err := e.events.Publish(ctx, subject, event); err != nil {
			e.logger.Warn("Failed to publish reservation event", "subject", subject, "error", err)
		}
	}

	if e.notifier != nil {
		e.notifier.BroadcastReservationEvent(event)
	}
}

func (e *SchedulingEngine) subject(eventType string) string {
	suffix := strings.TrimPrefix(eventType, "reservation.")
	if e.config.SubjectPrefix == "" {
		return eventType
	}
	return e.config.SubjectPrefix + "." + suffix
}

func (e *SchedulingEngine) record(ctx context.Context, op port.Operation, started time.Time, lockWait time.Duration, err error) {
	if e.metrics == nil {
		return
	}

	e.metrics.RecordOperation(context.WithoutCancel(ctx), port.OperationRecord{
		Operation: op,
		Outcome:   OutcomeOf(err),
		Duration:  time.Since(started),
		LockWait:  lockWait,
		Timestamp: e.now(),
	})
}

// OutcomeOf классифицирует результат операции для метрик
func OutcomeOf(err error) port.Outcome {
	switch {
	case err == nil:
		return port.OutcomeSuccess
	case errors.Is(err, ErrOverlap):
		return port.OutcomeOverlap
	case errors.Is(err, ErrNotFound):
		return port.OutcomeNotFound
	case errors.Is(err, service.ErrOutOfHours):
		return port.OutcomeOutOfHours
	case IsCancellation(err):
		return port.OutcomeCancelled
	case errors.Is(err, ErrInfrastructure):
		return port.OutcomeInfrastructure
	default:
		return port.OutcomeInvalid
	}
}

func sortReservations(reservations []*entity.Reservation) {
	sort.SliceStable(reservations, func(i, j int) bool {
		return reservations[i].StartsBefore(reservations[j])
	})
}
