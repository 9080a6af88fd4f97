// Package backend — реализация порта dispatch.Backend поверх
// Postgres-очереди с уведомлением worker'ов через RabbitMQ.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Relay/internal/dispatch"
	"github.com/shaiso/Relay/internal/repo"
	"github.com/shaiso/Relay/internal/telemetry"
)

// DefaultQueue — физическое имя очереди по умолчанию. Ядро передаёт
// пустую строку; здесь она превращается в реальное имя.
const DefaultQueue = "default"

// Repository — срез repo.QueueRepo, нужный для постановки.
type Repository interface {
	Insert(ctx context.Context, task *repo.Task) error
}

// Notifier — срез mq.Publisher: сигнал «появилась задача».
type Notifier interface {
	PublishTaskEnqueued(ctx context.Context, taskID uuid.UUID, queue string) error
}

// PG — dispatch.Backend поверх Postgres.
//
// Долговечность обеспечивает вставка строки; дедупликацию именованных
// задач — уникальный индекс. Уведомление в RabbitMQ отправляется после
// успешной вставки и не обязано доходить: worker подберёт задачу
// поллингом.
type PG struct {
	repo     Repository
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// Config — конфигурация PG backend'а. Notifier опционален.
type Config struct {
	Repo     Repository
	Notifier Notifier
	Logger   *slog.Logger

	// Now — источник времени (default: time.Now).
	Now func() time.Time
}

// New создаёт PG backend.
func New(cfg Config) *PG {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &PG{
		repo:     cfg.Repo,
		notifier: cfg.Notifier,
		logger:   logger,
		now:      now,
	}
}

// Enqueue сохраняет запрос как строку очереди.
//
// Контракт порта: конфликт имени → dispatch.ErrTaskAlreadyExists,
// временный сбой БД → dispatch.ErrTransientFailure, остальное —
// фатально. Если дескриптор не transactionless и в контексте есть
// транзакция (repo.WithTx), вставка выполняется в ней.
func (b *PG) Enqueue(ctx context.Context, req *dispatch.Request, queueName string, transactionless bool) error {
	if queueName == "" {
		queueName = DefaultQueue
	}

	now := b.now()
	task := &repo.Task{
		ID:        uuid.New(),
		Queue:     queueName,
		Name:      req.Name,
		Path:      req.Path,
		Params:    req.Params,
		Status:    repo.StatusQueued,
		RunAt:     runAt(req, now),
		CreatedAt: now,
	}

	insertCtx := ctx
	if transactionless {
		// Явный отказ от объемлющей транзакции: постановка не
		// зависит от её исхода.
		insertCtx = repo.WithoutTx(ctx)
	}

	if err := b.repo.Insert(insertCtx, task); err != nil {
		switch {
		case errors.Is(err, repo.ErrAlreadyExists):
			telemetry.DuplicatesTotal.WithLabelValues(queueName).Inc()
			return fmt.Errorf("%w: %v", dispatch.ErrTaskAlreadyExists, err)
		case isTransient(err):
			telemetry.EnqueueErrorsTotal.WithLabelValues(queueName, "transient").Inc()
			return fmt.Errorf("%w: %v", dispatch.ErrTransientFailure, err)
		default:
			telemetry.EnqueueErrorsTotal.WithLabelValues(queueName, "fatal").Inc()
			return err
		}
	}

	telemetry.EnqueuedTotal.WithLabelValues(queueName, workKind(req)).Inc()

	if b.notifier != nil {
		if err := b.notifier.PublishTaskEnqueued(ctx, task.ID, queueName); err != nil {
			// Не фатально: задача уже в БД, поллинг её подберёт.
			b.logger.Warn("failed to publish task.enqueued",
				"task_id", task.ID,
				"queue", queueName,
				"error", err,
			)
		}
	}

	b.logger.Debug("task enqueued",
		"task_id", task.ID,
		"queue", queueName,
		"name", req.Name,
		"run_at", task.RunAt,
	)
	return nil
}

// runAt превращает тайминг запроса в абсолютное время доставки.
func runAt(req *dispatch.Request, now time.Time) time.Time {
	switch {
	case req.DelayMillis > 0:
		return now.Add(time.Duration(req.DelayMillis) * time.Millisecond)
	case req.ETAMillis > 0:
		return time.UnixMilli(req.ETAMillis)
	default:
		return now
	}
}

// workKind — вид работы для метрик: задача или событие.
func workKind(req *dispatch.Request) string {
	if _, ok := req.Params[dispatch.ParamTaskType]; ok {
		return "task"
	}
	return "event"
}
