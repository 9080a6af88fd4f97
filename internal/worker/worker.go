package worker

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Relay/internal/mq"
	"github.com/shaiso/Relay/internal/repo"
	"github.com/shaiso/Relay/internal/telemetry"
)

// Значения конфигурации по умолчанию.
const (
	defaultPollInterval = 10 * time.Second
	defaultBatchSize    = 50
	defaultPrefetch     = 5
	defaultMaxAttempts  = 5
	defaultHTTPTimeout  = 30 * time.Second

	initialRetryDelay = 5 * time.Second
	maxRetryDelay     = 5 * time.Minute
)

// Store — операции очереди, нужные worker'у.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*repo.Task, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]repo.Task, error)
	Claim(ctx context.Context, id uuid.UUID) (bool, error)
	MarkDone(ctx context.Context, id uuid.UUID, deliveredAt time.Time) error
	Release(ctx context.Context, id uuid.UUID, attempt int, nextRunAt time.Time, lastError string) error
	MoveToDLQ(ctx context.Context, task *repo.Task, lastError string, failedAt time.Time) error
}

// Worker доставляет задачи из очереди на execute endpoint.
type Worker struct {
	store  Store
	conn   *mq.Connection
	client *http.Client

	consumer *mq.Consumer

	target       string
	pollInterval time.Duration
	batchSize    int
	maxAttempts  int

	logger     *slog.Logger
	now        func() time.Time
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Worker.
type Config struct {
	// Store — хранилище очереди (обязательно).
	Store Store

	// Conn — соединение с RabbitMQ. nil — worker работает только на
	// polling'е.
	Conn *mq.Connection

	// Target — базовый URL приложения-исполнителя, например
	// "http://app:8080". Путь доставки берётся из задачи.
	Target string

	// Client — HTTP-клиент доставки (default: клиент с таймаутом 30s).
	Client *http.Client

	// PollInterval — интервал polling'а БД (default: 10s).
	PollInterval time.Duration

	// BatchSize — задач за один poll (default: 50).
	BatchSize int

	// MaxAttempts — попыток доставки до DLQ (default: 5).
	MaxAttempts int

	// Logger — логгер (default: slog.Default()).
	Logger *slog.Logger

	// Now — источник времени для тестов (default: time.Now).
	Now func() time.Time
}

// New создаёт Worker.
func New(cfg Config) *Worker {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Worker{
		store:        cfg.Store,
		conn:         cfg.Conn,
		client:       client,
		target:       cfg.Target,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		maxAttempts:  maxAttempts,
		logger:       logger,
		now:          now,
	}
}

// Start запускает worker: consumer уведомлений (если есть брокер) и
// polling-горутину. Не блокируется.
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.logger.Info("starting delivery worker",
		"target", w.target,
		"poll_interval", w.pollInterval,
		"batch_size", w.batchSize,
		"max_attempts", w.maxAttempts,
	)

	if w.conn != nil {
		w.consumer = mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
			Queue:    string(mq.QueueTasksEnqueued),
			Handler:  w.handleTaskEnqueued,
			Prefetch: defaultPrefetch,
		})

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			if err := w.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Error("notification consumer error", "error", err)
			}
		}()
	} else {
		w.logger.Warn("no message broker, relying on polling only")
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.pollLoop(ctx)
	}()

	w.logger.Info("delivery worker started")
	return nil
}

// Stop останавливает worker и ждёт завершения горутин.
func (w *Worker) Stop() {
	w.logger.Info("stopping delivery worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	if w.consumer != nil {
		w.consumer.Stop()
	}

	w.wg.Wait()
	w.logger.Info("delivery worker stopped")
}

// handleTaskEnqueued обрабатывает уведомление о новой задаче.
func (w *Worker) handleTaskEnqueued(ctx context.Context, msg *mq.Message) error {
	payload, err := mq.ParsePayload[mq.TaskEnqueuedPayload](msg)
	if err != nil {
		w.logger.Error("failed to parse task.enqueued payload", "error", err)
		return err
	}

	w.logger.Debug("received task.enqueued notification",
		"task_id", payload.TaskID,
		"queue", payload.Queue,
	)

	if err := w.ProcessTask(ctx, payload.TaskID); err != nil {
		// Ожидаемые ситуации: задачу забрал другой worker, run_at в
		// будущем, уведомление пережило задачу. Ack — polling разберётся.
		if errors.Is(err, ErrTaskNotFound) || errors.Is(err, ErrTaskNotDue) {
			w.logger.Debug("task skipped", "task_id", payload.TaskID, "reason", err)
			return nil
		}
		w.logger.Error("failed to process task", "task_id", payload.TaskID, "error", err)
		return err
	}
	return nil
}

// pollLoop — polling fallback. Первый poll сразу при старте, чтобы
// подхватить задачи, созданные пока worker был выключен.
func (w *Worker) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

// poll выполняет один цикл polling'а.
func (w *Worker) poll(ctx context.Context) {
	tasks, err := w.store.ListDue(ctx, w.now(), w.batchSize)
	if err != nil {
		w.logger.Error("failed to list due tasks", "error", err)
		return
	}

	if len(tasks) == 0 {
		return
	}

	w.logger.Debug("poll found due tasks", "count", len(tasks))

	for i := range tasks {
		if err := w.ProcessTask(ctx, tasks[i].ID); err != nil {
			if errors.Is(err, ErrTaskNotFound) || errors.Is(err, ErrTaskNotDue) {
				continue
			}
			w.logger.Error("failed to process task from poll",
				"task_id", tasks[i].ID,
				"error", err,
			)
		}
	}
}

// ProcessTask выполняет одну попытку доставки задачи: захват в БД,
// HTTP-вызов, фиксация исхода.
func (w *Worker) ProcessTask(ctx context.Context, taskID uuid.UUID) error {
	task, err := w.store.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrTaskNotFound
		}
		return err
	}

	now := w.now()
	if task.Status != repo.StatusQueued || task.RunAt.After(now) {
		return ErrTaskNotDue
	}

	claimed, err := w.store.Claim(ctx, task.ID)
	if err != nil {
		return err
	}
	if !claimed {
		return ErrTaskNotDue
	}

	logger := telemetry.WithTaskID(telemetry.WithQueue(w.logger, task.Queue), task.ID.String()).
		With("attempt", task.Attempt+1)
	logger.Info("delivering task", "path", task.Path)

	start := w.now()
	deliverErr := w.deliver(ctx, task)
	telemetry.DeliveryDuration.Observe(w.now().Sub(start).Seconds())

	if deliverErr == nil {
		if err := w.store.MarkDone(ctx, task.ID, w.now()); err != nil {
			return err
		}
		telemetry.DeliveriesTotal.WithLabelValues("delivered").Inc()
		logger.Info("task delivered")
		return nil
	}

	return w.handleFailure(ctx, task, deliverErr, logger)
}

// handleFailure решает судьбу задачи после неудачной попытки: повтор
// с задержкой либо DLQ.
func (w *Worker) handleFailure(ctx context.Context, task *repo.Task, deliverErr error, logger *slog.Logger) error {
	attempt := task.Attempt + 1

	if attempt >= w.maxAttempts {
		if err := w.store.MoveToDLQ(ctx, task, deliverErr.Error(), w.now()); err != nil {
			return err
		}
		telemetry.DeliveriesTotal.WithLabelValues("dead").Inc()
		logger.Error("delivery attempts exhausted, task moved to dlq",
			"error", deliverErr,
		)
		return nil
	}

	delay := retryDelay(attempt)
	nextRunAt := w.now().Add(delay)

	if err := w.store.Release(ctx, task.ID, attempt, nextRunAt, deliverErr.Error()); err != nil {
		return err
	}
	telemetry.DeliveriesTotal.WithLabelValues("retried").Inc()
	logger.Warn("delivery failed, task released for retry",
		"error", deliverErr,
		"next_run_at", nextRunAt,
	)
	return nil
}

// retryDelay — экспоненциальная задержка: 5s, 10s, 20s... с потолком
// 5 минут.
func retryDelay(attempt int) time.Duration {
	delay := initialRetryDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	return delay
}
