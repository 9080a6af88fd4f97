package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TaskStatus — статус задачи в очереди.
type TaskStatus string

const (
	// StatusQueued — задача ждёт доставки (возможно, до run_at).
	StatusQueued TaskStatus = "QUEUED"

	// StatusDelivering — задача захвачена worker'ом.
	StatusDelivering TaskStatus = "DELIVERING"

	// StatusDone — задача доставлена на execute endpoint.
	StatusDone TaskStatus = "DONE"

	// StatusFailed — попытки доставки исчерпаны, задача в DLQ.
	StatusFailed TaskStatus = "FAILED"
)

// Task — строка очереди: сохранённый dispatch-запрос плюс состояние
// доставки.
type Task struct {
	ID          uuid.UUID
	Queue       string
	Name        string
	Path        string
	Params      map[string]string
	Status      TaskStatus
	Attempt     int
	RunAt       time.Time
	CreatedAt   time.Time
	DeliveredAt *time.Time
	Error       string
}

// DeadTask — задача, перенесённая в DLQ после исчерпания попыток.
type DeadTask struct {
	ID       uuid.UUID
	TaskID   uuid.UUID
	Queue    string
	Name     string
	Path     string
	Params   map[string]string
	Attempt  int
	Error    string
	FailedAt time.Time
}

// querier — общий срез pgxpool.Pool и pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QueueRepo — репозиторий очереди задач.
type QueueRepo struct {
	pool *pgxpool.Pool
}

// NewQueueRepo создаёт QueueRepo.
func NewQueueRepo(pool *pgxpool.Pool) *QueueRepo {
	return &QueueRepo{pool: pool}
}

// db возвращает объемлющую транзакцию из контекста, если она есть,
// иначе пул.
func (r *QueueRepo) db(ctx context.Context) querier {
	if tx, ok := TxFrom(ctx); ok {
		return tx
	}
	return r.pool
}

// Insert вставляет задачу. Конфликт имени в очереди возвращается как
// ErrAlreadyExists. Выполняется в объемлющей транзакции из контекста,
// если она есть.
func (r *QueueRepo) Insert(ctx context.Context, task *Task) error {
	paramsJSON, err := json.Marshal(task.Params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}

	query := `
		INSERT INTO relay_tasks (id, queue_name, task_name, path, params, status, attempt, run_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.db(ctx).Exec(ctx, query,
		task.ID,
		task.Queue,
		task.Name,
		task.Path,
		paramsJSON,
		task.Status,
		task.Attempt,
		task.RunAt,
		task.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: task %q in queue %q", ErrAlreadyExists, task.Name, task.Queue)
		}
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// GetByID возвращает задачу по ID.
func (r *QueueRepo) GetByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	query := taskSelect + ` WHERE id = $1`
	return scanTask(r.pool.QueryRow(ctx, query, id))
}

// ListDue возвращает задачи, готовые к доставке: QUEUED с наступившим
// run_at, в порядке создания.
func (r *QueueRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]Task, error) {
	query := taskSelect + `
		WHERE status = 'QUEUED' AND run_at <= $1
		ORDER BY created_at ASC
		LIMIT $2
	`
	return r.listTasks(ctx, query, now, limit)
}

// ListRecent возвращает последние задачи независимо от статуса.
func (r *QueueRepo) ListRecent(ctx context.Context, limit int) ([]Task, error) {
	query := taskSelect + `
		ORDER BY created_at DESC
		LIMIT $1
	`
	return r.listTasks(ctx, query, limit)
}

// Claim захватывает задачу для доставки. Возвращает false, если её
// уже захватил другой worker.
func (r *QueueRepo) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE relay_tasks SET status = 'DELIVERING'
		WHERE id = $1 AND status = 'QUEUED'
	`, id)
	if err != nil {
		return false, fmt.Errorf("claim task: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// MarkDone отмечает задачу доставленной.
func (r *QueueRepo) MarkDone(ctx context.Context, id uuid.UUID, deliveredAt time.Time) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE relay_tasks
		SET status = 'DONE', delivered_at = $2, error = NULL
		WHERE id = $1
	`, id, deliveredAt)
	if err != nil {
		return fmt.Errorf("mark done: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Release возвращает задачу в очередь после неудачной попытки:
// инкремент attempt, перенос run_at, текст последней ошибки.
func (r *QueueRepo) Release(ctx context.Context, id uuid.UUID, attempt int, nextRunAt time.Time, lastError string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE relay_tasks
		SET status = 'QUEUED', attempt = $2, run_at = $3, error = $4
		WHERE id = $1
	`, id, attempt, nextRunAt, lastError)
	if err != nil {
		return fmt.Errorf("release task: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MoveToDLQ переносит задачу в DLQ и помечает её FAILED.
func (r *QueueRepo) MoveToDLQ(ctx context.Context, task *Task, lastError string, failedAt time.Time) error {
	paramsJSON, err := json.Marshal(task.Params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO relay_tasks_dlq (id, task_id, queue_name, task_name, path, params, attempt, error, failed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, uuid.New(), task.ID, task.Queue, task.Name, task.Path, paramsJSON, task.Attempt, lastError, failedAt)
	if err != nil {
		return fmt.Errorf("insert dlq task: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		UPDATE relay_tasks SET status = 'FAILED', error = $2 WHERE id = $1
	`, task.ID, lastError)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

// ListDLQ возвращает задачи из DLQ, свежие первыми.
func (r *QueueRepo) ListDLQ(ctx context.Context, limit int) ([]DeadTask, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, task_id, queue_name, task_name, path, params, attempt, error, failed_at
		FROM relay_tasks_dlq
		ORDER BY failed_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list dlq: %w", err)
	}
	defer rows.Close()

	var tasks []DeadTask
	for rows.Next() {
		var dt DeadTask
		var paramsJSON []byte
		if err := rows.Scan(&dt.ID, &dt.TaskID, &dt.Queue, &dt.Name, &dt.Path, &paramsJSON, &dt.Attempt, &dt.Error, &dt.FailedAt); err != nil {
			return nil, fmt.Errorf("scan dlq task: %w", err)
		}
		if err := json.Unmarshal(paramsJSON, &dt.Params); err != nil {
			return nil, fmt.Errorf("unmarshal params: %w", err)
		}
		tasks = append(tasks, dt)
	}
	return tasks, rows.Err()
}

// CountByStatus возвращает количество задач по статусам.
func (r *QueueRepo) CountByStatus(ctx context.Context) (map[TaskStatus]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*) FROM relay_tasks GROUP BY status
	`)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[TaskStatus]int)
	for rows.Next() {
		var status TaskStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// --- Helpers ---

const taskSelect = `
	SELECT id, queue_name, task_name, path, params, status, attempt, run_at, created_at, delivered_at, error
	FROM relay_tasks
`

func (r *QueueRepo) listTasks(ctx context.Context, query string, args ...any) ([]Task, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		task, err := scanTaskRow(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func scanTask(row pgx.Row) (*Task, error) {
	task, err := scanTaskRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return task, err
}

func scanTaskRow(row pgx.Row) (*Task, error) {
	var task Task
	var paramsJSON []byte
	var taskError *string

	err := row.Scan(
		&task.ID,
		&task.Queue,
		&task.Name,
		&task.Path,
		&paramsJSON,
		&task.Status,
		&task.Attempt,
		&task.RunAt,
		&task.CreatedAt,
		&task.DeliveredAt,
		&taskError,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(paramsJSON, &task.Params); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}
	if taskError != nil {
		task.Error = *taskError
	}

	return &task, nil
}
