package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema — таблицы очереди.
//
// Частичный уникальный индекс по (queue_name, task_name) даёт
// дедупликацию именованных задач на уровне БД: повторная вставка с тем
// же именем в ту же очередь завершается SQLSTATE 23505. Безымянные
// задачи (task_name = '') под индекс не попадают.
const schema = `
CREATE TABLE IF NOT EXISTS relay_tasks (
	id           UUID PRIMARY KEY,
	queue_name   TEXT NOT NULL,
	task_name    TEXT NOT NULL DEFAULT '',
	path         TEXT NOT NULL,
	params       JSONB NOT NULL,
	status       TEXT NOT NULL,
	attempt      INT NOT NULL DEFAULT 0,
	run_at       TIMESTAMPTZ NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	delivered_at TIMESTAMPTZ,
	error        TEXT
);

CREATE UNIQUE INDEX IF NOT EXISTS relay_tasks_queue_name_uniq
	ON relay_tasks (queue_name, task_name)
	WHERE task_name <> '';

CREATE INDEX IF NOT EXISTS relay_tasks_due_idx
	ON relay_tasks (run_at)
	WHERE status = 'QUEUED';

CREATE TABLE IF NOT EXISTS relay_tasks_dlq (
	id         UUID PRIMARY KEY,
	task_id    UUID NOT NULL,
	queue_name TEXT NOT NULL,
	task_name  TEXT NOT NULL,
	path       TEXT NOT NULL,
	params     JSONB NOT NULL,
	attempt    INT NOT NULL,
	error      TEXT NOT NULL,
	failed_at  TIMESTAMPTZ NOT NULL
);
`

// EnsureSchema создаёт таблицы очереди, если их ещё нет.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
