package cli

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Relay/internal/backend"
	"github.com/shaiso/Relay/internal/mq"
	"github.com/shaiso/Relay/internal/repo"
)

// Queue — операции очереди, нужные командам CLI.
// repo.QueueRepo реализует интерфейс целиком.
type Queue interface {
	Insert(ctx context.Context, task *repo.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*repo.Task, error)
	ListRecent(ctx context.Context, limit int) ([]repo.Task, error)
	ListDLQ(ctx context.Context, limit int) ([]repo.DeadTask, error)
	CountByStatus(ctx context.Context) (map[repo.TaskStatus]int, error)
}

// Deps — подключённые зависимости команд.
type Deps struct {
	Pool *pgxpool.Pool
	Repo Queue

	// MQ и Notifier опциональны: без брокера поставленная задача
	// дождётся поллинга worker'а.
	MQ       *mq.Connection
	Notifier backend.Notifier
}

// DepsFunc лениво подключает зависимости. Вызывается из RunE команды,
// когда PersistentFlags уже разобраны.
type DepsFunc func(ctx context.Context) (*Deps, error)

// Close закрывает подключения.
func (d *Deps) Close() {
	if d.MQ != nil {
		d.MQ.Close()
	}
	if d.Pool != nil {
		d.Pool.Close()
	}
}
