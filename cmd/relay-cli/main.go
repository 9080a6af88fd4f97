// Relay CLI — операторский инструмент очереди.
//
// Использование:
//
//	relay [--json] <command> [flags]
//
// Команды:
//
//	enqueue  Поставить задачу в очередь
//	tasks    Инспекция очереди (list, show, dlq)
//	stats    Сводка по статусам
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Relay/internal/cli"
	"github.com/shaiso/Relay/internal/mq"
	"github.com/shaiso/Relay/internal/repo"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "relay",
		Short:         "Relay CLI — deferred work queue tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	depsFn := func(ctx context.Context) (*cli.Deps, error) {
		pool, err := repo.NewPool(ctx)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		deps := &cli.Deps{Pool: pool, Repo: repo.NewQueueRepo(pool)}

		// RabbitMQ опционален: без брокера задача дождётся поллинга
		// worker'а. Брокерные логи в вывод CLI не попадают.
		mqURL := os.Getenv("RABBITMQ_URL")
		if mqURL == "" {
			mqURL = mq.DefaultURL()
		}
		quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
		if conn, err := mq.NewConnection(mqURL, quiet); err == nil {
			if err := mq.SetupTopology(ctx, conn); err != nil {
				fmt.Fprintln(os.Stderr, "Warning: failed to setup broker topology:", err)
			}
			deps.MQ = conn
			deps.Notifier = mq.NewPublisher(conn, quiet)
		}

		return deps, nil
	}
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewEnqueueCmd(depsFn, outputFn),
		cli.NewTasksCmd(depsFn, outputFn),
		cli.NewStatsCmd(depsFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
