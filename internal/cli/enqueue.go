package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/Relay/internal/backend"
	"github.com/shaiso/Relay/internal/dispatch"
	"github.com/shaiso/Relay/internal/routing"
)

// NewEnqueueCmd создаёт команду ручной постановки задачи. Полезна для
// отложенных операций и повторной постановки задач из DLQ.
func NewEnqueueCmd(depsFn DepsFunc, outputFn func() *Output) *cobra.Command {
	var (
		name   string
		queue  string
		params []string
		delay  time.Duration
		runAt  string
	)

	cmd := &cobra.Command{
		Use:   "enqueue TASK_TYPE",
		Short: "Enqueue a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskType := args[0]
			out := outputFn()

			descriptor := dispatch.NewTask(taskType)
			if name != "" {
				descriptor.Named(name)
			}
			if delay > 0 {
				descriptor.Delay(delay)
			}
			if runAt != "" {
				t, err := time.Parse(time.RFC3339, runAt)
				if err != nil {
					return fmt.Errorf("invalid --run-at %q, expected RFC3339: %w", runAt, err)
				}
				descriptor.RunAt(t)
			}
			for _, kv := range params {
				parts := strings.SplitN(kv, "=", 2)
				if len(parts) != 2 {
					return fmt.Errorf("invalid param format %q, expected KEY=VALUE", kv)
				}
				descriptor.Param(parts[0], parts[1])
			}

			deps, err := depsFn(cmd.Context())
			if err != nil {
				return err
			}
			defer deps.Close()

			reg := routing.NewRegistry()
			if queue != "" {
				reg.Bind(taskType, queue)
			}

			scheduler := dispatch.New(dispatch.Config{
				Backend: backend.New(backend.Config{
					Repo:     deps.Repo,
					Notifier: deps.Notifier,
				}),
				Router: routing.NewRouter(reg),
			})

			if err := scheduler.Add(descriptor).Commit(cmd.Context()); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Task enqueued: %s", taskType))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Task name for deduplication")
	cmd.Flags().StringVar(&queue, "queue", "", "Queue name (default queue if not specified)")
	cmd.Flags().StringSliceVar(&params, "param", nil, "Task parameter as KEY=VALUE (repeatable)")
	cmd.Flags().DurationVar(&delay, "delay", 0, "Delay before delivery (e.g. 5m)")
	cmd.Flags().StringVar(&runAt, "run-at", "", "Absolute delivery time (RFC3339)")

	return cmd
}
