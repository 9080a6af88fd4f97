package cli

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/Relay/internal/repo"
)

// NewTasksCmd создаёт группу команд для инспекции очереди.
func NewTasksCmd(depsFn DepsFunc, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Inspect queued tasks",
	}

	cmd.AddCommand(
		newTasksListCmd(depsFn, outputFn),
		newTasksShowCmd(depsFn, outputFn),
		newTasksDLQCmd(depsFn, outputFn),
	)

	return cmd
}

func newTasksListCmd(depsFn DepsFunc, outputFn func() *Output) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := depsFn(cmd.Context())
			if err != nil {
				return err
			}
			defer deps.Close()

			tasks, err := deps.Repo.ListRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			headers := []string{"ID", "QUEUE", "NAME", "STATUS", "ATTEMPT", "RUN_AT", "ERROR"}
			rows := make([][]string, len(tasks))
			for i := range tasks {
				rows[i] = taskRow(&tasks[i])
			}

			outputFn().Print(headers, rows, tasks)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of results")

	return cmd
}

func newTasksShowCmd(depsFn DepsFunc, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show task details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return err
			}

			deps, err := depsFn(cmd.Context())
			if err != nil {
				return err
			}
			defer deps.Close()

			task, err := deps.Repo.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}

			outputFn().Print(
				[]string{"ID", "QUEUE", "NAME", "STATUS", "ATTEMPT", "RUN_AT", "ERROR"},
				[][]string{taskRow(task)},
				task,
			)
			return nil
		},
	}
}

func newTasksDLQCmd(depsFn DepsFunc, outputFn func() *Output) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "dlq",
		Short: "List dead-lettered tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := depsFn(cmd.Context())
			if err != nil {
				return err
			}
			defer deps.Close()

			dead, err := deps.Repo.ListDLQ(cmd.Context(), limit)
			if err != nil {
				return err
			}

			headers := []string{"TASK_ID", "QUEUE", "NAME", "ATTEMPT", "FAILED_AT", "ERROR"}
			rows := make([][]string, len(dead))
			for i, dt := range dead {
				rows[i] = []string{
					dt.TaskID.String(),
					dt.Queue,
					dt.Name,
					strconv.Itoa(dt.Attempt),
					dt.FailedAt.Format(time.RFC3339),
					dt.Error,
				}
			}

			outputFn().Print(headers, rows, dead)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of results")

	return cmd
}

// NewStatsCmd создаёт команду сводки очереди.
func NewStatsCmd(depsFn DepsFunc, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show queue statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := depsFn(cmd.Context())
			if err != nil {
				return err
			}
			defer deps.Close()

			counts, err := deps.Repo.CountByStatus(cmd.Context())
			if err != nil {
				return err
			}

			statuses := []repo.TaskStatus{repo.StatusQueued, repo.StatusDelivering, repo.StatusDone, repo.StatusFailed}
			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				rows = append(rows, []string{string(status), strconv.Itoa(counts[status])})
			}

			outputFn().Print([]string{"STATUS", "COUNT"}, rows, counts)
			return nil
		},
	}
}

func taskRow(task *repo.Task) []string {
	return []string{
		task.ID.String(),
		task.Queue,
		task.Name,
		string(task.Status),
		strconv.Itoa(task.Attempt),
		task.RunAt.Format(time.RFC3339),
		task.Error,
	}
}
