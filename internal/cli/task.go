package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lgulliver/nexus3-cli/pkg/nexus/task"
	"github.com/lgulliver/nexus3-cli/pkg/types"
)

var taskHeaders = []string{"ID", "NAME", "TYPE", "STATE", "LAST RESULT", "NEXT RUN"}

func taskRow(t types.Task) []string {
	return []string{t.ID, t.Name, t.Type, t.CurrentState, t.LastRunResult, t.NextRun}
}

// NewTaskCmd creates the command group for scheduled tasks
func NewTaskCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage scheduled tasks",
	}

	cmd.AddCommand(
		newTaskListCmd(clientFn, outputFn),
		newTaskShowCmd(clientFn, outputFn),
		newTaskActionCmd("run", "Run a task now", (*task.Client).Run, "Task started", clientFn, outputFn),
		newTaskActionCmd("stop", "Stop a running task", (*task.Client).Stop, "Task stopped", clientFn, outputFn),
	)

	return cmd
}

func newTaskListCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all tasks",
		Args:    exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFn()
			if err != nil {
				return err
			}
			out := outputFn()

			tasks, err := task.NewClient(client).List(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, len(tasks))
			for i, t := range tasks {
				rows[i] = taskRow(t)
			}
			return out.Print(taskHeaders, rows, tasks)
		},
	}
}

func newTaskShowCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a task",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFn()
			if err != nil {
				return err
			}
			out := outputFn()

			t, err := task.NewClient(client).Show(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return out.Print(taskHeaders, [][]string{taskRow(*t)}, t)
		},
	}
}

type taskAction func(*task.Client, context.Context, string) error

func newTaskActionCmd(use, short string, action taskAction, done string, clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID",
		Short: short,
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFn()
			if err != nil {
				return err
			}
			out := outputFn()

			if err := action(task.NewClient(client), cmd.Context(), args[0]); err != nil {
				return err
			}
			out.Success(fmt.Sprintf("%s: %s", done, args[0]))
			return nil
		},
	}
}
