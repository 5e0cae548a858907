package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/taskflow/internal/api"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/taskquery"
)

var (
	tasksSort   string
	tasksOrder  string
	tasksSearch string
)

func init() {
	tasksCmd.Flags().StringVar(&tasksSort, "sort", string(taskquery.FieldReward), "sort field: reward, createdAt, difficulty, approvalType")
	tasksCmd.Flags().StringVar(&tasksOrder, "order", string(taskquery.Desc), "sort order: asc or desc")
	tasksCmd.Flags().StringVar(&tasksSearch, "search", "", "only show tasks whose title or description contains this text")
	rootCmd.AddCommand(tasksCmd)
}

var tasksCmd = &cobra.Command{
	Use:     "tasks",
	Aliases: []string{"ls"},
	Short:   "List available tasks",
	Args:    cobra.NoArgs,
	RunE:    runTasks,
}

func parseSort(field, order string) (taskquery.SortState, error) {
	f, ok := taskquery.ParseField(field)
	if !ok {
		return taskquery.SortState{}, fmt.Errorf("unknown sort field %q", field)
	}
	o := taskquery.Order(strings.ToLower(strings.TrimSpace(order)))
	if o != taskquery.Asc && o != taskquery.Desc {
		return taskquery.SortState{}, fmt.Errorf("unknown sort order %q", order)
	}
	return taskquery.SortState{Field: f, Order: o}, nil
}

func runTasks(cmd *cobra.Command, args []string) error {
	state, err := parseSort(tasksSort, tasksOrder)
	if err != nil {
		return err
	}
	e, err := signedIn(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	userID := e.session.User().ID
	tasks, err := e.client.ListTasks(ctx)
	offline := false
	switch {
	case err == nil:
		if err := e.store.ReplaceTasks(ctx, userID, tasks); err != nil {
			e.logger.Warn("caching tasks", slog.Any("error", err))
		}
	case api.IsAuthError(err):
		return fmt.Errorf("%s; run 'taskflow login'", api.Message(err))
	default:
		cached, cacheErr := e.store.GetTasks(ctx, userID)
		if cacheErr != nil || len(cached) == 0 {
			return fmt.Errorf("loading tasks: %s", api.Message(err))
		}
		e.logger.Warn("listing tasks, using cache", slog.Any("error", err))
		tasks, offline = cached, true
	}

	tasks = taskquery.Apply(tasks, tasksSearch, state)
	out := cmd.OutOrStdout()
	if offline {
		fmt.Fprintln(out, "Offline: showing the last downloaded task list.")
	}
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks available.")
		return nil
	}

	w := newTable(out)
	fmt.Fprintln(w, "ID\tREWARD\tDIFFICULTY\tAPPROVAL\tTIME\tTITLE")
	for _, t := range tasks {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			t.ID,
			e.money(t.Reward),
			t.Difficulty,
			approvalLabel(t.ApprovalType),
			t.TimeEstimate,
			truncate(t.Title, 48),
		)
	}
	return w.Flush()
}

func approvalLabel(a model.ApprovalType) string {
	if a == model.ApprovalManual {
		return "review"
	}
	return "auto"
}
