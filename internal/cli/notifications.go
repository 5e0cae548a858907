package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/taskflow/internal/api"
	"github.com/nhle/taskflow/internal/notify"
)

func init() {
	notificationsCmd.AddCommand(notificationsListCmd, notificationsReadCmd, notificationsReadAllCmd)
	rootCmd.AddCommand(notificationsCmd)
}

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"inbox"},
	Short:   "Read and manage notifications",
	Args:    cobra.NoArgs,
	RunE:    runNotificationsList,
}

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notifications, newest first",
	Args:  cobra.NoArgs,
	RunE:  runNotificationsList,
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read ID",
	Short: "Mark one notification as read",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotificationsRead,
}

var notificationsReadAllCmd = &cobra.Command{
	Use:   "read-all",
	Short: "Mark every notification as read",
	Args:  cobra.NoArgs,
	RunE:  runNotificationsReadAll,
}

func runNotificationsList(cmd *cobra.Command, args []string) error {
	e, err := signedIn(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	list, err := e.center.Open(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading notifications: %s", api.Message(err))
	}
	out := cmd.OutOrStdout()
	if src := e.center.Source(); src == notify.SourceMirror || src == notify.SourceMemory {
		fmt.Fprintln(out, "Offline: showing the saved copy.")
	}
	if len(list) == 0 {
		fmt.Fprintln(out, "No notifications.")
		return nil
	}

	w := newTable(out)
	fmt.Fprintln(w, "ID\t \tTYPE\tDATE\tTITLE\tMESSAGE")
	for _, n := range list {
		marker := "•"
		if n.IsRead {
			marker = " "
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			n.ID, marker, n.Type, formatTime(n.CreatedAt), truncate(n.Title, 32), truncate(n.Message, 60))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d unread\n", e.center.Unread())
	return nil
}

func runNotificationsRead(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "notification")
	if err != nil {
		return err
	}
	e, err := signedIn(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.center.MarkRead(cmd.Context(), id); err != nil {
		return errors.New(api.Message(err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Notification %d marked as read.\n", id)
	return nil
}

func runNotificationsReadAll(cmd *cobra.Command, args []string) error {
	e, err := signedIn(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	// Load first so every listed id is recorded as read locally.
	if _, err := e.center.Open(cmd.Context()); err != nil {
		return fmt.Errorf("loading notifications: %s", api.Message(err))
	}
	if err := e.center.MarkAllRead(cmd.Context()); err != nil {
		return errors.New(api.Message(err))
	}
	fmt.Fprintln(cmd.OutOrStdout(), "All notifications marked as read.")
	return nil
}
