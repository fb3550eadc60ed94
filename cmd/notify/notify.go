package notify

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/handsoff-go/internal/conf"
	"github.com/tphakala/handsoff-go/internal/notification"
)

// Command returns a cobra command that sends a test notification via the notification service
func Command(settings *conf.Settings) *cobra.Command {
	var title, message string

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send a test notification",
		Long: `Send a test notification through the notification service, including any
configured push URLs.

Examples:
  # The alert notification
  handsoff notify

  # Custom text
  handsoff notify --title="Test" --message="Hello"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if title == "" {
				title = settings.Alert.Title
			}
			if message == "" {
				message = settings.Alert.Body
			}

			svc, err := notification.NewServiceFromSettings(settings, nil)
			if err != nil {
				return err
			}

			if err := svc.Notify(title, message); err != nil {
				_ = svc.Close()
				return err
			}

			// Close delivers the queued notification before returning
			if err := svc.Close(); err != nil {
				return err
			}

			st := svc.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "Notification sent: %q (delivered=%d failed=%d)\n", title, st.Delivered, st.Failed)
			if st.Failed > 0 {
				return fmt.Errorf("%d provider deliveries failed, see the log for details", st.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Notification title (default: alert.title)")
	cmd.Flags().StringVar(&message, "message", "", "Notification message (default: alert.body)")

	return cmd
}
