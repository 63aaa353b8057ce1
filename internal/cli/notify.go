// Notify commands: the want-notification inbox.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/civicworks/reclaim/pkg/types"
)

func newNotifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Manage want-notifications",
		Long: `Notify manages standing requests to be told when an object matching
a description is registered. Each notification names a category, type,
the date the object was lost, and descriptive fields.`,
	}

	cmd.AddCommand(newNotifyAddCmd())
	cmd.AddCommand(newNotifyListCmd())
	cmd.AddCommand(newNotifyDeleteCmd())

	return cmd
}

func newNotifyAddCmd() *cobra.Command {
	var (
		email     string
		category  string
		typ       string
		foundDate string
	)

	cmd := &cobra.Command{
		Use:   "add [field=value...]",
		Short: "Register a want-notification",
		Long: `Add registers a notification for an object the user is looking for.
Future registrations matching the description fulfill it and trigger
an email to the given address.

Example:
  reclaim notify add --email owner@example.com --category Document \
      --type ID --found-date 2026-05-01 number=555555`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseFields(args)
			if err != nil {
				userError("notify add: %s", err)
			}
			date, err := parseFoundDate(foundDate)
			if err != nil {
				userError("notify add: %s", err)
			}

			a, err := openApp()
			if err != nil {
				sysError("notify add: %s", err)
			}
			defer a.Close()

			n, err := a.service.RegisterNotification(cmd.Context(), types.Notification{
				Email: email,
				ObjectToFind: types.WantedObject{
					Category:  category,
					Type:      typ,
					FoundDate: date,
					Fields:    fields,
				},
			})
			if err != nil {
				return fmt.Errorf("register notification: %w", err)
			}

			if flags.jsonMode {
				return printJSON(cmd, n)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered notification: %s\n", n.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email to notify (required)")
	cmd.Flags().StringVar(&category, "category", "", "wanted object category (required)")
	cmd.Flags().StringVar(&typ, "type", "", "wanted object type (required)")
	cmd.Flags().StringVar(&foundDate, "found-date", "", "date the object was lost (YYYY-MM-DD)")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("category")
	cmd.MarkFlagRequired("type")

	return cmd
}

func newNotifyListCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				sysError("notify list: %s", err)
			}
			defer a.Close()

			notifications, err := a.service.NotificationsFor(cmd.Context(), email)
			if err != nil {
				return fmt.Errorf("list notifications: %w", err)
			}

			if flags.jsonMode {
				return printJSON(cmd, notifications)
			}
			for _, n := range notifications {
				state := "open"
				if n.Fulfilled() {
					state = "fulfilled by " + n.ObjectFound
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s/%s  %s\n",
					n.ID, n.ObjectToFind.Category, n.ObjectToFind.Type, state)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email the notifications belong to (required)")
	cmd.MarkFlagRequired("email")

	return cmd
}

func newNotifyDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <notification-id>",
		Short: "Delete a notification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				sysError("notify delete: %s", err)
			}
			defer a.Close()

			if err := a.service.DeleteNotification(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("delete notification: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Notification deleted")
			return nil
		},
	}
}
