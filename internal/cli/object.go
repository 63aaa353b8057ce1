// Object commands: registration and queries for institutions,
// solicitation, devolution, cancellation, and the interest queue for
// applicants.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/civicworks/reclaim/internal/lifecycle"
	"github.com/civicworks/reclaim/pkg/types"
)

func newObjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "object",
		Short: "Manage found objects",
	}

	cmd.AddCommand(newObjectRegisterCmd())
	cmd.AddCommand(newObjectListCmd())
	cmd.AddCommand(newObjectSearchCmd())
	cmd.AddCommand(newObjectSolicitCmd())
	cmd.AddCommand(newObjectDevolveCmd())
	cmd.AddCommand(newObjectCancelCmd())
	cmd.AddCommand(newObjectInterestCmd())
	cmd.AddCommand(newObjectUninterestCmd())
	cmd.AddCommand(newObjectUpdateCmd())
	cmd.AddCommand(newObjectDeleteCmd())
	cmd.AddCommand(newObjectStatsCmd())

	return cmd
}

func newObjectRegisterCmd() *cobra.Command {
	var (
		asID      string
		category  string
		typ       string
		foundDate string
	)

	cmd := &cobra.Command{
		Use:   "register [field=value...]",
		Short: "Register a found object",
		Long: `Register records an object found by an institution. Descriptive
fields are given as name=value pairs and drive matching against
outstanding notifications.

Example:
  reclaim object register --as inst-1 --category Document --type ID \
      --found-date 2026-05-10 number=555555 holder="Marko Petrov"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseFields(args)
			if err != nil {
				userError("register: %s", err)
			}
			date, err := parseFoundDate(foundDate)
			if err != nil {
				userError("register: %s", err)
			}

			a, err := openApp()
			if err != nil {
				sysError("register: %s", err)
			}
			defer a.Close()

			obj, err := a.service.RegisterObject(cmd.Context(), types.Object{
				Category:    category,
				Type:        typ,
				Fields:      fields,
				FoundDate:   date,
				Institution: asID,
			})
			if err != nil {
				return fmt.Errorf("register object: %w", err)
			}

			// The process exits right after this command, so run the
			// matching check in-line instead of in the background.
			if err := a.matcher.Check(cmd.Context(), obj); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "matching: %s\n", err)
			}

			if flags.jsonMode {
				return printJSON(cmd, obj)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered object: %s\n", obj.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&asID, "as", "", "registering institution id (required)")
	cmd.Flags().StringVar(&category, "category", "", "object category (required)")
	cmd.Flags().StringVar(&typ, "type", "", "object type (required)")
	cmd.Flags().StringVar(&foundDate, "found-date", "", "date the object was found (YYYY-MM-DD)")
	cmd.MarkFlagRequired("as")
	cmd.MarkFlagRequired("category")
	cmd.MarkFlagRequired("type")

	return cmd
}

func newObjectListCmd() *cobra.Command {
	var (
		asID   string
		role   string
		code   string
		status string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List objects related to a user",
		Long: `List shows the objects a user is involved with: registered by their
institution, solicited by them, or queued behind (role "interested").`,
		RunE: func(cmd *cobra.Command, args []string) error {
			statusFilter, err := parseStatusFlag(status)
			if err != nil {
				userError("list: %s", err)
			}

			a, err := openApp()
			if err != nil {
				sysError("list: %s", err)
			}
			defer a.Close()

			var objects []types.Object
			if role == "interested" {
				objects, err = a.service.ObjectsForInterested(cmd.Context(), asID, statusFilter)
			} else {
				objects, err = a.service.ObjectsForUser(cmd.Context(), lifecycle.Role(role), asID, code, statusFilter)
			}
			if err != nil {
				return fmt.Errorf("list objects: %w", err)
			}

			return printObjects(cmd, objects)
		},
	}

	cmd.Flags().StringVar(&asID, "as", "", "user id (required)")
	cmd.Flags().StringVar(&role, "role", "institution", "role: institution, applicant, or interested")
	cmd.Flags().StringVar(&code, "code", "", "narrow by devolution code")
	cmd.Flags().StringVar(&status, "status", "", "narrow by status (available, solicited, devolved)")
	cmd.MarkFlagRequired("as")

	return cmd
}

func newObjectSearchCmd() *cobra.Command {
	var (
		category    string
		typ         string
		foundFrom   string
		institution string
	)

	cmd := &cobra.Command{
		Use:   "search [field=value...]",
		Short: "Search objects by classification and field text",
		Long: `Search lists objects matching the filter. With name=value field
arguments the results are ranked by how much of the field text they
share. Devolution codes never appear in the listing.

Example:
  reclaim object search --category Document --type ID number=555555`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseFields(args)
			if err != nil {
				userError("search: %s", err)
			}
			from, err := parseFoundDate(foundFrom)
			if err != nil {
				userError("search: %s", err)
			}

			a, err := openApp()
			if err != nil {
				sysError("search: %s", err)
			}
			defer a.Close()

			objects, err := a.service.SearchObjects(cmd.Context(), types.ObjectFilter{
				Category:      category,
				Type:          typ,
				FoundDateFrom: from,
				Institution:   institution,
			}, fields)
			if err != nil {
				return fmt.Errorf("search objects: %w", err)
			}

			return printObjects(cmd, objects)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "object category")
	cmd.Flags().StringVar(&typ, "type", "", "object type")
	cmd.Flags().StringVar(&foundFrom, "found-from", "", "earliest found date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&institution, "institution", "", "registering institution id")

	return cmd
}

func newObjectSolicitCmd() *cobra.Command {
	var (
		asID  string
		email string
		name  string
	)

	cmd := &cobra.Command{
		Use:   "solicit <object-id>",
		Short: "Claim an object and receive a devolution code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				sysError("solicit: %s", err)
			}
			defer a.Close()

			code, err := a.service.Solicit(cmd.Context(), lifecycle.Applicant{
				ID:    asID,
				Name:  name,
				Email: email,
			}, args[0])
			if err != nil {
				return fmt.Errorf("solicit object: %w", err)
			}

			if flags.jsonMode {
				return printJSON(cmd, map[string]string{"objectId": args[0], "devolutionCode": code})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Devolution code: %s\n", code)
			return nil
		},
	}

	cmd.Flags().StringVar(&asID, "as", "", "applicant id (required)")
	cmd.Flags().StringVar(&email, "email", "", "applicant email for the confirmation message")
	cmd.Flags().StringVar(&name, "name", "", "applicant name for the confirmation message")
	cmd.MarkFlagRequired("as")

	return cmd
}

func newObjectDevolveCmd() *cobra.Command {
	var asID string

	cmd := &cobra.Command{
		Use:   "devolve <devolution-code>",
		Short: "Hand an object over against its devolution code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				sysError("devolve: %s", err)
			}
			defer a.Close()

			if err := a.service.Devolve(cmd.Context(), asID, args[0]); err != nil {
				return fmt.Errorf("devolve object: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Object devolved")
			return nil
		},
	}

	cmd.Flags().StringVar(&asID, "as", "", "institution id (required)")
	cmd.MarkFlagRequired("as")

	return cmd
}

func newObjectCancelCmd() *cobra.Command {
	var asID string

	cmd := &cobra.Command{
		Use:   "cancel <devolution-code>",
		Short: "Cancel a solicitation",
		Long: `Cancel reopens a claimed object. The requester must be the owning
institution or the current applicant. When backup applicants are
queued, the first in line takes over the claim with a fresh code.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				sysError("cancel: %s", err)
			}
			defer a.Close()

			if err := a.service.CancelSolicitation(cmd.Context(), asID, args[0]); err != nil {
				return fmt.Errorf("cancel solicitation: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Solicitation cancelled")
			return nil
		},
	}

	cmd.Flags().StringVar(&asID, "as", "", "requesting user id (required)")
	cmd.MarkFlagRequired("as")

	return cmd
}

func newObjectInterestCmd() *cobra.Command {
	var (
		asID  string
		email string
	)

	cmd := &cobra.Command{
		Use:   "interest <object-id>",
		Short: "Queue behind an object someone else has claimed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				sysError("interest: %s", err)
			}
			defer a.Close()

			if err := a.service.RegisterInterest(cmd.Context(), asID, email, args[0]); err != nil {
				return fmt.Errorf("register interest: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Interest registered")
			return nil
		},
	}

	cmd.Flags().StringVar(&asID, "as", "", "applicant id (required)")
	cmd.Flags().StringVar(&email, "email", "", "applicant email for the takeover message")
	cmd.MarkFlagRequired("as")

	return cmd
}

func newObjectUninterestCmd() *cobra.Command {
	var asID string

	cmd := &cobra.Command{
		Use:   "uninterest <object-id>",
		Short: "Leave an object's interest queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				sysError("uninterest: %s", err)
			}
			defer a.Close()

			if err := a.service.DeleteInterested(cmd.Context(), asID, args[0]); err != nil {
				return fmt.Errorf("cancel interest: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Interest cancelled")
			return nil
		},
	}

	cmd.Flags().StringVar(&asID, "as", "", "applicant id (required)")
	cmd.MarkFlagRequired("as")

	return cmd
}

func newObjectUpdateCmd() *cobra.Command {
	var (
		asID      string
		category  string
		typ       string
		foundDate string
	)

	cmd := &cobra.Command{
		Use:   "update <object-id> [field=value...]",
		Short: "Rewrite an object's descriptive data",
		Long: `Update replaces the object's classification and fields. Only the
registering institution may update, and devolved objects are frozen.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseFields(args[1:])
			if err != nil {
				userError("update: %s", err)
			}
			date, err := parseFoundDate(foundDate)
			if err != nil {
				userError("update: %s", err)
			}

			a, err := openApp()
			if err != nil {
				sysError("update: %s", err)
			}
			defer a.Close()

			obj, err := a.service.UpdateObject(cmd.Context(), asID, types.Object{
				ID:        args[0],
				Category:  category,
				Type:      typ,
				Fields:    fields,
				FoundDate: date,
			})
			if err != nil {
				return fmt.Errorf("update object: %w", err)
			}

			if flags.jsonMode {
				return printJSON(cmd, obj)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated object: %s\n", obj.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&asID, "as", "", "institution id (required)")
	cmd.Flags().StringVar(&category, "category", "", "object category (required)")
	cmd.Flags().StringVar(&typ, "type", "", "object type (required)")
	cmd.Flags().StringVar(&foundDate, "found-date", "", "date the object was found (YYYY-MM-DD)")
	cmd.MarkFlagRequired("as")
	cmd.MarkFlagRequired("category")
	cmd.MarkFlagRequired("type")

	return cmd
}

func newObjectStatsCmd() *cobra.Command {
	var (
		category string
		typ      string
		field    string
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Count objects in a category",
		Long: `Stats counts the objects in a category, optionally narrowed to a
type or to objects carrying a named descriptive field.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				sysError("stats: %s", err)
			}
			defer a.Close()

			count, err := a.service.CountObjects(cmd.Context(), category, typ, field)
			if err != nil {
				return fmt.Errorf("count objects: %w", err)
			}

			if flags.jsonMode {
				return printJSON(cmd, map[string]int64{"count": count})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", count)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "object category (required)")
	cmd.Flags().StringVar(&typ, "type", "", "narrow to a type")
	cmd.Flags().StringVar(&field, "field", "", "narrow to objects carrying this field")
	cmd.MarkFlagRequired("category")

	return cmd
}

func newObjectDeleteCmd() *cobra.Command {
	var asID string

	cmd := &cobra.Command{
		Use:   "delete <object-id>",
		Short: "Delete an object that is still available",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				sysError("delete: %s", err)
			}
			defer a.Close()

			if err := a.service.DeleteObject(cmd.Context(), asID, args[0]); err != nil {
				return fmt.Errorf("delete object: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Object deleted")
			return nil
		},
	}

	cmd.Flags().StringVar(&asID, "as", "", "institution id (required)")
	cmd.MarkFlagRequired("as")

	return cmd
}
