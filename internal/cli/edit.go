package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/backoffice/internal/render"
	"github.com/mesh-intelligence/backoffice/pkg/types"
)

func newEditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <resource> <id> <field> <value>",
		Short: "Change one field of a record",
		Long: `Edit validates the value against the field's type (number, date,
select options) and saves only that field. Nested fields use dots, e.g.
address.city.

Example:
  backoffice edit parents p1 email amani@example.org
  backoffice edit students s1 grade P4`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.resource(args[0])
			if err != nil {
				return err
			}
			id, field, value := args[1], args[2], args[3]
			s, err := a.openSession()
			if err != nil {
				return err
			}
			defer s.close()
			e, res, err := a.openEntity(cmd.Context(), s, cfg, id)
			if err != nil {
				return err
			}
			if err := requireFound(cfg, id, res); err != nil {
				return err
			}
			if err := e.Update(cmd.Context(), field, value); err != nil {
				var ve *types.ValidationError
				if errors.As(err, &ve) {
					return userError(err)
				}
				return err
			}
			if a.jsonMode {
				return render.New(cmd.OutOrStdout()).JSON(e.Entity())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s = %s\n", cfg.Key, id, field, render.Cell(e.Entity(), field))
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <resource> <id> <status>",
		Short: "Change the status of a record",
		Long: `Status sends a status transition (e.g. active, suspended, blocked) and
reloads the record.

Example:
  backoffice status parents p2 active`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.resource(args[0])
			if err != nil {
				return err
			}
			if !cfg.Capabilities().UpdateStatus {
				return userError(fmt.Errorf("%s status changes: %w", cfg.Key, types.ErrUnsupported))
			}
			if err := checkStatus(cfg, args[2]); err != nil {
				return userError(err)
			}
			id := args[1]
			s, err := a.openSession()
			if err != nil {
				return err
			}
			defer s.close()
			e, res, err := a.openEntity(cmd.Context(), s, cfg, id)
			if err != nil {
				return err
			}
			if err := requireFound(cfg, id, res); err != nil {
				return err
			}
			if err := e.UpdateStatus(cmd.Context(), args[2]); err != nil {
				return err
			}
			if a.jsonMode {
				return render.New(cmd.OutOrStdout()).JSON(e.Entity())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: status = %s\n", cfg.Key, id, render.Cell(e.Entity(), cfg.StatusField))
			return nil
		},
	}
}

// checkStatus rejects statuses outside the resource's declared options.
func checkStatus(cfg types.ResourceConfig, status string) error {
	if len(cfg.StatusOptions) == 0 {
		return nil
	}
	for _, opt := range cfg.StatusOptions {
		if opt == status {
			return nil
		}
	}
	return &types.ValidationError{Field: cfg.StatusField, Message: fmt.Sprintf("must be one of %v", cfg.StatusOptions)}
}

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <resource> <id>",
		Short: "Delete a record",
		Long: `Delete removes a record. The deletion must be confirmed with --yes.

Example:
  backoffice delete coupons c1 --yes`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.resource(args[0])
			if err != nil {
				return err
			}
			if !cfg.Capabilities().Remove {
				return userError(fmt.Errorf("%s deletion: %w", cfg.Key, types.ErrUnsupported))
			}
			id := args[1]
			s, err := a.openSession()
			if err != nil {
				return err
			}
			defer s.close()
			e, err := a.detailEngine(s, cfg)
			if err != nil {
				return err
			}
			e.Open(id, nil)
			if err := e.RequestDelete(); err != nil {
				return err
			}
			if !yes {
				e.CancelDelete()
				return userError(fmt.Errorf("delete %s %q: %w (re-run with --yes)", cfg.Key, id, types.ErrConfirmationRequired))
			}
			if err := e.ConfirmDelete(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", cfg.Key, id)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the deletion")
	return cmd
}
