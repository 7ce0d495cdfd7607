package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/backoffice/internal/engine/list"
	"github.com/mesh-intelligence/backoffice/internal/render"
	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// bulkOutput is the JSON shape of the bulk commands.
type bulkOutput struct {
	Succeeded []string          `json:"succeeded"`
	Failed    map[string]string `json:"failed"`
}

func newBulkStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bulk-status <resource> <status> <id>...",
		Short: "Change the status of several records",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.resource(args[0])
			if err != nil {
				return err
			}
			if !cfg.Capabilities().UpdateStatus {
				return userError(fmt.Errorf("%s status changes: %w", cfg.Key, types.ErrUnsupported))
			}
			if err := checkStatus(cfg, args[1]); err != nil {
				return userError(err)
			}
			return a.runBulk(cmd, cfg, func(e *list.Engine) list.BulkResult {
				return e.BulkUpdateStatus(cmd.Context(), args[2:], args[1])
			})
		},
	}
}

func newBulkDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "bulk-delete <resource> <id>...",
		Short: "Delete several records",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.resource(args[0])
			if err != nil {
				return err
			}
			if !cfg.Capabilities().Remove {
				return userError(fmt.Errorf("%s deletion: %w", cfg.Key, types.ErrUnsupported))
			}
			if !yes {
				return userError(fmt.Errorf("delete %d %s: %w (re-run with --yes)", len(args)-1, cfg.Key, types.ErrConfirmationRequired))
			}
			return a.runBulk(cmd, cfg, func(e *list.Engine) list.BulkResult {
				return e.BulkDelete(cmd.Context(), args[1:])
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the deletion")
	return cmd
}

// runBulk runs a bulk action and reports per-record outcomes. The command
// fails when any record failed.
func (a *app) runBulk(cmd *cobra.Command, cfg types.ResourceConfig, action func(*list.Engine) list.BulkResult) error {
	s, err := a.openSession()
	if err != nil {
		return err
	}
	defer s.close()
	e, err := a.listEngine(s, cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	res := action(e)
	w := cmd.OutOrStdout()
	if a.jsonMode {
		out := bulkOutput{Succeeded: res.Succeeded, Failed: make(map[string]string, len(res.Failed))}
		for id, err := range res.Failed {
			out.Failed[id] = err.Error()
		}
		if err := render.New(w).JSON(out); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(w, "%d succeeded, %d failed\n", len(res.Succeeded), len(res.Failed))
		ids := make([]string, 0, len(res.Failed))
		for id := range res.Failed {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintf(w, "  %s: %v\n", id, res.Failed[id])
		}
	}
	return res.Err()
}
