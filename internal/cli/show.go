package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/backoffice/internal/engine/detail"
	"github.com/mesh-intelligence/backoffice/internal/render"
	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// showOutput is the JSON shape of the show command.
type showOutput struct {
	Entity   types.Entity    `json:"entity"`
	Cached   bool            `json:"cached"`
	NotFound bool            `json:"not_found"`
	Tabs     []types.TabKind `json:"tabs"`
	Tab      *tabOutput      `json:"tab,omitempty"`
}

type tabOutput struct {
	Kind   types.TabKind    `json:"kind"`
	Status detail.TabStatus `json:"status"`
	Items  []types.Entity   `json:"items,omitempty"`
	Error  string           `json:"error,omitempty"`
}

func newShowCmd(a *app) *cobra.Command {
	var tab string
	cmd := &cobra.Command{
		Use:   "show <resource> <id>",
		Short: "Show one record and, optionally, one of its tabs",
		Long: `Show loads a record and prints its fields. With --tab it also loads one
detail tab (related, tasks, documents, communication, billing, audit,
activity). A record that does not exist is shown as a placeholder and the
command exits with status 1.

Example:
  backoffice show parents p1
  backoffice show parents p1 --tab tasks`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.resource(args[0])
			if err != nil {
				return err
			}
			s, err := a.openSession()
			if err != nil {
				return err
			}
			defer s.close()
			e, res, err := a.openEntity(cmd.Context(), s, cfg, args[1])
			if err != nil {
				return err
			}

			out := showOutput{Entity: res.Entity, Cached: res.Cached, NotFound: res.NotFound}
			for _, t := range e.Tabs() {
				out.Tabs = append(out.Tabs, t.Kind)
			}
			var state detail.TabState
			if tab != "" {
				if state, err = e.ActivateTab(cmd.Context(), types.TabKind(tab)); err != nil {
					return err
				}
				out.Tab = &tabOutput{Kind: state.Kind, Status: state.Status, Items: state.Items}
				if state.Err != nil {
					out.Tab.Error = state.Err.Error()
				}
			}

			w := cmd.OutOrStdout()
			r := render.New(w)
			if a.jsonMode {
				if err := r.JSON(out); err != nil {
					return err
				}
			} else {
				if err := r.Entity(cfg, res.Entity); err != nil {
					return err
				}
				fmt.Fprintf(w, "\ntabs: %s\n", joinKinds(out.Tabs))
				if out.Tab != nil && state.Kind != types.TabInformation {
					tabCfg, _ := cfg.Tab(state.Kind)
					fmt.Fprintln(w)
					if err := r.Tab(state, tabCfg.Columns); err != nil {
						return err
					}
				}
			}
			if res.NotFound {
				return userError(fmt.Errorf("%s %q: %w", cfg.Key, args[1], types.ErrNotFound))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tab, "tab", "", "detail tab to load")
	return cmd
}

func joinKinds(kinds []types.TabKind) string {
	s := make([]string, len(kinds))
	for i, k := range kinds {
		s[i] = string(k)
	}
	return strings.Join(s, ", ")
}
