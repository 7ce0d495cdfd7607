package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/backoffice/internal/render"
	"github.com/mesh-intelligence/backoffice/pkg/types"
)

func newResourcesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "List the configured resources and their capabilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := render.New(cmd.OutOrStdout())
			all := a.catalog.All()
			if a.jsonMode {
				return r.JSON(all)
			}
			rows := make([][]string, 0, len(all))
			for _, cfg := range all {
				tabs := make([]string, 0, len(cfg.Tabs))
				for _, t := range cfg.Tabs {
					if t.Enabled {
						tabs = append(tabs, string(t.Kind))
					}
				}
				rows = append(rows, []string{cfg.Key, cfg.Title, operations(cfg.Capabilities()), strings.Join(tabs, ",")})
			}
			return r.Table([]string{"KEY", "TITLE", "OPERATIONS", "TABS"}, rows, -1)
		},
	}
}

// operations lists the supported operations of a resource.
func operations(c types.Capabilities) string {
	var ops []string
	for _, op := range []struct {
		ok   bool
		name types.Operation
	}{
		{c.Get, types.OpGet},
		{c.List, types.OpList},
		{c.Create, types.OpCreate},
		{c.Update, types.OpUpdate},
		{c.Remove, types.OpRemove},
		{c.UpdateStatus, types.OpUpdateStatus},
	} {
		if op.ok {
			ops = append(ops, string(op.name))
		}
	}
	if len(ops) == 0 {
		return "-"
	}
	return strings.Join(ops, ",")
}
