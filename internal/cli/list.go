package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/backoffice/internal/engine/list"
	"github.com/mesh-intelligence/backoffice/internal/render"
)

type listFlags struct {
	search   string
	status   string
	segment  string
	sort     string
	columns  []string
	filters  []string
	page     int
	pageSize int
	export   string
	scope    string
}

func newListCmd(a *app) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "list <resource>",
		Short: "List the records of a resource",
		Long: `List loads a resource's records and shows one page of the filtered,
sorted view. Column visibility, sort, status and segment filters and page
size are remembered per resource; flags change them.

Example:
  backoffice list parents
  backoffice list parents --status active --sort name
  backoffice list parents --sort created_at:desc --columns id,name,email
  backoffice list invoices --filter parent_id=p1 --export invoices.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runList(cmd, args[0], f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.search, "search", "", "case-insensitive search over the visible columns")
	fl.StringVar(&f.status, "status", "", `status filter ("" clears it)`)
	fl.StringVar(&f.segment, "segment", "", `named segment ("" clears it)`)
	fl.StringVar(&f.sort, "sort", "", `sort key, "key:desc" for descending, "none" for server order`)
	fl.StringSliceVar(&f.columns, "columns", nil, "visible columns, comma separated")
	fl.StringArrayVar(&f.filters, "filter", nil, "server-side filter key=value (repeatable)")
	fl.IntVar(&f.page, "page", 1, "page number")
	fl.IntVar(&f.pageSize, "page-size", 0, "rows per page")
	fl.StringVar(&f.export, "export", "", "write the rows to a CSV file instead of printing them")
	fl.StringVar(&f.scope, "scope", string(list.ScopeFiltered), "export scope: all or filtered")
	return cmd
}

func (a *app) runList(cmd *cobra.Command, key string, f listFlags) error {
	cfg, err := a.resource(key)
	if err != nil {
		return err
	}
	query, err := parseFilters(f.filters)
	if err != nil {
		return userError(err)
	}

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

	if err := applyListFlags(cmd, e, f); err != nil {
		return userError(err)
	}
	if _, err := e.Load(cmd.Context(), query); err != nil {
		return err
	}

	if f.export != "" {
		return exportCSV(cmd, e, f.export, list.Scope(f.scope))
	}

	view := e.View()
	rows, pages := e.Page(view, f.page)
	r := render.New(cmd.OutOrStdout())
	if a.jsonMode {
		return r.JSON(rows)
	}
	if err := r.List(e, rows); err != nil {
		return err
	}
	page := min(max(f.page, 1), pages)
	fmt.Fprintf(cmd.OutOrStdout(), "\npage %d of %d, %d of %d records\n", page, pages, len(view), len(e.Rows()))
	return nil
}

// applyListFlags changes the remembered view state for flags given on the
// command line only.
func applyListFlags(cmd *cobra.Command, e *list.Engine, f listFlags) error {
	fl := cmd.Flags()
	if fl.Changed("columns") {
		e.SetVisibleColumns(f.columns)
	}
	if fl.Changed("status") {
		e.SetStatusFilter(f.status)
	}
	if fl.Changed("segment") {
		if err := e.SetSegment(f.segment); err != nil {
			return err
		}
	}
	if fl.Changed("sort") {
		switch key, dir, _ := strings.Cut(f.sort, ":"); {
		case key == "" || key == "none":
			e.ClearSort()
		default:
			if err := e.SetSort(key, strings.EqualFold(dir, "desc")); err != nil {
				return err
			}
		}
	}
	if fl.Changed("page-size") {
		if err := e.SetPageSize(f.pageSize); err != nil {
			return err
		}
	}
	if f.search != "" {
		e.SetSearch(f.search)
		e.FlushSearch()
	}
	return nil
}

func exportCSV(cmd *cobra.Command, e *list.Engine, path string, scope list.Scope) error {
	if scope != list.ScopeAll && scope != list.ScopeFiltered {
		return userError(fmt.Errorf("unknown export scope %q (valid: all, filtered)", scope))
	}
	file, err := os.Create(path)
	if err != nil {
		return sysError(fmt.Errorf("create %s: %w", path, err))
	}
	if err := e.ExportCSV(file, scope); err != nil {
		file.Close()
		return sysError(fmt.Errorf("export: %w", err))
	}
	if err := file.Close(); err != nil {
		return sysError(err)
	}
	n := len(e.View())
	if scope == list.ScopeAll {
		n = len(e.Rows())
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", n, path)
	return nil
}

// parseFilters converts key=value arguments to a filter map.
func parseFilters(args []string) (map[string]string, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid filter %q (expected key=value)", arg)
		}
		out[k] = v
	}
	return out, nil
}

func newColumnsCmd(a *app) *cobra.Command {
	var toggle string
	var set []string
	var reset bool
	cmd := &cobra.Command{
		Use:   "columns <resource>",
		Short: "Show or change the visible list columns of a resource",
		Args:  cobra.ExactArgs(1),
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
			e, err := a.listEngine(s, cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			switch {
			case reset:
				e.ResetColumns()
			case toggle != "":
				if err := e.ToggleColumn(toggle); err != nil {
					return userError(err)
				}
			case cmd.Flags().Changed("set"):
				e.SetVisibleColumns(set)
			}

			r := render.New(cmd.OutOrStdout())
			if a.jsonMode {
				return r.JSON(e.VisibleColumns())
			}
			rows := make([][]string, 0, len(e.Columns()))
			for _, c := range e.Columns() {
				rows = append(rows, []string{c.Name, c.Title(), visibleMark(e.IsVisible(c.Name)), visibleMark(c.Sortable)})
			}
			return r.Table([]string{"NAME", "LABEL", "VISIBLE", "SORTABLE"}, rows, -1)
		},
	}
	cmd.Flags().StringVar(&toggle, "toggle", "", "toggle one column")
	cmd.Flags().StringSliceVar(&set, "set", nil, "set the visible columns, comma separated")
	cmd.Flags().BoolVar(&reset, "reset", false, "restore the default columns")
	return cmd
}

func visibleMark(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
