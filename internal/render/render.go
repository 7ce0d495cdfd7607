// Package render draws list and detail views as aligned plain-text tables
// for the terminal.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/mesh-intelligence/backoffice/internal/engine/detail"
	"github.com/mesh-intelligence/backoffice/internal/engine/list"
	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// Missing is shown for absent or null values.
const Missing = "-"

// Sort indicators appended to the sorted column header.
const (
	arrowAsc  = "▲"
	arrowDesc = "▼"
)

// columnGap separates table columns.
const columnGap = 2

// Renderer writes views to w. Styling follows the color profile of w, so
// output to a pipe or buffer is plain text.
type Renderer struct {
	w      io.Writer
	header lipgloss.Style
	sorted lipgloss.Style
	muted  lipgloss.Style
}

// New returns a renderer for w.
func New(w io.Writer) *Renderer {
	lr := lipgloss.NewRenderer(w)
	return &Renderer{
		w:      w,
		header: lr.NewStyle().Bold(true),
		sorted: lr.NewStyle().Bold(true).Underline(true),
		muted:  lr.NewStyle().Faint(true),
	}
}

// Cell formats one entity value for display.
func Cell(row types.Entity, col string) string {
	v, ok := row.Lookup(col)
	if !ok || v == nil {
		return Missing
	}
	s := types.Stringify(v)
	if s == "" {
		return Missing
	}
	return s
}

// Headers returns the titles of the visible columns. Only an explicit sort
// on a sortable field marks a header, so a server-provided order is never
// shown as sorted.
func Headers(fields []types.FieldSpec, visible []string, sort list.SortState) []string {
	specs := make(map[string]types.FieldSpec, len(fields))
	for _, f := range fields {
		specs[f.Name] = f
	}
	out := make([]string, len(visible))
	for i, name := range visible {
		f, ok := specs[name]
		title := name
		if ok {
			title = f.Title()
		}
		if ok && f.Sortable && sort.Active && sort.Key == name {
			if sort.Desc {
				title += " " + arrowDesc
			} else {
				title += " " + arrowAsc
			}
		}
		out[i] = title
	}
	return out
}

// Table writes headers and rows as aligned columns. Widths are measured
// without ANSI sequences so styled headers stay aligned.
func (r *Renderer) Table(headers []string, rows [][]string, sortedCol int) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(r.w, r.muted.Render("no results"))
		return err
	}
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := range headers {
			if i < len(row) {
				widths[i] = max(widths[i], lipgloss.Width(row[i]))
			}
		}
	}

	styled := make([]string, len(headers))
	for i, h := range headers {
		style := r.header
		if i == sortedCol {
			style = r.sorted
		}
		styled[i] = style.Render(h)
	}
	if err := r.writeRow(styled, widths); err != nil {
		return err
	}
	for _, row := range rows {
		if err := r.writeRow(row, widths); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) writeRow(cells []string, widths []int) error {
	var b strings.Builder
	for i, w := range widths {
		c := Missing
		if i < len(cells) {
			c = cells[i]
		}
		b.WriteString(c)
		if i < len(widths)-1 {
			b.WriteString(strings.Repeat(" ", w-lipgloss.Width(c)+columnGap))
		}
	}
	b.WriteByte('\n')
	_, err := io.WriteString(r.w, b.String())
	return err
}

// KV writes label/value pairs as two aligned columns.
func (r *Renderer) KV(pairs [][2]string) error {
	tw := tabwriter.NewWriter(r.w, 0, 0, columnGap, ' ', 0)
	for _, p := range pairs {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", p[0], p[1]); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// List writes one page of a list view.
func (r *Renderer) List(e *list.Engine, rows []types.Entity) error {
	visible := e.VisibleColumns()
	sort := e.Sort()
	headers := Headers(e.Columns(), visible, sort)
	sortedCol := -1
	for i, name := range visible {
		if sort.Active && sort.Key == name {
			sortedCol = i
		}
	}
	return r.Table(headers, entityRows(rows, visible), sortedCol)
}

// Entity writes the configured fields of one entity, then any extra
// top-level keys in sorted order.
func (r *Renderer) Entity(cfg types.ResourceConfig, ent types.Entity) error {
	pairs := make([][2]string, 0, len(cfg.Fields))
	seen := make(map[string]bool, len(cfg.Fields))
	for _, f := range cfg.Fields {
		seen[f.Name] = true
		pairs = append(pairs, [2]string{f.Title(), Cell(ent, f.Name)})
	}
	extra := make([]string, 0)
	for k := range ent {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	slices.Sort(extra)
	for _, k := range extra {
		pairs = append(pairs, [2]string{k, Cell(ent, k)})
	}
	return r.KV(pairs)
}

// Tab writes a detail tab. Disabled tabs render an explicit notice rather
// than an empty table.
func (r *Renderer) Tab(state detail.TabState, columns []string) error {
	title := r.header.Render(state.Title)
	if state.Title == "" {
		title = r.header.Render(string(state.Kind))
	}
	if _, err := fmt.Fprintln(r.w, title); err != nil {
		return err
	}
	switch state.Status {
	case detail.TabNotConfigured:
		_, err := fmt.Fprintln(r.w, r.muted.Render("not configured for this resource"))
		return err
	case detail.TabFailed:
		msg := "could not load"
		if state.Err != nil {
			msg += ": " + state.Err.Error()
		}
		_, err := fmt.Fprintln(r.w, msg)
		return err
	}
	if len(columns) == 0 {
		columns = itemColumns(state.Items)
	}
	return r.Table(columns, entityRows(state.Items, columns), -1)
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func entityRows(rows []types.Entity, cols []string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(cols))
		for j, c := range cols {
			cells[j] = Cell(row, c)
		}
		out[i] = cells
	}
	return out
}

// itemColumns picks columns for sub-resource items without configured
// columns: id first, then the remaining keys of the first item in sorted
// order.
func itemColumns(items []types.Entity) []string {
	if len(items) == 0 {
		return []string{"id"}
	}
	cols := []string{"id"}
	rest := make([]string, 0, len(items[0]))
	for k := range items[0] {
		if k != "id" {
			rest = append(rest, k)
		}
	}
	slices.Sort(rest)
	return append(cols, rest...)
}
