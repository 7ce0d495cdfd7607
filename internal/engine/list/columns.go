package list

import (
	"fmt"
	"slices"

	"github.com/mesh-intelligence/backoffice/internal/prefs"
	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// Columns returns every declared field in config order.
func (e *Engine) Columns() []types.FieldSpec {
	return slices.Clone(e.cfg.Fields)
}

// VisibleColumns returns the visible field names in display order.
func (e *Engine) VisibleColumns() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.visible)
}

// IsVisible reports whether the named column is shown.
func (e *Engine) IsVisible(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Contains(e.visible, name)
}

// ToggleColumn shows a hidden column (appending it) or hides a visible
// one. Hiding the last visible column falls back to the placeholder column.
func (e *Engine) ToggleColumn(name string) error {
	if _, ok := e.cfg.Field(name); !ok {
		return fmt.Errorf("%q: %w", name, types.ErrUnknownColumn)
	}
	e.mu.Lock()
	cols := slices.Clone(e.visible)
	if i := slices.Index(cols, name); i >= 0 {
		cols = slices.Delete(cols, i, i+1)
	} else {
		cols = append(cols, name)
	}
	e.mu.Unlock()
	e.setVisible(cols)
	return nil
}

// SetVisibleColumns replaces the visible set. Unknown names and duplicates
// are dropped; an empty result shows the placeholder column.
func (e *Engine) SetVisibleColumns(names []string) {
	cols := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := e.cfg.Field(n); ok {
			cols = append(cols, n)
		}
	}
	e.setVisible(cols)
}

// ResetColumns restores the config's default visible set.
func (e *Engine) ResetColumns() {
	e.setVisible(e.defaultColumns())
}

func (e *Engine) setVisible(cols []string) {
	cols = prefs.Dedupe(cols)
	if len(cols) == 0 {
		cols = []string{e.placeholderColumn()}
	}
	e.mu.Lock()
	e.visible = cols
	e.mu.Unlock()
	prefs.Write(e.store, e.cfg.Key, prefs.VisibleColumns, cols)
	e.changed()
}
