package list

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mesh-intelligence/backoffice/internal/prefs"
	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// View returns the derived view: the raw rows restricted by segment, then by
// status filter, then by the search text over visible columns, then ordered
// by the explicit sort if the user chose one. Paging is left to the renderer.
func (e *Engine) View() []types.Entity {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deriveLocked()
}

func (e *Engine) deriveLocked() []types.Entity {
	var segment *types.Segment
	if e.filters.Segment != "" {
		if s, ok := e.cfg.Segment(e.filters.Segment); ok {
			segment = &s
		}
	}
	needle := strings.ToLower(strings.TrimSpace(e.search))

	out := make([]types.Entity, 0, len(e.raw))
	for _, row := range e.raw {
		if segment != nil && !segment.Matches(row) {
			continue
		}
		if e.filters.Status != "" && !e.statusMatches(row) {
			continue
		}
		if needle != "" && !e.searchMatches(row, needle) {
			continue
		}
		out = append(out, row.Clone())
	}

	if e.sort.Active && e.sort.Key != "" {
		key, desc := e.sort.Key, e.sort.Desc
		sort.SliceStable(out, func(i, j int) bool {
			a, aok := out[i].Lookup(key)
			b, bok := out[j].Lookup(key)
			return less(a, aok, b, bok, desc)
		})
	}
	return out
}

func (e *Engine) statusMatches(row types.Entity) bool {
	v, ok := row.Lookup(e.cfg.StatusField)
	if !ok {
		return false
	}
	return strings.EqualFold(types.Stringify(v), e.filters.Status)
}

// searchMatches is a case-insensitive substring match over the visible
// columns only. Objects and arrays are matched on their JSON encoding.
func (e *Engine) searchMatches(row types.Entity, needle string) bool {
	for _, col := range e.visible {
		v, ok := row.Lookup(col)
		if !ok || v == nil {
			continue
		}
		if strings.Contains(strings.ToLower(types.Stringify(v)), needle) {
			return true
		}
	}
	return false
}

// SetSearch records the search text. The derived view picks it up after the
// debounce window; rapid calls coalesce into one recomputation.
func (e *Engine) SetSearch(text string) {
	e.mu.Lock()
	e.pendingSearch = text
	e.mu.Unlock()
	e.debounce.trigger()
}

// FlushSearch applies the pending search text immediately.
func (e *Engine) FlushSearch() {
	e.debounce.stop()
	e.mu.Lock()
	if e.search == e.pendingSearch {
		e.mu.Unlock()
		return
	}
	e.search = e.pendingSearch
	e.mu.Unlock()
	e.changed()
}

// Search returns the search text currently applied to the view.
func (e *Engine) Search() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.search
}

// SetStatusFilter restricts the view to rows whose status field equals
// status (case-insensitive). An empty status clears the filter.
func (e *Engine) SetStatusFilter(status string) {
	e.mu.Lock()
	e.filters.Status = status
	f := e.filters
	e.mu.Unlock()
	prefs.Write(e.store, e.cfg.Key, prefs.Filters, f)
	e.changed()
}

// StatusFilter returns the active status filter.
func (e *Engine) StatusFilter() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filters.Status
}

// SetSegment selects a configured segment. An empty name shows all rows.
func (e *Engine) SetSegment(name string) error {
	if name != "" {
		if _, ok := e.cfg.Segment(name); !ok {
			return fmt.Errorf("%q: %w", name, types.ErrUnknownSegment)
		}
	}
	e.mu.Lock()
	e.filters.Segment = name
	f := e.filters
	e.mu.Unlock()
	prefs.Write(e.store, e.cfg.Key, prefs.Filters, f)
	e.changed()
	return nil
}

// Segment returns the active segment name.
func (e *Engine) Segment() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filters.Segment
}

// SortBy sorts by key. The first call sorts ascending; sorting again by the
// same key flips the direction.
func (e *Engine) SortBy(key string) error {
	if err := e.checkSortable(key); err != nil {
		return err
	}
	e.mu.Lock()
	if e.sort.Active && e.sort.Key == key {
		e.sort.Desc = !e.sort.Desc
	} else {
		e.sort = SortState{Key: key}
	}
	e.sort.Active = true
	s := e.sort
	e.mu.Unlock()
	prefs.Write(e.store, e.cfg.Key, prefs.SortState, s)
	e.changed()
	return nil
}

// SetSort sets an explicit sort key and direction.
func (e *Engine) SetSort(key string, desc bool) error {
	if err := e.checkSortable(key); err != nil {
		return err
	}
	e.mu.Lock()
	e.sort = SortState{Key: key, Desc: desc, Active: true}
	s := e.sort
	e.mu.Unlock()
	prefs.Write(e.store, e.cfg.Key, prefs.SortState, s)
	e.changed()
	return nil
}

// checkSortable accepts declared fields marked sortable.
func (e *Engine) checkSortable(key string) error {
	f, ok := e.cfg.Field(key)
	if !ok {
		return fmt.Errorf("%q: %w", key, types.ErrUnknownColumn)
	}
	if !f.Sortable {
		return fmt.Errorf("%q: %w", key, types.ErrNotSortable)
	}
	return nil
}

// ClearSort returns to server order.
func (e *Engine) ClearSort() {
	e.mu.Lock()
	e.sort = SortState{}
	e.mu.Unlock()
	prefs.Write(e.store, e.cfg.Key, prefs.SortState, SortState{})
	e.changed()
}

// Sort returns the current sort state.
func (e *Engine) Sort() SortState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sort
}

// SetPageSize changes and persists the page size.
func (e *Engine) SetPageSize(n int) error {
	if n <= 0 || n > maxPageSize {
		return fmt.Errorf("page size %d out of range 1..%d", n, maxPageSize)
	}
	e.mu.Lock()
	e.pageSize = n
	e.mu.Unlock()
	prefs.Write(e.store, e.cfg.Key, prefs.PageSize, n)
	return nil
}

// PageSize returns the page size.
func (e *Engine) PageSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pageSize
}

// Page slices rows for display. page is 1-based and clamped to the valid
// range; the second result is the number of pages (at least 1).
func (e *Engine) Page(rows []types.Entity, page int) ([]types.Entity, int) {
	size := e.PageSize()
	pages := int(math.Max(1, math.Ceil(float64(len(rows))/float64(size))))
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	start := (page - 1) * size
	end := min(start+size, len(rows))
	return rows[start:end], pages
}

// less orders two cell values. Missing and nil values always sort last.
func less(a any, aok bool, b any, bok bool, desc bool) bool {
	aNil, bNil := !aok || a == nil, !bok || b == nil
	if aNil || bNil {
		return !aNil && bNil
	}
	c := compareValues(a, b)
	if desc {
		return c > 0
	}
	return c < 0
}

// compareValues compares numerically when both values are numbers or
// numeric strings, chronologically when both are dates, and otherwise as
// case-insensitive strings.
func compareValues(a, b any) int {
	if x, ok := toNumber(a); ok {
		if y, ok := toNumber(b); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	}
	if x, ok := toTime(a); ok {
		if y, ok := toTime(b); ok {
			return x.Compare(y)
		}
	}
	return strings.Compare(strings.ToLower(types.Stringify(a)), strings.ToLower(types.Stringify(b)))
}

func toNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		return parseFinite(strings.TrimSpace(x))
	}
	if s, ok := v.(fmt.Stringer); ok {
		return parseFinite(s.String())
	}
	return 0, false
}

// parseFinite rejects NaN and infinities so text such as "Nan" or "Inf"
// compares as a string.
func parseFinite(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"}

func toTime(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
