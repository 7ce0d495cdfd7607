package list

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// Scope selects which rows an export covers.
type Scope string

// Export scopes.
const (
	ScopeAll      Scope = "all"
	ScopeFiltered Scope = "filtered"
)

const bom = "\ufeff"

// missingCell is written for missing and null values.
const missingCell = "-"

// ExportCSV writes the current dataset (ScopeAll) or the derived view
// (ScopeFiltered) as UTF-8 CSV with a BOM. Only visible columns are
// written, headed by their titles. Every field is quoted.
func (e *Engine) ExportCSV(w io.Writer, scope Scope) error {
	e.mu.Lock()
	cols := append([]string(nil), e.visible...)
	var rows []types.Entity
	switch scope {
	case ScopeAll, "":
		rows = cloneRows(e.raw)
	case ScopeFiltered:
		rows = e.deriveLocked()
	default:
		e.mu.Unlock()
		return fmt.Errorf("unknown export scope %q", scope)
	}
	e.mu.Unlock()

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(bom); err != nil {
		return err
	}
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c
		if f, ok := e.cfg.Field(c); ok {
			header[i] = f.Title()
		}
	}
	if err := writeRecord(bw, header); err != nil {
		return err
	}
	record := make([]string, len(cols))
	for _, row := range rows {
		for i, c := range cols {
			record[i] = cell(row, c)
		}
		if err := writeRecord(bw, record); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func cell(row types.Entity, col string) string {
	v, ok := row.Lookup(col)
	if !ok || v == nil {
		return missingCell
	}
	return types.Stringify(v)
}

// writeRecord quotes every field. encoding/csv only quotes when needed.
func writeRecord(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(`"` + strings.ReplaceAll(f, `"`, `""`) + `"`); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\r\n")
	return err
}
