package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// IDField is the document field that mirrors the row id.
const IDField = "id"

// Collection is an accessor for one document collection.
type Collection struct {
	name    string
	backend *Backend
}

// Name returns the collection path.
func (c *Collection) Name() string { return c.name }

func timestamp() string { return time.Now().UTC().Format(time.RFC3339Nano) }

// db returns the attached connection under a read lock held by the caller.
func (c *Collection) db() (*sql.DB, error) {
	if !c.backend.attached {
		return nil, ErrDetached
	}
	return c.backend.db, nil
}

// Get returns one document. A missing document yields types.ErrNotFound.
func (c *Collection) Get(ctx context.Context, id string) (types.Entity, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	c.backend.mu.RLock()
	defer c.backend.mu.RUnlock()
	db, err := c.db()
	if err != nil {
		return nil, err
	}
	return c.get(ctx, db, id)
}

func (c *Collection) get(ctx context.Context, q queryer, id string) (types.Entity, error) {
	var body string
	err := q.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = ? AND id = ?`, c.name, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s/%s: %w", c.name, id, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s/%s: %w", c.name, id, err)
	}
	return decode(body)
}

// Fetch returns the documents whose top-level fields equal every filter
// value (case-insensitive, compared on the stringified value), oldest first.
// An empty filter matches all.
func (c *Collection) Fetch(ctx context.Context, filter map[string]string) ([]types.Entity, error) {
	c.backend.mu.RLock()
	defer c.backend.mu.RUnlock()
	db, err := c.db()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		`SELECT body FROM documents WHERE collection = ? ORDER BY created_at, id`, c.name)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", c.name, err)
	}
	defer rows.Close()

	out := []types.Entity{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		doc, err := decode(body)
		if err != nil {
			continue
		}
		if matches(doc, filter) {
			out = append(out, doc)
		}
	}
	return out, rows.Err()
}

func matches(doc types.Entity, filter map[string]string) bool {
	for k, want := range filter {
		v, ok := doc.Lookup(k)
		if !ok || !strings.EqualFold(types.Stringify(v), want) {
			return false
		}
	}
	return true
}

// Set creates or replaces a document. An empty id generates a UUID v7. The
// id field of the stored body always equals the row id. Returns the stored
// document.
func (c *Collection) Set(ctx context.Context, id string, doc types.Entity) (types.Entity, error) {
	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()
	db, err := c.db()
	if err != nil {
		return nil, err
	}
	if id == "" {
		id = doc.ID(IDField)
	}
	if id == "" {
		id = generateUUID()
	}
	out := doc.Clone()
	if out == nil {
		out = types.Entity{}
	}
	out[IDField] = id
	if err := c.put(ctx, db, id, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Merge applies patch to an existing document, merging nested objects.
// The id field cannot be changed.
func (c *Collection) Merge(ctx context.Context, id string, patch types.Entity) (types.Entity, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()
	db, err := c.db()
	if err != nil {
		return nil, err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	doc, err := c.get(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	mergeInto(doc, patch)
	doc[IDField] = id
	if err := c.put(ctx, tx, id, doc); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return doc, nil
}

// mergeInto merges src into dst; objects merge recursively, everything else
// replaces.
func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		if sv, ok := v.(map[string]any); ok {
			if dv, ok := dst[k].(map[string]any); ok {
				mergeInto(dv, sv)
				continue
			}
		}
		dst[k] = v
	}
}

// Delete removes a document and its sub-collections in one transaction. A
// missing document yields types.ErrNotFound.
func (c *Collection) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidID
	}
	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()
	db, err := c.db()
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, c.name, id)
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", c.name, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s/%s: %w", c.name, id, types.ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE collection LIKE ? ESCAPE '\'`,
		escapeLike(c.name+"/"+id+"/")+"%"); err != nil {
		return fmt.Errorf("deleting %s/%s sub-collections: %w", c.name, id, err)
	}
	return tx.Commit()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (c *Collection) put(ctx context.Context, q queryer, id string, doc types.Entity) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding %s/%s: %w", c.name, id, err)
	}
	now := timestamp()
	_, err = q.ExecContext(ctx, `INSERT INTO documents (collection, id, body, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (collection, id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		c.name, id, string(body), now, now)
	if err != nil {
		return fmt.Errorf("writing %s/%s: %w", c.name, id, err)
	}
	return nil
}

func decode(body string) (types.Entity, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return types.Entity(doc), nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
