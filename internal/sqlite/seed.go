package sqlite

import (
	"context"
	"fmt"
	"log/slog"
)

// CollectionKey names the collection of a record in a seed or dump file.
const CollectionKey = "_collection"

// Seed loads a JSONL file into the document store. Each line is a JSON
// object with a _collection field and an optional id; lines that are
// malformed or lack a collection are skipped. Existing documents with the
// same id are replaced. Returns the number of documents written.
func (b *Backend) Seed(ctx context.Context, path string) (int, error) {
	n := 0
	err := scanJSONL(path, func(line int, doc map[string]any) error {
		name, _ := doc[CollectionKey].(string)
		if name == "" {
			slog.Debug("skipping seed record without collection", "line", line)
			return nil
		}
		delete(doc, CollectionKey)
		coll, err := b.Collection(name)
		if err != nil {
			return err
		}
		if _, err := coll.Set(ctx, "", doc); err != nil {
			return fmt.Errorf("seeding %s (line %d): %w", name, line, err)
		}
		n++
		return nil
	})
	return n, err
}

// Dump writes every document, tagged with its collection, to a JSONL file
// that Seed can load back. Returns the number of documents written.
func (b *Backend) Dump(ctx context.Context, path string) (int, error) {
	names, err := b.Collections(ctx)
	if err != nil {
		return 0, err
	}
	var records []map[string]any
	for _, name := range names {
		coll, err := b.Collection(name)
		if err != nil {
			return 0, err
		}
		docs, err := coll.Fetch(ctx, nil)
		if err != nil {
			return 0, err
		}
		for _, doc := range docs {
			doc[CollectionKey] = name
			records = append(records, doc)
		}
	}
	if err := writeJSONL(path, records); err != nil {
		return 0, err
	}
	return len(records), nil
}
