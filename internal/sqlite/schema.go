package sqlite

// Schema DDL. Documents are JSON bodies keyed by (collection, id); nested
// collections use their full path, e.g. "students/s1/documents".
const (
	createDocuments = `CREATE TABLE IF NOT EXISTS documents (
    collection TEXT NOT NULL,
    id TEXT NOT NULL,
    body TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (collection, id)
);`

	createPreferences = `CREATE TABLE IF NOT EXISTS preferences (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`
)

// Index DDL.
const (
	indexDocumentsCreated = `CREATE INDEX IF NOT EXISTS idx_documents_created ON documents (collection, created_at);`
)

var schemaDDL = []string{createDocuments, createPreferences}

var indexDDL = []string{indexDocumentsCreated}
