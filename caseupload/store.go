package caseupload

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/caseingest/docingest"
)

// Document is one persisted ingestion result. The pipeline itself never
// retains results; persistence is this layer's concern.
type Document struct {
	ID        string             `json:"id"`
	Filename  string             `json:"filename"`
	Metadata  docingest.Metadata `json:"metadata"`
	Text      string             `json:"text,omitempty"`
	Errors    []string           `json:"errors,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// NewDocumentID returns a fresh type-prefixed, time-sortable document id.
func NewDocumentID() string {
	return "doc_" + uuid.Must(uuid.NewV7()).String()
}

// Store wraps the SQLite database holding ingestion results.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) the database at path and runs migrations.
// Pragmas are applied via Exec rather than DSN parameters so they take
// effect regardless of the driver's DSN dialect.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// busy_timeout and foreign_keys are per-connection; a single pooled
	// connection keeps them in force for every query.
	db.SetMaxOpenConns(1)
	s := &Store{db: db}
	if err := s.applyPragmas(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) applyPragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database is reachable, for health checks.
func (s *Store) Ping() error { return s.db.Ping() }

func (s *Store) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS documents (
    id                 TEXT PRIMARY KEY,
    filename           TEXT NOT NULL,
    file_type          TEXT NOT NULL,
    file_size_bytes    INTEGER NOT NULL,
    page_count         INTEGER NOT NULL DEFAULT 0,
    extraction_method  TEXT NOT NULL,
    word_count         INTEGER NOT NULL,
    character_count    INTEGER NOT NULL,
    text               TEXT NOT NULL,
    errors             TEXT NOT NULL DEFAULT '[]',
    created_at         TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at);
`
	_, err := s.db.Exec(ddl)
	return err
}

// InsertDocument records one ingestion result.
func (s *Store) InsertDocument(doc *Document) error {
	errorsJSON, err := json.Marshal(doc.Errors)
	if err != nil {
		return fmt.Errorf("marshal errors: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO documents
			(id, filename, file_type, file_size_bytes, page_count,
			 extraction_method, word_count, character_count, text, errors, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Filename,
		string(doc.Metadata.FileType), doc.Metadata.FileSizeBytes, doc.Metadata.PageCount,
		string(doc.Metadata.ExtractionMethod), doc.Metadata.WordCount, doc.Metadata.CharacterCount,
		doc.Text, string(errorsJSON),
		doc.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// GetDocument returns the document with the given id, or nil when missing.
func (s *Store) GetDocument(id string) (*Document, error) {
	row := s.db.QueryRow(`
		SELECT id, filename, file_type, file_size_bytes, page_count,
		       extraction_method, word_count, character_count, text, errors, created_at
		FROM documents WHERE id = ?`, id)

	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return doc, err
}

// ListDocuments returns the newest documents up to limit, text omitted.
func (s *Store) ListDocuments(limit int) ([]*Document, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, filename, file_type, file_size_bytes, page_count,
		       extraction_method, word_count, character_count, '', errors, created_at
		FROM documents ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// DeleteExpired removes documents created before cutoff and returns how
// many were removed.
func (s *Store) DeleteExpired(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM documents WHERE created_at < ?`,
		cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("delete expired: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var doc Document
	var fileType, method, errorsJSON, createdAt string
	if err := row.Scan(
		&doc.ID, &doc.Filename, &fileType, &doc.Metadata.FileSizeBytes, &doc.Metadata.PageCount,
		&method, &doc.Metadata.WordCount, &doc.Metadata.CharacterCount,
		&doc.Text, &errorsJSON, &createdAt,
	); err != nil {
		return nil, err
	}
	doc.Metadata.FileType = docingest.Format(fileType)
	doc.Metadata.ExtractionMethod = docingest.Method(method)
	if err := json.Unmarshal([]byte(errorsJSON), &doc.Errors); err != nil {
		return nil, fmt.Errorf("parse errors column: %w", err)
	}
	ts, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	doc.CreatedAt = ts
	return &doc, nil
}
