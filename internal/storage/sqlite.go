package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/matome/internal/models"
)

// maxBatchIDs stays below SQLite's default host parameter limit.
const maxBatchIDs = 500

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would get its own empty in-memory database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		source_path TEXT,
		source_mtime INTEGER,
		source_size INTEGER,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at);
	CREATE INDEX IF NOT EXISTS idx_documents_source_path ON documents(source_path);
	`
	_, err := db.Exec(schema)
	return err
}

const documentColumns = `id, source, source_path, source_mtime, source_size, created_at, updated_at`

// PutDocument inserts doc or replaces the document with the same id. The
// creation time of a replaced document is kept.
func (s *SQLiteStorage) PutDocument(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		return errors.New("document id is required")
	}
	source := doc.Source
	if source == nil {
		source = map[string]any{}
	}
	sourceJSON, err := json.Marshal(source)
	if err != nil {
		return fmt.Errorf("failed to marshal source: %w", err)
	}

	var path sql.NullString
	var mtime, size sql.NullInt64
	if doc.File != nil {
		path = sql.NullString{String: doc.File.Path, Valid: true}
		mtime = sql.NullInt64{Int64: doc.File.ModTime.UnixNano(), Valid: true}
		size = sql.NullInt64{Int64: doc.File.Size, Valid: true}
	}

	now := time.Now()
	doc.UpdatedAt = now
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (`+documentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   source = excluded.source,
		   source_path = excluded.source_path,
		   source_mtime = excluded.source_mtime,
		   source_size = excluded.source_size,
		   updated_at = excluded.updated_at`,
		doc.ID, string(sourceJSON), path, mtime, size, doc.CreatedAt, doc.UpdatedAt,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var (
		doc        models.Document
		sourceJSON string
		path       sql.NullString
		mtime      sql.NullInt64
		size       sql.NullInt64
	)
	if err := row.Scan(&doc.ID, &sourceJSON, &path, &mtime, &size, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(sourceJSON), &doc.Source); err != nil {
		return nil, fmt.Errorf("failed to unmarshal source of %s: %w", doc.ID, err)
	}
	if path.Valid {
		doc.File = &models.FileOrigin{
			Path:    path.String,
			ModTime: time.Unix(0, mtime.Int64),
			Size:    size.Int64,
		}
	}
	return &doc, nil
}

// GetDocument returns a document by ID. A missing document yields an error
// wrapping models.ErrDocumentNotFound.
func (s *SQLiteStorage) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", models.ErrDocumentNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetSources loads the sources of ids in batches.
func (s *SQLiteStorage) GetSources(ctx context.Context, ids []string) (map[string]map[string]any, error) {
	out := make(map[string]map[string]any, len(ids))
	for start := 0; start < len(ids); start += maxBatchIDs {
		end := min(start+maxBatchIDs, len(ids))
		batch := ids[start:end]
		args := make([]any, len(batch))
		for i, id := range batch {
			args[i] = id
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(batch)), ",")
		rows, err := s.db.QueryContext(ctx,
			`SELECT id, source FROM documents WHERE id IN (`+placeholders+`)`, args...)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var id, sourceJSON string
			if err := rows.Scan(&id, &sourceJSON); err != nil {
				rows.Close()
				return nil, err
			}
			var source map[string]any
			if err := json.Unmarshal([]byte(sourceJSON), &source); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to unmarshal source of %s: %w", id, err)
			}
			out[id] = source
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DeleteDocument removes a document by ID. A missing document yields an
// error wrapping models.ErrDocumentNotFound.
func (s *SQLiteStorage) DeleteDocument(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", models.ErrDocumentNotFound, id)
	}
	return nil
}

// ListDocuments returns documents with offset and limit, newest first.
func (s *SQLiteStorage) ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDocuments(rows)
}

// DocumentsByPath returns the documents extracted from path, ordered by id.
func (s *SQLiteStorage) DocumentsByPath(ctx context.Context, path string) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE source_path = ? ORDER BY id`, path)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDocuments(rows)
}

func collectDocuments(rows *sql.Rows) ([]*models.Document, error) {
	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// CountDocuments returns the total number of documents.
func (s *SQLiteStorage) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
