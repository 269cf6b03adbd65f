// Package storage provides the SQLite item-document catalog.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/osusume/internal/models"
)

// ErrNotFound is returned when an item has no document in the catalog.
// Unknown items are expected (items with no tags), so callers treat this
// as a soft miss, not a failure.
var ErrNotFound = errors.New("item document not found")

// Storage is the read/write interface over the item-document catalog.
// After the index build commits, only the read operations are used.
type Storage interface {
	CreateItemDocument(ctx context.Context, doc *models.ItemDocument) error
	GetItemDocument(ctx context.Context, itemID int64) (*models.ItemDocument, error)
	ListItemIDs(ctx context.Context) ([]int64, error)
	CountItemDocuments(ctx context.Context) (int, error)
	Close() error
}

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
	CREATE TABLE IF NOT EXISTS item_documents (
		item_id INTEGER PRIMARY KEY,
		tags TEXT NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateItemDocument inserts a document. A document already stored under the
// same item ID is replaced, so a later run of duplicate IDs in the input wins.
func (s *SQLiteStorage) CreateItemDocument(ctx context.Context, doc *models.ItemDocument) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO item_documents (item_id, tags) VALUES (?, ?)`,
		doc.ItemID, doc.Tags,
	)
	return err
}

// GetItemDocument returns the document for itemID, or ErrNotFound.
func (s *SQLiteStorage) GetItemDocument(ctx context.Context, itemID int64) (*models.ItemDocument, error) {
	var doc models.ItemDocument
	err := s.db.QueryRowContext(ctx,
		`SELECT item_id, tags FROM item_documents WHERE item_id = ?`, itemID,
	).Scan(&doc.ItemID, &doc.Tags)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, itemID)
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListItemIDs returns all item IDs in the catalog, ascending.
func (s *SQLiteStorage) ListItemIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT item_id FROM item_documents ORDER BY item_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountItemDocuments returns the number of documents in the catalog.
func (s *SQLiteStorage) CountItemDocuments(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM item_documents`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
