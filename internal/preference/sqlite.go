package preference

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// ErrMalformedRow is returned when a ratings row does not decompose into
// exactly (userID, itemID, rating).
var ErrMalformedRow = errors.New("malformed rating row")

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite ratings database at dbPath and
// initializes the schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
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
	schema := `
	CREATE TABLE IF NOT EXISTS ratings (
		user_id INTEGER NOT NULL,
		item_id INTEGER NOT NULL,
		rating REAL NOT NULL,
		PRIMARY KEY (user_id, item_id)
	);
	CREATE INDEX IF NOT EXISTS idx_ratings_item_id ON ratings(item_id);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// ImportCSV loads `userID,itemID,rating` lines from csvPath into the store.
// When the store already holds ratings the import is a no-op, so repeated
// process starts reuse the loaded data. Blank lines are skipped; any other
// row that fails to parse aborts the import with ErrMalformedRow context.
func (s *SQLiteStore) ImportCSV(ctx context.Context, csvPath string) (int, error) {
	existing, err := s.CountRatings(ctx)
	if err != nil {
		return 0, err
	}
	if existing > 0 {
		return 0, nil
	}

	f, err := os.Open(csvPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open ratings source: %w", err)
	}
	defer f.Close()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO ratings (user_id, item_id, rating) VALUES (?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	defer stmt.Close()

	n := 0
	lineNo := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		userID, itemID, rating, err := parseRatingRow(line)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if _, err := stmt.ExecContext(ctx, userID, itemID, rating); err != nil {
			_ = tx.Rollback()
			return 0, err
		}
		n++
	}
	if err := scanner.Err(); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("failed to read ratings source: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// parseRatingRow decomposes "userID,itemID,rating" into its parts.
func parseRatingRow(line string) (int64, int64, float64, error) {
	userPart, rest, ok := strings.Cut(line, ",")
	if !ok {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrMalformedRow, line)
	}
	itemPart, ratingPart, ok := strings.Cut(rest, ",")
	if !ok {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrMalformedRow, line)
	}
	userID, err := strconv.ParseInt(strings.TrimSpace(userPart), 10, 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: bad user id in %q", ErrMalformedRow, line)
	}
	itemID, err := strconv.ParseInt(strings.TrimSpace(itemPart), 10, 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: bad item id in %q", ErrMalformedRow, line)
	}
	rating, err := strconv.ParseFloat(strings.TrimSpace(ratingPart), 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: bad rating in %q", ErrMalformedRow, line)
	}
	return userID, itemID, rating, nil
}

// ItemIDs returns all distinct item IDs that have at least one rating, ascending.
func (s *SQLiteStore) ItemIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT item_id FROM ratings ORDER BY item_id`)
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

// UserRatings returns itemID -> rating for the given user.
func (s *SQLiteStore) UserRatings(ctx context.Context, userID int64) (map[int64]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT item_id, rating FROM ratings WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ratings := make(map[int64]float64)
	for rows.Next() {
		var itemID int64
		var rating float64
		if err := rows.Scan(&itemID, &rating); err != nil {
			return nil, err
		}
		ratings[itemID] = rating
	}
	return ratings, rows.Err()
}

// Rating returns the rating for (userID, itemID) and whether one exists.
func (s *SQLiteStore) Rating(ctx context.Context, userID, itemID int64) (float64, bool, error) {
	var rating float64
	err := s.db.QueryRowContext(ctx,
		`SELECT rating FROM ratings WHERE user_id = ? AND item_id = ?`,
		userID, itemID,
	).Scan(&rating)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return rating, true, nil
}

// CountRatings returns the total number of stored ratings.
func (s *SQLiteStore) CountRatings(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ratings`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
