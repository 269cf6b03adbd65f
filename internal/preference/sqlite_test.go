package preference

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "ratings.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func importCSV(t *testing.T, store *SQLiteStore, content string) int {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ratings.csv")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	n, err := store.ImportCSV(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func TestImportCSV_loadsAndQueries(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	n := importCSV(t, store, "5,2,5.0\n5,3,1.0\n\n9,2,3.5\n")
	if n != 3 {
		t.Errorf("imported %d rows, want 3", n)
	}

	ids, err := store.ItemIDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != 2 || ids[1] != 3 {
		t.Errorf("ItemIDs = %v, want [2 3]", ids)
	}

	ratings, err := store.UserRatings(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(ratings) != 2 || ratings[2] != 5.0 || ratings[3] != 1.0 {
		t.Errorf("UserRatings(5) = %v", ratings)
	}

	rating, ok, err := store.Rating(ctx, 9, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || rating != 3.5 {
		t.Errorf("Rating(9, 2) = %v, %v", rating, ok)
	}
	if _, ok, err := store.Rating(ctx, 9, 3); err != nil || ok {
		t.Errorf("Rating(9, 3) should not exist")
	}
}

func TestImportCSV_idempotent(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if n := importCSV(t, store, "5,2,5.0\n"); n != 1 {
		t.Fatalf("first import: %d rows", n)
	}
	// A second import is a no-op even with different content.
	if n := importCSV(t, store, "6,7,2.0\n"); n != 0 {
		t.Errorf("second import loaded %d rows, want 0", n)
	}
	total, err := store.CountRatings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Errorf("CountRatings = %d, want 1", total)
	}
}

func TestImportCSV_malformedRow(t *testing.T) {
	store := testStore(t)
	path := filepath.Join(t.TempDir(), "ratings.csv")
	if err := os.WriteFile(path, []byte("5,2,5.0\nnot a row\n"), 0600); err != nil {
		t.Fatal(err)
	}
	_, err := store.ImportCSV(context.Background(), path)
	if err == nil {
		t.Fatal("expected error for malformed row")
	}
	if !errors.Is(err, ErrMalformedRow) {
		t.Errorf("error %v is not ErrMalformedRow", err)
	}
	// The aborted import must not leave partial rows behind.
	n, cerr := store.CountRatings(context.Background())
	if cerr != nil {
		t.Fatal(cerr)
	}
	if n != 0 {
		t.Errorf("CountRatings after failed import = %d, want 0", n)
	}
}

func TestParseRatingRow(t *testing.T) {
	tests := []struct {
		line    string
		wantErr bool
	}{
		{"1,2,3.5", false},
		{" 1 , 2 , 3.5 ", false},
		{"1,2", true},
		{"a,2,3.5", true},
		{"1,b,3.5", true},
		{"1,2,x", true},
	}
	for _, tt := range tests {
		_, _, _, err := parseRatingRow(tt.line)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseRatingRow(%q) err = %v, wantErr %v", tt.line, err, tt.wantErr)
		}
	}
}

func TestUserRatings_unknownUser(t *testing.T) {
	store := testStore(t)
	ratings, err := store.UserRatings(context.Background(), 404)
	if err != nil {
		t.Fatal(err)
	}
	if len(ratings) != 0 {
		t.Errorf("UserRatings(unknown) = %v, want empty", ratings)
	}
}
