// Package indexer builds the persistent tag index: the item-document catalog
// plus the inverted term index, committed atomically as one directory.
package indexer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/storage"
	"github.com/hyperjump/osusume/internal/tagindex"
)

// ErrMalformedRow is returned when a tag row does not decompose into
// exactly (itemID, tag).
var ErrMalformedRow = errors.New("malformed tag row")

const (
	catalogFile  = "catalog.db"
	termIndexDir = "bleve"
)

// Index is the read-only handle pair over a built tag index.
type Index struct {
	Catalog storage.Storage
	Terms   tagindex.TermIndex
}

// Close closes both underlying stores, returning the first error.
func (ix *Index) Close() error {
	err := ix.Catalog.Close()
	if cerr := ix.Terms.Close(); err == nil {
		err = cerr
	}
	return err
}

// Open opens a previously built index at indexPath. Returns an error when
// no build has been committed there.
func Open(indexPath string) (*Index, error) {
	if _, err := os.Stat(indexPath); err != nil {
		return nil, fmt.Errorf("tag index not built at %s: %w", indexPath, err)
	}
	catalog, err := storage.NewSQLiteStorage(filepath.Join(indexPath, catalogFile))
	if err != nil {
		return nil, err
	}
	terms, err := tagindex.NewBleveIndex(filepath.Join(indexPath, termIndexDir))
	if err != nil {
		_ = catalog.Close()
		return nil, err
	}
	return &Index{Catalog: catalog, Terms: terms}, nil
}

// Build reads `itemID,tag` lines from tagsPath and builds the index at
// indexPath. When indexPath already exists the build is a no-op: its mere
// existence means "already built" (staleness against a changed tag file is
// not detected). The build happens in a temporary sibling directory and is
// published with a rename, so a crashed or failed build never leaves a
// directory that looks complete. logger may be nil.
func Build(ctx context.Context, tagsPath, indexPath string, logger *zap.Logger) error {
	if _, err := os.Stat(indexPath); err == nil {
		if logger != nil {
			logger.Info("tag index already built, reusing", zap.String("path", indexPath))
		}
		return nil
	}

	f, err := os.Open(tagsPath)
	if err != nil {
		return fmt.Errorf("failed to open tag source: %w", err)
	}
	defer f.Close()

	if dir := filepath.Dir(indexPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create index parent directory: %w", err)
		}
	}
	tmp := indexPath + ".build-" + uuid.NewString()
	if err := os.MkdirAll(tmp, 0755); err != nil {
		return fmt.Errorf("failed to create build directory: %w", err)
	}

	n, err := buildInto(ctx, f, tmp)
	if err != nil {
		_ = os.RemoveAll(tmp)
		return err
	}
	if err := os.Rename(tmp, indexPath); err != nil {
		_ = os.RemoveAll(tmp)
		return fmt.Errorf("failed to commit index: %w", err)
	}
	if logger != nil {
		logger.Info("tag index built",
			zap.Int("documents", n),
			zap.String("path", indexPath),
		)
	}
	return nil
}

// buildInto streams tag rows from r into a fresh catalog and term index under
// dir. Rows are grouped by contiguous runs of equal item ID: the accumulated
// token buffer is flushed as one document whenever the ID changes. Input is
// assumed pre-sorted by item ID; a non-contiguous duplicate ID re-indexes the
// same item and the later run wins.
func buildInto(ctx context.Context, r io.Reader, dir string) (int, error) {
	catalog, err := storage.NewSQLiteStorage(filepath.Join(dir, catalogFile))
	if err != nil {
		return 0, err
	}
	defer catalog.Close()
	terms, err := tagindex.NewBleveIndex(filepath.Join(dir, termIndexDir))
	if err != nil {
		return 0, err
	}
	defer terms.Close()

	n := 0
	flush := func(itemID int64, tokens []string) error {
		doc := &models.ItemDocument{ItemID: itemID, Tags: strings.Join(tokens, " ")}
		if err := catalog.CreateItemDocument(ctx, doc); err != nil {
			return fmt.Errorf("failed to store document %d: %w", itemID, err)
		}
		if err := terms.Index(ctx, itemID, doc.Tags); err != nil {
			return fmt.Errorf("failed to index document %d: %w", itemID, err)
		}
		n++
		return nil
	}

	var (
		curID   int64
		haveCur bool
		tokens  []string
	)
	lineNo := 0
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		itemID, tag, err := parseTagRow(line)
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if haveCur && itemID != curID {
			if err := flush(curID, tokens); err != nil {
				return 0, err
			}
			tokens = tokens[:0]
		}
		curID = itemID
		haveCur = true
		if tok := NormalizeTag(tag); tok != "" {
			tokens = append(tokens, tok)
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("failed to read tag source: %w", err)
	}
	if haveCur {
		if err := flush(curID, tokens); err != nil {
			return 0, err
		}
	}
	return n, nil
}

// parseTagRow decomposes "itemID,tag" into its parts. The tag is everything
// after the first comma, so tags containing commas survive intact.
func parseTagRow(line string) (int64, string, error) {
	idPart, tag, ok := strings.Cut(line, ",")
	if !ok {
		return 0, "", fmt.Errorf("%w: %q", ErrMalformedRow, line)
	}
	itemID, err := strconv.ParseInt(strings.TrimSpace(idPart), 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("%w: bad item id in %q", ErrMalformedRow, line)
	}
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return 0, "", fmt.Errorf("%w: empty tag in %q", ErrMalformedRow, line)
	}
	return itemID, tag, nil
}

// NormalizeTag lowercases a tag and maps every run of non-alphanumeric
// characters to a single underscore, so a multi-word or punctuated tag
// indexes as one term. The result holds only letters, digits, and interior
// underscores, which the term index's tokenizer keeps as a single token —
// the catalog's whitespace split and the index's tokenization always agree.
// A tag with no alphanumeric characters normalizes to the empty string.
func NormalizeTag(tag string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(tag) {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			pendingSep = true
			continue
		}
		if pendingSep && b.Len() > 0 {
			b.WriteByte('_')
		}
		pendingSep = false
		b.WriteRune(r)
	}
	return b.String()
}
