package content

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mcdev12/oddcard/go/internal/content/db"
	"github.com/mcdev12/oddcard/go/internal/sqlutil"
)

// Querier defines what the repository needs from the database layer
type Querier interface {
	ListWordPairs(ctx context.Context) ([]db.WordPair, error)
}

// Repository loads and stores word pairs in Postgres.
type Repository struct {
	queries Querier
	db      *sql.DB
}

// NewRepository creates a new content repository
func NewRepository(database *sql.DB) *Repository {
	return &Repository{
		queries: db.New(database),
		db:      database,
	}
}

// LoadTable reads every word pair ordered by position.
func (r *Repository) LoadTable(ctx context.Context) (*Table, error) {
	rows, err := r.queries.ListWordPairs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list word pairs: %w", err)
	}

	entries := make([]Entry, len(rows))
	for i, row := range rows {
		entries[i] = dbWordPairToEntry(row)
	}

	return NewTable(entries)
}

// ReplaceTable swaps the stored word pairs for the given table in one transaction.
func (r *Repository) ReplaceTable(ctx context.Context, table *Table) error {
	return sqlutil.Run(ctx, r.db, func(tx *sql.Tx) *db.Queries { return db.New(tx) }, func(q *db.Queries) error {
		if err := q.DeleteAllWordPairs(ctx); err != nil {
			return fmt.Errorf("failed to clear word pairs: %w", err)
		}

		for i, e := range table.Entries() {
			meta, err := sqlutil.ToNullRawMessage(entryMetadata(e))
			if err != nil {
				return fmt.Errorf("failed to encode metadata: %w", err)
			}
			if _, err := q.InsertWordPair(ctx, db.InsertWordPairParams{
				Position: int32(i),
				Normal:   e.Normal,
				Target:   e.Target,
				Metadata: meta,
			}); err != nil {
				return fmt.Errorf("failed to insert word pair %d: %w", i, err)
			}
		}
		return nil
	})
}

// entryMetadata flags entries with no visible difference so content
// authors can find them.
func entryMetadata(e Entry) any {
	if e.Identical() {
		return map[string]any{"identical": true}
	}
	return nil
}

func dbWordPairToEntry(row db.WordPair) Entry {
	return Entry{
		Normal: row.Normal,
		Target: row.Target,
	}
}
