package db

import (
	"context"

	"github.com/sqlc-dev/pqtype"
)

const listWordPairs = `-- name: ListWordPairs :many
SELECT id, position, normal, target, metadata, created_at
FROM word_pairs
ORDER BY position ASC
`

func (q *Queries) ListWordPairs(ctx context.Context) ([]WordPair, error) {
	rows, err := q.db.QueryContext(ctx, listWordPairs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []WordPair
	for rows.Next() {
		var i WordPair
		if err := rows.Scan(
			&i.ID,
			&i.Position,
			&i.Normal,
			&i.Target,
			&i.Metadata,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteAllWordPairs = `-- name: DeleteAllWordPairs :exec
DELETE FROM word_pairs
`

func (q *Queries) DeleteAllWordPairs(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllWordPairs)
	return err
}

const insertWordPair = `-- name: InsertWordPair :one
INSERT INTO word_pairs (position, normal, target, metadata)
VALUES ($1, $2, $3, $4)
RETURNING id, position, normal, target, metadata, created_at
`

type InsertWordPairParams struct {
	Position int32                 `json:"position"`
	Normal   string                `json:"normal"`
	Target   string                `json:"target"`
	Metadata pqtype.NullRawMessage `json:"metadata"`
}

func (q *Queries) InsertWordPair(ctx context.Context, arg InsertWordPairParams) (WordPair, error) {
	row := q.db.QueryRowContext(ctx, insertWordPair,
		arg.Position,
		arg.Normal,
		arg.Target,
		arg.Metadata,
	)
	var i WordPair
	err := row.Scan(
		&i.ID,
		&i.Position,
		&i.Normal,
		&i.Target,
		&i.Metadata,
		&i.CreatedAt,
	)
	return i, err
}
