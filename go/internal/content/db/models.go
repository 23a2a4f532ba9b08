package db

import (
	"time"

	"github.com/sqlc-dev/pqtype"
)

type WordPair struct {
	ID        int32                 `json:"id"`
	Position  int32                 `json:"position"`
	Normal    string                `json:"normal"`
	Target    string                `json:"target"`
	Metadata  pqtype.NullRawMessage `json:"metadata"`
	CreatedAt time.Time             `json:"created_at"`
}
