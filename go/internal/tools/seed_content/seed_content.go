package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/mcdev12/oddcard/go/internal/content"
	"github.com/mcdev12/oddcard/go/internal/dbconfig"
)

func main() {
	file := flag.String("file", "", "word-pair YAML to seed (defaults to the embedded table)")
	replace := flag.Bool("replace", false, "delete every stored pair before inserting")
	flag.Parse()

	// 1) Load the word-pair table
	table, err := loadTable(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load table: %v\n", err)
		os.Exit(1)
	}

	cfg := dbconfig.NewConfigFromEnv()
	ctx := context.Background()

	if *replace {
		if err := replaceTable(ctx, cfg, table); err != nil {
			fmt.Fprintf(os.Stderr, "replace table: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Word pairs replaced: %d total\n", table.Len())
		return
	}

	// 2) Connect using shared dbconfig
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Upsert by position and count
	var (
		total   = table.Len()
		written int
		skipped int
		errs    int
	)

	for i, e := range table.Entries() {
		var metadata []byte
		if e.Identical() {
			metadata = []byte(`{"identical":true}`)
		}

		cmdTag, err := pool.Exec(ctx, `
            INSERT INTO word_pairs (position, normal, target, metadata)
            VALUES ($1, $2, $3, $4)
            ON CONFLICT (position) DO UPDATE
              SET normal = EXCLUDED.normal,
                  target = EXCLUDED.target,
                  metadata = EXCLUDED.metadata
              WHERE (word_pairs.normal, word_pairs.target)
                IS DISTINCT FROM (EXCLUDED.normal, EXCLUDED.target)
        `,
			i, e.Normal, e.Target, metadata,
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error writing pair %d (%s/%s): %v\n", i, e.Normal, e.Target, err)
			errs++
			continue
		}
		if cmdTag.RowsAffected() == 1 {
			written++
		} else {
			skipped++
		}
	}

	// Pairs past the end of the table are no longer playable
	cmdTag, err := pool.Exec(ctx, `DELETE FROM word_pairs WHERE position >= $1`, total)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error pruning pairs: %v\n", err)
		errs++
	}

	// 4) Print summary
	fmt.Printf(
		"Word pairs seed complete: %d total, %d written, %d unchanged, %d pruned, %d errors\n",
		total, written, skipped, cmdTag.RowsAffected(), errs,
	)
}

func loadTable(path string) (*content.Table, error) {
	if path == "" {
		return content.Default()
	}
	return content.LoadFile(path)
}

func replaceTable(ctx context.Context, cfg dbconfig.Config, table *content.Table) error {
	database, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer database.Close()

	return content.NewRepository(database).ReplaceTable(ctx, table)
}
