// Package sqlite stores the ledger in an embedded SQLite database. Unlike the
// JSON file, each commit only touches the rows of the word that changed.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/NivBraz/domainscan/internal/ledger"
	"github.com/NivBraz/domainscan/internal/models"
	_ "modernc.org/sqlite"
)

// ensure Backend implements ledger.Backend
var _ ledger.Backend = (*Backend)(nil)

type Backend struct {
	db  *sql.DB
	dsn string
}

const schema = `
CREATE TABLE IF NOT EXISTS domains (
	word TEXT PRIMARY KEY,
	tlds TEXT NOT NULL,
	committed_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS tld_index (
	tld TEXT NOT NULL,
	word TEXT NOT NULL REFERENCES domains(word),
	PRIMARY KEY (tld, word)
);
`

// New opens (and if needed creates) the database at dsn.
func New(dsn string) (*Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &ledger.StorageError{Op: "open", Path: dsn, Err: err}
	}
	// A single connection keeps commits strictly serialized.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, &ledger.StorageError{Op: "schema", Path: dsn, Err: err}
	}

	return &Backend{db: db, dsn: dsn}, nil
}

func (b *Backend) Load(ctx context.Context) (*models.Ledger, error) {
	l := models.NewLedger()

	rows, err := b.db.QueryContext(ctx, `SELECT word, tlds FROM domains`)
	if err != nil {
		return nil, &ledger.StorageError{Op: "load", Path: b.dsn, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var word, tldsJSON string
		if err := rows.Scan(&word, &tldsJSON); err != nil {
			return nil, &ledger.StorageError{Op: "load", Path: b.dsn, Err: err}
		}
		var tlds []string
		if err := json.Unmarshal([]byte(tldsJSON), &tlds); err != nil {
			return nil, &ledger.StorageError{Op: "decode", Path: b.dsn, Err: err}
		}
		if tlds == nil {
			tlds = []string{}
		}
		l.AvailableDomains[word] = tlds
	}
	if err := rows.Err(); err != nil {
		return nil, &ledger.StorageError{Op: "load", Path: b.dsn, Err: err}
	}
	// Release the only connection before the next query.
	_ = rows.Close()

	idx, err := b.db.QueryContext(ctx, `SELECT tld, word FROM tld_index ORDER BY rowid`)
	if err != nil {
		return nil, &ledger.StorageError{Op: "load", Path: b.dsn, Err: err}
	}
	defer idx.Close()

	for idx.Next() {
		var tld, word string
		if err := idx.Scan(&tld, &word); err != nil {
			return nil, &ledger.StorageError{Op: "load", Path: b.dsn, Err: err}
		}
		l.AvailableTld[tld] = append(l.AvailableTld[tld], word)
	}
	if err := idx.Err(); err != nil {
		return nil, &ledger.StorageError{Op: "load", Path: b.dsn, Err: err}
	}

	return l, nil
}

// Save upserts change in a single transaction. The snapshot is not needed.
func (b *Backend) Save(ctx context.Context, _ *models.Ledger, change models.Entry) error {
	if change.Word == "" {
		return nil
	}

	tldsJSON, err := json.Marshal(change.Tlds)
	if err != nil {
		return &ledger.StorageError{Op: "encode", Path: b.dsn, Err: err}
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return &ledger.StorageError{Op: "begin", Path: b.dsn, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO domains (word, tlds, committed_at) VALUES (?, ?, ?)
	ON CONFLICT(word) DO UPDATE SET tlds = excluded.tlds, committed_at = excluded.committed_at
	`, change.Word, string(tldsJSON), time.Now().UTC())
	if err != nil {
		return &ledger.StorageError{Op: "upsert", Path: b.dsn, Err: err}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM tld_index WHERE word = ?`, change.Word); err != nil {
		return &ledger.StorageError{Op: "index", Path: b.dsn, Err: err}
	}
	for _, tld := range change.Indexed {
		if _, err := tx.ExecContext(ctx, `INSERT INTO tld_index (tld, word) VALUES (?, ?)`, tld, change.Word); err != nil {
			return &ledger.StorageError{Op: "index", Path: b.dsn, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &ledger.StorageError{Op: "commit", Path: b.dsn, Err: err}
	}
	return nil
}

func (b *Backend) Close() error {
	return b.db.Close()
}
