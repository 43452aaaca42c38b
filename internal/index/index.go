// Package index maintains the lexical pre-filter over the content store.
//
// The index is a derived cache: a (kind, record_id) -> normalized content
// projection kept in the same SQLite file and mutated inside the same
// transaction as every store mutation. It exists only to narrow the
// candidate set before ranking; the ranking engine re-checks every
// candidate, so the index must be sound (never drop a possible match) but
// need not be precise.
package index

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/infinityhardik/shiftPaste/internal/errors"
	"github.com/infinityhardik/shiftPaste/internal/record"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so index maintenance can
// run inside the store's transactions.
type DBTX interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Ref identifies an indexed record.
type Ref struct {
	Kind record.Kind
	ID   int64
}

// Put inserts or replaces the index entry for a record.
func Put(q DBTX, kind record.Kind, id int64, content string) error {
	_, err := q.Exec(`
		INSERT INTO lexical_index (kind, record_id, content_norm)
		VALUES (?, ?, ?)
		ON CONFLICT(kind, record_id) DO UPDATE SET content_norm = excluded.content_norm
	`, string(kind), id, record.Normalize(content))
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Remove deletes the index entry for a record. Missing entries are a no-op.
func Remove(q DBTX, kind record.Kind, id int64) error {
	_, err := q.Exec(`DELETE FROM lexical_index WHERE kind = ? AND record_id = ?`,
		string(kind), id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// RemoveAll deletes every index entry of a kind. Used when a partition is
// reset after a corruption report.
func RemoveAll(q DBTX, kind record.Kind) error {
	_, err := q.Exec(`DELETE FROM lexical_index WHERE kind = ?`, string(kind))
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Pattern builds the subsequence LIKE pattern for a normalized query:
// a wildcard between every character, so "mrlx" becomes "%m%r%l%x%". A
// record matches the pattern exactly when the query characters occur in it
// in order, which is the same predicate the ranking engine re-checks.
// LIKE metacharacters in the query are escaped.
func Pattern(queryNorm string) string {
	var b strings.Builder
	b.WriteByte('%')
	for _, r := range queryNorm {
		switch r {
		case '%', '_', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
		b.WriteByte('%')
	}
	return b.String()
}

// Candidates returns refs of records whose normalized content sequentially
// contains the normalized query. An empty query returns nil (callers
// full-scan instead).
func Candidates(q DBTX, queryNorm string) ([]Ref, error) {
	if queryNorm == "" {
		return nil, nil
	}

	rows, err := q.Query(`
		SELECT kind, record_id FROM lexical_index
		WHERE content_norm LIKE ? ESCAPE '\'
	`, Pattern(queryNorm))
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var refs []Ref
	for rows.Next() {
		var kind string
		var id int64
		if err := rows.Scan(&kind, &id); err != nil {
			return nil, errors.NewInternal(err)
		}
		refs = append(refs, Ref{Kind: record.Kind(kind), ID: id})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return refs, nil
}

// Rebuild drops the whole index and re-derives it from the store tables in
// one transaction. Inactive master records are not indexed. Normalization
// runs through Put so rebuilt entries are byte-identical to live ones;
// SQLite's lower() folds ASCII only and would diverge on non-ASCII content.
func Rebuild(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM lexical_index`); err != nil {
		return errors.NewInternal(err)
	}
	if err := reindex(tx, record.KindClipboard,
		`SELECT id, content FROM clipboard_records`); err != nil {
		return err
	}
	if err := reindex(tx, record.KindMaster,
		`SELECT id, content FROM master_records WHERE active = 1`); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// reindex re-inserts index entries for every row the query yields. Rows are
// drained before writing because the transaction holds a single connection.
func reindex(tx *sql.Tx, kind record.Kind, query string) error {
	rows, err := tx.Query(query)
	if err != nil {
		return errors.NewInternal(err)
	}
	type row struct {
		id      int64
		content string
	}
	var pending []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.content); err != nil {
			rows.Close()
			return errors.NewInternal(err)
		}
		pending = append(pending, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return errors.NewInternal(err)
	}
	rows.Close()

	for _, r := range pending {
		if err := Put(tx, kind, r.id, r.content); err != nil {
			return err
		}
	}
	return nil
}

// Verify checks that the index and the store agree on the set of queryable
// records. A divergence means a transaction boundary was broken somewhere;
// that is a programming error, so the returned error is fatal.
func Verify(db *sql.DB) error {
	var missing int
	err := db.QueryRow(`
		SELECT
		  (SELECT count(*) FROM clipboard_records c
		   WHERE NOT EXISTS (SELECT 1 FROM lexical_index i
		     WHERE i.kind = ? AND i.record_id = c.id))
		+ (SELECT count(*) FROM master_records m WHERE m.active = 1
		   AND NOT EXISTS (SELECT 1 FROM lexical_index i
		     WHERE i.kind = ? AND i.record_id = m.id))
		+ (SELECT count(*) FROM lexical_index i WHERE
		     (i.kind = ? AND NOT EXISTS
		       (SELECT 1 FROM clipboard_records c WHERE c.id = i.record_id))
		  OR (i.kind = ? AND NOT EXISTS
		       (SELECT 1 FROM master_records m WHERE m.id = i.record_id AND m.active = 1)))
	`, string(record.KindClipboard), string(record.KindMaster),
		string(record.KindClipboard), string(record.KindMaster)).Scan(&missing)
	if err != nil {
		return errors.NewInternal(err)
	}
	if missing != 0 {
		return errors.NewInvariantViolation(
			fmt.Sprintf("lexical index diverges from store: %d entries out of sync", missing))
	}
	return nil
}
