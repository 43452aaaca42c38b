package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/infinityhardik/shiftPaste/internal/errors"
	"github.com/infinityhardik/shiftPaste/internal/index"
	"github.com/infinityhardik/shiftPaste/internal/record"
)

// Scope selects which partitions a read covers.
type Scope string

const (
	ScopeAll       Scope = "all"
	ScopeClipboard Scope = "clipboard"
	ScopeMaster    Scope = "master"
)

// ValidScope reports whether s names a known scope.
func ValidScope(s Scope) bool {
	switch s {
	case ScopeAll, ScopeClipboard, ScopeMaster:
		return true
	}
	return false
}

// FetchCandidates returns every queryable record in scope: all clipboard
// records and all active master records, optionally restricted to the named
// collections. Reads observe a consistent WAL snapshot; a replace or append
// in flight is either fully visible or not at all.
func (s *Store) FetchCandidates(scope Scope, collections []string) ([]record.Queryable, error) {
	if !ValidScope(scope) {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown scope %q", scope))
	}

	var out []record.Queryable

	if scope == ScopeAll || scope == ScopeClipboard {
		rows, err := s.db.Query(`
			SELECT id, content, captured_at, COALESCE(source_app, '')
			FROM clipboard_records
		`)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		out, err = appendClipboardRows(out, rows)
		if err != nil {
			return nil, err
		}
	}

	if scope == ScopeAll || scope == ScopeMaster {
		query := `
			SELECT id, collection, content, COALESCE(notes, ''), imported_at
			FROM master_records WHERE active = 1`
		var args []any
		if len(collections) > 0 {
			query += fmt.Sprintf(" AND collection IN (%s)", placeholders(len(collections)))
			for _, c := range collections {
				args = append(args, c)
			}
		}
		rows, err := s.db.Query(query, args...)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		out, err = appendMasterRows(out, rows)
		if err != nil {
			return nil, err
		}
	}

	return out, nil
}

// FetchByRefs resolves index candidate refs to full queryable records.
// Refs that no longer resolve (deleted or deactivated between the index
// read and this one) are silently skipped.
func (s *Store) FetchByRefs(refs []index.Ref) ([]record.Queryable, error) {
	var clipIDs, masterIDs []any
	for _, r := range refs {
		switch r.Kind {
		case record.KindClipboard:
			clipIDs = append(clipIDs, r.ID)
		case record.KindMaster:
			masterIDs = append(masterIDs, r.ID)
		}
	}

	var out []record.Queryable

	if len(clipIDs) > 0 {
		rows, err := s.db.Query(fmt.Sprintf(`
			SELECT id, content, captured_at, COALESCE(source_app, '')
			FROM clipboard_records WHERE id IN (%s)
		`, placeholders(len(clipIDs))), clipIDs...)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		out, err = appendClipboardRows(out, rows)
		if err != nil {
			return nil, err
		}
	}

	if len(masterIDs) > 0 {
		rows, err := s.db.Query(fmt.Sprintf(`
			SELECT id, collection, content, COALESCE(notes, ''), imported_at
			FROM master_records WHERE active = 1 AND id IN (%s)
		`, placeholders(len(masterIDs))), masterIDs...)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		out, err = appendMasterRows(out, rows)
		if err != nil {
			return nil, err
		}
	}

	return out, nil
}

// RecentClipboard returns the newest clipboard records, newest first.
func (s *Store) RecentClipboard(limit int) ([]record.ClipboardRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, content, fingerprint, captured_at, COALESCE(source_app, '')
		FROM clipboard_records
		ORDER BY captured_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []record.ClipboardRecord
	for rows.Next() {
		var r record.ClipboardRecord
		if err := rows.Scan(&r.ID, &r.Content, &r.Fingerprint, &r.CapturedAt, &r.SourceApp); err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// Collections lists the distinct collection names currently stored.
func (s *Store) Collections() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT collection FROM master_records ORDER BY collection`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.NewInternal(err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return names, nil
}

// CountClipboard returns the number of stored clipboard records.
func (s *Store) CountClipboard() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT count(*) FROM clipboard_records`).Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

func appendClipboardRows(out []record.Queryable, rows *sql.Rows) ([]record.Queryable, error) {
	defer rows.Close()
	for rows.Next() {
		var r record.ClipboardRecord
		if err := rows.Scan(&r.ID, &r.Content, &r.CapturedAt, &r.SourceApp); err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, record.Clipboard(r))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

func appendMasterRows(out []record.Queryable, rows *sql.Rows) ([]record.Queryable, error) {
	defer rows.Close()
	for rows.Next() {
		var r record.MasterRecord
		if err := rows.Scan(&r.ID, &r.Collection, &r.Content, &r.Notes, &r.ImportedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		r.Active = true
		out = append(out, record.Master(r))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
