package store

import (
	"database/sql"
	"strings"

	"github.com/infinityhardik/shiftPaste/internal/errors"
	"github.com/infinityhardik/shiftPaste/internal/index"
	"github.com/infinityhardik/shiftPaste/internal/record"
)

// RejectReason explains why an append was dropped.
type RejectReason string

const (
	RejectEmpty             RejectReason = "empty_content"
	RejectDuplicateAdjacent RejectReason = "duplicate_adjacent"
)

// AppendResult reports the outcome of AppendClipboard. Rejections are an
// outcome, not an error: the capture feed keeps flowing regardless.
type AppendResult struct {
	ID       int64        `json:"id,omitempty"`
	Rejected bool         `json:"rejected,omitempty"`
	Reason   RejectReason `json:"reason,omitempty"`
	Evicted  []int64      `json:"evicted,omitempty"`
}

// AppendClipboard stores one captured clipboard observation. Empty content
// and content equal to the most recent surviving record (post-trim, case
// sensitive) are dropped. When the retention cap is exceeded the oldest
// records are evicted inside the same transaction, so the cap holds between
// any two transactions.
func (s *Store) AppendClipboard(content, sourceApp string) (*AppendResult, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return &AppendResult{Rejected: true, Reason: RejectEmpty}, nil
	}

	// Registered before the unlock defer so it fires after the mutex is
	// released; listeners may call back into the store.
	var pending []Event
	defer func() { s.emit(pending...) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback()

	// Adjacent-duplicate check against the newest surviving record.
	var last string
	err = tx.QueryRow(`
		SELECT content FROM clipboard_records
		ORDER BY captured_at DESC, id DESC LIMIT 1
	`).Scan(&last)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.NewInternal(err)
	}
	if err == nil && strings.TrimSpace(last) == trimmed {
		return &AppendResult{Rejected: true, Reason: RejectDuplicateAdjacent}, nil
	}

	now := s.now().Unix()
	res, err := tx.Exec(`
		INSERT INTO clipboard_records (content, fingerprint, captured_at, source_app)
		VALUES (?, ?, ?, ?)
	`, trimmed, record.Fingerprint(trimmed), now, nullIfEmpty(sourceApp))
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	if err := index.Put(tx, record.KindClipboard, id, trimmed); err != nil {
		return nil, err
	}

	evicted, err := s.evictOverCap(tx)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}

	pending = []Event{{Op: OpAppend, Kind: record.KindClipboard, IDs: []int64{id}}}
	if len(evicted) > 0 {
		pending = append(pending, Event{Op: OpEvict, Kind: record.KindClipboard, IDs: evicted})
		s.logger.Debug("evicted clipboard records over cap",
			"count", len(evicted), "cap", s.cfg.MaxClipboardItems)
	}

	return &AppendResult{ID: id, Evicted: evicted}, nil
}

// evictOverCap removes the oldest clipboard records beyond the configured
// cap, inside the caller's transaction. Master records are exempt.
func (s *Store) evictOverCap(tx *sql.Tx) ([]int64, error) {
	cap := s.cfg.MaxClipboardItems
	if cap <= 0 {
		return nil, nil
	}

	var count int
	if err := tx.QueryRow(`SELECT count(*) FROM clipboard_records`).Scan(&count); err != nil {
		return nil, errors.NewInternal(err)
	}
	if count <= cap {
		return nil, nil
	}

	rows, err := tx.Query(`
		SELECT id FROM clipboard_records
		ORDER BY captured_at ASC, id ASC LIMIT ?
	`, count-cap)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var evicted []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.NewInternal(err)
		}
		evicted = append(evicted, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	for _, id := range evicted {
		if _, err := tx.Exec(`DELETE FROM clipboard_records WHERE id = ?`, id); err != nil {
			return nil, errors.NewInternal(err)
		}
		if err := index.Remove(tx, record.KindClipboard, id); err != nil {
			return nil, err
		}
	}
	return evicted, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
