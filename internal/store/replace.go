package store

import (
	"strings"

	"github.com/infinityhardik/shiftPaste/internal/errors"
	"github.com/infinityhardik/shiftPaste/internal/index"
	"github.com/infinityhardik/shiftPaste/internal/record"
)

// Item is one row of a collection snapshot as produced by an external
// snapshot provider (content plus optional display notes).
type Item struct {
	Content string `json:"content"`
	Notes   string `json:"notes,omitempty"`
}

// ReplaceSummary reports what a collection replace changed.
type ReplaceSummary struct {
	Collection string `json:"collection"`
	Added      int    `json:"added"`
	Removed    int    `json:"removed"`
	Unchanged  int    `json:"unchanged"`
}

// ReplaceCollection reconciles the stored master records for one collection
// against a complete snapshot, as a single atomic unit. The difference is
// computed by content equality: records absent from the snapshot are
// removed, newly present content is inserted, and unchanged records keep
// their id and imported_at, so record identity and recency survive no-op
// re-syncs. Readers never observe a half-replaced collection.
func (s *Store) ReplaceCollection(name string, items []Item) (*ReplaceSummary, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.NewInvalidRequest("collection name is required")
	}

	// Emit after the mutex is released; listeners may call back in.
	var pending []Event
	defer func() { s.emit(pending...) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback()

	// Current records for this collection, keyed by content.
	type existing struct {
		id     int64
		active bool
	}
	current := make(map[string]existing)
	rows, err := tx.Query(`
		SELECT id, content, active FROM master_records WHERE collection = ?
	`, name)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	for rows.Next() {
		var e existing
		var content string
		if err := rows.Scan(&e.id, &content, &e.active); err != nil {
			rows.Close()
			return nil, errors.NewInternal(err)
		}
		current[content] = e
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	// Snapshot contents, first occurrence wins for duplicates.
	wanted := make(map[string]Item, len(items))
	for _, it := range items {
		content := strings.TrimSpace(it.Content)
		if content == "" {
			continue
		}
		if _, ok := wanted[content]; !ok {
			wanted[content] = Item{Content: content, Notes: strings.TrimSpace(it.Notes)}
		}
	}

	summary := &ReplaceSummary{Collection: name}
	now := s.now().Unix()

	// Remove records absent from the snapshot.
	var removedIDs []int64
	for content, e := range current {
		if _, keep := wanted[content]; keep {
			continue
		}
		if _, err := tx.Exec(`DELETE FROM master_records WHERE id = ?`, e.id); err != nil {
			return nil, errors.NewInternal(err)
		}
		if err := index.Remove(tx, record.KindMaster, e.id); err != nil {
			return nil, err
		}
		removedIDs = append(removedIDs, e.id)
		summary.Removed++
	}

	// Insert newly present content; leave unchanged rows untouched.
	var addedIDs []int64
	for content, it := range wanted {
		if _, ok := current[content]; ok {
			summary.Unchanged++
			continue
		}
		res, err := tx.Exec(`
			INSERT INTO master_records (collection, content, notes, active, imported_at)
			VALUES (?, ?, ?, 1, ?)
		`, name, content, nullIfEmpty(it.Notes), now)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		if err := index.Put(tx, record.KindMaster, id, content); err != nil {
			return nil, err
		}
		addedIDs = append(addedIDs, id)
		summary.Added++
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}

	if summary.Added > 0 || summary.Removed > 0 {
		pending = []Event{{
			Op:         OpReplace,
			Kind:       record.KindMaster,
			IDs:        append(addedIDs, removedIDs...),
			Collection: name,
		}}
	}
	return summary, nil
}
