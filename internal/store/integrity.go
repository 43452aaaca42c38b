package store

import (
	"fmt"

	"github.com/infinityhardik/shiftPaste/internal/errors"
	"github.com/infinityhardik/shiftPaste/internal/index"
	"github.com/infinityhardik/shiftPaste/internal/record"
)

// CheckIntegrity validates persisted state at load time, partition by
// partition: the clipboard history as one partition and each collection as
// its own. A partition that fails its checks is reset to empty and reported,
// so the surrounding application rebuilds from scratch instead of operating
// on corrupt data. A corrupt collection never disables clipboard search and
// vice versa.
//
// Returned reports are conditions, not failures; the second return value is
// non-nil only when recovery itself could not proceed.
func (s *Store) CheckIntegrity() ([]*errors.StoreError, error) {
	// Emit after the mutex is released; listeners may call back in.
	var pending []Event
	defer func() { s.emit(pending...) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	var reports []*errors.StoreError

	if cause := s.checkClipboard(); cause != nil {
		report := errors.NewStoreCorrupt("clipboard", cause)
		s.logger.Warn("clipboard partition corrupt, resetting", "cause", cause.Error())
		if err := s.resetClipboard(); err != nil {
			return reports, err
		}
		pending = append(pending, Event{Op: OpReset, Kind: record.KindClipboard})
		reports = append(reports, report)
	}

	corrupt, err := s.corruptCollections()
	if err != nil {
		return reports, err
	}
	for name, cause := range corrupt {
		report := errors.NewStoreCorrupt(name, cause)
		s.logger.Warn("collection partition corrupt, resetting",
			"collection", name, "cause", cause.Error())
		if err := s.resetCollection(name); err != nil {
			return reports, err
		}
		pending = append(pending, Event{Op: OpReset, Kind: record.KindMaster, Collection: name})
		reports = append(reports, report)
	}

	return reports, nil
}

// checkClipboard returns the first integrity violation found in the
// clipboard partition, or nil. Fingerprints are recomputed from content;
// a mismatch means the row was altered outside a store transaction.
func (s *Store) checkClipboard() error {
	rows, err := s.db.Query(`SELECT id, content, fingerprint, captured_at FROM clipboard_records`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id, capturedAt int64
		var content, fingerprint string
		if err := rows.Scan(&id, &content, &fingerprint, &capturedAt); err != nil {
			return err
		}
		if content == "" {
			return fmt.Errorf("record %d has empty content", id)
		}
		if capturedAt <= 0 {
			return fmt.Errorf("record %d has invalid timestamp %d", id, capturedAt)
		}
		if record.Fingerprint(content) != fingerprint {
			return fmt.Errorf("record %d fingerprint mismatch", id)
		}
	}
	return rows.Err()
}

// corruptCollections maps collection name to the first violation found in it.
func (s *Store) corruptCollections() (map[string]error, error) {
	rows, err := s.db.Query(`SELECT id, collection, content, imported_at FROM master_records`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	corrupt := make(map[string]error)
	for rows.Next() {
		var id, importedAt int64
		var collection, content string
		if err := rows.Scan(&id, &collection, &content, &importedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		if _, seen := corrupt[collection]; seen {
			continue
		}
		if content == "" {
			corrupt[collection] = fmt.Errorf("record %d has empty content", id)
		} else if importedAt <= 0 {
			corrupt[collection] = fmt.Errorf("record %d has invalid timestamp %d", id, importedAt)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return corrupt, nil
}

func (s *Store) resetClipboard() error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM clipboard_records`); err != nil {
		return errors.NewInternal(err)
	}
	if err := index.RemoveAll(tx, record.KindClipboard); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

func (s *Store) resetCollection(name string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`SELECT id FROM master_records WHERE collection = ?`, name)
	if err != nil {
		return errors.NewInternal(err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return errors.NewInternal(err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return errors.NewInternal(err)
	}

	if _, err := tx.Exec(`DELETE FROM master_records WHERE collection = ?`, name); err != nil {
		return errors.NewInternal(err)
	}
	for _, id := range ids {
		if err := index.Remove(tx, record.KindMaster, id); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}
