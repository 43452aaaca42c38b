package store

import (
	"github.com/infinityhardik/shiftPaste/internal/errors"
	"github.com/infinityhardik/shiftPaste/internal/index"
	"github.com/infinityhardik/shiftPaste/internal/record"
)

// DeleteClipboard removes one clipboard record. Idempotent: a missing id is
// a silent no-op.
func (s *Store) DeleteClipboard(id int64) error {
	// Emit after the mutex is released; listeners may call back in.
	var pending []Event
	defer func() { s.emit(pending...) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM clipboard_records WHERE id = ?`, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := index.Remove(tx, record.KindClipboard, id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}

	if n, _ := res.RowsAffected(); n > 0 {
		pending = []Event{{Op: OpDelete, Kind: record.KindClipboard, IDs: []int64{id}}}
	}
	return nil
}

// DeactivateMaster flags one master record inactive, excluding it from
// search while retaining it for audit/undo. Idempotent; missing ids no-op.
func (s *Store) DeactivateMaster(id int64) error {
	var pending []Event
	defer func() { s.emit(pending...) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`UPDATE master_records SET active = 0 WHERE id = ? AND active = 1`, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := index.Remove(tx, record.KindMaster, id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}

	if n, _ := res.RowsAffected(); n > 0 {
		pending = []Event{{Op: OpDeactivate, Kind: record.KindMaster, IDs: []int64{id}}}
	}
	return nil
}

// PurgeClipboard clears the whole clipboard history. Master collections are
// untouched.
func (s *Store) PurgeClipboard() (int64, error) {
	var pending []Event
	defer func() { s.emit(pending...) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM clipboard_records`)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	if err := index.RemoveAll(tx, record.KindClipboard); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.NewInternal(err)
	}

	n, _ := res.RowsAffected()
	if n > 0 {
		pending = []Event{{Op: OpPurge, Kind: record.KindClipboard}}
	}
	return n, nil
}
