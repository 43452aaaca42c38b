package xlsx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	syncpkg "github.com/infinityhardik/shiftPaste/internal/sync"
)

// writeCollection writes a minimal collection spreadsheet: column A content,
// column B notes.
func writeCollection(t *testing.T, dir, name string, rows [][]string) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	for i, row := range rows {
		for j, cell := range row {
			ref, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, ref, cell); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}
	if err := f.SaveAs(filepath.Join(dir, name+".xlsx")); err != nil {
		t.Fatalf("save %s: %v", name, err)
	}
}

func TestCollections_ListsXLSXFiles(t *testing.T) {
	dir := t.TempDir()
	writeCollection(t, dir, "pipes", [][]string{{"a"}})
	writeCollection(t, dir, "fittings", [][]string{{"b"}})

	// Editor lock-temp files and unrelated files are skipped.
	os.WriteFile(filepath.Join(dir, "~$pipes.xlsx"), []byte("lock"), 0600)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("text"), 0600)

	p := New(dir)
	names, err := p.Collections()
	if err != nil {
		t.Fatalf("Collections failed: %v", err)
	}
	if len(names) != 2 {
		t.Errorf("Collections = %v, want [fittings pipes]", names)
	}
	for _, name := range names {
		if name != "pipes" && name != "fittings" {
			t.Errorf("unexpected collection %q", name)
		}
	}
}

func TestSnapshot_FirstColumnContentSecondNotes(t *testing.T) {
	dir := t.TempDir()
	writeCollection(t, dir, "pipes", [][]string{
		{"MARLEX 110mm", "bestseller"},
		{"  padded  ", ""},
		{"", "note on blank row"},
		{"plain"},
	})

	p := New(dir)
	items, err := p.Snapshot(context.Background(), "pipes")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3 (blank content rows skipped)", len(items))
	}
	if items[0].Content != "MARLEX 110mm" || items[0].Notes != "bestseller" {
		t.Errorf("items[0] = %+v", items[0])
	}
	if items[1].Content != "padded" {
		t.Errorf("content not trimmed: %q", items[1].Content)
	}
	if items[2].Content != "plain" || items[2].Notes != "" {
		t.Errorf("items[2] = %+v", items[2])
	}
}

func TestSnapshot_MissingFileIsNotTransient(t *testing.T) {
	p := New(t.TempDir())

	_, err := p.Snapshot(context.Background(), "absent")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	// Missing means removed, not mid-save; the synchronizer must not retry
	// and must keep the stored records.
	if errors.Is(err, syncpkg.ErrTransient) {
		t.Error("missing file should not be reported as transient")
	}
}

func TestSnapshot_UnreadableFileIsTransient(t *testing.T) {
	dir := t.TempDir()
	// The file exists but is not a valid workbook, as during a mid-save
	// window.
	os.WriteFile(filepath.Join(dir, "pipes.xlsx"), []byte("not a zip"), 0600)

	p := New(dir)
	_, err := p.Snapshot(context.Background(), "pipes")
	if err == nil {
		t.Fatal("expected error for unreadable file")
	}
	if !errors.Is(err, syncpkg.ErrTransient) {
		t.Errorf("unreadable existing file should be transient, got: %v", err)
	}
}

func TestSnapshot_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeCollection(t, dir, "pipes", [][]string{{"a"}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(dir)
	if _, err := p.Snapshot(ctx, "pipes"); err == nil {
		t.Error("expected context error")
	}
}

func TestProviderSatisfiesSnapshotProvider(t *testing.T) {
	var _ syncpkg.SnapshotProvider = New(t.TempDir())
}
