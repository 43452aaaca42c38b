// Package xlsx implements the collection snapshot provider over a directory
// of spreadsheet files, one .xlsx per collection: column A is the snippet
// content, column B an optional note. Spreadsheet editors write lock-temp
// files and replace the target mid-save, so open failures on an existing
// file are reported as transient and retried by the synchronizer.
package xlsx

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	syncpkg "github.com/infinityhardik/shiftPaste/internal/sync"
	"github.com/infinityhardik/shiftPaste/internal/store"
)

// Provider reads collection snapshots from dir.
type Provider struct {
	dir    string
	logger *slog.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a Provider over a collections directory.
func New(dir string, opts ...Option) *Provider {
	p := &Provider{
		dir:    dir,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Collections lists the collection names available in the directory: one
// per .xlsx file, skipping editor lock-temp files.
func (p *Provider) Collections() ([]string, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, fmt.Errorf("read collections dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.EqualFold(filepath.Ext(name), ".xlsx") || strings.HasPrefix(name, "~$") {
			continue
		}
		names = append(names, strings.TrimSuffix(name, filepath.Ext(name)))
	}
	return names, nil
}

// Snapshot reads the complete snapshot for one collection from its file.
// A file that exists but cannot be opened or read is reported as transient
// (the editor is likely mid-save); a missing file is a plain error so the
// synchronizer keeps the stored records instead of wiping them.
func (p *Provider) Snapshot(ctx context.Context, collection string) ([]store.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(p.dir, collection+".xlsx")
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("collection file: %w", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", syncpkg.ErrTransient, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets in %s", filepath.Base(path))
	}
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", syncpkg.ErrTransient, err)
	}

	var items []store.Item
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		content := strings.TrimSpace(row[0])
		if content == "" {
			continue
		}
		item := store.Item{Content: content}
		if len(row) > 1 {
			item.Notes = strings.TrimSpace(row[1])
		}
		items = append(items, item)
	}

	p.logger.Debug("read collection snapshot",
		"collection", collection, "items", len(items), "sheet", sheet)
	return items, nil
}
