package record

// Kind discriminates the two record partitions.
type Kind string

const (
	KindClipboard Kind = "clipboard"
	KindMaster    Kind = "master"
)

// ClipboardRecord is one captured clipboard entry. Records are immutable
// after creation; they leave the store only through retention eviction or an
// explicit delete.
type ClipboardRecord struct {
	// ID is assigned monotonically by the store
	ID int64 `json:"id"`

	// Content is the captured text, never empty
	Content string `json:"content"`

	// Fingerprint is a content-derived digest used for cheap equality
	Fingerprint string `json:"fingerprint"`

	// CapturedAt is the Unix timestamp of capture, the recency basis
	CapturedAt int64 `json:"captured_at"`

	// SourceApp is optional provenance (the app the text was copied from)
	SourceApp string `json:"source_app,omitempty"`
}

// MasterRecord is one entry of an externally curated collection. Records are
// replaced in whole-collection batches, never partially mutated.
type MasterRecord struct {
	ID int64 `json:"id"`

	Content string `json:"content"`

	// Collection names the owning collection (one external file each)
	Collection string `json:"collection"`

	// Notes is optional free text, displayable but not searched
	Notes string `json:"notes,omitempty"`

	// Active records are queryable; inactive ones are retained for audit
	Active bool `json:"active"`

	// ImportedAt is the Unix timestamp of first import, the recency basis.
	// It survives no-op re-syncs.
	ImportedAt int64 `json:"imported_at"`
}

// Queryable is the unified view of a record handed to the ranking engine.
type Queryable struct {
	Kind       Kind   `json:"kind"`
	ID         int64  `json:"id"`
	Content    string `json:"content"`
	Collection string `json:"collection,omitempty"`
	Notes      string `json:"notes,omitempty"`
	SourceApp  string `json:"source_app,omitempty"`

	// RecencyBasis is CapturedAt for clipboard records, ImportedAt for
	// master records.
	RecencyBasis int64 `json:"recency_basis"`
}

// Clipboard wraps a ClipboardRecord as a Queryable.
func Clipboard(r ClipboardRecord) Queryable {
	return Queryable{
		Kind:         KindClipboard,
		ID:           r.ID,
		Content:      r.Content,
		SourceApp:    r.SourceApp,
		RecencyBasis: r.CapturedAt,
	}
}

// Master wraps an active MasterRecord as a Queryable.
func Master(r MasterRecord) Queryable {
	return Queryable{
		Kind:         KindMaster,
		ID:           r.ID,
		Content:      r.Content,
		Collection:   r.Collection,
		Notes:        r.Notes,
		RecencyBasis: r.ImportedAt,
	}
}
