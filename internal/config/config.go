package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Config holds application configuration.
// Scoring knobs are passed into the ranking engine at construction; storage
// knobs are passed into the store. Nothing in here is read from globals.
type Config struct {
	// MaxClipboardItems caps the clipboard history. When an append pushes the
	// count past the cap, the oldest records are evicted in the same
	// transaction. Master records are exempt.
	MaxClipboardItems int `json:"max_clipboard_items"`

	// RecencyHalfLifeHours controls recency decay: score = 1/(1+age/halflife).
	RecencyHalfLifeHours float64 `json:"recency_half_life_hours"`

	// MasterBoost multiplies the final score of active master records.
	MasterBoost float64 `json:"master_boost"`

	// QualityWeight and RecencyWeight combine match quality and recency into
	// the final score. They should sum to 1.0 but are not forced to.
	QualityWeight float64 `json:"quality_weight"`
	RecencyWeight float64 `json:"recency_weight"`

	// Match quality bonuses and penalties.
	ConsecutiveBonus  float64 `json:"consecutive_bonus"`
	FirstCharBonus    float64 `json:"first_char_bonus"`
	WordBoundaryBonus float64 `json:"word_boundary_bonus"`
	GapPenalty        float64 `json:"gap_penalty"`

	// ScanFloorChars is the query length (normalized characters) below which
	// an empty candidate set from the lexical index falls back to a full
	// scan. Very short queries may match via scattered single characters the
	// index cannot anticipate.
	ScanFloorChars int `json:"scan_floor_chars"`

	// CollectionsDir is the directory holding master collection files
	// (one .xlsx per collection). Empty disables collection sync.
	CollectionsDir string `json:"collections_dir,omitempty"`

	// DBMaxOpenConns limits open database connections. If set to 1, all
	// database access is serialized. 0 means the sql.DB default.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits idle database connections. 0 means the sql.DB
	// default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxClipboardItems:    500,
		RecencyHalfLifeHours: 168, // 7 days
		MasterBoost:          1.1,
		QualityWeight:        0.6,
		RecencyWeight:        0.4,
		ConsecutiveBonus:     5.0,
		FirstCharBonus:       4.0,
		WordBoundaryBonus:    3.0,
		GapPenalty:           0.5,
		ScanFloorChars:       3,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.shiftpaste.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence when non-zero.
func Merge(base, overlay *Config) *Config {
	result := *overlay

	if result.MaxClipboardItems == 0 {
		result.MaxClipboardItems = base.MaxClipboardItems
	}
	if result.RecencyHalfLifeHours == 0 {
		result.RecencyHalfLifeHours = base.RecencyHalfLifeHours
	}
	if result.MasterBoost == 0 {
		result.MasterBoost = base.MasterBoost
	}
	if result.QualityWeight == 0 {
		result.QualityWeight = base.QualityWeight
	}
	if result.RecencyWeight == 0 {
		result.RecencyWeight = base.RecencyWeight
	}
	if result.ConsecutiveBonus == 0 {
		result.ConsecutiveBonus = base.ConsecutiveBonus
	}
	if result.FirstCharBonus == 0 {
		result.FirstCharBonus = base.FirstCharBonus
	}
	if result.WordBoundaryBonus == 0 {
		result.WordBoundaryBonus = base.WordBoundaryBonus
	}
	if result.GapPenalty == 0 {
		result.GapPenalty = base.GapPenalty
	}
	if result.ScanFloorChars == 0 {
		result.ScanFloorChars = base.ScanFloorChars
	}
	if result.CollectionsDir == "" {
		result.CollectionsDir = base.CollectionsDir
	}
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	return &result
}
