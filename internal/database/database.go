// Package database stores the history of generation runs.
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/kozaktomas/stock-metadata/internal/stockcsv"
)

// StoredRun is a finished (or cancelled) generation run with its records.
type StoredRun struct {
	ID         string            `json:"id"`
	Subject    string            `json:"subject"`
	Strategy   string            `json:"strategy"`
	Mode       string            `json:"mode"`
	Category   string            `json:"category"`
	Requested  int               `json:"requested"`
	AIFailures int               `json:"ai_failures"`
	Cancelled  bool              `json:"cancelled"`
	Seed       uint64            `json:"seed"`
	CreatedAt  time.Time         `json:"created_at"`
	Records    []stockcsv.Record `json:"records,omitempty"`
}

// RunSummary is a StoredRun without its records, used for listings.
type RunSummary struct {
	ID         string    `json:"id"`
	Subject    string    `json:"subject"`
	Strategy   string    `json:"strategy"`
	Mode       string    `json:"mode"`
	Category   string    `json:"category"`
	Requested  int       `json:"requested"`
	Rows       int       `json:"rows"`
	AIFailures int       `json:"ai_failures"`
	Cancelled  bool      `json:"cancelled"`
	Seed       uint64    `json:"seed"`
	CreatedAt  time.Time `json:"created_at"`
}

// Summary returns the listing form of the run.
func (r *StoredRun) Summary() RunSummary {
	return RunSummary{
		ID:         r.ID,
		Subject:    r.Subject,
		Strategy:   r.Strategy,
		Mode:       r.Mode,
		Category:   r.Category,
		Requested:  r.Requested,
		Rows:       len(r.Records),
		AIFailures: r.AIFailures,
		Cancelled:  r.Cancelled,
		Seed:       r.Seed,
		CreatedAt:  r.CreatedAt,
	}
}

// RunStore persists generation runs.
type RunStore interface {
	// SaveRun inserts or replaces a run
	SaveRun(ctx context.Context, run *StoredRun) error
	// GetRun retrieves a run with its records, returns nil if not found
	GetRun(ctx context.Context, id string) (*StoredRun, error)
	// ListRuns returns the newest runs first, at most limit (0 = all)
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
	// DeleteRun removes a run and reports whether it existed
	DeleteRun(ctx context.Context, id string) (bool, error)
	Close() error
}

// EncodeRecords serializes records for a JSON column.
func EncodeRecords(records []stockcsv.Record) ([]byte, error) {
	if records == nil {
		records = []stockcsv.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("marshal records: %w", err)
	}
	return data, nil
}

// DecodeRecords parses a JSON records column.
func DecodeRecords(data []byte) ([]stockcsv.Record, error) {
	var records []stockcsv.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("unmarshal records: %w", err)
	}
	return records, nil
}

// FormatSeed encodes a seed for a text column. SQL drivers reject uint64
// values with the high bit set.
func FormatSeed(seed uint64) string {
	return strconv.FormatUint(seed, 10)
}

// ParseSeed decodes a seed column.
func ParseSeed(s string) (uint64, error) {
	seed, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse seed %q: %w", s, err)
	}
	return seed, nil
}
