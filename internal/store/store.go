// Package store persists generated data sets as JSON files in the site's data
// directory and keeps them available in memory for the rest of the build.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"

	apperrors "github.com/jcaw/jekyll-github-scraper/internal/errors"
)

// Slot names. Each maps to <dir>/<slot>.json.
const (
	SlotContributions = "github-contributions"
	SlotSources       = "github-sources"
	SlotRecentPRs     = "github-recent-merged-prs"
)

// Slots lists every slot the generator owns.
var Slots = []string{SlotContributions, SlotSources, SlotRecentPRs}

// Store writes slots under a single data directory.
type Store struct {
	dir    string
	data   map[string]any
	logger *log.Logger
}

// New creates a Store rooted at dir. The directory is created on first write.
func New(dir string, logger *log.Logger) *Store {
	return &Store{
		dir:    dir,
		data:   make(map[string]any),
		logger: logger,
	}
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the backing file of slot.
func (s *Store) Path(slot string) string {
	return filepath.Join(s.dir, slot+".json")
}

// Fresh reports whether every slot file exists and was modified less than ttl
// before now. A single missing or expired file makes the whole set stale.
func (s *Store) Fresh(ttl time.Duration, now time.Time) bool {
	for _, slot := range Slots {
		info, err := os.Stat(s.Path(slot))
		if err != nil {
			return false
		}
		if !info.ModTime().Add(ttl).After(now) {
			return false
		}
	}
	return true
}

// Put serializes value to the slot's file and keeps it in memory under the
// same name. The file is replaced atomically.
func (s *Store) Put(slot string, value any) error {
	s.logger.Printf("  Storing %s\n", slot)
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", slot, err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return apperrors.NewFilesystemError(fmt.Sprintf("failed to create data directory %s", s.dir), err)
	}
	if err := atomic.WriteFile(s.Path(slot), bytes.NewReader(payload)); err != nil {
		return apperrors.NewFilesystemError(fmt.Sprintf("failed to write %s", s.Path(slot)), err)
	}
	s.data[slot] = value
	return nil
}

// Get returns the value stored under slot during this process.
func (s *Store) Get(slot string) (any, bool) {
	v, ok := s.data[slot]
	return v, ok
}

// Load decodes the slot's file into out.
func (s *Store) Load(slot string, out any) error {
	raw, err := os.ReadFile(s.Path(slot))
	if err != nil {
		return apperrors.NewFilesystemError(fmt.Sprintf("failed to read %s", s.Path(slot)), err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", s.Path(slot), err)
	}
	return nil
}
