// Package store is the local persistence collaborator: a diskv-backed
// key-value store holding CSV-encoded game entities. Loads never fail
// (missing or corrupt data yields empty lists), and saves are
// fire-and-forget with failures logged, per the collaborator contract.
package store

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/peterbourgon/diskv/v3"
)

const (
	keyGenerators = "generators"
	keyResearch   = "research"
	keyResources  = "resources"
	keyWeights    = "weights"
	keyMeta       = "meta"
)

// Store persists game state under a base directory.
type Store struct {
	d      *diskv.Diskv
	logger *slog.Logger
}

// New opens (or creates) a store rooted at basePath.
func New(basePath string) *Store {
	return &Store{
		d: diskv.New(diskv.Options{
			BasePath:     basePath,
			Transform:    func(string) []string { return nil },
			CacheSizeMax: 1024 * 1024,
		}),
		logger: slog.With("component", "store", "path", basePath),
	}
}

// meta records bookkeeping about the last save, used to decide whether a
// cloud snapshot is fresher than local data.
type meta struct {
	SavedAt time.Time `json:"saved_at"`
}

// SavedAt returns the time of the last local save, zero if never saved.
func (s *Store) SavedAt() time.Time {
	data, err := s.d.Read(keyMeta)
	if err != nil {
		return time.Time{}
	}
	var m meta
	if err := json.Unmarshal(data, &m); err != nil {
		s.logger.Warn("corrupt meta entry", "error", err)
		return time.Time{}
	}
	return m.SavedAt
}

func (s *Store) touch() {
	data, err := json.Marshal(meta{SavedAt: time.Now()})
	if err != nil {
		return
	}
	if err := s.d.Write(keyMeta, data); err != nil {
		s.logger.Warn("failed to write meta", "error", err)
	}
}

func (s *Store) read(key string) []byte {
	if !s.d.Has(key) {
		return nil
	}
	data, err := s.d.Read(key)
	if err != nil {
		s.logger.Warn("failed to read key", "key", key, "error", err)
		return nil
	}
	return data
}

func (s *Store) write(key string, data []byte) {
	if err := s.d.Write(key, data); err != nil {
		s.logger.Warn("failed to write key", "key", key, "error", err)
		return
	}
	s.touch()
}

// SaveWeights persists the engine's bottleneck smoothing state.
func (s *Store) SaveWeights(weights map[string]float64) {
	data, err := json.Marshal(weights)
	if err != nil {
		s.logger.Warn("failed to encode weights", "error", err)
		return
	}
	s.write(keyWeights, data)
}

// LoadWeights restores the smoothing state, empty when absent.
func (s *Store) LoadWeights() map[string]float64 {
	weights := make(map[string]float64)
	data := s.read(keyWeights)
	if data == nil {
		return weights
	}
	if err := json.Unmarshal(data, &weights); err != nil {
		s.logger.Warn("corrupt weights entry", "error", err)
		return make(map[string]float64)
	}
	return weights
}
