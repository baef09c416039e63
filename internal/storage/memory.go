package storage

import (
	"slices"
	"sync"

	"github.com/vovakirdan/wingo/internal/meta"
	"github.com/vovakirdan/wingo/internal/registry"
)

func init() {
	registry.Register("memory", func(string) (registry.Store, error) {
		return NewMemory(), nil
	})
}

// Memory keeps everything in process. It also records history so the
// simulator and tests can inspect finished runs.
type Memory struct {
	mu      sync.Mutex
	meta    *meta.State
	run     []byte
	history []registry.Record
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// LoadMeta returns a copy of the stored meta, or nil if none was saved.
func (m *Memory) LoadMeta() (*meta.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.meta == nil {
		return nil, nil
	}
	return m.meta.Clone(), nil
}

// SaveMeta stores a copy of the meta.
func (m *Memory) SaveMeta(s *meta.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meta = s.Clone()
	return nil
}

// LoadRun returns the saved run snapshot, or nil if there is none.
func (m *Memory) LoadRun() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.run), nil
}

// SaveRun replaces the saved run snapshot.
func (m *Memory) SaveRun(snapshot []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.run = slices.Clone(snapshot)
	return nil
}

// DeleteRun drops the saved run.
func (m *Memory) DeleteRun() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.run = nil
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

// RecordRun appends a finished run to the history.
func (m *Memory) RecordRun(rec registry.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.ID = int64(len(m.history) + 1)
	m.history = append(m.history, rec)
	return nil
}

// History returns a copy of the recorded runs in insertion order.
func (m *Memory) History() []registry.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.history)
}

var (
	_ registry.Store           = (*Memory)(nil)
	_ registry.HistoryRecorder = (*Memory)(nil)
)
