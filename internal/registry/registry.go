// Package registry provides a global registry of persistence backends.
// Backends register themselves in init() functions, allowing the CLI and
// the SSH server to pick one by name without hardcoded dependencies.
package registry

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vovakirdan/wingo/internal/meta"
)

// Store is the persistence contract for one player: their meta-progression
// ledger and at most one saved run.
type Store interface {
	// LoadMeta returns the stored ledger, or nil when none was saved yet.
	LoadMeta() (*meta.State, error)

	// SaveMeta replaces the stored ledger.
	SaveMeta(m *meta.State) error

	// LoadRun returns the saved run snapshot, or nil when there is none.
	LoadRun() ([]byte, error)

	// SaveRun replaces the saved run snapshot.
	SaveRun(snapshot []byte) error

	// DeleteRun forgets the saved run. Deleting nothing is not an error.
	DeleteRun() error

	// Close releases the backend.
	Close() error
}

// Record is one finished run in the history.
type Record struct {
	ID            int64
	RunID         string
	Seed          uint32
	BiomeID       string
	DifficultyID  string
	Victory       bool
	FloorsCleared int
	DamageDealt   int
	CallsMade     int
	CoinsEarned   int
	CreatedAt     time.Time
}

// HistoryRecorder is implemented by stores that keep a run history.
type HistoryRecorder interface {
	RecordRun(rec Record) error
}

// Stats aggregates the run history.
type Stats struct {
	Runs       int
	Victories  int
	BestFloors int
	AvgDamage  float64
	LastPlayed time.Time
}

// HistoryReader is implemented by stores that can query their run history.
type HistoryReader interface {
	TopRuns(biomeID string, limit int) ([]Record, error)
	Stats() (Stats, error)
}

// Opener creates a store rooted at path. The meaning of path is up to the
// backend: a directory, a database file, or nothing at all.
type Opener func(path string) (Store, error)

var (
	openers = make(map[string]Opener)
	mu      sync.RWMutex
)

// Register adds a backend under name.
// Typically called from a backend's init() function.
// Panics if a backend with the same name is already registered.
func Register(name string, o Opener) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := openers[name]; exists {
		panic(fmt.Sprintf("registry: backend %q already registered", name))
	}
	openers[name] = o
}

// List returns the registered backend names, sorted.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]string, 0, len(openers))
	for name := range openers {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// Open creates a store with the named backend.
// Returns an error if the backend is not registered.
func Open(name, path string) (Store, error) {
	mu.RLock()
	o, ok := openers[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("registry: unknown backend %q", name)
	}
	return o(path)
}

// Exists checks if a backend with the given name is registered.
func Exists(name string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := openers[name]
	return ok
}
