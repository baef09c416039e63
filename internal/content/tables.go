package content

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/*.yaml
var defaultFS embed.FS

// Files lists the content files in load order.
var Files = []string{"balance.yaml", "biomes.yaml", "items.yaml", "events.yaml"}

// Tables is the full, validated set of static content.
type Tables struct {
	Balance            Balance             `yaml:"balance"`
	Difficulties       []Difficulty        `yaml:"difficulties"`
	Biomes             []Biome             `yaml:"biomes"`
	Items              []Item              `yaml:"items"`
	Events             []Event             `yaml:"events"`
	FloorModifiers     []FloorModifier     `yaml:"floor_modifiers"`
	EncounterModifiers []EncounterModifier `yaml:"encounter_modifiers"`

	difficulties map[string]*Difficulty
	biomes       map[string]*Biome
	items        map[string]*Item
	events       map[string]*Event
}

// Embedded returns the tables compiled into the binary.
func Embedded() (*Tables, error) {
	return Load("")
}

// Load reads the content files. Each file is looked up in
// dir -> ~/.wingo/content -> ./content -> embedded default.
func Load(dir string) (*Tables, error) {
	t := &Tables{}
	for _, name := range Files {
		data, source, err := readFile(dir, name)
		if err != nil {
			return nil, err
		}
		if err := decode(data, t); err != nil {
			return nil, fmt.Errorf("content: failed to parse %s: %w", source, err)
		}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Parse decodes tables from raw YAML documents and validates them.
func Parse(docs ...[]byte) (*Tables, error) {
	t := &Tables{}
	for i, data := range docs {
		if err := decode(data, t); err != nil {
			return nil, fmt.Errorf("content: failed to parse document %d: %w", i, err)
		}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func decode(data []byte, t *Tables) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(t); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func readFile(dir, name string) ([]byte, string, error) {
	if dir != "" {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err == nil {
			return data, path, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, path, fmt.Errorf("content: failed to read %s: %w", path, err)
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".wingo", "content", name)
		if data, err := os.ReadFile(path); err == nil {
			return data, path, nil
		}
	}

	local := filepath.Join("content", name)
	if data, err := os.ReadFile(local); err == nil {
		return data, local, nil
	}

	data, err := defaultFS.ReadFile("defaults/" + name)
	if err != nil {
		return nil, name, fmt.Errorf("content: missing embedded %s: %w", name, err)
	}
	return data, "embedded " + name, nil
}

// Difficulty looks up a difficulty preset by id.
func (t *Tables) Difficulty(id string) (*Difficulty, bool) {
	d, ok := t.difficulties[id]
	return d, ok
}

// Biome looks up a biome by id.
func (t *Tables) Biome(id string) (*Biome, bool) {
	b, ok := t.biomes[id]
	return b, ok
}

// Item looks up an item definition by id.
func (t *Tables) Item(id string) (*Item, bool) {
	i, ok := t.items[id]
	return i, ok
}

// Event looks up an event definition by id.
func (t *Tables) Event(id string) (*Event, bool) {
	e, ok := t.events[id]
	return e, ok
}
