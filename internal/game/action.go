package game

import (
	"fmt"

	"github.com/vovakirdan/wingo/internal/meta"
	"github.com/vovakirdan/wingo/internal/rng"
)

// Kind is the type of a player action.
type Kind int

const (
	KindCall Kind = iota
	KindFreeMark
	KindBomb
	KindBuy
	KindUseItem
	KindReroll
	KindSkipShop
	KindResolveEvent
	KindAdvance
)

var kindNames = [...]string{
	KindCall:         "call",
	KindFreeMark:     "free-mark",
	KindBomb:         "bomb",
	KindBuy:          "buy",
	KindUseItem:      "use-item",
	KindReroll:       "reroll",
	KindSkipShop:     "skip-shop",
	KindResolveEvent: "resolve-event",
	KindAdvance:      "advance",
}

// String returns the action's journal name.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// ParseKind maps a journal name back to a Kind.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("game: unknown action %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Action is one journaled player input.
type Action struct {
	Kind     Kind   `json:"kind"`
	CellID   string `json:"cellId,omitempty"`
	ItemID   string `json:"itemId,omitempty"`
	EventID  string `json:"eventId,omitempty"`
	OptionID string `json:"optionId,omitempty"`
}

// Apply dispatches an action to the matching operation.
func (s *Service) Apply(m *meta.State, run *Run, r *rng.Rng, a Action) *Run {
	switch a.Kind {
	case KindCall:
		return s.CallNext(m, run, r).State
	case KindFreeMark:
		return s.FreeMark(run, a.CellID)
	case KindBomb:
		return s.UseBomb(m, run, r)
	case KindBuy:
		return s.BuyItem(m, run, a.ItemID)
	case KindUseItem:
		return s.UseItem(m, run, a.ItemID, r)
	case KindReroll:
		return s.RerollShop(m, run, r)
	case KindSkipShop:
		return s.SkipShop(run)
	case KindResolveEvent:
		return s.ResolveEvent(m, run, a.EventID, a.OptionID, r)
	case KindAdvance:
		return s.AdvanceFloor(m, run, r)
	}
	return run
}

// Replay rebuilds a run from its creation options and action journal.
// The same inputs always produce the same run and generator state.
func (s *Service) Replay(m *meta.State, opts Options, journal []Action) (*Run, *rng.Rng, error) {
	r := rng.New(opts.Seed)
	run, err := s.CreateRun(m, r, opts)
	if err != nil {
		return nil, nil, err
	}
	for _, a := range journal {
		run = s.Apply(m, run, r, a)
	}
	return run, r, nil
}
