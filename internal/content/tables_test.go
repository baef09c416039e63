package content

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEmbeddedTablesValidate(t *testing.T) {
	tables, err := Embedded()
	if err != nil {
		t.Fatalf("Embedded() error: %v", err)
	}

	for _, id := range []string{"easy", "semi-easy", "less-easy", "hard"} {
		if _, ok := tables.Difficulty(id); !ok {
			t.Errorf("missing difficulty %q", id)
		}
	}
	for _, id := range []string{"crypt", "emberforge", "aurora", "swamp"} {
		b, ok := tables.Biome(id)
		if !ok {
			t.Errorf("missing biome %q", id)
			continue
		}
		for _, boss := range b.Floors {
			for _, s := range boss.Statuses {
				if s == StatusChill {
					t.Errorf("boss %s starts chilled", boss.ID)
				}
			}
		}
	}
	if d, _ := tables.Difficulty("hard"); !d.CommonDiscount {
		t.Error("hard difficulty should discount commons")
	}
	if got := tables.Balance.Shop.OfferCount(2); got != 4 {
		t.Errorf("OfferCount(2) = %d, want 4", got)
	}
	if got := tables.Balance.Shop.OfferCount(1); got != 3 {
		t.Errorf("OfferCount(1) = %d, want 3", got)
	}
}

func TestRarityPower(t *testing.T) {
	tests := []struct {
		rarity Rarity
		want   int
	}{
		{RarityCommon, 1},
		{RarityUncommon, 2},
		{RarityRare, 3},
		{RarityLegendary, 4},
		{Rarity("mythic"), 0},
	}
	for _, tt := range tests {
		if got := tt.rarity.Power(); got != tt.want {
			t.Errorf("%s.Power() = %d, want %d", tt.rarity, got, tt.want)
		}
	}
}

func TestBonusFor(t *testing.T) {
	hearts := []Threshold{{XP: 25, Bonus: 1}, {XP: 60, Bonus: 2}}
	tests := []struct {
		xp   int
		want int
	}{
		{0, 0},
		{24, 0},
		{25, 1},
		{59, 1},
		{60, 2},
		{500, 2},
	}
	for _, tt := range tests {
		if got := BonusFor(hearts, tt.xp); got != tt.want {
			t.Errorf("BonusFor(%d) = %d, want %d", tt.xp, got, tt.want)
		}
	}
}

func TestValidateRejectsMalformedContent(t *testing.T) {
	base := func() [][]byte {
		var docs [][]byte
		for _, name := range Files {
			data, err := defaultFS.ReadFile("defaults/" + name)
			if err != nil {
				t.Fatalf("read %s: %v", name, err)
			}
			docs = append(docs, data)
		}
		return docs
	}

	tests := []struct {
		name  string
		extra string
		code  string
	}{
		{
			name:  "unknown item type",
			extra: "items:\n  - {id: rock, name: Rock, type: pebble, rarity: common, cost: 1}\n",
			code:  "ITEM_TYPE",
		},
		{
			name:  "unknown rarity",
			extra: "items:\n  - {id: rock, name: Rock, type: relic, rarity: mythic, cost: 1}\n",
			code:  "ITEM_RARITY",
		},
		{
			name:  "biome without floors",
			extra: "biomes:\n  - {id: void, name: Void, floors: []}\n",
			code:  "BIOME_FLOORS",
		},
		{
			name:  "dangling event",
			extra: "biomes:\n  - {id: void, name: Void, events: [nowhere], floors: [{id: x, name: X, base_hp: 5, damage: 1}]}\n",
			code:  "BIOME_EVENT",
		},
		{
			name:  "board wider than column labels",
			extra: "difficulties:\n  - {id: huge, board_size: 7, starting_hearts: 3, call_cap_base: 10, distinct_numbers: 5, reward_coins: {min: 1, max: 2}}\n",
			code:  "DIFFICULTY_BOARD",
		},
		{
			name:  "inverted reward range",
			extra: "difficulties:\n  - {id: odd, board_size: 3, starting_hearts: 3, call_cap_base: 10, distinct_numbers: 5, reward_coins: {min: 9, max: 2}}\n",
			code:  "DIFFICULTY_REWARD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := append(base(), []byte(tt.extra))
			_, err := Parse(docs...)
			if err == nil {
				t.Fatal("Parse() accepted malformed content")
			}
			var ve ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error %v is not a ValidationError", err)
			}
			if !hasCode(err, tt.code) {
				t.Errorf("error %v does not carry code %s", err, tt.code)
			}
		})
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	if _, err := Parse([]byte("balance:\n  bogus_field: 3\n")); err == nil {
		t.Fatal("Parse() accepted unknown field")
	}
}

func TestLoadPrefersDirectory(t *testing.T) {
	dir := t.TempDir()
	data, err := defaultFS.ReadFile("defaults/items.yaml")
	if err != nil {
		t.Fatal(err)
	}
	data = append(data, []byte("  - {id: test-only, name: Test Only, type: relic, rarity: common, cost: 1}\n")...)
	if err := os.WriteFile(filepath.Join(dir, "items.yaml"), data, 0o644); err != nil {
		t.Fatal(err)
	}

	tables, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if _, ok := tables.Item("test-only"); !ok {
		t.Error("item from directory override not loaded")
	}
	if _, ok := tables.Biome("crypt"); !ok {
		t.Error("files missing from the directory should fall back to defaults")
	}
}

func hasCode(err error, code string) bool {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if hasCode(e, code) {
				return true
			}
		}
		return false
	}
	var ve ValidationError
	return errors.As(err, &ve) && ve.Code == code
}
