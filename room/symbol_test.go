package room

import (
	"encoding/json"
	"testing"
)

func TestSymbol_ParseRoundTrip(t *testing.T) {
	for sym := Symbol(0); sym < NumSymbols; sym++ {
		parsed, ok := ParseSymbol(sym.String())
		if !ok || parsed != sym {
			t.Errorf("Round trip failed for %s", sym)
		}
	}
	if _, ok := ParseSymbol("dragon"); ok {
		t.Error("Unknown name must not parse")
	}
}

func TestStakes_JSONShape(t *testing.T) {
	st := Stakes{}
	st[Ca] = 50

	data, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var m map[string]int64
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(m) != NumSymbols {
		t.Errorf("Every symbol must appear in the wire object, got %d keys", len(m))
	}
	if m["ca"] != 50 || m["bau"] != 0 {
		t.Errorf("Unexpected wire object: %v", m)
	}

	var decoded Stakes
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal into Stakes failed: %v", err)
	}
	if decoded != st {
		t.Errorf("Round trip mismatch: %v != %v", decoded, st)
	}

	if err := json.Unmarshal([]byte(`{"dragon":5}`), &decoded); err == nil {
		t.Error("Unknown symbol key must fail to decode")
	}
}

func TestStakes_Total(t *testing.T) {
	st := Stakes{}
	if !st.IsZero() {
		t.Error("Fresh stakes should be zero")
	}
	st[Bau] = 30
	st[Ga] = 20
	if st.Total() != 50 {
		t.Errorf("Expected total 50, got %d", st.Total())
	}
}

func TestRoller_DeterministicWithSeed(t *testing.T) {
	a := NewRoller(42)
	b := NewRoller(42)
	for i := 0; i < 20; i++ {
		da, db := a.Roll(), b.Roll()
		if da != db {
			t.Fatalf("Seeded rollers diverged at draw %d: %v != %v", i, da, db)
		}
		for _, d := range da {
			if int(d) >= NumSymbols {
				t.Fatalf("Roller produced invalid symbol %d", d)
			}
		}
	}
}
