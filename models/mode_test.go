package models

import (
	"encoding/json"
	"testing"
)

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{
		"full":       ModeFull,
		"":           ModeFull,
		"sentence":   ModeSentence,
		"word":       ModeSentence,
		"block":      ModeBlock,
		"aggressive": ModeBlock,
	}
	for in, want := range cases {
		got, err := ParseMode(in)
		if err != nil {
			t.Fatalf("ParseMode(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseMode(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseModeUnknown(t *testing.T) {
	if _, err := ParseMode("loud"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestModeValid(t *testing.T) {
	for _, m := range []Mode{ModeFull, ModeSentence, ModeBlock} {
		if !m.Valid() {
			t.Fatalf("mode %v reported invalid", m)
		}
	}
	if Mode(0).Valid() || Mode(4).Valid() {
		t.Fatal("out-of-range mode reported valid")
	}
}

func TestModeJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(ModeSentence)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"sentence"` {
		t.Fatalf("marshal = %s", data)
	}
	var m Mode
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if m != ModeSentence {
		t.Fatalf("round trip = %v", m)
	}
	if err := json.Unmarshal([]byte(`"loud"`), &m); err == nil {
		t.Fatal("expected error for unknown mode in JSON")
	}
}
