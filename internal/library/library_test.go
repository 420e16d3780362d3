package library

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/cbegin/rtttl-go/internal/rtttl"
)

func TestBuiltinMelodiesParse(t *testing.T) {
	lib := Builtin()
	if lib.Len() != 33 {
		t.Fatalf("builtin melodies = %d, want 33", lib.Len())
	}
	for _, e := range lib.Entries() {
		t.Run(e.Name, func(t *testing.T) {
			m, err := e.Melody()
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if m.Name != e.Name {
				t.Fatalf("melody name = %q, entry name = %q", m.Name, e.Name)
			}
			c := m.Notes()
			n := 0
			for ev, err := range c.All() {
				if err != nil {
					t.Fatalf("note %d: %v", n, err)
				}
				if ev.DurationMs <= 0 || ev.Frequency < 0 {
					t.Fatalf("note %d invalid: %+v", n, ev)
				}
				if ev.IsPause() && ev.Frequency != 0 {
					t.Fatalf("pause with frequency %d", ev.Frequency)
				}
				n++
			}
			if n == 0 {
				t.Fatalf("no notes")
			}
			if c.Skipped() != 0 {
				t.Fatalf("skipped %d tokens", c.Skipped())
			}
		})
	}
}

func TestGetIsCaseInsensitive(t *testing.T) {
	lib := Builtin()
	e, ok := lib.Get("starwars")
	if !ok || e.Name != "StarWars" {
		t.Fatalf("Get(starwars) = %+v, %v", e, ok)
	}
	if _, ok := lib.Get("20THCENFOX"); !ok {
		t.Fatalf("expected 20thCenFox")
	}
	if _, ok := lib.Get("nope"); ok {
		t.Fatalf("unexpected entry")
	}
}

func TestShortMatchesReferenceScenario(t *testing.T) {
	e, ok := Builtin().Get("Short")
	if !ok {
		t.Fatalf("Short missing")
	}
	m, err := e.Melody()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	d, err := m.Duration()
	if err != nil {
		t.Fatalf("duration: %v", err)
	}
	if d.Milliseconds() != 8*600 {
		t.Fatalf("duration = %v, want 4.8s", d)
	}
}

func TestLoadDerivesNamesAndOverrides(t *testing.T) {
	src := `
melodies:
  - rtttl: "Beep:d=4,o=5,b=120:c"
  - name: Custom
    rtttl: "x:d=8,o=6,b=100:a,b"
    tags: [test]
  - rtttl: "beep:d=4,o=5,b=120:d"
`
	lib, err := Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if lib.Len() != 2 {
		t.Fatalf("len = %d, want 2", lib.Len())
	}
	beep, _ := lib.Get("BEEP")
	if !strings.HasSuffix(beep.RTTTL, ":d") {
		t.Fatalf("later entry should override, got %q", beep.RTTTL)
	}
	if got := lib.Tagged("TEST"); len(got) != 1 || got[0].Name != "Custom" {
		t.Fatalf("tagged = %+v", got)
	}
	names := lib.Names()
	if len(names) != 2 || names[0] != "beep" || names[1] != "Custom" {
		t.Fatalf("names = %v", names)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"bad yaml", "melodies: [\n"},
		{"empty rtttl", "melodies:\n  - name: x\n"},
		{"no separator", "melodies:\n  - rtttl: \"abc\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(strings.NewReader(tt.src)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
	_, err := Load(strings.NewReader("melodies:\n  - rtttl: \"abc\"\n"))
	if !errors.Is(err, rtttl.ErrMalformedInput) {
		t.Fatalf("expected malformed input, got %v", err)
	}
}

func TestWriteThenLoad(t *testing.T) {
	lib := Builtin()
	var buf bytes.Buffer
	if err := lib.Write(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	again, err := Load(&buf)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if again.Len() != lib.Len() {
		t.Fatalf("len = %d, want %d", again.Len(), lib.Len())
	}
	a, _ := lib.Get("Bond")
	b, _ := again.Get("Bond")
	if a.RTTTL != b.RTTTL {
		t.Fatalf("Bond changed after write")
	}
}

func TestMerge(t *testing.T) {
	lib := Builtin()
	extra, err := Load(strings.NewReader("melodies:\n  - rtttl: \"Short:d=4,o=5,b=200:c\"\n  - rtttl: \"New:d=4,o=5,b=200:c\"\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	lib.Merge(extra)
	if lib.Len() != 34 {
		t.Fatalf("len = %d, want 34", lib.Len())
	}
	e, _ := lib.Get("short")
	if !strings.Contains(e.RTTTL, "b=200") {
		t.Fatalf("merge should override Short, got %q", e.RTTTL)
	}
}
