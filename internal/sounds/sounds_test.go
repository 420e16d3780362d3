package sounds

import "testing"

func TestTableCoversEveryID(t *testing.T) {
	ids := All()
	if len(ids) != 19 {
		t.Fatalf("effects = %d, want 19", len(ids))
	}
	for _, id := range ids {
		steps, ok := Lookup(id)
		if !ok || len(steps) == 0 {
			t.Fatalf("%s has no steps", id)
		}
		for _, s := range steps {
			if s.DurationMs <= 0 || s.Frequency < 0 {
				t.Fatalf("%s has invalid step %+v", id, s)
			}
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, ok := Lookup(ID(99)); ok {
		t.Fatalf("expected lookup of unknown id to fail")
	}
	if _, ok := Lookup(ID(-1)); ok {
		t.Fatalf("expected lookup of negative id to fail")
	}
	if got := ID(99).String(); got != "ID(99)" {
		t.Fatalf("String() = %q", got)
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	steps, _ := Lookup(Connection)
	steps[0].Frequency = 1
	again, _ := Lookup(Connection)
	if again[0].Frequency != 1000 {
		t.Fatalf("table was modified through Lookup result")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want ID
	}{
		{"connection", Connection},
		{"ButtonPushed", ButtonPushed},
		{"button_pushed", ButtonPushed},
		{"super-happy", SuperHappy},
		{"OHOOH2", OhOoh2},
		{" fart3 ", Fart3},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Parse(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
	if _, err := Parse("whistle"); err == nil {
		t.Fatalf("expected error for unknown name")
	}
}

func TestDuration(t *testing.T) {
	if got := Duration(Sleeping); got != 1200 {
		t.Fatalf("sleeping = %d ms, want 1200", got)
	}
	if got := Duration(SuperHappy); got != 440 {
		t.Fatalf("superHappy = %d ms, want 440", got)
	}
}

func TestEventsHoldToneThroughDelay(t *testing.T) {
	events, err := Events(OhOoh)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	want := []struct{ hz, ms int }{{1000, 100}, {1000, 50}, {1000, 100}}
	if len(events) != len(want) {
		t.Fatalf("events = %+v", events)
	}
	for i, w := range want {
		if events[i].Frequency != w.hz || events[i].DurationMs != w.ms {
			t.Fatalf("event %d = %+v, want %d Hz %d ms", i, events[i], w.hz, w.ms)
		}
	}
}
