// Package sounds holds the canned buzzer sound effects.
package sounds

import (
	"fmt"
	"strings"

	"github.com/cbegin/rtttl-go/internal/rtttl"
)

type ID int

const (
	Connection ID = iota
	Disconnection
	ButtonPushed
	Mode1
	Mode2
	Mode3
	Surprise
	OhOoh
	OhOoh2
	Cuddly
	Sleeping
	Happy
	SuperHappy
	HappyShort
	Sad
	Confused
	Fart1
	Fart2
	Fart3

	count
)

var names = [count]string{
	"connection",
	"disconnection",
	"buttonPushed",
	"mode1",
	"mode2",
	"mode3",
	"surprise",
	"ohOoh",
	"ohOoh2",
	"cuddly",
	"sleeping",
	"happy",
	"superHappy",
	"happyShort",
	"sad",
	"confused",
	"fart1",
	"fart2",
	"fart3",
}

func (id ID) String() string {
	if id < 0 || id >= count {
		return fmt.Sprintf("ID(%d)", int(id))
	}
	return names[id]
}

// Step is one segment of an effect. Frequency 0 holds whatever is already
// sounding for DurationMs.
type Step struct {
	Frequency  int
	DurationMs int
}

func tone(hz, ms int) Step { return Step{Frequency: hz, DurationMs: ms} }
func wait(ms int) Step     { return Step{DurationMs: ms} }

var table = [count][]Step{
	Connection:    {tone(1000, 100), tone(2000, 100)},
	Disconnection: {tone(2000, 100), tone(1000, 100)},
	ButtonPushed:  {tone(3000, 50)},
	Mode1:         {tone(500, 50), tone(1000, 50)},
	Mode2:         {tone(1000, 50), tone(500, 50)},
	Mode3:         {tone(1500, 50), tone(500, 50)},
	Surprise:      {tone(800, 50), tone(1200, 50), tone(2000, 100)},
	OhOoh:         {tone(1000, 100), wait(50), tone(1000, 100)},
	OhOoh2:        {tone(1500, 100), wait(50), tone(1500, 100)},
	Cuddly:        {tone(800, 150), tone(1000, 150)},
	Sleeping:      {tone(400, 500), wait(200), tone(300, 500)},
	Happy:         {tone(1000, 100), tone(1500, 100), tone(2000, 200)},
	SuperHappy:    {tone(1000, 80), tone(1500, 80), tone(2000, 80), tone(2500, 200)},
	HappyShort:    {tone(1500, 50), tone(2000, 50)},
	Sad:           {tone(1500, 200), tone(1000, 200), tone(500, 300)},
	Confused:      {tone(1000, 100), tone(800, 100), tone(1200, 100)},
	Fart1:         {tone(200, 300)},
	Fart2:         {tone(250, 400)},
	Fart3:         {tone(150, 500)},
}

// Lookup returns a copy of the steps for id, or false for an unknown id.
func Lookup(id ID) ([]Step, bool) {
	if id < 0 || id >= count {
		return nil, false
	}
	return append([]Step(nil), table[id]...), true
}

// Parse resolves an effect by name, ignoring case, dashes and underscores.
func Parse(name string) (ID, error) {
	key := normalize(name)
	for id := ID(0); id < count; id++ {
		if normalize(names[id]) == key {
			return id, nil
		}
	}
	return 0, fmt.Errorf("unknown sound %q", name)
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", "")
	return strings.ReplaceAll(s, "-", "")
}

func All() []ID {
	ids := make([]ID, count)
	for i := range ids {
		ids[i] = ID(i)
	}
	return ids
}

// Duration is the total length of an effect in milliseconds.
func Duration(id ID) int {
	steps, _ := Lookup(id)
	total := 0
	for _, s := range steps {
		total += s.DurationMs
	}
	return total
}

// Events flattens an effect into tone events. A delay step keeps the
// previous frequency so the result plays the same under legato playback.
func Events(id ID) ([]rtttl.Event, error) {
	steps, ok := Lookup(id)
	if !ok {
		return nil, fmt.Errorf("unknown sound %s", id)
	}
	events := make([]rtttl.Event, 0, len(steps))
	held := 0
	for _, s := range steps {
		hz := s.Frequency
		if hz == 0 {
			hz = held
		}
		held = hz
		events = append(events, rtttl.Event{Frequency: hz, DurationMs: s.DurationMs})
	}
	return events, nil
}
