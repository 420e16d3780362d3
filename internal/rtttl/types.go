package rtttl

import (
	"errors"
	"fmt"
	"time"
)

// ErrMalformedInput is the sentinel every parse failure unwraps to.
var ErrMalformedInput = errors.New("malformed rtttl input")

// SyntaxError reports where in the input parsing gave up.
type SyntaxError struct {
	Offset int
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("rtttl: %s at offset %d", e.Reason, e.Offset)
}

func (e *SyntaxError) Unwrap() error { return ErrMalformedInput }

func syntaxErr(offset int, format string, args ...any) error {
	return &SyntaxError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}

// Pitch is a semitone index into the octave-4 frequency table. PitchNone is
// silence; Pause is kept apart so that sharps never turn it into a note.
type Pitch int

const (
	PitchNone Pitch = iota
	C
	CSharp
	D
	DSharp
	E
	F
	FSharp
	G
	GSharp
	A
	ASharp
	B
	Pause
)

var pitchNames = [...]string{"-", "c", "c#", "d", "d#", "e", "f", "f#", "g", "g#", "a", "a#", "b", "p"}

func (p Pitch) String() string {
	if p < 0 || int(p) >= len(pitchNames) {
		return fmt.Sprintf("Pitch(%d)", int(p))
	}
	return pitchNames[p]
}

// baseFrequencies holds octave 4, indexed by Pitch.
var baseFrequencies = [...]int{0, 262, 277, 294, 311, 330, 349, 370, 392, 415, 440, 466, 494}

// Header carries the melody-wide defaults from the d=, o= and b= fields.
type Header struct {
	DefaultDuration int
	DefaultOctave   int
	BPM             int
}

// WholeNote returns the length of a whole note in milliseconds.
func (h Header) WholeNote() int {
	if h.BPM <= 0 {
		return 0
	}
	return (60000 / h.BPM) * 4
}

// Event is one playable note or pause.
type Event struct {
	Frequency  int // Hz, 0 = silence
	DurationMs int
	Pitch      Pitch
	Octave     int
	Dotted     bool
}

func (e Event) Duration() time.Duration {
	return time.Duration(e.DurationMs) * time.Millisecond
}

// IsPause reports whether the event produces no sound.
func (e Event) IsPause() bool {
	return e.Frequency == 0
}

type ParserConfig struct {
	DefaultDuration int
	DefaultOctave   int
	DefaultBPM      int
	MinOctave       int
	MaxOctave       int
	// MaxNumber bounds every numeric field; larger values are malformed.
	MaxNumber int
}

func DefaultParserConfig() ParserConfig {
	return ParserConfig{
		DefaultDuration: 4,
		DefaultOctave:   6,
		DefaultBPM:      63,
		MinOctave:       3,
		MaxOctave:       7,
		MaxNumber:       1 << 20,
	}
}
