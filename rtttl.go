// Package rtttl parses RTTTL ringtones and plays them on a single square
// wave tone channel.
package rtttl

import (
	"iter"

	intrtttl "github.com/cbegin/rtttl-go/internal/rtttl"
	intsnd "github.com/cbegin/rtttl-go/internal/sounds"
)

type (
	Event        = intrtttl.Event
	Header       = intrtttl.Header
	Melody       = intrtttl.Melody
	Cursor       = intrtttl.Cursor
	Pitch        = intrtttl.Pitch
	ParserConfig = intrtttl.ParserConfig
	SyntaxError  = intrtttl.SyntaxError
)

// ErrMalformedInput is wrapped by every parse failure.
var ErrMalformedInput = intrtttl.ErrMalformedInput

func DefaultParserConfig() ParserConfig { return intrtttl.DefaultParserConfig() }

// Parse reads the name and header of input. Notes are decoded when the
// melody is played or iterated.
func Parse(input string) (*Melody, error) {
	return intrtttl.Parse(input)
}

func ParseWithConfig(cfg ParserConfig, input string) (*Melody, error) {
	return intrtttl.NewParser(cfg).Parse(input)
}

// ParseHeader returns the header of input and the note section after it.
func ParseHeader(input string) (Header, string, error) {
	return intrtttl.ParseHeader(input)
}

// NewCursor decodes a bare note section against h.
func NewCursor(notes string, h Header) *Cursor { return intrtttl.NewCursor(notes, h) }

// Events iterates a bare note section once.
func Events(notes string, h Header) iter.Seq2[Event, error] { return intrtttl.Events(notes, h) }

// Frequency returns the tone for pitch p at octave, 0 for a pause.
func Frequency(p Pitch, octave int) int { return intrtttl.Frequency(p, octave) }

// Sound identifies one of the canned buzzer effects.
type Sound = intsnd.ID

const (
	SoundConnection    = intsnd.Connection
	SoundDisconnection = intsnd.Disconnection
	SoundButtonPushed  = intsnd.ButtonPushed
	SoundMode1         = intsnd.Mode1
	SoundMode2         = intsnd.Mode2
	SoundMode3         = intsnd.Mode3
	SoundSurprise      = intsnd.Surprise
	SoundOhOoh         = intsnd.OhOoh
	SoundOhOoh2        = intsnd.OhOoh2
	SoundCuddly        = intsnd.Cuddly
	SoundSleeping      = intsnd.Sleeping
	SoundHappy         = intsnd.Happy
	SoundSuperHappy    = intsnd.SuperHappy
	SoundHappyShort    = intsnd.HappyShort
	SoundSad           = intsnd.Sad
	SoundConfused      = intsnd.Confused
	SoundFart1         = intsnd.Fart1
	SoundFart2         = intsnd.Fart2
	SoundFart3         = intsnd.Fart3
)

func ParseSound(name string) (Sound, error) { return intsnd.Parse(name) }

func Sounds() []Sound { return intsnd.All() }
