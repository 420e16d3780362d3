package rtttl

import (
	"io"
	"iter"
	"strings"
	"time"
)

var pitchLetters = map[byte]Pitch{
	'c': C, 'd': D, 'e': E, 'f': F, 'g': G, 'a': A, 'b': B, 'p': Pause,
}

type Parser struct{ cfg ParserConfig }

func NewParser(cfg ParserConfig) *Parser {
	def := DefaultParserConfig()
	if cfg.DefaultDuration <= 0 {
		cfg.DefaultDuration = def.DefaultDuration
	}
	if cfg.DefaultBPM <= 0 {
		cfg.DefaultBPM = def.DefaultBPM
	}
	if cfg.MaxOctave < cfg.MinOctave || cfg.MaxOctave == 0 {
		cfg.MinOctave, cfg.MaxOctave = def.MinOctave, def.MaxOctave
	}
	if cfg.DefaultOctave < cfg.MinOctave || cfg.DefaultOctave > cfg.MaxOctave {
		cfg.DefaultOctave = min(max(def.DefaultOctave, cfg.MinOctave), cfg.MaxOctave)
	}
	if cfg.MaxNumber <= 0 {
		cfg.MaxNumber = def.MaxNumber
	}
	return &Parser{cfg: cfg}
}

// Melody is a parsed header plus the undecoded note section. Notes are
// decoded lazily, once per call to Notes.
type Melody struct {
	Name   string
	Header Header

	notes     string
	offset    int
	maxNumber int
}

// Parse parses input with DefaultParserConfig.
func Parse(input string) (*Melody, error) {
	return NewParser(DefaultParserConfig()).Parse(input)
}

// ParseHeader parses input with DefaultParserConfig and returns the header
// together with the note section that follows it.
func ParseHeader(input string) (Header, string, error) {
	return NewParser(DefaultParserConfig()).ParseHeader(input)
}

func (p *Parser) Parse(input string) (*Melody, error) {
	name, h, offset, err := p.parseHeader(input)
	if err != nil {
		return nil, err
	}
	return &Melody{
		Name:      name,
		Header:    h,
		notes:     input[offset:],
		offset:    offset,
		maxNumber: p.cfg.MaxNumber,
	}, nil
}

func (p *Parser) ParseHeader(input string) (Header, string, error) {
	_, h, offset, err := p.parseHeader(input)
	if err != nil {
		return Header{}, "", err
	}
	return h, input[offset:], nil
}

func (p *Parser) parseHeader(input string) (string, Header, int, error) {
	colon := strings.IndexByte(input, ':')
	if colon < 0 {
		return "", Header{}, 0, syntaxErr(len(input), "missing ':' after melody name")
	}
	name := strings.TrimSpace(input[:colon])
	h := Header{
		DefaultDuration: p.cfg.DefaultDuration,
		DefaultOctave:   p.cfg.DefaultOctave,
		BPM:             p.cfg.DefaultBPM,
	}
	i := colon + 1
	for {
		i = skipSpace(input, i)
		if i >= len(input) {
			break
		}
		key := lower(input[i])
		eq := skipSpace(input, i+1)
		if eq >= len(input) || input[eq] != '=' {
			break
		}
		at := skipSpace(input, eq+1)
		val, next, ok, err := parseNumber(input, at, p.cfg.MaxNumber, 0)
		if err != nil {
			return "", Header{}, 0, err
		}
		switch key {
		case 'd':
			if val > 0 {
				h.DefaultDuration = val
			}
		case 'o':
			if ok && val >= p.cfg.MinOctave && val <= p.cfg.MaxOctave {
				h.DefaultOctave = val
			}
		case 'b':
			if !ok || val <= 0 {
				return "", Header{}, 0, syntaxErr(at, "bpm must be a positive integer")
			}
			h.BPM = val
		default:
			return "", Header{}, 0, syntaxErr(i, "unknown header field %q", input[i])
		}
		i = skipSpace(input, next)
		if i < len(input) && input[i] == ',' {
			i++
		}
	}
	if i < len(input) && input[i] == ':' {
		i++
	}
	if h.WholeNote() <= 0 {
		return "", Header{}, 0, syntaxErr(i, "bpm %d leaves no time for a whole note", h.BPM)
	}
	return name, h, i, nil
}

// Notes returns a fresh cursor positioned at the first note.
func (m *Melody) Notes() *Cursor {
	return &Cursor{
		src:       m.notes,
		base:      m.offset,
		header:    m.Header,
		whole:     m.Header.WholeNote(),
		maxNumber: m.maxNumber,
	}
}

// Events decodes every note.
func (m *Melody) Events() ([]Event, error) {
	var out []Event
	for ev, err := range m.Notes().All() {
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

// Duration is the sum of all note durations.
func (m *Melody) Duration() (time.Duration, error) {
	var total time.Duration
	for ev, err := range m.Notes().All() {
		if err != nil {
			return 0, err
		}
		total += ev.Duration()
	}
	return total, nil
}

// Cursor decodes one note token per call to Next. It is forward only; to
// start over, create a new cursor.
type Cursor struct {
	src       string
	pos       int
	base      int
	header    Header
	whole     int
	maxNumber int
	skipped   int
	err       error
}

func NewCursor(notes string, h Header) *Cursor {
	return &Cursor{
		src:       notes,
		header:    h,
		whole:     h.WholeNote(),
		maxNumber: DefaultParserConfig().MaxNumber,
	}
}

// Events returns a single-use iterator over the notes.
func Events(notes string, h Header) iter.Seq2[Event, error] {
	return NewCursor(notes, h).All()
}

// Next returns the next event, io.EOF when the input is exhausted, or a
// *SyntaxError. Errors are sticky.
func (c *Cursor) Next() (Event, error) {
	for c.err == nil {
		ev, ok, err := c.decode()
		if err != nil {
			c.err = err
			break
		}
		if ok {
			return ev, nil
		}
	}
	return Event{}, c.err
}

// All adapts the cursor to a range-over-func iterator. Iteration stops after
// the first error is yielded.
func (c *Cursor) All() iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		for {
			ev, err := c.Next()
			if err == io.EOF {
				return
			}
			if !yield(ev, err) || err != nil {
				return
			}
		}
	}
}

// Skipped counts tokens dropped for having no recognizable pitch letter.
func (c *Cursor) Skipped() int { return c.skipped }

// Offset is the position of the cursor in the original input. After an
// error it stays at the start of the failing note.
func (c *Cursor) Offset() int { return c.base + c.pos }

func (c *Cursor) decode() (Event, bool, error) {
	s := c.src
	i := skipSpace(s, c.pos)
	if i >= len(s) {
		c.pos = i
		return Event{}, false, io.EOF
	}
	start := i
	if c.whole <= 0 {
		return Event{}, false, syntaxErr(c.base+start, "bpm %d leaves no time for a whole note", c.header.BPM)
	}

	divisor, i, ok, err := parseNumber(s, i, c.maxNumber, c.base)
	if err != nil {
		return Event{}, false, err
	}
	if !ok || divisor == 0 {
		divisor = c.header.DefaultDuration
	}
	if divisor <= 0 {
		return Event{}, false, syntaxErr(c.base+start, "default duration %d is not positive", divisor)
	}
	duration := c.whole / divisor

	pitch := PitchNone
	if i < len(s) {
		pitch = pitchLetters[lower(s[i])]
		i++
	}

	carry := 0
	if i < len(s) && s[i] == '#' {
		i++
		switch pitch {
		case PitchNone, Pause:
		case B:
			pitch, carry = C, 1
		default:
			pitch++
		}
	}

	dotted := false
	if i < len(s) && s[i] == '.' {
		dotted = true
		duration += duration / 2
		i++
	}

	octave := c.header.DefaultOctave
	if i < len(s) && isDigit(s[i]) {
		octave = int(s[i] - '0')
		i++
		if !dotted && i < len(s) && s[i] == '.' {
			dotted = true
			duration += duration / 2
			i++
		}
	}

	i = skipSpace(s, i)
	if i < len(s) && s[i] == ',' {
		i++
	}

	if pitch == PitchNone {
		c.pos = i
		c.skipped++
		return Event{}, false, nil
	}
	if duration <= 0 {
		return Event{}, false, syntaxErr(c.base+start, "note duration 1/%d of %dms rounds to zero", divisor, c.whole)
	}
	c.pos = i
	if pitch == Pause {
		return Event{DurationMs: duration, Pitch: Pause, Dotted: dotted}, true, nil
	}
	octave += carry
	return Event{
		Frequency:  Frequency(pitch, octave),
		DurationMs: duration,
		Pitch:      pitch,
		Octave:     octave,
		Dotted:     dotted,
	}, true, nil
}

// Frequency returns the pitch's octave-4 table entry shifted to octave by
// repeated doubling or integer halving. Pauses and PitchNone return 0.
func Frequency(p Pitch, octave int) int {
	if p <= PitchNone || p >= Pause {
		return 0
	}
	f := baseFrequencies[p]
	for o := octave; o > 4; o-- {
		f *= 2
	}
	for o := octave; o < 4; o++ {
		f /= 2
	}
	return f
}

// Semitone returns 0 for C through 11 for B, or -1 when p has no pitch.
func (p Pitch) Semitone() int {
	if p <= PitchNone || p >= Pause {
		return -1
	}
	return int(p - C)
}

func parseNumber(s string, at int, limit int, base int) (int, int, bool, error) {
	i, n := at, 0
	for i < len(s) && isDigit(s[i]) {
		n = n*10 + int(s[i]-'0')
		if n > limit {
			return 0, at, false, syntaxErr(base+at, "number exceeds %d", limit)
		}
		i++
	}
	return n, i, i > at, nil
}

func skipSpace(s string, at int) int {
	for at < len(s) && isSpace(s[at]) {
		at++
	}
	return at
}

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

func isSpace(b byte) bool { return b == ' ' || b == '\n' || b == '\r' || b == '\t' }
func isDigit(b byte) bool { return b >= '0' && b <= '9' }
