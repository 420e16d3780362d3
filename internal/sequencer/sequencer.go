package sequencer

import (
	"io"

	"github.com/cbegin/rtttl-go/internal/rtttl"
)

// ToneEngine is a single monophonic tone channel.
type ToneEngine interface {
	SetTone(hz int)
	Silence()
	RenderFrame() (float32, float32)
}

// Source yields events until io.EOF. *rtttl.Cursor satisfies it.
type Source interface {
	Next() (rtttl.Event, error)
}

// Rewinder is implemented by sources that can start over for repeats.
type Rewinder interface {
	Rewind()
}

type Options struct {
	// Legato keeps the tone running from one event into the next instead of
	// silencing the channel at every note boundary.
	Legato bool
	// GapFrames of silence are inserted after every note (not with Legato).
	GapFrames int
	// Repeat plays a Rewinder source this many extra times.
	Repeat int
}

type Sequencer struct {
	source     Source
	engine     ToneEngine
	sampleRate int
	opts       Options

	remaining   int // frames left in the current note or gap
	gapPending  bool
	started     bool
	passNotes   int
	repeatsLeft int
	exhausted   bool
	err         error
}

func New(source Source, engine ToneEngine, sampleRate int) *Sequencer {
	return NewWithOptions(source, engine, sampleRate, Options{})
}

func NewWithOptions(source Source, engine ToneEngine, sampleRate int, opts Options) *Sequencer {
	if opts.Legato {
		opts.GapFrames = 0
	}
	repeats := opts.Repeat
	if _, ok := source.(Rewinder); !ok || repeats < 0 {
		repeats = 0
	}
	return &Sequencer{
		source:      source,
		engine:      engine,
		sampleRate:  sampleRate,
		opts:        opts,
		repeatsLeft: repeats,
	}
}

// Process renders interleaved stereo frames, pulling events as needed. Once
// the source is exhausted the engine keeps rendering its fade and silence.
func (s *Sequencer) Process(dst []float32) {
	frames := len(dst) / 2
	for f := 0; f < frames; f++ {
		if s.remaining == 0 && !s.exhausted {
			s.advance()
		}
		dst[f*2], dst[f*2+1] = s.engine.RenderFrame()
		if s.remaining > 0 {
			s.remaining--
		}
	}
}

func (s *Sequencer) advance() {
	if s.started && !s.opts.Legato {
		s.engine.Silence()
	}
	if s.gapPending {
		s.gapPending = false
		if s.opts.GapFrames > 0 {
			s.remaining = s.opts.GapFrames
			return
		}
	}
	for {
		ev, err := s.source.Next()
		if err == io.EOF && s.repeatsLeft > 0 && s.passNotes > 0 {
			s.source.(Rewinder).Rewind()
			s.repeatsLeft--
			s.passNotes = 0
			continue
		}
		if err != nil {
			if err != io.EOF {
				s.err = err
			}
			s.engine.Silence()
			s.exhausted = true
			return
		}
		frames := s.msToFrames(ev.DurationMs)
		if frames <= 0 {
			continue
		}
		if ev.IsPause() {
			s.engine.Silence()
		} else {
			s.engine.SetTone(ev.Frequency)
		}
		s.started = true
		s.passNotes++
		s.remaining = frames
		s.gapPending = true
		return
	}
}

func (s *Sequencer) msToFrames(ms int) int {
	return int(int64(ms) * int64(s.sampleRate) / 1000)
}

// Err returns the error that ended the source early, if any.
func (s *Sequencer) Err() error { return s.err }

// SliceSource replays a fixed list of events.
type SliceSource struct {
	events []rtttl.Event
	next   int
}

func FromEvents(events []rtttl.Event) *SliceSource {
	return &SliceSource{events: events}
}

func (s *SliceSource) Next() (rtttl.Event, error) {
	if s.next >= len(s.events) {
		return rtttl.Event{}, io.EOF
	}
	ev := s.events[s.next]
	s.next++
	return ev, nil
}

func (s *SliceSource) Rewind() { s.next = 0 }

// TotalFrames is the number of frames needed to play events back to back.
func TotalFrames(events []rtttl.Event, sampleRate int, gapFrames int) int {
	total := 0
	for _, ev := range events {
		frames := int(int64(ev.DurationMs) * int64(sampleRate) / 1000)
		if frames <= 0 {
			continue
		}
		total += frames + gapFrames
	}
	return total
}
