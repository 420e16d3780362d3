package rtttl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"time"

	intrtttl "github.com/cbegin/rtttl-go/internal/rtttl"
	intsnd "github.com/cbegin/rtttl-go/internal/sounds"
)

// Output is a single tone channel. SetTone replaces whatever is sounding.
type Output interface {
	SetTone(hz int) error
	Silence() error
}

type PlayerOption func(*playerConfig)

type playerConfig struct {
	sleep  func(context.Context, time.Duration) error
	logger *log.Logger
	gap    time.Duration
	repeat int
	parser ParserConfig
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{
		sleep:  sleepContext,
		logger: log.New(io.Discard, "", 0),
		parser: DefaultParserConfig(),
	}
}

// WithSleep replaces the wait between tone changes. Tests pass a fake clock.
func WithSleep(sleep func(context.Context, time.Duration) error) PlayerOption {
	return func(cfg *playerConfig) {
		if sleep != nil {
			cfg.sleep = sleep
		}
	}
}

func WithLogger(logger *log.Logger) PlayerOption {
	return func(cfg *playerConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithGap inserts silence after every note. Without it notes play back to
// back, each one still ending in silence.
func WithGap(gap time.Duration) PlayerOption {
	return func(cfg *playerConfig) {
		if gap > 0 {
			cfg.gap = gap
		}
	}
}

// WithRepeat plays each melody n extra times; a negative n repeats until the
// context is done.
func WithRepeat(n int) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.repeat = n
	}
}

func WithParserConfig(pc ParserConfig) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.parser = pc
	}
}

// Player plays melodies on an Output, blocking the calling goroutine until
// the melody ends or its context is done.
type Player struct {
	out    Output
	parser *intrtttl.Parser
	sleep  func(context.Context, time.Duration) error
	logger *log.Logger
	gap    time.Duration
	repeat int
}

func NewPlayer(out Output, opts ...PlayerOption) *Player {
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Player{
		out:    out,
		parser: intrtttl.NewParser(cfg.parser),
		sleep:  cfg.sleep,
		logger: cfg.logger,
		gap:    cfg.gap,
		repeat: cfg.repeat,
	}
}

func (p *Player) Play(ctx context.Context, input string) error {
	m, err := p.parser.Parse(input)
	if err != nil {
		return err
	}
	return p.PlayMelody(ctx, m)
}

func (p *Player) PlayMelody(ctx context.Context, m *Melody) error {
	p.logger.Printf("playing %q d=%d o=%d b=%d", m.Name, m.Header.DefaultDuration, m.Header.DefaultOctave, m.Header.BPM)
	repeat := p.repeat
	if d, err := m.Duration(); repeat < 0 && err == nil && d == 0 {
		repeat = 0
	}
	for pass := 0; repeat < 0 || pass <= repeat; pass++ {
		cursor := m.Notes()
		err := p.PlayEvents(ctx, cursor.All())
		if n := cursor.Skipped(); n > 0 && pass == 0 {
			p.logger.Printf("%q: skipped %d notes without a pitch letter", m.Name, n)
		}
		if err != nil {
			if errors.Is(err, ErrMalformedInput) {
				p.logger.Printf("%q: stopped at offset %d: %v", m.Name, cursor.Offset(), err)
			}
			return err
		}
	}
	return nil
}

// PlayEvents plays each event in turn: tone, wait, silence. Pauses only wait.
// The output is silenced before returning, also on error or cancellation.
func (p *Player) PlayEvents(ctx context.Context, events iter.Seq2[Event, error]) (err error) {
	defer func() {
		if serr := p.out.Silence(); serr != nil && err == nil {
			err = fmt.Errorf("silence: %w", serr)
		}
	}()
	for ev, perr := range events {
		if perr != nil {
			return perr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.playNote(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

func (p *Player) playNote(ctx context.Context, ev Event) error {
	if !ev.IsPause() {
		if err := p.out.SetTone(ev.Frequency); err != nil {
			return fmt.Errorf("set tone %d Hz: %w", ev.Frequency, err)
		}
	}
	if err := p.sleep(ctx, ev.Duration()); err != nil {
		return err
	}
	if !ev.IsPause() {
		if err := p.out.Silence(); err != nil {
			return fmt.Errorf("silence: %w", err)
		}
	}
	if p.gap > 0 {
		return p.sleep(ctx, p.gap)
	}
	return nil
}

// PlaySound plays a canned effect. Its steps run legato: the tone changes
// without silence in between, a zero-frequency step just waits, and the
// channel is silenced once at the end.
func (p *Player) PlaySound(ctx context.Context, id Sound) (err error) {
	steps, ok := intsnd.Lookup(id)
	if !ok {
		return fmt.Errorf("unknown sound %s", id)
	}
	p.logger.Printf("sound %s", id)
	defer func() {
		if serr := p.out.Silence(); serr != nil && err == nil {
			err = fmt.Errorf("silence: %w", serr)
		}
	}()
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.Frequency > 0 {
			if err := p.out.SetTone(s.Frequency); err != nil {
				return fmt.Errorf("set tone %d Hz: %w", s.Frequency, err)
			}
		}
		if err := p.sleep(ctx, time.Duration(s.DurationMs)*time.Millisecond); err != nil {
			return err
		}
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
