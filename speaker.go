package rtttl

import (
	"errors"
	"sync"
	"time"

	intaudio "github.com/cbegin/rtttl-go/internal/audio"
	intfx "github.com/cbegin/rtttl-go/internal/effects"
	inttone "github.com/cbegin/rtttl-go/internal/tone"
)

var ErrSpeakerClosed = errors.New("speaker closed")

type SpeakerOption func(*speakerConfig)

type speakerConfig struct {
	volume     float64
	duty       float64
	piezo      bool
	bufferSize time.Duration
	sampleTap  func([]float32)
}

func defaultSpeakerConfig() speakerConfig {
	return speakerConfig{volume: 1, duty: 0.5}
}

// WithVolume scales the channel, 1 is the default level.
func WithVolume(volume float64) SpeakerOption {
	return func(cfg *speakerConfig) {
		if volume >= 0 {
			cfg.volume = volume
		}
	}
}

func WithDutyCycle(duty float64) SpeakerOption {
	return func(cfg *speakerConfig) {
		cfg.duty = duty
	}
}

// WithPiezo colors the output like a small piezo buzzer.
func WithPiezo(enabled bool) SpeakerOption {
	return func(cfg *speakerConfig) {
		cfg.piezo = enabled
	}
}

// WithBufferSize sets the audio driver buffer; smaller reacts faster.
func WithBufferSize(d time.Duration) SpeakerOption {
	return func(cfg *speakerConfig) {
		cfg.bufferSize = d
	}
}

// WithSampleTap installs a callback invoked with each generated stereo buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) SpeakerOption {
	return func(cfg *speakerConfig) {
		cfg.sampleTap = tap
	}
}

type audioBackend interface {
	Play()
	Stop() error
}

var openBackend = func(sampleRate int, src intaudio.Source, bufferSize time.Duration) (audioBackend, error) {
	return intaudio.Open(sampleRate, src, bufferSize)
}

// Speaker is an Output that sounds through the system audio device. Each
// Speaker owns its tone channel.
type Speaker struct {
	mu         sync.Mutex
	sampleRate int
	engine     *inttone.Engine
	baseGain   float64
	masterEQ   *intfx.EQ5Band
	backend    audioBackend
	closed     bool
}

// speakerSource feeds the audio goroutine.
type speakerSource struct {
	engine    *inttone.Engine
	effects   *intfx.Chain
	sampleTap func([]float32)
}

func (s *speakerSource) Process(dst []float32) {
	s.engine.Process(dst)
	s.effects.ProcessBuffer(dst)
	if s.sampleTap != nil {
		s.sampleTap(dst)
	}
}

func NewSpeaker(sampleRate int, opts ...SpeakerOption) (*Speaker, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultSpeakerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	params := inttone.DefaultParams()
	params.DutyCycle = cfg.duty
	engine := inttone.New(sampleRate, params)
	engine.SetMasterGain(params.MasterGain * cfg.volume)

	eq := intfx.NewEQ5Band(sampleRate)
	chain := intfx.NewChain()
	if cfg.piezo {
		chain.Add(intfx.NewPiezo(sampleRate, intfx.DefaultPiezoParams()))
	}
	chain.Add(eq)

	backend, err := openBackend(sampleRate, &speakerSource{
		engine:    engine,
		effects:   chain,
		sampleTap: cfg.sampleTap,
	}, cfg.bufferSize)
	if err != nil {
		return nil, err
	}
	backend.Play()
	return &Speaker{
		sampleRate: sampleRate,
		engine:     engine,
		baseGain:   params.MasterGain,
		masterEQ:   eq,
		backend:    backend,
	}, nil
}

func (s *Speaker) SetTone(hz int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSpeakerClosed
	}
	s.engine.SetTone(hz)
	return nil
}

func (s *Speaker) Silence() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSpeakerClosed
	}
	s.engine.Silence()
	return nil
}

// SetVolume takes effect immediately.
func (s *Speaker) SetVolume(volume float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSpeakerClosed
	}
	if volume < 0 {
		volume = 0
	}
	s.engine.SetMasterGain(s.baseGain * volume)
	return nil
}

// Tone returns the frequency currently sounding, 0 when silent.
func (s *Speaker) Tone() int { return s.engine.Frequency() }

// SetEQBand sets the gain for a master EQ band (0-4). 1.0 = unity.
// Band frequencies: 0=<200Hz, 1=200-800Hz, 2=800-2.5kHz, 3=2.5-8kHz, 4=>8kHz.
func (s *Speaker) SetEQBand(band int, gain float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSpeakerClosed
	}
	return s.masterEQ.SetGain(band, gain)
}

// SetEQBandDB is SetEQBand in decibels, 0 = unity.
func (s *Speaker) SetEQBandDB(band int, db float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSpeakerClosed
	}
	return s.masterEQ.SetGainDB(band, db)
}

func (s *Speaker) EQBand(band int) float32 {
	return s.masterEQ.Gain(band)
}

func (s *Speaker) SampleRate() int { return s.sampleRate }

// Close silences the channel and releases the audio player.
func (s *Speaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.engine.Silence()
	return s.backend.Stop()
}
