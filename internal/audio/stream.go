// Package audio streams generated samples to the system output through
// ebiten's audio context.
package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// DefaultBufferSize keeps tone changes audible within a few milliseconds.
const DefaultBufferSize = 40 * time.Millisecond

const bytesPerFrame = 2 * 4 // stereo float32

// Source fills interleaved stereo frames. It is called on the audio goroutine.
type Source interface {
	Process(dst []float32)
}

// Reader encodes a Source as the little-endian float32 stereo stream that
// ebiten's NewPlayerF32 expects. It never ends on its own; Close ends it.
type Reader struct {
	mu      sync.Mutex
	src     Source
	scratch []float32
	closed  bool
}

func NewReader(src Source) *Reader {
	return &Reader{src: src}
}

// Read fills whole frames only; a buffer shorter than one frame reads 0.
func (r *Reader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, io.EOF
	}
	samples := len(p) / bytesPerFrame * 2
	if cap(r.scratch) < samples {
		r.scratch = make([]float32, samples)
	}
	buf := r.scratch[:samples]
	r.src.Process(buf)
	for i, v := range buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	return samples * 4, nil
}

func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

var (
	ctxOnce sync.Once
	ctx     *ebitaudio.Context
	ctxRate int
)

// contextFor returns the process-wide ebiten context, creating it at
// sampleRate on first use. ebiten allows only one.
func contextFor(sampleRate int) (*ebitaudio.Context, error) {
	ctxOnce.Do(func() {
		ctxRate = sampleRate
		ctx = ebitaudio.NewContext(sampleRate)
	})
	if ctxRate != sampleRate {
		return nil, fmt.Errorf("audio output already runs at %d Hz, cannot open %d Hz", ctxRate, sampleRate)
	}
	return ctx, nil
}

// Stream is an open output fed from a Source.
type Stream struct {
	player *ebitaudio.Player
	reader *Reader
}

// Open prepares a stream; it stays silent until Play.
func Open(sampleRate int, src Source, bufferSize time.Duration) (*Stream, error) {
	c, err := contextFor(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewReader(src)
	player, err := c.NewPlayerF32(reader)
	if err != nil {
		return nil, fmt.Errorf("open audio stream: %w", err)
	}
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	player.SetBufferSize(bufferSize)
	return &Stream{player: player, reader: reader}, nil
}

func (s *Stream) Play() { s.player.Play() }

// Stop halts output and releases the player.
func (s *Stream) Stop() error {
	s.player.Pause()
	if err := s.player.Close(); err != nil {
		return err
	}
	return s.reader.Close()
}
