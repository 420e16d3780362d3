package rtttl

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	intfx "github.com/cbegin/rtttl-go/internal/effects"
	intseq "github.com/cbegin/rtttl-go/internal/sequencer"
	intsnd "github.com/cbegin/rtttl-go/internal/sounds"
	inttone "github.com/cbegin/rtttl-go/internal/tone"
)

type RenderOptions struct {
	Volume    float64 // 0 means 1
	DutyCycle float64 // 0 means 0.5
	Gap       time.Duration
	Legato    bool
	Piezo     bool
	// EQ holds master EQ band gains in dB, low to high. 0 is unity.
	EQ [5]float64
	// Repeat plays the events this many extra times.
	Repeat int
	// Tail is silence appended after the last note (0 = 100ms).
	Tail time.Duration
}

// RenderSamples renders events to interleaved stereo float32 at sampleRate,
// with the same note timing the Player uses.
func RenderSamples(events []Event, sampleRate int, opts RenderOptions) ([]float32, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate %d must be positive", sampleRate)
	}
	params := inttone.DefaultParams()
	if opts.DutyCycle > 0 {
		params.DutyCycle = opts.DutyCycle
	}
	if opts.Volume > 0 {
		params.MasterGain *= opts.Volume
	}
	engine := inttone.New(sampleRate, params)
	gapFrames := durationFrames(opts.Gap, sampleRate)
	if opts.Legato {
		gapFrames = 0
	}
	repeat := max(opts.Repeat, 0)
	seq := intseq.NewWithOptions(intseq.FromEvents(events), engine, sampleRate, intseq.Options{
		Legato:    opts.Legato,
		GapFrames: gapFrames,
		Repeat:    repeat,
	})
	tail := opts.Tail
	if tail <= 0 {
		tail = 100 * time.Millisecond
	}
	frames := (repeat+1)*intseq.TotalFrames(events, sampleRate, gapFrames) + durationFrames(tail, sampleRate)
	out := make([]float32, frames*2)
	seq.Process(out)
	if err := seq.Err(); err != nil {
		return nil, err
	}
	chain, err := renderChain(sampleRate, opts)
	if err != nil {
		return nil, err
	}
	chain.ProcessBuffer(out)
	return out, nil
}

// renderChain mirrors the Speaker's chain: piezo first, then the master EQ.
func renderChain(sampleRate int, opts RenderOptions) (*intfx.Chain, error) {
	chain := intfx.NewChain()
	if opts.Piezo {
		chain.Add(intfx.NewPiezo(sampleRate, intfx.DefaultPiezoParams()))
	}
	if opts.EQ != ([5]float64{}) {
		eq := intfx.NewEQ5Band(sampleRate)
		for band, db := range opts.EQ {
			if err := eq.SetGainDB(band, db); err != nil {
				return nil, err
			}
		}
		chain.Add(eq)
	}
	return chain, nil
}

func durationFrames(d time.Duration, sampleRate int) int {
	return int(int64(d) * int64(sampleRate) / int64(time.Second))
}

func RenderMelody(m *Melody, sampleRate int, opts RenderOptions) ([]float32, error) {
	events, err := m.Events()
	if err != nil {
		return nil, err
	}
	return RenderSamples(events, sampleRate, opts)
}

// RenderSound renders a canned effect legato, as PlaySound plays it.
func RenderSound(id Sound, sampleRate int, opts RenderOptions) ([]float32, error) {
	events, err := intsnd.Events(id)
	if err != nil {
		return nil, err
	}
	opts.Legato = true
	return RenderSamples(events, sampleRate, opts)
}

func wavHeader(out []byte, dataSize, sampleRate, channels, bitsPerSample int, format uint16) {
	bytesPerSample := bitsPerSample / 8
	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(36+dataSize))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], format)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(sampleRate*channels*bytesPerSample))
	binary.LittleEndian.PutUint16(out[32:], uint16(channels*bytesPerSample))
	binary.LittleEndian.PutUint16(out[34:], uint16(bitsPerSample))
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
}

func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 4
	out := make([]byte, 44+dataSize)
	wavHeader(out, dataSize, sampleRate, channels, 32, 3)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}

// EncodeWAVPCM16 clips samples to [-1,1] and writes 16-bit PCM.
func EncodeWAVPCM16(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 2
	out := make([]byte, 44+dataSize)
	wavHeader(out, dataSize, sampleRate, channels, 16, 1)
	for i, s := range samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		binary.LittleEndian.PutUint16(out[44+i*2:], uint16(int16(math.Round(v*math.MaxInt16))))
	}
	return out
}

// EncodeWAV picks the encoder by bit depth, 16 or 32 (float).
func EncodeWAV(samples []float32, sampleRate int, bits int) ([]byte, error) {
	switch bits {
	case 16:
		return EncodeWAVPCM16(samples, sampleRate, 2), nil
	case 32:
		return EncodeWAVFloat32LE(samples, sampleRate, 2), nil
	}
	return nil, fmt.Errorf("unsupported wav bit depth %d", bits)
}
