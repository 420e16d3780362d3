package effects

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"
)

const Bands = 5

// BandNames labels the EQ bands from low to high.
var BandNames = [Bands]string{"low", "low-mid", "mid", "high-mid", "high"}

var crossovers = [Bands - 1]float64{200, 800, 2500, 8000}

// EQ5Band is a master equalizer whose band gains may be changed from any
// goroutine while the audio goroutine processes.
type EQ5Band struct {
	gains  [Bands]atomic.Uint32 // float32 bits, 1 = unity
	alphas [Bands - 1]float32
	lp     [2][Bands - 1]float32
}

// NewEQ5Band splits at 200Hz, 800Hz, 2.5kHz and 8kHz.
func NewEQ5Band(sampleRate int) *EQ5Band {
	eq := &EQ5Band{}
	dt := 1.0 / float64(sampleRate)
	for i, freq := range crossovers {
		rc := 1.0 / (2.0 * math.Pi * freq)
		eq.alphas[i] = float32(dt / (rc + dt))
	}
	for i := range eq.gains {
		eq.gains[i].Store(math.Float32bits(1))
	}
	return eq
}

// SetGain sets the linear gain of band 0-4; 2 is about +6dB.
func (eq *EQ5Band) SetGain(band int, gain float32) error {
	if band < 0 || band >= Bands {
		return fmt.Errorf("eq band %d out of range 0-%d", band, Bands-1)
	}
	if gain < 0 {
		gain = 0
	}
	eq.gains[band].Store(math.Float32bits(gain))
	return nil
}

// SetGainDB sets a band gain in decibels, 0 = unity.
func (eq *EQ5Band) SetGainDB(band int, db float64) error {
	return eq.SetGain(band, float32(math.Pow(10, db/20)))
}

func (eq *EQ5Band) Gain(band int) float32 {
	if band < 0 || band >= Bands {
		return 1
	}
	return math.Float32frombits(eq.gains[band].Load())
}

// BandIndex resolves a band by name or by number.
func BandIndex(name string) (int, error) {
	for i, n := range BandNames {
		if strings.EqualFold(n, name) {
			return i, nil
		}
	}
	var i int
	if _, err := fmt.Sscanf(name, "%d", &i); err == nil && i >= 0 && i < Bands {
		return i, nil
	}
	return 0, fmt.Errorf("unknown eq band %q", name)
}

// channel splits x with cascaded one-pole lowpasses; the residue above the
// last crossover is the top band.
func (eq *EQ5Band) channel(ch int, x float32) float32 {
	var out float32
	rem := x
	for i := range eq.alphas {
		eq.lp[ch][i] += eq.alphas[i] * (rem - eq.lp[ch][i])
		band := eq.lp[ch][i]
		out += band * math.Float32frombits(eq.gains[i].Load())
		rem -= band
	}
	return out + rem*math.Float32frombits(eq.gains[Bands-1].Load())
}

func (eq *EQ5Band) Process(l, r float32) (float32, float32) {
	return eq.channel(0, l), eq.channel(1, r)
}
