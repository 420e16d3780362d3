package tone

import (
	"math"
	"sync/atomic"
)

type Params struct {
	MasterGain float64
	DutyCycle  float64 // high fraction of each period, 0.5 = square
	// SlewSec is how long the output level takes to follow a tone change.
	// A few milliseconds avoids clicks at note boundaries.
	SlewSec   float64
	LPFCutoff float64 // lowpass filter cutoff in Hz (0 = disabled)
}

func DefaultParams() Params {
	return Params{
		MasterGain: 0.25,
		DutyCycle:  0.5,
		SlewSec:    0.002,
		LPFCutoff:  10000,
	}
}

// Engine is a single square-wave tone channel. SetTone and Silence may be
// called from any goroutine; RenderFrame and Process belong to the audio
// goroutine.
type Engine struct {
	sampleRate float64
	params     Params
	freq       atomic.Uint64 // float64 bits, 0 = silent
	masterGain atomic.Uint64 // float64 bits

	lastFreq  float64 // keeps the waveform running through the fade
	phase     float64
	level     float64
	slewStep  float64
	lpfAlpha  float64
	lpf       float64
	dcPrevIn  float64
	dcPrevOut float64
}

func New(sampleRate int, params Params) *Engine {
	if params.DutyCycle <= 0 || params.DutyCycle >= 1 {
		params.DutyCycle = 0.5
	}
	if params.MasterGain < 0 {
		params.MasterGain = 0
	}
	e := &Engine{
		sampleRate: float64(sampleRate),
		params:     params,
		slewStep:   1,
	}
	e.masterGain.Store(math.Float64bits(params.MasterGain))
	if params.SlewSec > 0 && sampleRate > 0 {
		e.slewStep = 1.0 / (params.SlewSec * float64(sampleRate))
	}
	if params.LPFCutoff > 0 && params.LPFCutoff < float64(sampleRate)/2 {
		rc := 1.0 / (2 * math.Pi * params.LPFCutoff)
		dt := 1.0 / float64(sampleRate)
		e.lpfAlpha = dt / (rc + dt)
	}
	return e
}

// SetTone starts or retunes the oscillator. hz <= 0 silences it.
func (e *Engine) SetTone(hz int) {
	if hz <= 0 {
		e.freq.Store(0)
		return
	}
	e.freq.Store(math.Float64bits(float64(hz)))
}

func (e *Engine) Silence() { e.freq.Store(0) }

// Frequency returns the tone currently requested, 0 when silent.
func (e *Engine) Frequency() int {
	return int(math.Float64frombits(e.freq.Load()))
}

func (e *Engine) SetMasterGain(gain float64) {
	if gain < 0 {
		gain = 0
	}
	e.masterGain.Store(math.Float64bits(gain))
}

func (e *Engine) RenderFrame() (float32, float32) {
	freq := math.Float64frombits(e.freq.Load())
	target := 0.0
	if freq > 0 {
		target = 1
	}
	switch {
	case e.level < target:
		e.level = math.Min(target, e.level+e.slewStep)
	case e.level > target:
		e.level = math.Max(target, e.level-e.slewStep)
	}
	if freq > 0 {
		e.lastFreq = freq
	}
	var sig float64
	if e.level > 0 && e.lastFreq > 0 && e.sampleRate > 0 {
		sig = e.renderWave(e.lastFreq)
	}
	sig *= e.level * math.Float64frombits(e.masterGain.Load())
	sig = e.dcBlock(sig)
	if e.lpfAlpha > 0 {
		e.lpf += e.lpfAlpha * (sig - e.lpf)
		sig = e.lpf
	}
	out := float32(clamp(sig, -1, 1))
	return out, out
}

// Process fills an interleaved stereo buffer.
func (e *Engine) Process(dst []float32) {
	for i := 0; i+1 < len(dst); i += 2 {
		dst[i], dst[i+1] = e.RenderFrame()
	}
}

func (e *Engine) renderWave(freq float64) float64 {
	duty := e.params.DutyCycle
	dt := freq / e.sampleRate
	e.phase += dt
	if e.phase >= 1 {
		e.phase -= math.Floor(e.phase)
	}
	out := -1.0
	if e.phase < duty {
		out = 1
	}
	if dt > 0 {
		out += polyBLEP(e.phase, dt)
		out -= polyBLEP(math.Mod(e.phase-duty+1, 1), dt)
	}
	return out
}

// polyBLEP reduces aliasing at waveform discontinuities.
// t is the phase position [0,1), dt is the phase increment per sample.
func polyBLEP(t, dt float64) float64 {
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}
	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}

func (e *Engine) dcBlock(x float64) float64 {
	const r = 0.995
	y := x - e.dcPrevIn + r*e.dcPrevOut
	e.dcPrevIn = x
	e.dcPrevOut = y
	return y
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
