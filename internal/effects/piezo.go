package effects

import "math"

// PiezoParams shapes the response of a small piezo disc.
type PiezoParams struct {
	Resonance float64 // Hz, where the disc is loudest
	Q         float64
	BoostDB   float64 // peak gain at Resonance
	LowCut    float64 // Hz, the disc barely moves below this
	Drive     float32 // soft clip input gain, 1 = mild
}

func DefaultPiezoParams() PiezoParams {
	return PiezoParams{
		Resonance: 2700,
		Q:         1.4,
		BoostDB:   9,
		LowCut:    500,
		Drive:     1.5,
	}
}

// Piezo colors a clean tone like a buzzer: a one-pole highpass, a resonant
// peak and tanh saturation.
type Piezo struct {
	drive float32

	hpAlpha float32
	hpIn    [2]float32
	hpOut   [2]float32

	b0, b1, b2, a1, a2 float32
	x1, x2, y1, y2     [2]float32
}

func NewPiezo(sampleRate int, p PiezoParams) *Piezo {
	if p.Drive <= 0 {
		p.Drive = 1
	}
	pz := &Piezo{drive: p.Drive}
	fs := float64(sampleRate)
	if p.LowCut > 0 && p.LowCut < fs/2 {
		rc := 1.0 / (2 * math.Pi * p.LowCut)
		dt := 1.0 / fs
		pz.hpAlpha = float32(rc / (rc + dt))
	}
	pz.setPeak(fs, p.Resonance, p.Q, p.BoostDB)
	return pz
}

// setPeak computes a peaking biquad (RBJ cookbook). Unusable parameters
// leave the filter flat.
func (p *Piezo) setPeak(fs, freq, q, gainDB float64) {
	if freq <= 0 || freq >= fs/2 || q <= 0 {
		p.b0 = 1
		return
	}
	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freq / fs
	alpha := math.Sin(w0) / (2 * q)
	cos := math.Cos(w0)
	a0 := 1 + alpha/a
	p.b0 = float32((1 + alpha*a) / a0)
	p.b1 = float32(-2 * cos / a0)
	p.b2 = float32((1 - alpha*a) / a0)
	p.a1 = float32(-2 * cos / a0)
	p.a2 = float32((1 - alpha/a) / a0)
}

func (p *Piezo) channel(ch int, x float32) float32 {
	if p.hpAlpha > 0 {
		y := p.hpAlpha * (p.hpOut[ch] + x - p.hpIn[ch])
		p.hpIn[ch] = x
		p.hpOut[ch] = y
		x = y
	}
	y := p.b0*x + p.b1*p.x1[ch] + p.b2*p.x2[ch] - p.a1*p.y1[ch] - p.a2*p.y2[ch]
	p.x2[ch], p.x1[ch] = p.x1[ch], x
	p.y2[ch], p.y1[ch] = p.y1[ch], y
	return float32(math.Tanh(float64(y * p.drive)))
}

func (p *Piezo) Process(l, r float32) (float32, float32) {
	return p.channel(0, l), p.channel(1, r)
}
