package rtttl

import (
	"encoding/binary"
	"math"
	"testing"
	"time"
)

func rms(buf []float32) float64 {
	if len(buf) == 0 {
		return 0
	}
	var sum float64
	for _, v := range buf {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(buf)))
}

func TestRenderMelodyLength(t *testing.T) {
	m, err := Parse("Short:d=4,o=5,b=100:c,d,e,f,g,a,b,c6")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	samples, err := RenderMelody(m, 8000, RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	// 8 notes of 600ms plus the 100ms tail
	if want := (8*4800 + 800) * 2; len(samples) != want {
		t.Fatalf("samples = %d, want %d", len(samples), want)
	}
	if rms(samples[:4800*2]) < 0.01 {
		t.Fatalf("expected sound in the first note")
	}
	tail := samples[len(samples)-200:]
	if rms(tail) > 0.01 {
		t.Fatalf("expected silence at the end, rms=%f", rms(tail))
	}
}

func mustRender(t *testing.T, events []Event, sampleRate int, opts RenderOptions) []float32 {
	t.Helper()
	samples, err := RenderSamples(events, sampleRate, opts)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return samples
}

func TestRenderWithGapAddsFrames(t *testing.T) {
	events := []Event{{Frequency: 440, DurationMs: 100}, {Frequency: 880, DurationMs: 100}}
	plain := mustRender(t, events, 1000, RenderOptions{Tail: 10 * time.Millisecond})
	gapped := mustRender(t, events, 1000, RenderOptions{Tail: 10 * time.Millisecond, Gap: 20 * time.Millisecond})
	if len(gapped)-len(plain) != 2*40 {
		t.Fatalf("gap frames = %d, want 40", (len(gapped)-len(plain))/2)
	}
	legato := mustRender(t, events, 1000, RenderOptions{Tail: 10 * time.Millisecond, Gap: 20 * time.Millisecond, Legato: true})
	if len(legato) != len(plain) {
		t.Fatalf("legato render should ignore the gap")
	}
}

func TestRenderRepeat(t *testing.T) {
	events := []Event{{Frequency: 440, DurationMs: 100}, {Frequency: 0, DurationMs: 100}}
	once := mustRender(t, events, 8000, RenderOptions{Tail: 10 * time.Millisecond})
	thrice := mustRender(t, events, 8000, RenderOptions{Tail: 10 * time.Millisecond, Repeat: 2})
	if want := 2 * (3*1600 + 80); len(thrice) != want {
		t.Fatalf("samples = %d, want %d", len(thrice), want)
	}
	if len(once) != 2*(1600+80) {
		t.Fatalf("single pass samples = %d", len(once))
	}
	// the third pass starts with a tone again
	third := thrice[2*3200 : 2*4000]
	if rms(third) < 0.01 {
		t.Fatalf("expected sound in the repeated note, rms=%f", rms(third))
	}
	negative := mustRender(t, events, 8000, RenderOptions{Tail: 10 * time.Millisecond, Repeat: -4})
	if len(negative) != len(once) {
		t.Fatalf("negative repeat should render once")
	}
}

func TestRenderEQCutsTone(t *testing.T) {
	events := []Event{{Frequency: 1000, DurationMs: 200}}
	flat := mustRender(t, events, 48000, RenderOptions{})
	var eq [5]float64
	for i := range eq {
		eq[i] = -40
	}
	cut := mustRender(t, events, 48000, RenderOptions{EQ: eq})
	if rms(cut) > rms(flat)/10 {
		t.Fatalf("eq cut not applied: flat=%f cut=%f", rms(flat), rms(cut))
	}
}

func TestRenderRejectsBadRate(t *testing.T) {
	if _, err := RenderSamples([]Event{{Frequency: 440, DurationMs: 10}}, 0, RenderOptions{}); err == nil {
		t.Fatalf("expected error for zero sample rate")
	}
}

func TestRenderVolume(t *testing.T) {
	events := []Event{{Frequency: 523, DurationMs: 200}}
	full := mustRender(t, events, 48000, RenderOptions{})
	half := mustRender(t, events, 48000, RenderOptions{Volume: 0.5})
	ratio := rms(full) / rms(half)
	if math.Abs(ratio-2) > 0.1 {
		t.Fatalf("volume ratio = %f, want about 2", ratio)
	}
}

func TestRenderPiezoBounded(t *testing.T) {
	events := []Event{{Frequency: 2700, DurationMs: 100}}
	samples := mustRender(t, events, 48000, RenderOptions{Piezo: true, Volume: 4})
	for i, s := range samples {
		if s > 1 || s < -1 {
			t.Fatalf("sample %d out of range: %f", i, s)
		}
	}
}

func TestRenderSound(t *testing.T) {
	samples, err := RenderSound(SoundConnection, 8000, RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if want := (1600 + 800) * 2; len(samples) != want {
		t.Fatalf("samples = %d, want %d", len(samples), want)
	}
	if _, err := RenderSound(Sound(99), 8000, RenderOptions{}); err == nil {
		t.Fatalf("expected error for unknown sound")
	}
}

func TestEncodeWAVFloat32Header(t *testing.T) {
	wav := EncodeWAVFloat32LE([]float32{0.5, -0.5}, 48000, 2)
	if len(wav) != 44+8 {
		t.Fatalf("len = %d", len(wav))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" || string(wav[36:40]) != "data" {
		t.Fatalf("bad chunk ids")
	}
	if f := binary.LittleEndian.Uint16(wav[20:]); f != 3 {
		t.Fatalf("format = %d, want 3", f)
	}
	if br := binary.LittleEndian.Uint32(wav[28:]); br != 48000*8 {
		t.Fatalf("byte rate = %d", br)
	}
	if v := math.Float32frombits(binary.LittleEndian.Uint32(wav[44:])); v != 0.5 {
		t.Fatalf("first sample = %f", v)
	}
}

func TestEncodeWAVPCM16(t *testing.T) {
	wav := EncodeWAVPCM16([]float32{2, -2, 0.5, 0}, 44100, 2)
	if len(wav) != 44+8 {
		t.Fatalf("len = %d", len(wav))
	}
	if f := binary.LittleEndian.Uint16(wav[20:]); f != 1 {
		t.Fatalf("format = %d, want 1", f)
	}
	if bits := binary.LittleEndian.Uint16(wav[34:]); bits != 16 {
		t.Fatalf("bits = %d", bits)
	}
	if size := binary.LittleEndian.Uint32(wav[40:]); size != 8 {
		t.Fatalf("data size = %d", size)
	}
	want := []int16{32767, -32767, 16384, 0}
	for i, w := range want {
		got := int16(binary.LittleEndian.Uint16(wav[44+i*2:]))
		if got != w {
			t.Fatalf("sample %d = %d, want %d", i, got, w)
		}
	}
}

func TestEncodeWAVBits(t *testing.T) {
	if _, err := EncodeWAV(nil, 48000, 24); err == nil {
		t.Fatalf("expected error for 24-bit")
	}
	wav, err := EncodeWAV([]float32{0, 0}, 48000, 16)
	if err != nil || len(wav) != 48 {
		t.Fatalf("EncodeWAV 16 = %d bytes, %v", len(wav), err)
	}
}
