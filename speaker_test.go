package rtttl

import (
	"context"
	"errors"
	"testing"
	"time"

	intaudio "github.com/cbegin/rtttl-go/internal/audio"
)

type fakeBackend struct {
	source  intaudio.Source
	playing bool
	stopped bool
}

func (b *fakeBackend) Play() { b.playing = true }
func (b *fakeBackend) Stop() error {
	b.stopped = true
	return nil
}

func withFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fake := &fakeBackend{}
	prev := openBackend
	openBackend = func(sampleRate int, src intaudio.Source, bufferSize time.Duration) (audioBackend, error) {
		fake.source = src
		return fake, nil
	}
	t.Cleanup(func() { openBackend = prev })
	return fake
}

func TestSpeakerRendersTone(t *testing.T) {
	fake := withFakeBackend(t)
	var tapped int
	sp, err := NewSpeaker(48000, WithSampleTap(func(buf []float32) { tapped += len(buf) }))
	if err != nil {
		t.Fatalf("new speaker: %v", err)
	}
	if !fake.playing {
		t.Fatalf("backend should start playing")
	}
	buf := make([]float32, 2*4800)
	fake.source.Process(buf)
	if rms(buf) != 0 {
		t.Fatalf("speaker should start silent")
	}
	if err := sp.SetTone(880); err != nil {
		t.Fatalf("set tone: %v", err)
	}
	fake.source.Process(buf)
	if rms(buf) < 0.01 {
		t.Fatalf("expected tone, rms=%f", rms(buf))
	}
	if tapped != 2*len(buf) {
		t.Fatalf("tap saw %d samples, want %d", tapped, 2*len(buf))
	}
}

func TestSpeakerVolumeAndEQ(t *testing.T) {
	fake := withFakeBackend(t)
	sp, err := NewSpeaker(48000, WithVolume(0.5), WithPiezo(true), WithDutyCycle(0.25))
	if err != nil {
		t.Fatalf("new speaker: %v", err)
	}
	if err := sp.SetEQBand(7, 1); err == nil {
		t.Fatalf("expected band range error")
	}
	if err := sp.SetEQBand(2, 0.5); err != nil {
		t.Fatalf("set eq: %v", err)
	}
	if sp.EQBand(2) != 0.5 {
		t.Fatalf("eq band 2 = %f", sp.EQBand(2))
	}
	if err := sp.SetEQBandDB(4, 6); err != nil {
		t.Fatalf("set eq dB: %v", err)
	}
	if g := sp.EQBand(4); g < 1.9 || g > 2.1 {
		t.Fatalf("eq band 4 = %f, want about 2", g)
	}
	sp.SetTone(2000)
	loud := make([]float32, 2*4800)
	fake.source.Process(loud)
	if err := sp.SetVolume(0); err != nil {
		t.Fatalf("set volume: %v", err)
	}
	fake.source.Process(make([]float32, 2*4800))
	quiet := make([]float32, 2*4800)
	fake.source.Process(quiet)
	if rms(quiet) > 0.001 || rms(loud) < 0.01 {
		t.Fatalf("volume not applied: loud=%f quiet=%f", rms(loud), rms(quiet))
	}
}

func TestSpeakerClose(t *testing.T) {
	fake := withFakeBackend(t)
	sp, err := NewSpeaker(48000)
	if err != nil {
		t.Fatalf("new speaker: %v", err)
	}
	if err := sp.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !fake.stopped {
		t.Fatalf("backend not stopped")
	}
	if err := sp.SetTone(440); !errors.Is(err, ErrSpeakerClosed) {
		t.Fatalf("expected ErrSpeakerClosed, got %v", err)
	}
	if err := sp.SetVolume(0.5); !errors.Is(err, ErrSpeakerClosed) {
		t.Fatalf("SetVolume after close = %v, want ErrSpeakerClosed", err)
	}
	if err := sp.SetEQBandDB(1, -3); !errors.Is(err, ErrSpeakerClosed) {
		t.Fatalf("SetEQBandDB after close = %v, want ErrSpeakerClosed", err)
	}
	if err := sp.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestSpeakerAsPlayerOutput(t *testing.T) {
	withFakeBackend(t)
	sp, err := NewSpeaker(8000)
	if err != nil {
		t.Fatalf("new speaker: %v", err)
	}
	defer sp.Close()
	var seen []int
	sleep := func(context.Context, time.Duration) error {
		seen = append(seen, sp.Tone())
		return nil
	}
	if err := NewPlayer(sp, WithSleep(sleep)).Play(context.Background(), "x:d=4,o=5,b=100:c,p,e"); err != nil {
		t.Fatalf("play: %v", err)
	}
	want := []int{524, 0, 660}
	if len(seen) != len(want) {
		t.Fatalf("tones during sleeps = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("tones during sleeps = %v, want %v", seen, want)
		}
	}
	if sp.Tone() != 0 {
		t.Fatalf("speaker should be silent after playback")
	}
}

func TestNewSpeakerRejectsBadRate(t *testing.T) {
	if _, err := NewSpeaker(0); err == nil {
		t.Fatalf("expected error")
	}
}
