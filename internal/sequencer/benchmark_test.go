package sequencer

import (
	"testing"

	"github.com/cbegin/rtttl-go/internal/rtttl"
	"github.com/cbegin/rtttl-go/internal/tone"
)

const benchMelody = "MissionImp:d=16,o=6,b=95:32d,32d#,32e,32f,32f#,32g,32g#,32a,32a#,32b,32c,32c#,32d,32d#,32e,32f"

func BenchmarkSequencerProcess(b *testing.B) {
	m, err := rtttl.Parse(benchMelody)
	if err != nil {
		b.Fatalf("parse failed: %v", err)
	}
	buf := make([]float32, 2048*2)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		engine := tone.New(48000, tone.DefaultParams())
		seq := New(m.Notes(), engine, 48000)
		seq.Process(buf)
	}
}

func BenchmarkCursorDecode(b *testing.B) {
	m, err := rtttl.Parse(benchMelody)
	if err != nil {
		b.Fatalf("parse failed: %v", err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, err := range m.Notes().All() {
			if err != nil {
				b.Fatalf("decode: %v", err)
			}
		}
	}
}
