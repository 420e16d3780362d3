package rtttl

import (
	"fmt"
	"io"
	"math"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	midiTicksPerQuarter = 960
	midiChannel         = 0
	midiVelocity        = 100
	// square lead in the General MIDI set
	midiProgram = 80
)

// MIDIKey maps a pitch and octave to a MIDI key number, c4 = 60. ok is false
// for pauses and keys outside 0-127.
func MIDIKey(p Pitch, octave int) (key uint8, ok bool) {
	semi := p.Semitone()
	if semi < 0 {
		return 0, false
	}
	k := (octave+1)*12 + semi
	if k < 0 || k > 127 {
		return 0, false
	}
	return uint8(k), true
}

// WriteMIDI writes the melody as a single-track Standard MIDI File. The tempo
// is chosen so a quarter note lasts exactly a quarter of the melody's whole
// note, which keeps the note lengths identical to playback.
func WriteMIDI(w io.Writer, m *Melody) error {
	events, err := m.Events()
	if err != nil {
		return err
	}
	whole := m.Header.WholeNote()
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(midiTicksPerQuarter)

	var tr smf.Track
	tr.Add(0, smf.MetaTrackSequenceName(m.Name))
	tr.Add(0, smf.MetaTempo(4*60000/float64(whole)))
	tr.Add(0, midi.ProgramChange(midiChannel, midiProgram))

	toTicks := func(ms int) uint32 {
		return uint32(math.Round(float64(ms) * 4 * midiTicksPerQuarter / float64(whole)))
	}
	var elapsedMs int
	var lastTick uint32
	delta := func() uint32 {
		now := toTicks(elapsedMs)
		d := now - lastTick
		lastTick = now
		return d
	}
	for _, ev := range events {
		key, ok := MIDIKey(ev.Pitch, ev.Octave)
		if ok && !ev.IsPause() {
			tr.Add(delta(), midi.NoteOn(midiChannel, key, midiVelocity))
			elapsedMs += ev.DurationMs
			tr.Add(delta(), midi.NoteOff(midiChannel, key))
			continue
		}
		elapsedMs += ev.DurationMs
	}
	tr.Close(delta())
	if err := s.Add(tr); err != nil {
		return fmt.Errorf("add track: %w", err)
	}
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("write midi: %w", err)
	}
	return nil
}
