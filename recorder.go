package rtttl

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// ToneChange is one entry of a recorded timeline; Frequency 0 is silence.
type ToneChange struct {
	At        time.Duration
	Frequency int
}

// Recorder is an Output that keeps a timeline instead of making sound. Its
// Sleep method advances a virtual clock; pass it to WithSleep so playback
// runs instantly. Silence while already silent is not recorded.
type Recorder struct {
	mu      sync.Mutex
	now     time.Duration
	current int
	changes []ToneChange
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) SetTone(hz int) error {
	if hz <= 0 {
		return fmt.Errorf("invalid tone %d Hz", hz)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = hz
	r.changes = append(r.changes, ToneChange{At: r.now, Frequency: hz})
	return nil
}

func (r *Recorder) Silence() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == 0 {
		return nil
	}
	r.current = 0
	r.changes = append(r.changes, ToneChange{At: r.now})
	return nil
}

func (r *Recorder) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.now += d
	r.mu.Unlock()
	return nil
}

// Elapsed is the virtual time slept so far.
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.now
}

func (r *Recorder) Changes() []ToneChange {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ToneChange(nil), r.changes...)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now, r.current, r.changes = 0, 0, nil
}

// WriteTimeline prints one line per tone change, then the total length.
func (r *Recorder) WriteTimeline(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.changes {
		var err error
		if c.Frequency == 0 {
			_, err = fmt.Fprintf(w, "%6d ms  silence\n", c.At.Milliseconds())
		} else {
			_, err = fmt.Fprintf(w, "%6d ms  %d Hz\n", c.At.Milliseconds(), c.Frequency)
		}
		if err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%6d ms  end\n", r.now.Milliseconds())
	return err
}
