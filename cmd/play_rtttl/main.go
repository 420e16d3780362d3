package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/hako/durafmt"
	"github.com/spf13/pflag"

	"github.com/cbegin/rtttl-go"
	"github.com/cbegin/rtttl-go/internal/config"
	"github.com/cbegin/rtttl-go/internal/effects"
	"github.com/cbegin/rtttl-go/internal/library"
	"github.com/cbegin/rtttl-go/internal/sounds"
)

const defaultMelody = "Short"

var shortUnits, _ = durafmt.DefaultUnitsCoder.Decode("y:yrs,wk:wks,d:d,h:h,m:m,s:s,ms:ms,us:us")

type options struct {
	melody     string
	inline     string
	file       string
	sound      string
	list       bool
	tag        string
	wavPath    string
	wavBits    int
	midiPath   string
	export     bool
	exportDir  string
	dump       bool
	library    string
	saveLib    string
	sampleRate int
	volume     float64
	duty       float64
	piezo      bool
	gap        time.Duration
	eq         []string
	loop       int
	octave     int
	quiet      bool
	args       []string
}

func main() {
	logger := log.New(os.Stdout, "", log.Ldate|log.Ltime)
	if err := config.LoadDotEnv(); err != nil {
		logger.Printf("No .env file loaded: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, logger); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		if errors.Is(err, context.Canceled) {
			logger.Printf("interrupted")
			os.Exit(130)
		}
		logger.Fatalf("%v", err)
	}
}

func parseFlags(args []string, cfg *config.Config) (*options, error) {
	o := &options{}
	fs := pflag.NewFlagSet("play_rtttl", pflag.ContinueOnError)
	fs.StringVarP(&o.melody, "melody", "m", "", "play a melody from the library by name")
	fs.StringVarP(&o.inline, "rtttl", "r", "", "inline RTTTL string")
	fs.StringVarP(&o.file, "file", "f", "", "path to a file holding an RTTTL string")
	fs.StringVarP(&o.sound, "sound", "s", "", "play a canned sound effect by name")
	fs.BoolVarP(&o.list, "list", "l", false, "list library melodies and sound effects")
	fs.StringVar(&o.tag, "tag", "", "with --list or --export, only melodies carrying this tag")
	fs.StringVarP(&o.wavPath, "wav", "w", "", "render to a WAV file instead of playing")
	fs.IntVar(&o.wavBits, "bits", 16, "WAV sample format: 16 (PCM) or 32 (float)")
	fs.StringVar(&o.midiPath, "midi", "", "write a Standard MIDI File instead of playing")
	fs.BoolVar(&o.export, "export", false, "render every library melody to WAV and MIDI")
	fs.StringVar(&o.exportDir, "export-dir", cfg.ExportDir, "output directory for --export")
	fs.BoolVar(&o.dump, "dump", false, "print the parsed header, notes and tone timeline")
	fs.StringVar(&o.library, "library", cfg.Library, "YAML melody library merged over the built-in one")
	fs.StringVar(&o.saveLib, "save-library", "", "write the merged library as YAML and exit")
	fs.IntVar(&o.sampleRate, "sample-rate", cfg.SampleRate, "output sample rate")
	fs.Float64Var(&o.volume, "volume", cfg.Volume, "volume, 0 to 1")
	fs.Float64Var(&o.duty, "duty", cfg.DutyCycle, "square wave duty cycle")
	fs.BoolVar(&o.piezo, "piezo", cfg.Piezo, "color the sound like a piezo buzzer")
	fs.DurationVar(&o.gap, "gap", 0, "silence inserted after every note")
	fs.StringArrayVar(&o.eq, "eq", nil, "master EQ band gain as band=dB, band by name (low, low-mid, mid, high-mid, high) or 0-4; repeatable")
	fs.IntVar(&o.loop, "loop", 0, "play the melody this many extra times, -1 until interrupted (WAV: extra passes only)")
	fs.IntVarP(&o.octave, "octave", "o", cfg.DefaultOctave, "octave used when a melody header has no o= field")
	fs.BoolVarP(&o.quiet, "quiet", "q", false, "suppress log output")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	o.args = fs.Args()
	return o, nil
}

func run(ctx context.Context, args []string, stdout io.Writer, logger *log.Logger) error {
	cfg := config.Load()
	o, err := parseFlags(args, cfg)
	if err != nil {
		return err
	}
	if o.quiet {
		logger.SetOutput(io.Discard)
	}

	lib, err := loadLibrary(o.library)
	if err != nil {
		return err
	}
	if o.library != "" {
		logger.Printf("merged %s, %d melodies", o.library, lib.Len())
	}
	if o.saveLib != "" {
		return saveLibrary(lib, o.saveLib)
	}
	if o.list {
		return printList(stdout, lib, o.tag)
	}

	eq, err := parseEQ(o.eq)
	if err != nil {
		return err
	}
	renderOpts := rtttl.RenderOptions{Volume: o.volume, DutyCycle: o.duty, Gap: o.gap, Piezo: o.piezo, EQ: eq}
	pc := rtttl.DefaultParserConfig()
	if o.octave < pc.MinOctave || o.octave > pc.MaxOctave {
		return fmt.Errorf("octave %d outside %d-%d", o.octave, pc.MinOctave, pc.MaxOctave)
	}
	pc.DefaultOctave = o.octave

	if o.export {
		entries := lib.Entries()
		if o.tag != "" {
			entries = lib.Tagged(o.tag)
		}
		return exportAll(ctx, entries, o.exportDir, exportOptions{
			sampleRate: o.sampleRate,
			bits:       o.wavBits,
			render:     renderOpts,
			parser:     pc,
		}, logger)
	}

	if o.sound != "" {
		return runSound(ctx, o, renderOpts, eq, logger)
	}

	text, err := resolveInput(lib, o.melody, o.inline, o.file, o.args)
	if err != nil {
		return err
	}
	m, err := rtttl.ParseWithConfig(pc, text)
	if err != nil {
		return err
	}
	length, err := m.Duration()
	if err != nil {
		return err
	}
	logger.Printf("%s: d=%d o=%d b=%d, %s", m.Name, m.Header.DefaultDuration, m.Header.DefaultOctave, m.Header.BPM,
		durafmt.Parse(length).LimitFirstN(2).Format(shortUnits))

	if o.dump {
		if err := dumpMelody(ctx, stdout, m, o.gap); err != nil {
			return err
		}
	}
	if o.wavPath != "" || o.midiPath != "" {
		if o.wavPath != "" {
			wavOpts := renderOpts
			wavOpts.Repeat = o.loop
			if err := writeWAV(o.wavPath, m, o.sampleRate, o.wavBits, wavOpts, logger); err != nil {
				return err
			}
		}
		if o.midiPath != "" {
			if err := writeMIDIFile(o.midiPath, m, logger); err != nil {
				return err
			}
		}
		return nil
	}
	if o.dump {
		return nil
	}

	sp, err := newSpeaker(o, eq)
	if err != nil {
		return err
	}
	defer sp.Close()
	player := rtttl.NewPlayer(sp,
		rtttl.WithLogger(logger),
		rtttl.WithGap(o.gap),
		rtttl.WithRepeat(o.loop),
		rtttl.WithParserConfig(pc),
	)
	if err := player.PlayMelody(ctx, m); err != nil {
		return err
	}
	drain()
	return nil
}

func runSound(ctx context.Context, o *options, renderOpts rtttl.RenderOptions, eq [5]float64, logger *log.Logger) error {
	id, err := rtttl.ParseSound(o.sound)
	if err != nil {
		return err
	}
	if o.wavPath != "" {
		samples, err := rtttl.RenderSound(id, o.sampleRate, renderOpts)
		if err != nil {
			return err
		}
		return writeSamples(o.wavPath, samples, o.sampleRate, o.wavBits, logger)
	}
	sp, err := newSpeaker(o, eq)
	if err != nil {
		return err
	}
	defer sp.Close()
	if err := rtttl.NewPlayer(sp, rtttl.WithLogger(logger)).PlaySound(ctx, id); err != nil {
		return err
	}
	drain()
	return nil
}

func newSpeaker(o *options, eq [5]float64) (*rtttl.Speaker, error) {
	sp, err := rtttl.NewSpeaker(o.sampleRate,
		rtttl.WithVolume(o.volume),
		rtttl.WithDutyCycle(o.duty),
		rtttl.WithPiezo(o.piezo),
	)
	if err != nil {
		return nil, err
	}
	for band, db := range eq {
		if err := sp.SetEQBandDB(band, db); err != nil {
			sp.Close()
			return nil, err
		}
	}
	return sp, nil
}

// parseEQ turns band=dB settings into per-band gains. Later settings for
// the same band win.
func parseEQ(settings []string) ([5]float64, error) {
	var eq [5]float64
	for _, s := range settings {
		name, value, ok := strings.Cut(s, "=")
		if !ok {
			return eq, fmt.Errorf("eq %q: want band=dB", s)
		}
		band, err := effects.BandIndex(strings.TrimSpace(name))
		if err != nil {
			return eq, err
		}
		db, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(strings.ToLower(value)), "db"), 64)
		if err != nil {
			return eq, fmt.Errorf("eq %q: %w", s, err)
		}
		eq[band] = db
	}
	return eq, nil
}

// drain lets the audio driver play out what it has buffered before Close.
func drain() { time.Sleep(100 * time.Millisecond) }

func loadLibrary(path string) (*library.Library, error) {
	lib := library.Builtin()
	if strings.TrimSpace(path) == "" {
		return lib, nil
	}
	extra, err := library.LoadFile(path)
	if err != nil {
		return nil, err
	}
	lib.Merge(extra)
	return lib, nil
}

func saveLibrary(lib *library.Library, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := lib.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// resolveInput picks the melody text: inline text, then a file, then a
// library name, then the first argument (a library name or RTTTL text).
func resolveInput(lib *library.Library, name, inline, path string, args []string) (string, error) {
	if strings.TrimSpace(inline) != "" {
		return inline, nil
	}
	if strings.TrimSpace(path) != "" {
		return readMelodyFile(path)
	}
	if strings.TrimSpace(name) == "" && len(args) > 0 {
		if strings.Contains(args[0], ":") {
			return args[0], nil
		}
		name = args[0]
	}
	if strings.TrimSpace(name) == "" {
		name = defaultMelody
	}
	e, ok := lib.Get(name)
	if !ok {
		return "", fmt.Errorf("no melody named %q (try --list)", name)
	}
	return e.RTTTL, nil
}

// readMelodyFile returns the first line that is neither blank nor a # comment.
func readMelodyFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return line, nil
	}
	return "", fmt.Errorf("%s: no melody found", path)
}

func printList(w io.Writer, lib *library.Library, tag string) error {
	names := lib.Names()
	if tag != "" {
		names = names[:0]
		for _, e := range lib.Tagged(tag) {
			names = append(names, e.Name)
		}
	}
	fmt.Fprintln(w, "melodies:")
	for _, name := range names {
		e, _ := lib.Get(name)
		length := "?"
		if m, err := e.Melody(); err == nil {
			if d, err := m.Duration(); err == nil {
				length = durafmt.Parse(d).LimitFirstN(2).Format(shortUnits)
			}
		}
		fmt.Fprintf(w, "  %-18s %-10s %s\n", e.Name, strings.Join(e.Tags, ","), length)
	}
	fmt.Fprintln(w, "sounds:")
	for _, id := range rtttl.Sounds() {
		length := time.Duration(sounds.Duration(id)) * time.Millisecond
		fmt.Fprintf(w, "  %-18s %s\n", id, durafmt.Parse(length).LimitFirstN(2).Format(shortUnits))
	}
	return nil
}

func dumpMelody(ctx context.Context, w io.Writer, m *rtttl.Melody, gap time.Duration) error {
	events, err := m.Events()
	if err != nil {
		return err
	}
	cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true}
	cfg.Fdump(w, m.Header)
	cfg.Fdump(w, events)
	rec := rtttl.NewRecorder()
	if err := rtttl.NewPlayer(rec, rtttl.WithSleep(rec.Sleep), rtttl.WithGap(gap)).PlayMelody(ctx, m); err != nil {
		return err
	}
	return rec.WriteTimeline(w)
}
