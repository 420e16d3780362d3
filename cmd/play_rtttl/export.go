package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/remeh/sizedwaitgroup"

	"github.com/cbegin/rtttl-go"
	"github.com/cbegin/rtttl-go/internal/library"
)

type exportOptions struct {
	sampleRate int
	bits       int
	render     rtttl.RenderOptions
	parser     rtttl.ParserConfig
}

// exportAll writes <name>.wav and <name>.mid for every entry, rendering up
// to one melody per CPU at a time.
func exportAll(ctx context.Context, entries []library.Entry, dir string, opts exportOptions, logger *log.Logger) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	var (
		mu    sync.Mutex
		errs  []error
		total int64
	)
	wg := sizedwaitgroup.New(runtime.NumCPU())
	for _, e := range entries {
		if ctx.Err() != nil {
			break
		}
		wg.Add()
		go func(e library.Entry) {
			defer wg.Done()
			n, err := exportEntry(e, dir, opts)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", e.Name, err))
				return
			}
			total += n
			logger.Printf("exported %s (%s)", e.Name, humanize.Bytes(uint64(n)))
		}(e)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}
	logger.Printf("exported %d melodies to %s, %s total", len(entries)-len(errs), dir, humanize.Bytes(uint64(total)))
	return errors.Join(errs...)
}

func exportEntry(e library.Entry, dir string, opts exportOptions) (int64, error) {
	m, err := rtttl.ParseWithConfig(opts.parser, e.RTTTL)
	if err != nil {
		return 0, err
	}
	base := filepath.Join(dir, fileName(e.Name))
	samples, err := rtttl.RenderMelody(m, opts.sampleRate, opts.render)
	if err != nil {
		return 0, err
	}
	wav, err := rtttl.EncodeWAV(samples, opts.sampleRate, opts.bits)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(base+".wav", wav, 0o644); err != nil {
		return 0, err
	}
	var mid bytes.Buffer
	if err := rtttl.WriteMIDI(&mid, m); err != nil {
		return 0, err
	}
	if err := os.WriteFile(base+".mid", mid.Bytes(), 0o644); err != nil {
		return 0, err
	}
	return int64(len(wav) + mid.Len()), nil
}

func fileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}

func writeWAV(path string, m *rtttl.Melody, sampleRate, bits int, opts rtttl.RenderOptions, logger *log.Logger) error {
	samples, err := rtttl.RenderMelody(m, sampleRate, opts)
	if err != nil {
		return err
	}
	return writeSamples(path, samples, sampleRate, bits, logger)
}

func writeSamples(path string, samples []float32, sampleRate, bits int, logger *log.Logger) error {
	wav, err := rtttl.EncodeWAV(samples, sampleRate, bits)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, wav, 0o644); err != nil {
		return err
	}
	logger.Printf("wrote %s (%s)", path, humanize.Bytes(uint64(len(wav))))
	return nil
}

func writeMIDIFile(path string, m *rtttl.Melody, logger *log.Logger) error {
	var buf bytes.Buffer
	if err := rtttl.WriteMIDI(&buf, m); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return err
	}
	logger.Printf("wrote %s (%s)", path, humanize.Bytes(uint64(buf.Len())))
	return nil
}
