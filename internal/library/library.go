// Package library keeps named RTTTL melodies, loaded from YAML.
package library

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cbegin/rtttl-go/internal/rtttl"
)

//go:embed melodies.yaml
var builtinYAML []byte

type Entry struct {
	Name  string   `yaml:"name,omitempty"`
	RTTTL string   `yaml:"rtttl"`
	Tags  []string `yaml:"tags,omitempty,flow"`
}

// Melody parses the entry with the default parser settings.
func (e Entry) Melody() (*rtttl.Melody, error) {
	return rtttl.Parse(e.RTTTL)
}

type file struct {
	Melodies []Entry `yaml:"melodies"`
}

// Library is an ordered set of entries with case-insensitive name lookup.
type Library struct {
	entries []Entry
	index   map[string]int
}

func New() *Library {
	return &Library{index: map[string]int{}}
}

// Builtin returns a fresh copy of the embedded melodies.
func Builtin() *Library {
	lib, err := Load(bytes.NewReader(builtinYAML))
	if err != nil {
		panic(fmt.Sprintf("library: embedded melodies: %v", err))
	}
	return lib
}

func Load(r io.Reader) (*Library, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read library: %w", err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode library: %w", err)
	}
	lib := New()
	for i, e := range f.Melodies {
		if err := lib.Add(e); err != nil {
			return nil, fmt.Errorf("melody %d: %w", i+1, err)
		}
	}
	return lib, nil
}

func LoadFile(path string) (*Library, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	lib, err := Load(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lib, nil
}

// Add appends an entry. A missing name is taken from the melody text; a
// name that is already present replaces the earlier entry in place.
func (l *Library) Add(e Entry) error {
	e.RTTTL = strings.TrimSpace(e.RTTTL)
	if e.RTTTL == "" {
		return fmt.Errorf("empty rtttl")
	}
	if e.Name == "" {
		i := strings.IndexByte(e.RTTTL, ':')
		if i < 0 {
			return fmt.Errorf("%w: no name section in %q", rtttl.ErrMalformedInput, e.RTTTL)
		}
		e.Name = strings.TrimSpace(e.RTTTL[:i])
	}
	if e.Name == "" {
		return fmt.Errorf("melody has no name")
	}
	key := strings.ToLower(e.Name)
	if i, ok := l.index[key]; ok {
		l.entries[i] = e
		return nil
	}
	l.index[key] = len(l.entries)
	l.entries = append(l.entries, e)
	return nil
}

// Merge adds every entry of other, overriding entries with the same name.
func (l *Library) Merge(other *Library) {
	for _, e := range other.entries {
		_ = l.Add(e)
	}
}

func (l *Library) Get(name string) (Entry, bool) {
	i, ok := l.index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Entry{}, false
	}
	return l.entries[i], true
}

func (l *Library) Len() int { return len(l.entries) }

func (l *Library) Entries() []Entry {
	return append([]Entry(nil), l.entries...)
}

// Names returns entry names sorted case-insensitively.
func (l *Library) Names() []string {
	names := make([]string, len(l.entries))
	for i, e := range l.entries {
		names[i] = e.Name
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names
}

// Tagged returns the entries carrying tag, in library order.
func (l *Library) Tagged(tag string) []Entry {
	var out []Entry
	for _, e := range l.entries {
		for _, t := range e.Tags {
			if strings.EqualFold(t, tag) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

func (l *Library) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file{Melodies: l.entries}); err != nil {
		return fmt.Errorf("encode library: %w", err)
	}
	return enc.Close()
}
