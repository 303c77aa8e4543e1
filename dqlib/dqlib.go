// Package dqlib keeps the names defined in the DQ libraries of O2Physics (analysis cuts, MC
// signals, mixing variables and histogram groups), used to complete and verify option values.
package dqlib

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/creachadair/atomicfile"
	"gopkg.in/src-d/go-errors.v1"
	"gopkg.in/yaml.v2"

	"github.com/dqworkflows/o2dq/upstream"
)

// Kind is a family of library names.
type Kind string

const (
	Cuts               Kind = "cuts"
	MCSignals          Kind = "mc-signals"
	Mixing             Kind = "mixing"
	Histograms         Kind = "histograms"
	HistogramSubgroups Kind = "histogram-subgroups"
)

// CacheFile is the name of the cached library inside the cache directory.
const CacheFile = "dqlib.yml"

var (
	ErrLibraryNotFound = errors.NewKind("DQ library cache %s not found, run the dqlib command first")
	ErrMalformedCache  = errors.NewKind("malformed DQ library cache %s")
	ErrUnknownKind     = errors.NewKind("unknown DQ library kind %q")
)

var (
	reName     = regexp.MustCompile(`nameStr\.compare\(\s*"([^"]+)"\s*\)`)
	reGroup    = regexp.MustCompile(`\bgroupStr\.Contains\(\s*"([^"]+)"\s*\)`)
	reSubGroup = regexp.MustCompile(`subGroupStr\.Contains\(\s*"([^"]+)"\s*\)`)
)

type extractor struct {
	kind Kind
	re   *regexp.Regexp
}

// Sources lists the library files and what is extracted from each.
var Sources = map[string][]extractor{
	"PWGDQ/Core/CutsLibrary.cxx":       {{Cuts, reName}},
	"PWGDQ/Core/MCSignalLibrary.cxx":   {{MCSignals, reName}},
	"PWGDQ/Core/MixingLibrary.cxx":     {{Mixing, reName}},
	"PWGDQ/Core/HistogramsLibrary.cxx": {{Histograms, reGroup}, {HistogramSubgroups, reSubGroup}},
}

// Kinds returns every known kind.
func Kinds() []Kind {
	return []Kind{Cuts, MCSignals, Mixing, Histograms, HistogramSubgroups}
}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", ErrUnknownKind.New(s)
}

// Library holds sorted, unique names per kind.
type Library struct {
	Ref   string            `yaml:"ref,omitempty"`
	Names map[Kind][]string `yaml:"names"`
}

// New returns an empty library.
func New() *Library {
	return &Library{Names: make(map[Kind][]string)}
}

// Fetch downloads the library sources and extracts their names.
func Fetch(ctx context.Context, f upstream.Fetcher, ref string) (*Library, error) {
	paths := make([]string, 0, len(Sources))
	for p := range Sources {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	files, err := upstream.FetchAll(ctx, f, paths)
	if err != nil {
		return nil, err
	}
	lib := New()
	lib.Ref = ref
	for _, p := range paths {
		lib.Extract(p, files[p])
	}
	return lib, nil
}

// Extract adds the names found in the text of one library source file.
func (l *Library) Extract(path, text string) {
	for _, e := range Sources[path] {
		for _, m := range e.re.FindAllStringSubmatch(text, -1) {
			l.Add(e.kind, m[1])
		}
	}
}

// Add inserts names keeping the list sorted and unique.
func (l *Library) Add(kind Kind, names ...string) {
	list := l.Names[kind]
	for _, n := range names {
		i := sort.SearchStrings(list, n)
		if i < len(list) && list[i] == n {
			continue
		}
		list = append(list, "")
		copy(list[i+1:], list[i:])
		list[i] = n
	}
	l.Names[kind] = list
}

// Has reports whether name is defined for kind.
func (l *Library) Has(kind Kind, name string) bool {
	list := l.Names[kind]
	i := sort.SearchStrings(list, name)
	return i < len(list) && list[i] == name
}

// Unknown returns the names that kind does not define, in input order. An empty library knows
// nothing and reports nothing.
func (l *Library) Unknown(kind Kind, names []string) []string {
	if l == nil || len(l.Names[kind]) == 0 {
		return nil
	}
	var out []string
	for _, n := range names {
		if !l.Has(kind, n) {
			out = append(out, n)
		}
	}
	return out
}

// Load reads a library cache file.
func Load(path string) (*Library, error) {
	data, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrLibraryNotFound.New(path)
	} else if err != nil {
		return nil, err
	}
	lib := New()
	if err := yaml.Unmarshal(data, lib); err != nil {
		return nil, ErrMalformedCache.Wrap(err, path)
	}
	if lib.Names == nil {
		lib.Names = make(map[Kind][]string)
	}
	for k, list := range lib.Names {
		sort.Strings(list)
		lib.Names[k] = list
	}
	return lib, nil
}

// Save writes the library cache file.
func (l *Library) Save(path string) error {
	data, err := yaml.Marshal(l)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return atomicfile.WriteData(path, data, 0644)
}

// CachePath returns the library cache location inside a cache directory.
func CachePath(dir string) string {
	return filepath.Join(dir, CacheFile)
}

// StripMask removes the ":mask" suffix selections carry, "jpsiCut:101" -> "jpsiCut".
func StripMask(s string) string {
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[:i]
	}
	return s
}
