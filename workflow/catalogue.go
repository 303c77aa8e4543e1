// Package workflow describes the DQ analysis workflows: which executables they run, how their
// JSON configuration is overridden from the command line, which consistency checks apply and how
// the final command line is assembled.
package workflow

import (
	_ "embed"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/blang/semver"
	"gopkg.in/src-d/go-errors.v1"
	"gopkg.in/yaml.v2"

	"github.com/dqworkflows/o2dq/config"
	"github.com/dqworkflows/o2dq/dqlib"
)

// CatalogueMajor is the catalogue format major version this build understands.
const CatalogueMajor = 1

//go:embed workflows.yml
var builtin []byte

var (
	ErrCatalogueVersion = errors.NewKind("catalogue version %s is not supported, expected %d.x.x")
	ErrInvalidCatalogue = errors.NewKind("invalid catalogue: %s")
	ErrUnknownWorkflow  = errors.NewKind("unknown workflow %q")
)

// Condition enables a dependency or a requirement. It holds when any of its fields holds; a zero
// Condition always holds.
type Condition struct {
	Always bool `yaml:"always,omitempty"`
	// Flag is the name of a boolean command line flag, such as add_mc_conv.
	Flag string `yaml:"flag,omitempty"`
	// Process holds when an enabled process function of the main tasks contains one of the
	// substrings.
	Process []string `yaml:"process,omitempty"`
	// Task holds when the named task has an enabled process function.
	Task string `yaml:"task,omitempty"`
}

// IsZero reports whether no field of the condition is set.
func (c Condition) IsZero() bool {
	return !c.Always && c.Flag == "" && len(c.Process) == 0 && c.Task == ""
}

// Dependency is an executable run in the same pipeline as the workflow.
type Dependency struct {
	Executable string `yaml:"executable"`
	// Task must be present in the configuration when the dependency runs; it may be empty.
	Task    string    `yaml:"task,omitempty"`
	Sources []string  `yaml:"sources,omitempty"`
	When    Condition `yaml:"when,omitempty"`
}

// Requirement makes a configurable mandatory.
type Requirement struct {
	When    Condition `yaml:"when,omitempty"`
	Task    string    `yaml:"task"`
	Key     string    `yaml:"key"`
	Message string    `yaml:"message,omitempty"`
}

// Selection is a list of "cut:mask" entries that must match, one to one, the cut list of Against.
type Selection struct {
	Task    string     `yaml:"task"`
	Key     string     `yaml:"key"`
	Against config.Key `yaml:"against"`
}

// Library marks a configurable holding names of a DQ library.
type Library struct {
	Task string     `yaml:"task"`
	Key  string     `yaml:"key"`
	Kind dqlib.Kind `yaml:"kind"`
}

// Workflow is one analysis executable and everything it runs with.
type Workflow struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Executable  string `yaml:"executable"`
	// Config is the file the overridden configuration is written to.
	Config  string   `yaml:"config"`
	Sources []string `yaml:"sources"`
	// Tasks are the tasks of the executable itself.
	Tasks []string `yaml:"tasks"`
	// Writer and Reader tell whether the executable writes or reads reduced tables.
	Writer bool `yaml:"writer,omitempty"`
	Reader bool `yaml:"reader,omitempty"`
	MC     bool `yaml:"mc,omitempty"`
	// Barrel and Muon tell when the executable processes barrel tracks or muons, on top of the
	// process names that say so.
	Barrel Condition `yaml:"barrel,omitempty"`
	Muon   Condition `yaml:"muon,omitempty"`

	Dependencies []Dependency  `yaml:"dependencies,omitempty"`
	Requirements []Requirement `yaml:"requirements,omitempty"`
	Selections   []Selection   `yaml:"selections,omitempty"`
	Libraries    []Library     `yaml:"libraries,omitempty"`
}

// AllSources lists the sources of the workflow and of its dependencies, without duplicates.
func (w *Workflow) AllSources() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(paths []string) {
		for _, p := range paths {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	add(w.Sources)
	for _, d := range w.Dependencies {
		add(d.Sources)
	}
	return out
}

// LibraryKind returns the DQ library kind of a configurable, if any.
func (w *Workflow) LibraryKind(k config.Key) (dqlib.Kind, bool) {
	for _, l := range w.Libraries {
		if l.Task == k.Task && l.Key == k.Name {
			return l.Kind, true
		}
	}
	for _, s := range w.Selections {
		if s.Task == k.Task && s.Key == k.Name {
			return dqlib.Cuts, true
		}
	}
	return "", false
}

// Catalogue is the list of known workflows.
type Catalogue struct {
	Version    string       `yaml:"version"`
	Converters []Dependency `yaml:"converters,omitempty"`
	Workflows  []*Workflow  `yaml:"workflows"`
}

// Lookup returns the workflow with the given name.
func (c *Catalogue) Lookup(name string) (*Workflow, error) {
	for _, w := range c.Workflows {
		if w.Name == name {
			return w, nil
		}
	}
	return nil, ErrUnknownWorkflow.New(name)
}

// Builtin returns the catalogue shipped with the binary.
func Builtin() *Catalogue {
	c, err := ParseCatalogue(builtin)
	if err != nil {
		panic(err)
	}
	return c
}

// LoadCatalogue reads a catalogue file; an empty path returns the built-in one.
func LoadCatalogue(path string) (*Catalogue, error) {
	if path == "" {
		return Builtin(), nil
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalogue(data)
}

// ParseCatalogue decodes and validates a catalogue.
func ParseCatalogue(data []byte) (*Catalogue, error) {
	var c Catalogue
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return nil, ErrInvalidCatalogue.Wrap(err, "decoding")
	}

	v, err := semver.Parse(c.Version)
	if err != nil {
		return nil, ErrInvalidCatalogue.Wrap(err, "version")
	}
	if v.Major != CatalogueMajor {
		return nil, ErrCatalogueVersion.New(c.Version, CatalogueMajor)
	}

	seen := make(map[string]bool)
	for _, w := range c.Workflows {
		switch {
		case w.Name == "":
			return nil, ErrInvalidCatalogue.New("workflow without a name")
		case seen[w.Name]:
			return nil, ErrInvalidCatalogue.New("duplicated workflow " + w.Name)
		case w.Executable == "":
			return nil, ErrInvalidCatalogue.New("workflow " + w.Name + " has no executable")
		case w.Config == "" || !config.IsJSON(w.Config):
			return nil, ErrInvalidCatalogue.New("workflow " + w.Name + " needs a .json config file")
		}
		seen[w.Name] = true
		for _, l := range w.Libraries {
			if _, err := dqlib.ParseKind(string(l.Kind)); err != nil {
				return nil, ErrInvalidCatalogue.Wrap(err, "workflow "+w.Name)
			}
		}
	}
	return &c, nil
}

// LatestPath is where the latest upstream configuration of a workflow is cached.
func LatestPath(cacheDir, workflow string) string {
	return filepath.Join(cacheDir, "latest", workflow+config.Extension)
}

// IsProcess reports whether a configurable is a process function switch.
func IsProcess(key string) bool {
	return strings.HasPrefix(key, "process")
}
