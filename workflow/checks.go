package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/src-d/go-errors.v1"

	"github.com/dqworkflows/o2dq/config"
	"github.com/dqworkflows/o2dq/dqlib"
)

var (
	ErrAODPath              = errors.NewKind("invalid AO2D input %s: must be an existing .root file or .txt list")
	ErrFileNotFound         = errors.NewKind("%s file %s not found")
	ErrEnvironment          = errors.NewKind("%s is not set, load the O2Physics environment first")
	ErrDependencyMissing    = errors.NewKind("task %s needed by %s is missing from the configuration")
	ErrMandatoryArg         = errors.NewKind("%s must be set: %s")
	ErrMismatchedSelections = errors.NewKind("selections %s do not match cuts %s: %s")
)

// RequiredEnv must be set to run the executables.
const RequiredEnv = "O2PHYSICS_ROOT"

// ReportedEnv are only reported.
var ReportedEnv = []string{"O2_ROOT", "O2DPG_ROOT", "QUALITYCONTROL_ROOT"}

// CheckAOD validates an AO2D input and returns how the reader must reference it: a .root file
// as is, a .txt list as @path.
func CheckAOD(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", ErrAODPath.New(path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".root":
		return path, nil
	case ".txt":
		return "@" + path, nil
	}
	return "", ErrAODPath.New(path)
}

// CheckJSONFile validates a writer or reader descriptor path.
func CheckJSONFile(kind, path string) error {
	if !config.IsJSON(path) {
		return config.ErrNotJSON.New(path)
	}
	if _, err := os.Stat(path); err != nil {
		return ErrFileNotFound.New(kind, path)
	}
	return nil
}

// CheckEnvironment returns which of the O2 environment variables are set. RequiredEnv must be
// set when the command is going to be executed.
func CheckEnvironment(getenv func(string) string, execute bool) (map[string]bool, error) {
	env := make(map[string]bool)
	for _, name := range append([]string{RequiredEnv}, ReportedEnv...) {
		env[name] = getenv(name) != ""
	}
	if execute && !env[RequiredEnv] {
		return env, ErrEnvironment.New(RequiredEnv)
	}
	return env, nil
}

// CheckDependencies makes sure the task of every dependency is configured. Missing tasks are
// copied from latest when it has them; the copied task names are returned.
func CheckDependencies(cfg *config.Object, deps []Dependency, latest *config.Object) ([]string, error) {
	var added []string
	for _, d := range deps {
		if d.Task == "" || cfg.Has(d.Task) {
			continue
		}
		if latest == nil {
			return added, ErrDependencyMissing.New(d.Task, d.Executable)
		}
		t, ok := latest.Object(d.Task)
		if !ok {
			return added, ErrDependencyMissing.New(d.Task, d.Executable)
		}
		cfg.Set(d.Task, t.Clone())
		added = append(added, d.Task)
	}
	return added, nil
}

// CheckRequirements fails on the first enabled requirement whose configurable is empty.
func CheckRequirements(s State, reqs []Requirement) error {
	for _, r := range reqs {
		if !s.Holds(r.When) {
			continue
		}
		k := config.Key{Task: r.Task, Name: r.Key}
		if v, _ := config.Leaf(s.Config, k); strings.TrimSpace(v) == "" {
			msg := r.Message
			if msg == "" {
				msg = "required by the enabled process functions"
			}
			return ErrMandatoryArg.New(k, msg)
		}
	}
	return nil
}

// CheckSelections verifies that every "cut:mask" selection entry names a cut of the matching
// list and that both lists have the same size. Selections that are empty or whose cut list is
// not configured are skipped.
func CheckSelections(cfg *config.Object, sels []Selection) error {
	for _, s := range sels {
		k := config.Key{Task: s.Task, Name: s.Key}
		v, ok := config.Leaf(cfg, k)
		entries := config.SplitValues(v)
		if !ok || len(entries) == 0 {
			continue
		}
		against, ok := config.Leaf(cfg, s.Against)
		if !ok {
			continue
		}
		cuts := config.SplitValues(against)

		known := make(map[string]bool, len(cuts))
		for _, c := range cuts {
			known[c] = true
		}
		for _, e := range entries {
			if name := dqlib.StripMask(e); !known[name] {
				return ErrMismatchedSelections.New(k, s.Against, fmt.Sprintf("%s is not a selected cut", name))
			}
		}
		if len(entries) != len(cuts) {
			return ErrMismatchedSelections.New(k, s.Against,
				fmt.Sprintf("%d selections for %d cuts", len(entries), len(cuts)))
		}
	}
	return nil
}

// CheckLibraryNames returns a warning for every value of a library configurable that the DQ
// library does not define.
func CheckLibraryNames(cfg *config.Object, w *Workflow, lib *dqlib.Library) []string {
	var warnings []string
	check := func(k config.Key, kind dqlib.Kind) {
		v, ok := config.Leaf(cfg, k)
		if !ok {
			return
		}
		var names []string
		for _, n := range config.SplitValues(v) {
			names = append(names, dqlib.StripMask(n))
		}
		for _, n := range lib.Unknown(kind, names) {
			warnings = append(warnings, fmt.Sprintf("%s: %q is not in the DQ %s library", k, n, kind))
		}
	}
	for _, l := range w.Libraries {
		check(config.Key{Task: l.Task, Name: l.Key}, l.Kind)
	}
	for _, s := range w.Selections {
		check(config.Key{Task: s.Task, Name: s.Key}, dqlib.Cuts)
	}
	return warnings
}
