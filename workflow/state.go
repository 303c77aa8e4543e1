package workflow

import (
	"strings"

	"github.com/dqworkflows/o2dq/config"
)

// State is what conditions are evaluated against.
type State struct {
	Config *config.Object
	// Flags holds the boolean command line flags, such as add_mc_conv.
	Flags map[string]bool
	// Tasks are the main tasks of the workflow.
	Tasks []string
}

// Holds evaluates a condition.
func (s State) Holds(c Condition) bool {
	if c.IsZero() || c.Always {
		return true
	}
	if c.Flag != "" && s.Flags[c.Flag] {
		return true
	}
	if len(c.Process) != 0 {
		for _, task := range s.Tasks {
			for _, p := range EnabledProcesses(s.Config, task) {
				for _, sub := range c.Process {
					if strings.Contains(p, sub) {
						return true
					}
				}
			}
		}
	}
	if c.Task != "" && len(EnabledProcesses(s.Config, c.Task)) != 0 {
		return true
	}
	return false
}

// EnabledProcesses lists the process functions of a task switched on in cfg.
func EnabledProcesses(cfg *config.Object, task string) []string {
	t, ok := cfg.Object(task)
	if !ok {
		return nil
	}
	var out []string
	for _, k := range t.Keys() {
		if !IsProcess(k) {
			continue
		}
		if v, _ := t.Get(k); config.String(v) == "true" {
			out = append(out, k)
		}
	}
	return out
}

// Enabled returns the dependencies of w, then the converters of c, that the state switches on.
// An executable appears once.
func (s State) Enabled(c *Catalogue, w *Workflow) []Dependency {
	seen := map[string]bool{w.Executable: true}
	var out []Dependency
	for _, list := range [][]Dependency{w.Dependencies, c.Converters} {
		for _, d := range list {
			if seen[d.Executable] || !s.Holds(d.When) {
				continue
			}
			seen[d.Executable] = true
			out = append(out, d)
		}
	}
	return out
}

// Tracks tells whether barrel tracks and muons are processed, looking at the enabled process
// functions of the main tasks and at the Barrel and Muon conditions of w.
func (s State) Tracks(w *Workflow) (barrel, muon bool) {
	for _, task := range s.Tasks {
		for _, p := range EnabledProcesses(s.Config, task) {
			if strings.Contains(p, "Full") {
				return true, true
			}
			barrel = barrel || strings.Contains(p, "Barrel")
			muon = muon || strings.Contains(p, "Muon")
		}
	}
	if !w.Barrel.IsZero() {
		barrel = barrel || s.Holds(w.Barrel)
	}
	if !w.Muon.IsZero() {
		muon = muon || s.Holds(w.Muon)
	}
	return barrel, muon
}
