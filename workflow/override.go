package workflow

import (
	"gopkg.in/src-d/go-errors.v1"

	"github.com/dqworkflows/o2dq/config"
)

var (
	ErrTaskNotFound         = errors.NewKind("task %s not found in the configuration")
	ErrConfigurableNotFound = errors.NewKind("configurable %s not found in the configuration")
)

// Policy decides what happens to the process functions that are not overridden.
type Policy int

const (
	// OnlySelect switches off every process function of a task that gets one switched on.
	OnlySelect Policy = iota
	// OverrideOnly changes the given keys and nothing else.
	OverrideOnly
)

func (p Policy) String() string {
	if p == OverrideOnly {
		return "override"
	}
	return "only-select"
}

// Assignment sets one configurable. Value is comma separated for list configurables.
type Assignment struct {
	Key   config.Key
	Value string
}

// Apply writes assignments into cfg. Every key must already exist.
func Apply(cfg *config.Object, assignments []Assignment, policy Policy) error {
	selected := make(map[string]map[string]bool)
	for _, a := range assignments {
		t, ok := cfg.Object(a.Key.Task)
		if !ok {
			return ErrTaskNotFound.New(a.Key.Task)
		}
		if !t.Has(a.Key.Name) {
			return ErrConfigurableNotFound.New(a.Key.String())
		}
		if IsProcess(a.Key.Name) && a.Value == "true" {
			if selected[a.Key.Task] == nil {
				selected[a.Key.Task] = make(map[string]bool)
			}
			selected[a.Key.Task][a.Key.Name] = true
		}
	}

	if policy == OnlySelect {
		for task, names := range selected {
			t, _ := cfg.Object(task)
			for _, k := range t.Keys() {
				if IsProcess(k) && !names[k] {
					t.Set(k, "false")
				}
			}
		}
	}

	for _, a := range assignments {
		t, _ := cfg.Object(a.Key.Task)
		old, _ := t.Get(a.Key.Name)
		t.Set(a.Key.Name, assign(old, a.Value))
	}
	return nil
}

// assign keeps the shape of the old value: {"values": [...]} objects get a new list.
func assign(old interface{}, value string) interface{} {
	obj, ok := old.(*config.Object)
	if !ok || !obj.Has("values") {
		return value
	}
	values := []interface{}{}
	for _, v := range config.SplitValues(value) {
		values = append(values, v)
	}
	out := obj.Clone()
	out.Set("values", values)
	return out
}
