package config

import (
	"path"
)

// Keep lists the keys that survive a migration even when the latest reference does not know
// them. Entries are shell patterns as understood by path.Match, so "internal-dpl-*" keeps every
// DPL internal section.
type Keep struct {
	Parents []string `toml:"keep_parents" yaml:"keep_parents"`
	Subkeys []string `toml:"keep_subkeys" yaml:"keep_subkeys"`
}

// Report describes what a migration changed.
type Report struct {
	// Added keys come from the latest reference and were missing from the old configuration.
	Added []Key
	// Deprecated keys were present in the old configuration and are gone upstream.
	Deprecated []Key
}

// Changed reports whether the migration added or removed anything.
func (r *Report) Changed() bool {
	return len(r.Added) != 0 || len(r.Deprecated) != 0
}

// Merge overlays next onto old. For keys present in both, old values are kept; when both
// values are objects they are merged recursively. Keys only present in next are appended.
// Neither input is modified.
func Merge(old, next *Object) *Object {
	out := old.Clone()
	if out == nil {
		out = NewObject()
	}
	for _, k := range next.Keys() {
		nv, _ := next.Get(k)
		ov, ok := out.Get(k)
		if !ok {
			out.Set(k, cloneValue(nv))
			continue
		}
		oo, ok1 := ov.(*Object)
		no, ok2 := nv.(*Object)
		if ok1 && ok2 {
			out.Set(k, Merge(oo, no))
		}
	}
	return out
}

// RemoveUnmatched deletes from data every key that reference does not have, recursively for
// nested objects. Tasks matching keepParents are left untouched, keys matching keepSubkeys are kept
// at any depth. The deleted keys are returned in the order they were found; nested configurables
// are named by their dot separated path, as on the O2 command line.
func RemoveUnmatched(data, reference *Object, keepParents, keepSubkeys []string) []Key {
	var removed []Key
	for _, task := range data.Keys() {
		if matchAny(keepParents, task) {
			continue
		}
		rv, ok := reference.Get(task)
		if !ok {
			data.Delete(task)
			removed = append(removed, Key{Task: task})
			continue
		}
		ref, ok1 := rv.(*Object)
		sub, ok2 := data.Object(task)
		if !ok1 || !ok2 {
			continue
		}
		for _, name := range removeUnmatched(sub, ref, keepSubkeys, "") {
			removed = append(removed, Key{Task: task, Name: name})
		}
	}
	return removed
}

func removeUnmatched(data, reference *Object, keep []string, prefix string) []string {
	var removed []string
	for _, name := range data.Keys() {
		if matchAny(keep, name) {
			continue
		}
		rv, ok := reference.Get(name)
		if !ok {
			data.Delete(name)
			removed = append(removed, prefix+name)
			continue
		}
		ref, ok1 := rv.(*Object)
		sub, ok2 := data.Object(name)
		if ok1 && ok2 {
			removed = append(removed, removeUnmatched(sub, ref, keep, prefix+name+".")...)
		}
	}
	return removed
}

// Align returns a copy of data where the keys shared with reference follow the order of
// reference, recursively. Keys that reference does not have stay right after the shared key that
// preceded them in data.
func Align(reference, data *Object) *Object {
	anchored := make(map[string][]string)
	anchor := ""
	for _, k := range data.Keys() {
		if reference.Has(k) {
			anchor = k
			continue
		}
		anchored[anchor] = append(anchored[anchor], k)
	}

	out := NewObject()
	emit := func(anchor string) {
		for _, k := range anchored[anchor] {
			v, _ := data.Get(k)
			out.Set(k, cloneValue(v))
		}
	}
	emit("")
	for _, k := range reference.Keys() {
		dv, ok := data.Get(k)
		if !ok {
			continue
		}
		rv, _ := reference.Get(k)
		ro, ok1 := rv.(*Object)
		do, ok2 := dv.(*Object)
		if ok1 && ok2 {
			out.Set(k, Align(ro, do))
		} else {
			out.Set(k, cloneValue(dv))
		}
		emit(k)
	}
	return out
}

// SortAndAddNewTasks aligns data on reference and inserts every task of reference that data
// lacks at the position it has in reference.
func SortAndAddNewTasks(reference, data *Object) *Object {
	out := Align(reference, data)
	refKeys := reference.Keys()
	for i, k := range refKeys {
		if out.Has(k) {
			continue
		}
		pos := 0
		for j := i - 1; j >= 0; j-- {
			if p := out.Index(refKeys[j]); p >= 0 {
				pos = p + 1
				break
			}
		}
		v, _ := reference.Get(k)
		out.Insert(pos, k, cloneValue(v))
	}
	return out
}

// Migrate brings an old configuration forward to the latest upstream task set:
//
//  1. old and latest are merged, old values win;
//  2. keys unknown to latest are dropped unless listed in keep;
//  3. the result is ordered after latest, kept keys staying where they were in old.
func Migrate(old, latest *Object, keep Keep) (*Object, *Report) {
	merged := Merge(old, latest)
	deprecated := RemoveUnmatched(merged, latest, keep.Parents, keep.Subkeys)
	out := SortAndAddNewTasks(latest, merged)
	return out, &Report{
		Added:      missing(old, latest),
		Deprecated: deprecated,
	}
}

// missing lists the tasks and configurables of next that old does not have.
func missing(old, next *Object) []Key {
	var keys []Key
	for _, task := range next.Keys() {
		if !old.Has(task) {
			keys = append(keys, Key{Task: task})
			continue
		}
		oo, ok1 := old.Object(task)
		no, ok2 := next.Object(task)
		if !ok1 || !ok2 {
			continue
		}
		for _, name := range no.Keys() {
			if !oo.Has(name) {
				keys = append(keys, Key{Task: task, Name: name})
			}
		}
	}
	return keys
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, err := path.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}
