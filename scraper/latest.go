package scraper

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/dqworkflows/o2dq/config"
)

// TaskName derives the default task name O2 gives a struct: every upper case letter is lowered
// and, except at the start, preceded by a dash.
//
//	DQEventSelectionTask -> d-q-event-selection-task
func TaskName(structName string) string {
	var b strings.Builder
	for i, r := range structName {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('-')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Latest builds the configuration tree O2 would dump for the tasks bound in the given sources:
// one object per task, configurables first in declaration order, then the process switches.
// When several sources bind the same task name the first one wins.
func Latest(sources ...*Source) *config.Object {
	out := config.NewObject()
	for _, src := range sources {
		for _, b := range src.Bindings {
			if out.Has(b.Task) {
				continue
			}
			st := src.Struct(b.Struct)
			if st == nil {
				continue
			}
			out.Set(b.Task, st.tree(b))
		}
	}
	return out
}

func (st *Struct) tree(b Binding) *config.Object {
	task := config.NewObject()
	for _, c := range st.Configurables {
		if task.Has(c.Key) {
			continue
		}
		if obj, ok := c.Default.(*config.Object); ok {
			task.Set(c.Key, obj.Clone())
		} else {
			task.Set(c.Key, c.Default)
		}
	}
	for _, p := range st.ProcessSwitches {
		def := p.Default
		if v, ok := b.DefaultProcesses[p.Function]; ok {
			def = v
		}
		task.Set(p.Function, strconv.FormatBool(def))
	}
	return task
}
