package workflow

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/jessevdk/go-flags"

	"github.com/dqworkflows/o2dq/config"
	"github.com/dqworkflows/o2dq/dqlib"
)

var booleans = []string{"true", "false"}

// Override is the value of one --task:configurable option. Repeated and comma separated values
// accumulate.
type Override struct {
	key       config.Key
	current   string
	values    []string
	set       bool
	completer flags.Completer
}

var (
	_ flags.Unmarshaler = (*Override)(nil)
	_ flags.Marshaler   = (*Override)(nil)
	_ flags.Completer   = (*Override)(nil)
)

func (o *Override) Key() config.Key { return o.key }

// IsSet reports whether the option was given.
func (o *Override) IsSet() bool { return o.set }

// Value returns the given values joined with commas.
func (o *Override) Value() string { return config.JoinValues(o.values) }

func (o *Override) UnmarshalFlag(value string) error {
	o.set = true
	o.values = append(o.values, config.SplitValues(value)...)
	return nil
}

// MarshalFlag shows the value of the loaded configuration as the option default.
func (o *Override) MarshalFlag() (string, error) {
	return o.current, nil
}

func (o *Override) Complete(match string) []flags.Completion {
	if o.completer == nil {
		return nil
	}
	return o.completer.Complete(match)
}

// Options are the --task:configurable options of one configuration.
type Options struct {
	Overrides []*Override
	group     reflect.Value
}

// NewOptions creates one option per configurable of cfg. Names of the DQ library complete the
// configurables w marks; process switches complete true and false.
func NewOptions(cfg *config.Object, w *Workflow, lib *dqlib.Library) *Options {
	o := &Options{}
	var fields []reflect.StructField
	for _, task := range cfg.Keys() {
		t, ok := cfg.Object(task)
		if !ok {
			continue
		}
		for _, name := range t.Keys() {
			v, _ := t.Get(name)
			ov := &Override{key: config.Key{Task: task, Name: name}, current: current(v)}

			var desc string
			switch kind, ok := w.LibraryKind(ov.key); {
			case IsProcess(name):
				desc = fmt.Sprintf("process function switch of %s", task)
				ov.completer = choices(booleans)
			case ok:
				desc = fmt.Sprintf("%s of %s, from the DQ library", kind, task)
				if lib != nil {
					ov.completer = dqlib.Completer{Library: lib, Kind: kind}
				}
			default:
				desc = fmt.Sprintf("configurable of %s", task)
			}

			tag := fmt.Sprintf(`long:%s description:%s value-name:"VALUE"`,
				strconv.Quote(ov.key.String()), strconv.Quote(desc))
			fields = append(fields, reflect.StructField{
				Name: fmt.Sprintf("Opt%d", len(fields)),
				Type: reflect.TypeOf(ov),
				Tag:  reflect.StructTag(tag),
			})
			o.Overrides = append(o.Overrides, ov)
		}
	}

	o.group = reflect.New(reflect.StructOf(fields))
	for i, ov := range o.Overrides {
		o.group.Elem().Field(i).Set(reflect.ValueOf(ov))
	}
	return o
}

// current renders a configuration value as an option value.
func current(v interface{}) string {
	if obj, ok := v.(*config.Object); ok {
		if values, ok := obj.Get("values"); ok {
			if list, ok := values.([]interface{}); ok {
				s := make([]string, 0, len(list))
				for _, e := range list {
					s = append(s, config.String(e))
				}
				return config.JoinValues(s)
			}
		}
	}
	return config.String(v)
}

// Group returns the data to register with flags.Parser.AddGroup.
func (o *Options) Group() interface{} {
	return o.group.Interface()
}

// Assignments returns the options given on the command line.
func (o *Options) Assignments() []Assignment {
	var out []Assignment
	for _, ov := range o.Overrides {
		if ov.set {
			out = append(out, Assignment{Key: ov.key, Value: ov.Value()})
		}
	}
	return out
}

type choices []string

func (c choices) Complete(match string) []flags.Completion {
	return dqlib.CompleteList(c, match)
}
