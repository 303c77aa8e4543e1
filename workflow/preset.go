package workflow

import (
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/ghodss/yaml"
	"gopkg.in/src-d/go-errors.v1"

	"github.com/dqworkflows/o2dq/config"
)

var ErrMalformedPreset = errors.NewKind("malformed preset %s")

// LoadPreset reads a task -> configurable -> value tree from a YAML or JSON file and returns it
// as assignments. List values are joined with commas.
func LoadPreset(path string) ([]Assignment, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yml" || ext == ".yaml" {
		if data, err = yaml.YAMLToJSON(data); err != nil {
			return nil, ErrMalformedPreset.Wrap(err, path)
		}
	}
	tree, err := config.Parse(data)
	if err != nil {
		return nil, ErrMalformedPreset.Wrap(err, path)
	}

	var out []Assignment
	for _, task := range tree.Keys() {
		t, ok := tree.Object(task)
		if !ok {
			return nil, ErrMalformedPreset.New(path + ": " + task + " is not a mapping")
		}
		for _, name := range t.Keys() {
			v, _ := t.Get(name)
			out = append(out, Assignment{
				Key:   config.Key{Task: task, Name: name},
				Value: presetValue(v),
			})
		}
	}
	return out, nil
}

func presetValue(v interface{}) string {
	list, ok := v.([]interface{})
	if !ok {
		return current(v)
	}
	s := make([]string, 0, len(list))
	for _, e := range list {
		s = append(s, config.String(e))
	}
	return config.JoinValues(s)
}
