// Package config handles O2 JSON configuration files: a two level mapping from task names to
// configurable names to (mostly string) values.
package config

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/creachadair/atomicfile"
	"gopkg.in/src-d/go-errors.v1"
)

// Extension is the only accepted extension for configuration files.
const Extension = ".json"

var (
	// ErrNotJSON is returned when a configuration path does not point to a JSON file.
	ErrNotJSON = errors.NewKind("%s: configuration file must be in JSON format")
	// ErrConfigNotFound is returned when a configuration file does not exist.
	ErrConfigNotFound = errors.NewKind("%s: configuration file not found")
	// ErrMalformedConfig is returned when a configuration file cannot be decoded.
	ErrMalformedConfig = errors.NewKind("%s: malformed JSON configuration")
)

// Key addresses a task or, when Name is set, one configurable of a task.
type Key struct {
	Task string `yaml:"task" json:"task"`
	Name string `yaml:"key,omitempty" json:"key,omitempty"`
}

func (k Key) String() string {
	if k.Name == "" {
		return k.Task
	}
	return k.Task + ":" + k.Name
}

// ParseKey splits "task:configurable". A string without a colon addresses a task.
func ParseKey(s string) Key {
	i := strings.Index(s, ":")
	if i < 0 {
		return Key{Task: s}
	}
	return Key{Task: s[:i], Name: s[i+1:]}
}

// IsJSON reports whether path has the configuration file extension.
func IsJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), Extension)
}

// Load reads a configuration file.
func Load(path string) (*Object, error) {
	if !IsJSON(path) {
		return nil, ErrNotJSON.New(path)
	}
	data, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrConfigNotFound.New(path)
	} else if err != nil {
		return nil, err
	}
	obj, err := Parse(data)
	if err != nil {
		return nil, ErrMalformedConfig.Wrap(err, path)
	}
	return obj, nil
}

// Parse decodes a configuration from JSON.
func Parse(data []byte) (*Object, error) {
	obj := NewObject()
	if err := json.Unmarshal(data, obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// Marshal returns the canonical encoding of a configuration: two spaces of indentation and a
// trailing newline.
func Marshal(obj *Object) ([]byte, error) {
	raw, err := obj.MarshalJSON()
	if err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(nil)
	if err := json.Indent(buf, raw, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Save writes the configuration to path. The file is replaced atomically, so readers never
// observe a partially written configuration.
func Save(path string, obj *Object) error {
	data, err := Marshal(obj)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return atomicfile.WriteData(path, data, 0644)
}

// SplitValues splits a comma separated list value, dropping empty elements.
func SplitValues(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// JoinValues is the inverse of SplitValues.
func JoinValues(values []string) string {
	return strings.Join(values, ",")
}

// Leaf returns the string form of the configurable addressed by k.
func Leaf(cfg *Object, k Key) (string, bool) {
	task, ok := cfg.Object(k.Task)
	if !ok {
		return "", false
	}
	v, ok := task.Get(k.Name)
	if !ok {
		return "", false
	}
	return String(v), true
}
