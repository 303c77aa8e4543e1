package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Object is a JSON object that keeps the order of its keys. O2 configuration files are edited by
// hand and diffed, so the order in which tasks and configurables appear is preserved on load and
// on save.
//
// Values are one of: string, json.Number, bool, nil, []interface{} or *Object.
type Object struct {
	keys   []string
	values map[string]interface{}
}

// NewObject creates an empty object.
func NewObject() *Object {
	return &Object{values: make(map[string]interface{})}
}

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys returns a copy of the keys in their current order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	keys := make([]string, len(o.keys))
	copy(keys, o.keys)
	return keys
}

// Has reports whether the key is present.
func (o *Object) Has(key string) bool {
	if o == nil {
		return false
	}
	_, ok := o.values[key]
	return ok
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (interface{}, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[key]
	return v, ok
}

// Object returns the child object stored under key, if any.
func (o *Object) Object(key string) (*Object, bool) {
	v, ok := o.Get(key)
	if !ok {
		return nil, false
	}
	child, ok := v.(*Object)
	return child, ok
}

// Index returns the position of key, or -1.
func (o *Object) Index(key string) int {
	if !o.Has(key) {
		return -1
	}
	for i, k := range o.keys {
		if k == key {
			return i
		}
	}
	return -1
}

// Set stores the value under key. New keys are appended, existing keys keep their position.
func (o *Object) Set(key string, value interface{}) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Insert stores the value under key at the given position. An existing key is moved.
func (o *Object) Insert(pos int, key string, value interface{}) {
	o.Delete(key)
	if pos < 0 {
		pos = 0
	}
	if pos > len(o.keys) {
		pos = len(o.keys)
	}
	o.keys = append(o.keys, "")
	copy(o.keys[pos+1:], o.keys[pos:])
	o.keys[pos] = key
	o.values[key] = value
}

// Delete removes key and reports whether it was present.
func (o *Object) Delete(key string) bool {
	i := o.Index(key)
	if i < 0 {
		return false
	}
	o.keys = append(o.keys[:i], o.keys[i+1:]...)
	delete(o.values, key)
	return true
}

// Clone returns a deep copy of the object.
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	c := NewObject()
	for _, k := range o.keys {
		c.Set(k, cloneValue(o.values[k]))
	}
	return c
}

func cloneValue(v interface{}) interface{} {
	switch v := v.(type) {
	case *Object:
		return v.Clone()
	case []interface{}:
		arr := make([]interface{}, len(v))
		for i, e := range v {
			arr[i] = cloneValue(e)
		}
		return arr
	default:
		return v
	}
}

// SortedKeys returns the keys in lexical order. Used for stable listings only, never for output
// files.
func (o *Object) SortedKeys() []string {
	keys := o.Keys()
	sort.Strings(keys)
	return keys
}

// MarshalJSON writes the object in key order without HTML escaping.
func (o *Object) MarshalJSON() ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := writeValue(buf, o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping the key order. Numbers are kept as json.Number so
// they are written back exactly as they were read.
func (o *Object) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected a JSON object, got %v", tok)
	}
	obj, err := decodeObject(dec)
	if err != nil {
		return err
	}
	*o = *obj
	return nil
}

func decodeObject(dec *json.Decoder) (*Object, error) {
	o := NewObject()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		o.Set(key, v)
	}
	// closing brace
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return o, nil
}

func decodeArray(dec *json.Decoder) ([]interface{}, error) {
	arr := make([]interface{}, 0)
	for dec.More() {
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return arr, nil
}

func decodeValue(dec *json.Decoder) (interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	d, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch d {
	case '{':
		return decodeObject(dec)
	case '[':
		return decodeArray(dec)
	}
	return nil, fmt.Errorf("unexpected delimiter %v", d)
}

func writeValue(buf *bytes.Buffer, v interface{}) error {
	switch v := v.(type) {
	case nil:
		buf.WriteString("null")
	case *Object:
		if v == nil {
			buf.WriteString("null")
			return nil
		}
		buf.WriteByte('{')
		for i, k := range v.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeValue(buf, v.values[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case []interface{}:
		buf.WriteByte('[')
		for i, e := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case []string:
		buf.WriteByte('[')
		for i, e := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case string:
		return writeString(buf, v)
	case json.Number:
		buf.WriteString(v.String())
	case bool:
		buf.WriteString(strconv.FormatBool(v))
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(data)
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	e := json.NewEncoder(buf)
	e.SetEscapeHTML(false)
	if err := e.Encode(s); err != nil {
		return err
	}
	// Encode always terminates the value with a newline
	buf.Truncate(buf.Len() - 1)
	return nil
}

// String renders a leaf value the way it is passed on the command line: strings as is, numbers
// and booleans in their literal form, objects and arrays as compact JSON.
func String(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		buf := bytes.NewBuffer(nil)
		if err := writeValue(buf, v); err != nil {
			return fmt.Sprint(v)
		}
		return buf.String()
	}
}
