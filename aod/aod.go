// Package aod reads and writes the AOD writer and reader descriptor files O2 executables take
// through --aod-writer-json and --aod-reader-json.
package aod

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/creachadair/atomicfile"
	"gopkg.in/src-d/go-errors.v1"
)

const (
	DefaultWriterFile = "aodWriterTempConfig.json"
	DefaultReaderFile = "aodReaderTempConfig.json"

	// DefaultResFile is the output file name, without the .root extension.
	DefaultResFile = "reducedAod"
)

var (
	ErrDescriptorNotFound  = errors.NewKind("AOD descriptor %s not found")
	ErrMalformedDescriptor = errors.NewKind("malformed AOD descriptor %s")
)

// Descriptor selects one table.
type Descriptor struct {
	Table    string   `json:"table"`
	TreeName string   `json:"treename,omitempty"`
	Columns  []string `json:"columns,omitempty"`
	FileName string   `json:"filename,omitempty"`
}

// Writer is the content of an --aod-writer-json file.
type Writer struct {
	OutputDirector OutputDirector `json:"OutputDirector"`
}

type OutputDirector struct {
	DebugMode         bool         `json:"debugmode"`
	ResFile           string       `json:"resfile"`
	ResFileMode       string       `json:"resfilemode"`
	NTFMerge          int          `json:"ntfmerge"`
	OutputDescriptors []Descriptor `json:"OutputDescriptors"`
}

// Tables lists the written tables.
func (w *Writer) Tables() []string {
	return tables(w.OutputDirector.OutputDescriptors)
}

// Reader is the content of an --aod-reader-json file.
type Reader struct {
	InputDirector InputDirector `json:"InputDirector"`
}

type InputDirector struct {
	DebugMode        bool         `json:"debugmode"`
	InputDescriptors []Descriptor `json:"InputDescriptors"`
}

// Tables lists the read tables.
func (r *Reader) Tables() []string {
	return tables(r.InputDirector.InputDescriptors)
}

func tables(ds []Descriptor) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Table)
	}
	return out
}

// TreeName returns the tree O2 stores a table in: "AOD/REDUCEDEVENT/0" -> "O2reducedevent".
func TreeName(table string) string {
	parts := strings.Split(table, "/")
	if len(parts) < 2 {
		return "O2" + strings.ToLower(table)
	}
	return "O2" + strings.ToLower(parts[1])
}

func LoadWriter(path string) (*Writer, error) {
	var w Writer
	if err := load(path, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func LoadReader(path string) (*Reader, error) {
	var r Reader
	if err := load(path, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func load(path string, v interface{}) error {
	data, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		return ErrDescriptorNotFound.New(path)
	} else if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return ErrMalformedDescriptor.Wrap(err, path)
	}
	return nil
}

// Save writes a Writer or a Reader.
func Save(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return atomicfile.WriteData(path, data, 0644)
}
