package dqlib

import (
	"strings"

	"github.com/jessevdk/go-flags"
)

// Completer completes comma separated lists of library names: the last element is matched
// against the names of Kind, the preceding ones are kept as typed.
type Completer struct {
	Library *Library
	Kind    Kind
}

var _ flags.Completer = Completer{}

func (c Completer) Complete(match string) []flags.Completion {
	if c.Library == nil {
		return nil
	}
	return CompleteList(c.Library.Names[c.Kind], match)
}

// CompleteList completes the last comma separated element of match from choices.
func CompleteList(choices []string, match string) []flags.Completion {
	prefix, last := "", match
	if i := strings.LastIndexByte(match, ','); i >= 0 {
		prefix, last = match[:i+1], match[i+1:]
	}
	var out []flags.Completion
	for _, c := range choices {
		if strings.HasPrefix(c, last) {
			out = append(out, flags.Completion{Item: prefix + c})
		}
	}
	return out
}
