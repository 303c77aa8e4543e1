// Package scraper extracts task configurables and process switches from O2Physics C++ sources.
//
// The extraction is a best-effort, line oriented regular expression scan: declarations that do
// not match one of the known shapes are skipped silently, and the result is treated downstream
// as if it were complete.
package scraper

import (
	"bufio"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

// maxStatementLines bounds how many lines a declaration may span before it is dropped.
const maxStatementLines = 16

// Configurable is a `Configurable<T> var{"key", default, "description"}` declaration.
type Configurable struct {
	Type     string
	Variable string
	Key      string
	// Default is a string, or a *config.Object holding {"values": [...]} for brace-initialized
	// vectors and axes.
	Default     interface{}
	Description string
}

// ProcessSwitch is a `PROCESS_SWITCH(Struct, processFn, "description", default)` declaration.
type ProcessSwitch struct {
	Struct      string
	Function    string
	Description string
	Default     bool
}

// Binding is an `adaptAnalysisTask<Struct>(cfgc, ...)` call: it makes a struct visible as a
// task under its JSON name.
type Binding struct {
	Struct string
	Task   string
	// DefaultProcesses overrides process switch defaults (SetDefaultProcesses).
	DefaultProcesses map[string]bool
}

// Struct groups the declarations found inside one C++ struct.
type Struct struct {
	Name            string
	Configurables   []Configurable
	ProcessSwitches []ProcessSwitch
}

// Source is everything extracted from one file.
type Source struct {
	Path     string
	Structs  []*Struct
	Bindings []Binding
}

// Struct returns the struct with the given name, or nil.
func (s *Source) Struct(name string) *Struct {
	for _, st := range s.Structs {
		if st.Name == name {
			return st
		}
	}
	return nil
}

func (s *Source) addStruct(name string) *Struct {
	if st := s.Struct(name); st != nil {
		return st
	}
	st := &Struct{Name: name}
	s.Structs = append(s.Structs, st)
	return st
}

var dumper = spew.ConfigState{
	Indent:                  "  ",
	SortKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// Summary renders the extracted descriptors for debugging.
func (s *Source) Summary() string {
	return dumper.Sdump(s)
}

// scope is a struct body being scanned; level is the brace depth of its members.
type scope struct {
	st      *Struct
	level   int
	entered bool
}

// Scrape extracts declarations from the text of one source file. It never fails: lines that
// cannot be understood are ignored.
func Scrape(path, text string) *Source {
	src := &Source{Path: path}
	var (
		scopes    []scope
		level     int
		stmt      []string
		stmtLevel int
		pending   bool
		inBlock   bool
	)
	// member returns the struct owning a declaration made at the given brace depth.
	member := func(l int) *Struct {
		if n := len(scopes); n > 0 && scopes[n-1].level == l {
			return scopes[n-1].st
		}
		return nil
	}

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(stripComments(sc.Text(), &inBlock))
		if line == "" {
			continue
		}
		before := level
		level += depth(line)

		switch {
		case pending:
			stmt = append(stmt, line)
			if joined := strings.Join(stmt, " "); depth(joined) <= 0 {
				src.handleStatement(member(stmtLevel), joined)
				pending = false
			} else if len(stmt) >= maxStatementLines {
				pending = false
			}
		case reStruct.MatchString(line):
			name := reStruct.FindStringSubmatch(line)[1]
			scopes = append(scopes, scope{st: src.addStruct(name), level: before + 1})
		case startsDeclaration(line):
			if depth(line) <= 0 {
				src.handleStatement(member(before), line)
				break
			}
			stmt, stmtLevel, pending = []string{line}, before, true
		}

		for len(scopes) > 0 {
			top := &scopes[len(scopes)-1]
			if level >= top.level {
				top.entered = true
				break
			}
			if !top.entered {
				break
			}
			scopes = scopes[:len(scopes)-1]
		}
	}
	return src
}

// handleStatement records the declarations of one complete statement. Configurables are only
// kept when declared directly in a struct body (cur); process switches name their struct.
func (src *Source) handleStatement(cur *Struct, stmt string) {
	if cur != nil {
		cur.Configurables = append(cur.Configurables, matchConfigurables(stmt)...)
	}
	for _, p := range matchProcessSwitches(stmt) {
		st := src.addStruct(p.Struct)
		st.ProcessSwitches = append(st.ProcessSwitches, p)
	}
	src.Bindings = append(src.Bindings, matchBindings(stmt)...)
}

func startsDeclaration(line string) bool {
	return reDeclStart.MatchString(line)
}

// stripComments removes // and /* */ comments, ignoring comment markers inside string literals.
// inBlock carries an unterminated block comment over to the next line.
func stripComments(line string, inBlock *bool) string {
	var b strings.Builder
	inString := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		if *inBlock {
			if c == '*' && i+1 < len(line) && line[i+1] == '/' {
				*inBlock = false
				i++
			}
			continue
		}
		switch {
		case inString && c == '\\' && i+1 < len(line):
			b.WriteByte(c)
			i++
			c = line[i]
		case c == '"':
			inString = !inString
		case !inString && c == '/' && i+1 < len(line) && line[i+1] == '/':
			return b.String()
		case !inString && c == '/' && i+1 < len(line) && line[i+1] == '*':
			*inBlock = true
			i++
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// depth returns how many braces and parentheses of a statement are left open.
func depth(stmt string) int {
	n := 0
	inString := false
	for i := 0; i < len(stmt); i++ {
		c := stmt[i]
		if inString {
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '(', '{':
			n++
		case ')', '}':
			n--
		}
	}
	return n
}
