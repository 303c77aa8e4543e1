package scraper

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dqworkflows/o2dq/config"
)

const quoted = `"((?:[^"\\]|\\.)*)"`

var (
	reStruct    = regexp.MustCompile(`^(?:template\s*<[^>]*>\s*)?struct\s+(\w+)\b[^;]*$`)
	reDeclStart = regexp.MustCompile(`\b(?:Configurable(?:Axis)?\b|O2_DEFINE_CONFIGURABLE\s*\(|PROCESS_SWITCH(?:_FULL)?\s*\(|adaptAnalysisTask\s*<)`)

	reConfigurable = regexp.MustCompile(
		`\b(Configurable(?:Axis)?)\s*(?:<(.+?)>)?\s+(\w+)\s*(?:=\s*)?\{\s*"([^"]*)"\s*,\s*(.*?)\s*(?:,\s*` + quoted + `\s*)?\}\s*;`)
	reDefineConfigurable = regexp.MustCompile(
		`O2_DEFINE_CONFIGURABLE\(\s*(\w+)\s*,\s*(.+?)\s*,\s*(.*?)\s*,\s*` + quoted + `\s*\)`)
	reProcessSwitch = regexp.MustCompile(
		`\bPROCESS_SWITCH\(\s*(\w+)\s*,\s*(\w+)\s*,\s*` + quoted + `\s*,\s*(true|false)\s*\)`)
	reProcessSwitchFull = regexp.MustCompile(
		`\bPROCESS_SWITCH_FULL\(\s*(\w+)\s*,\s*[\w:]+\s*,\s*(\w+)\s*,\s*` + quoted + `\s*,\s*(true|false)\s*\)`)
	reAdapt = regexp.MustCompile(`adaptAnalysisTask\s*<\s*(\w+)\s*>\s*\(`)

	reTaskName       = regexp.MustCompile(`TaskName\s*\{\s*"([^"]+)"\s*\}`)
	reDefaultProcess = regexp.MustCompile(`\{\s*"(\w+)"\s*,\s*(true|false)\s*\}`)
	reNumber         = regexp.MustCompile(`^([-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?)[fFlLuU]*$`)
	reStdString      = regexp.MustCompile(`^(?:std::)?string\s*[({]\s*` + quoted + `\s*[)}]$`)
)

func matchConfigurables(stmt string) []Configurable {
	var out []Configurable
	for _, m := range reConfigurable.FindAllStringSubmatch(stmt, -1) {
		typ := strings.TrimSpace(m[2])
		if typ == "" {
			typ = m[1]
		}
		out = append(out, Configurable{
			Type:        typ,
			Variable:    m[3],
			Key:         m[4],
			Default:     normalizeDefault(m[5]),
			Description: unescape(m[6]),
		})
	}
	for _, m := range reDefineConfigurable.FindAllStringSubmatch(stmt, -1) {
		out = append(out, Configurable{
			Type:        strings.TrimSpace(m[2]),
			Variable:    m[1],
			Key:         m[1],
			Default:     normalizeDefault(m[3]),
			Description: unescape(m[4]),
		})
	}
	return out
}

func matchProcessSwitches(stmt string) []ProcessSwitch {
	var out []ProcessSwitch
	for _, re := range []*regexp.Regexp{reProcessSwitch, reProcessSwitchFull} {
		for _, m := range re.FindAllStringSubmatch(stmt, -1) {
			out = append(out, ProcessSwitch{
				Struct:      m[1],
				Function:    m[2],
				Description: unescape(m[3]),
				Default:     m[4] == "true",
			})
		}
	}
	return out
}

func matchBindings(stmt string) []Binding {
	var out []Binding
	for _, loc := range reAdapt.FindAllStringSubmatchIndex(stmt, -1) {
		b := Binding{Struct: stmt[loc[2]:loc[3]]}
		args := enclosed(stmt[loc[1]:])
		if m := reTaskName.FindStringSubmatch(args); m != nil {
			b.Task = m[1]
		} else {
			b.Task = TaskName(b.Struct)
		}
		if i := strings.Index(args, "SetDefaultProcesses"); i >= 0 {
			for _, m := range reDefaultProcess.FindAllStringSubmatch(args[i:], -1) {
				if b.DefaultProcesses == nil {
					b.DefaultProcesses = make(map[string]bool)
				}
				b.DefaultProcesses[m[1]] = m[2] == "true"
			}
		}
		out = append(out, b)
	}
	return out
}

// enclosed returns the text up to the parenthesis closing an already opened one.
func enclosed(s string) string {
	open := 1
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			open++
		case ')':
			open--
			if open == 0 {
				return s[:i]
			}
		}
	}
	return s
}

// normalizeDefault turns a C++ initializer into the value O2 writes in its JSON configuration.
func normalizeDefault(raw string) interface{} {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "{") && strings.HasSuffix(raw, "}") {
		values := []interface{}{}
		for _, v := range splitTopLevel(raw[1 : len(raw)-1]) {
			values = append(values, normalizeScalar(v))
		}
		obj := config.NewObject()
		obj.Set("values", values)
		return obj
	}
	return normalizeScalar(raw)
}

func normalizeScalar(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		return unescape(raw[1 : len(raw)-1])
	}
	if m := reStdString.FindStringSubmatch(raw); m != nil {
		return unescape(m[1])
	}
	if m := reNumber.FindStringSubmatch(raw); m != nil {
		n := m[1]
		if strings.HasSuffix(n, ".") {
			n = strings.TrimSuffix(n, ".")
		}
		return n
	}
	return raw
}

func unescape(s string) string {
	if u, err := strconv.Unquote(`"` + s + `"`); err == nil {
		return u
	}
	return s
}

// splitTopLevel splits on commas that are outside of braces and string literals.
func splitTopLevel(s string) []string {
	var (
		out      []string
		open     int
		inString bool
		start    int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
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
		case '{', '(':
			open++
		case '}', ')':
			open--
		case ',':
			if open == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	if strings.TrimSpace(s[start:]) != "" {
		out = append(out, s[start:])
	}
	return out
}
