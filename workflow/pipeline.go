package workflow

import (
	"fmt"
	"strconv"
	"strings"

	"bitbucket.org/creachadair/shell"
	"github.com/sirupsen/logrus"
	"gopkg.in/src-d/go-errors.v1"
)

var ErrO2Options = errors.NewKind("cannot split O2 options %q: unbalanced quotes")

// RunOptions are the arguments given to the main executable.
type RunOptions struct {
	// Config is the file holding the final configuration.
	Config             string
	Severity           string
	ShmSegmentSize     int64
	AODMemoryRateLimit int64
	Writer             string
	Reader             string
	// HelpO2 asks the executable for its full help instead of running.
	HelpO2 bool
	// Extra arguments, passed as given.
	Extra []string
}

// SplitO2Options splits a shell-like string of extra executable options.
func SplitO2Options(s string) ([]string, error) {
	args, ok := shell.Split(s)
	if !ok {
		return nil, ErrO2Options.New(s)
	}
	return args, nil
}

type pipeLineNode struct {
	logFormat string
	logArgs   []interface{}
	command   string
}

// Pipeline is the command line running a workflow: the main executable then its dependencies,
// joined by pipes.
type Pipeline struct {
	nodes []pipeLineNode
}

// NewPipeline assembles the command line of w with the enabled dependencies deps.
func NewPipeline(w *Workflow, deps []Dependency, o RunOptions) *Pipeline {
	configuration := "json://" + o.Config

	args := []string{w.Executable,
		"--configuration", configuration,
		"--severity", o.Severity,
		"--shm-segment-size", strconv.FormatInt(o.ShmSegmentSize, 10),
	}
	if o.Writer != "" {
		args = append(args, "--aod-writer-json", o.Writer)
	}
	if o.Reader != "" {
		args = append(args, "--aod-reader-json", o.Reader)
	}
	if o.AODMemoryRateLimit > 0 {
		args = append(args, "--aod-memory-rate-limit", strconv.FormatInt(o.AODMemoryRateLimit, 10))
	}
	args = append(args, o.Extra...)
	args = append(args, "-b")
	if o.HelpO2 {
		args = append(args, "--help", "full")
	}

	nodes := []pipeLineNode{{
		logFormat: "%v with configuration %v",
		logArgs:   []interface{}{w.Executable, o.Config},
		command:   quoteAll(args),
	}}
	for _, d := range deps {
		nodes = append(nodes, pipeLineNode{
			logFormat: "dependency %v",
			logArgs:   []interface{}{d.Executable},
			command:   quoteAll([]string{d.Executable, "--configuration", configuration, "-b"}),
		})
	}
	return &Pipeline{nodes: nodes}
}

func quoteAll(args []string) string {
	quoted := make([]string, 0, len(args))
	for _, a := range args {
		quoted = append(quoted, shell.Quote(a))
	}
	return strings.Join(quoted, " ")
}

// Command returns the shell command line.
func (p *Pipeline) Command() string {
	cmds := make([]string, 0, len(p.nodes))
	for _, n := range p.nodes {
		cmds = append(cmds, n.command)
	}
	return strings.Join(cmds, " | ")
}

// Executables lists the programs of the pipeline in order.
func (p *Pipeline) Executables() []string {
	out := make([]string, 0, len(p.nodes))
	for _, n := range p.nodes {
		out = append(out, fmt.Sprint(n.logArgs[0]))
	}
	return out
}

// Log describes every node of the pipeline.
func (p *Pipeline) Log(log logrus.FieldLogger) {
	for _, n := range p.nodes {
		log.Infof(n.logFormat, n.logArgs...)
		log.Debug(n.command)
	}
}
