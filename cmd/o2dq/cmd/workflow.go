package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/dqworkflows/o2dq/aod"
	"github.com/dqworkflows/o2dq/cmd"
	"github.com/dqworkflows/o2dq/config"
	"github.com/dqworkflows/o2dq/workflow"
)

// AODFileKey is where the reader takes its input from.
var AODFileKey = config.Key{Task: "internal-dpl-aod-reader", Name: "aod-file"}

// WorkflowCommand configures and runs one workflow of the catalogue.
type WorkflowCommand struct {
	cmd.Command

	Args struct {
		Config string `positional-arg-name:"config" description:"JSON configuration file"`
	} `positional-args:"yes" required:"yes"`

	AOD        string `long:"aod" value-name:"FILE" description:"AO2D input, a .root file or a .txt list of files"`
	Writer     string `long:"writer" value-name:"FILE" description:"AOD writer descriptor, false disables the writer"`
	Reader     string `long:"reader" value-name:"FILE" description:"AOD reader descriptor"`
	OnlySelect string `long:"onlySelect" choice:"true" choice:"false" default:"true" description:"switch off the process functions of a task that are not given"`
	Override   bool   `long:"override" description:"only change the given configurables, same as --onlySelect false"`
	Preset     string `long:"preset" value-name:"FILE" description:"YAML or JSON tree of configurables applied before the command line ones"`
	Output     string `long:"output" value-name:"FILE" description:"where the final configuration is written, the workflow temporary file by default"`

	AddMCConv       bool `long:"add_mc_conv" description:"add the MC converter"`
	AddFDDConv      bool `long:"add_fdd_conv" description:"add the FDD converter"`
	AddTrackProp    bool `long:"add_track_prop" description:"add the track propagation"`
	AddWeakDecayInd bool `long:"add_weakdecay_ind" description:"add the weak decay indices"`
	AddColConv      bool `long:"add_col_conv" description:"add the collision converter"`

	RunParallel        bool   `long:"runParallel" description:"print the command instead of running it"`
	HelpO2             bool   `long:"helpO2" description:"show the full help of the executable instead of running it"`
	O2Options          string `long:"o2-options" value-name:"OPTIONS" description:"extra options of the main executable"`
	Severity           string `long:"severity" value-name:"LEVEL" description:"O2 log severity"`
	ShmSegmentSize     int64  `long:"shm-segment-size" value-name:"BYTES" description:"O2 shared memory segment size"`
	AODMemoryRateLimit int64  `long:"aod-memory-rate-limit" value-name:"BYTES" description:"O2 AOD memory rate limit"`

	env      *Env
	workflow *workflow.Workflow
	config   *config.Object
	options  *workflow.Options
}

func NewWorkflowCommand(env *Env, w *workflow.Workflow) *WorkflowCommand {
	return &WorkflowCommand{env: env, workflow: w}
}

// Load reads the configuration to run and returns its options, to be registered before the
// command line is parsed.
func (c *WorkflowCommand) Load(path string) (*workflow.Options, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	c.config = cfg
	c.options = workflow.NewOptions(cfg, c.workflow, c.env.Library())
	return c.options, nil
}

func (c *WorkflowCommand) Execute(args []string) error {
	closer, err := c.SetupLogging(c.workflow.Name, c.env.Settings.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	if c.config == nil {
		if _, err := c.Load(c.Args.Config); err != nil {
			return err
		}
	}
	cfg := c.config

	if err := c.override(cfg); err != nil {
		return err
	}
	if c.AOD != "" {
		ref, err := workflow.CheckAOD(c.AOD)
		if err != nil {
			return err
		}
		setLeaf(cfg, AODFileKey, ref)
	}

	state := workflow.State{Config: cfg, Flags: c.flags(), Tasks: c.workflow.Tasks}
	writer, reader, err := c.descriptors(state)
	if err != nil {
		return err
	}

	deps := state.Enabled(c.env.Catalogue, c.workflow)
	if err := c.check(state, deps); err != nil {
		return err
	}

	output := c.Output
	if output == "" {
		output = c.workflow.Config
	}
	if err := config.Save(output, cfg); err != nil {
		return err
	}
	logrus.WithField("file", output).Info("configuration written")

	env, err := workflow.CheckEnvironment(c.env.Getenv, !c.RunParallel)
	for _, name := range sortedNames(env) {
		if !env[name] {
			logrus.Warnf("%s is not set", name)
		}
	}
	if err != nil {
		return err
	}

	extra, err := workflow.SplitO2Options(c.O2Options)
	if err != nil {
		return err
	}
	p := workflow.NewPipeline(c.workflow, deps, c.runOptions(output, writer, reader, extra))
	p.Log(logrus.StandardLogger())

	if c.RunParallel {
		_, err := fmt.Fprintln(c.env.Out, p.Command())
		return err
	}
	return c.env.Runner.Run(context.Background(), p)
}

func (c *WorkflowCommand) policy() workflow.Policy {
	if c.Override || c.OnlySelect == "false" {
		return workflow.OverrideOnly
	}
	return workflow.OnlySelect
}

// override applies the preset, then the command line options.
func (c *WorkflowCommand) override(cfg *config.Object) error {
	policy := c.policy()
	if c.Preset != "" {
		preset, err := workflow.LoadPreset(c.Preset)
		if err != nil {
			return err
		}
		if err := workflow.Apply(cfg, preset, policy); err != nil {
			return err
		}
	}
	return workflow.Apply(cfg, c.options.Assignments(), policy)
}

func (c *WorkflowCommand) check(s workflow.State, deps []workflow.Dependency) error {
	latest, err := c.env.latest(c.workflow.Name)
	if err != nil {
		return err
	}
	added, err := workflow.CheckDependencies(s.Config, deps, latest)
	for _, task := range added {
		logrus.WithField("task", task).Info("missing dependency task added from the latest configuration")
	}
	if err != nil {
		return err
	}

	if err := workflow.CheckRequirements(s, c.workflow.Requirements); err != nil {
		return err
	}
	if err := workflow.CheckSelections(s.Config, c.workflow.Selections); err != nil {
		return err
	}
	for _, w := range workflow.CheckLibraryNames(s.Config, c.workflow, c.env.Library()) {
		logrus.Warn(w)
	}
	return nil
}

func (c *WorkflowCommand) flags() map[string]bool {
	return map[string]bool{
		"add_mc_conv":       c.AddMCConv,
		"add_fdd_conv":      c.AddFDDConv,
		"add_track_prop":    c.AddTrackProp,
		"add_weakdecay_ind": c.AddWeakDecayInd,
		"add_col_conv":      c.AddColConv,
	}
}

// descriptors resolves the writer and reader descriptors. Missing default descriptors are
// created for the tables the enabled process functions produce.
func (c *WorkflowCommand) descriptors(s workflow.State) (writer, reader string, err error) {
	barrel, muon := s.Tracks(c.workflow)
	mc := c.workflow.MC

	if c.workflow.Writer || c.Writer != "" {
		writer, err = descriptor("writer", c.Writer, aod.DefaultWriterFile,
			func() interface{} { return aod.DefaultWriter(barrel, muon, mc) },
			func(path string) error { _, err := aod.LoadWriter(path); return err })
		if err != nil {
			return "", "", err
		}
	}
	if c.workflow.Reader || c.Reader != "" {
		reader, err = descriptor("reader", c.Reader, aod.DefaultReaderFile,
			func() interface{} { return aod.DefaultReader(barrel, muon, mc) },
			func(path string) error { _, err := aod.LoadReader(path); return err })
		if err != nil {
			return "", "", err
		}
	}
	return writer, reader, nil
}

func descriptor(kind, given, def string, create func() interface{}, load func(string) error) (string, error) {
	switch given {
	case "false":
		return "", nil
	case "":
		if _, err := os.Stat(def); os.IsNotExist(err) {
			logrus.WithField("file", def).Infof("creating the default %s descriptor", kind)
			return def, aod.Save(def, create())
		}
		given = def
	}
	if err := workflow.CheckJSONFile(kind, given); err != nil {
		return "", err
	}
	return given, load(given)
}

func (c *WorkflowCommand) runOptions(output, writer, reader string, extra []string) workflow.RunOptions {
	run := c.env.Settings.Run
	o := workflow.RunOptions{
		Config:             output,
		Severity:           run.Severity,
		ShmSegmentSize:     run.ShmSegmentSize,
		AODMemoryRateLimit: run.AODMemoryRateLimit,
		Writer:             writer,
		Reader:             reader,
		HelpO2:             c.HelpO2,
		Extra:              extra,
	}
	if c.Severity != "" {
		o.Severity = c.Severity
	}
	if c.ShmSegmentSize != 0 {
		o.ShmSegmentSize = c.ShmSegmentSize
	}
	if c.AODMemoryRateLimit != 0 {
		o.AODMemoryRateLimit = c.AODMemoryRateLimit
	}
	return o
}

// setLeaf sets a configurable, creating its task when needed.
func setLeaf(cfg *config.Object, k config.Key, value string) {
	t, ok := cfg.Object(k.Task)
	if !ok {
		t = config.NewObject()
		cfg.Set(k.Task, t)
	}
	t.Set(k.Name, value)
}

func sortedNames(m map[string]bool) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
