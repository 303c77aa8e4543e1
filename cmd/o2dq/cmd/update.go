package cmd

import (
	"context"

	"github.com/sirupsen/logrus"
	"gopkg.in/src-d/go-errors.v1"

	"github.com/dqworkflows/o2dq/cmd"
	"github.com/dqworkflows/o2dq/config"
	"github.com/dqworkflows/o2dq/scraper"
	"github.com/dqworkflows/o2dq/workflow"
)

const UpdateCommandDescription = "rebuilds the latest configurations from upstream and migrates the given files"

var ErrNoWorkflow = errors.NewKind("no workflow configures the tasks of %s")

type UpdateCommand struct {
	cmd.Command

	DryRun   bool     `long:"dry-run" description:"print the changes without writing anything"`
	Workflow []string `long:"workflow" short:"w" value-name:"NAME" description:"only update these workflows"`
	Offline  bool     `long:"offline" description:"use the cached sources only"`

	Args struct {
		Configs []string `positional-arg-name:"config" description:"configurations to migrate"`
	} `positional-args:"yes"`

	env *Env
}

func NewUpdateCommand(env *Env) *UpdateCommand {
	return &UpdateCommand{env: env}
}

func (c *UpdateCommand) Execute(args []string) error {
	closer, err := c.SetupLogging("update", c.env.Settings.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	ws, err := c.env.workflows(c.Workflow)
	if err != nil {
		return err
	}
	ctx := context.Background()
	f, err := c.env.fetcher(ctx, c.Offline)
	if err != nil {
		return err
	}

	latest := make(map[string]*config.Object, len(ws))
	for _, w := range ws {
		sources, err := scrapeWorkflow(ctx, f, w)
		if err != nil {
			return err
		}
		tree := scraper.Latest(sources...)
		latest[w.Name] = tree

		log := logrus.WithField("workflow", w.Name)
		log.Infof("%d tasks found upstream", tree.Len())
		if c.DryRun {
			continue
		}
		path := workflow.LatestPath(c.env.Settings.Cache.Dir, w.Name)
		if err := config.Save(path, tree); err != nil {
			return err
		}
		log.WithField("file", path).Debug("latest configuration cached")
	}

	m := migration{
		out:    c.env.Out,
		keep:   c.env.Settings.Migrate,
		diff:   c.DryRun,
		dryRun: c.DryRun,
	}
	for _, path := range c.Args.Configs {
		old, err := config.Load(path)
		if err != nil {
			return err
		}
		w := Detect(ws, old)
		if w == nil {
			return ErrNoWorkflow.New(path)
		}
		logrus.WithField("workflow", w.Name).Infof("migrating %s", path)
		if err := m.run(old, path, path, latest[w.Name]); err != nil {
			return err
		}
	}
	return nil
}

// Detect returns the workflow configuring most of the main tasks found in cfg, the first one on
// ties. It is nil when no main task is found.
func Detect(ws []*workflow.Workflow, cfg *config.Object) *workflow.Workflow {
	var (
		best  *workflow.Workflow
		score int
	)
	for _, w := range ws {
		n := 0
		for _, t := range w.Tasks {
			if cfg.Has(t) {
				n++
			}
		}
		if n > score {
			best, score = w, n
		}
	}
	return best
}
