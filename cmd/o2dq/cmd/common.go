package cmd

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/dqworkflows/o2dq/cmd"
	"github.com/dqworkflows/o2dq/config"
	"github.com/dqworkflows/o2dq/dqlib"
	"github.com/dqworkflows/o2dq/settings"
	"github.com/dqworkflows/o2dq/upstream"
	"github.com/dqworkflows/o2dq/workflow"
)

// Env is what every command shares: the loaded settings and catalogue, where output goes, and
// how the outside world is reached.
type Env struct {
	Out       io.Writer
	Settings  *settings.Settings
	Catalogue *workflow.Catalogue

	Getenv     func(string) string
	Runner     *workflow.Runner
	NewFetcher func(ctx context.Context, opts upstream.Options) (upstream.Fetcher, error)
}

func NewEnv(out io.Writer, s *settings.Settings, c *workflow.Catalogue) *Env {
	return &Env{
		Out:        out,
		Settings:   s,
		Catalogue:  c,
		Getenv:     os.Getenv,
		Runner:     workflow.NewRunner(),
		NewFetcher: upstream.New,
	}
}

// LoadEnv loads the settings named on the command line, or found by settings.Lookup, and the
// catalogue they point to.
func LoadEnv(out io.Writer, args []string) (*Env, error) {
	s, err := settings.Load(cmd.SettingsPath(args))
	if err != nil {
		return nil, err
	}
	c, err := workflow.LoadCatalogue(s.Catalogue)
	if err != nil {
		return nil, err
	}
	return NewEnv(out, s, c), nil
}

func (e *Env) fetcher(ctx context.Context, offline bool) (upstream.Fetcher, error) {
	opts := e.Settings.FetcherOptions()
	opts.Offline = opts.Offline || offline
	return e.NewFetcher(ctx, opts)
}

// Library loads the cached DQ library. Without a cache, names are neither completed nor checked.
func (e *Env) Library() *dqlib.Library {
	lib, err := dqlib.Load(dqlib.CachePath(e.Settings.Cache.Dir))
	if err != nil {
		logrus.Debug(err)
		return nil
	}
	return lib
}

// latest loads the cached latest configuration of a workflow, nil when update never ran.
func (e *Env) latest(name string) (*config.Object, error) {
	cfg, err := config.Load(workflow.LatestPath(e.Settings.Cache.Dir, name))
	if config.ErrConfigNotFound.Is(err) {
		return nil, nil
	}
	return cfg, err
}

// workflows returns the named workflows of the catalogue, or all of them.
func (e *Env) workflows(names []string) ([]*workflow.Workflow, error) {
	if len(names) == 0 {
		return e.Catalogue.Workflows, nil
	}
	out := make([]*workflow.Workflow, 0, len(names))
	for _, n := range names {
		w, err := e.Catalogue.Lookup(n)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}
