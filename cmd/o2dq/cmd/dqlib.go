package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/dqworkflows/o2dq/cmd"
	"github.com/dqworkflows/o2dq/dqlib"
)

const DQLibCommandDescription = "refreshes or lists the cached DQ library names"

type DQLibCommand struct {
	cmd.Command

	Refresh bool     `long:"refresh" description:"fetch the library sources again"`
	Offline bool     `long:"offline" description:"use the cached sources only"`
	Kind    []string `long:"kind" short:"k" value-name:"KIND" description:"only list these kinds"`

	env *Env
}

func NewDQLibCommand(env *Env) *DQLibCommand {
	return &DQLibCommand{env: env}
}

func (c *DQLibCommand) Execute(args []string) error {
	closer, err := c.SetupLogging("dqlib", c.env.Settings.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	kinds := dqlib.Kinds()
	if len(c.Kind) != 0 {
		kinds = kinds[:0]
		for _, s := range c.Kind {
			k, err := dqlib.ParseKind(s)
			if err != nil {
				return err
			}
			kinds = append(kinds, k)
		}
	}

	path := dqlib.CachePath(c.env.Settings.Cache.Dir)
	var lib *dqlib.Library
	if c.Refresh {
		ctx := context.Background()
		f, err := c.env.fetcher(ctx, c.Offline)
		if err != nil {
			return err
		}
		if lib, err = dqlib.Fetch(ctx, f, c.env.Settings.Upstream.Ref); err != nil {
			return err
		}
		if err := lib.Save(path); err != nil {
			return err
		}
		logrus.WithField("file", path).Info("DQ library cached")
	} else if lib, err = dqlib.Load(path); err != nil {
		return err
	}

	for _, k := range kinds {
		names := lib.Names[k]
		cmd.Notice.Fprintf(c.env.Out, "%s (%d)\n", k, len(names))
		for _, n := range names {
			fmt.Fprintf(c.env.Out, "  %s\n", n)
		}
	}
	return nil
}
