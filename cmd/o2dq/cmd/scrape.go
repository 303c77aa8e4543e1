package cmd

import (
	"context"
	"fmt"
	"io/ioutil"

	"gopkg.in/src-d/go-errors.v1"

	"github.com/dqworkflows/o2dq/cmd"
	"github.com/dqworkflows/o2dq/config"
	"github.com/dqworkflows/o2dq/scraper"
	"github.com/dqworkflows/o2dq/upstream"
	"github.com/dqworkflows/o2dq/workflow"
)

const ScrapeCommandDescription = "prints the latest configuration of upstream or local task sources"

var ErrNothingToScrape = errors.NewKind("give source files or a workflow to scrape")

type ScrapeCommand struct {
	cmd.Command

	Workflow string `long:"workflow" short:"w" value-name:"NAME" description:"scrape the upstream sources of this workflow"`
	Dump     bool   `long:"dump" description:"print the extracted declarations instead of the configuration"`
	Offline  bool   `long:"offline" description:"use the cached sources only"`

	Args struct {
		Files []string `positional-arg-name:"source" description:"local C++ source files"`
	} `positional-args:"yes"`

	env *Env
}

func NewScrapeCommand(env *Env) *ScrapeCommand {
	return &ScrapeCommand{env: env}
}

func (c *ScrapeCommand) Execute(args []string) error {
	closer, err := c.SetupLogging("scrape", c.env.Settings.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	var sources []*scraper.Source
	switch {
	case len(c.Args.Files) != 0:
		for _, path := range c.Args.Files {
			data, err := ioutil.ReadFile(path)
			if err != nil {
				return err
			}
			sources = append(sources, scraper.Scrape(path, string(data)))
		}
	case c.Workflow != "":
		w, err := c.env.Catalogue.Lookup(c.Workflow)
		if err != nil {
			return err
		}
		ctx := context.Background()
		f, err := c.env.fetcher(ctx, c.Offline)
		if err != nil {
			return err
		}
		if sources, err = scrapeWorkflow(ctx, f, w); err != nil {
			return err
		}
	default:
		return ErrNothingToScrape.New()
	}

	if c.Dump {
		for _, src := range sources {
			fmt.Fprintf(c.env.Out, "%s\n%s", src.Path, src.Summary())
		}
		return nil
	}
	data, err := config.Marshal(scraper.Latest(sources...))
	if err != nil {
		return err
	}
	_, err = c.env.Out.Write(data)
	return err
}

// scrapeWorkflow fetches and scrapes the sources of a workflow and of its dependencies.
func scrapeWorkflow(ctx context.Context, f upstream.Fetcher, w *workflow.Workflow) ([]*scraper.Source, error) {
	paths := w.AllSources()
	files, err := upstream.FetchAll(ctx, f, paths)
	if err != nil {
		return nil, err
	}
	sources := make([]*scraper.Source, 0, len(paths))
	for _, p := range paths {
		sources = append(sources, scraper.Scrape(p, files[p]))
	}
	return sources, nil
}
