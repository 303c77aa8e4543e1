package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"github.com/dqworkflows/o2dq/cmd/o2dq/cmd"
)

var version = "undefined"

func main() {
	os.Exit(run(os.Stdout, os.Args[1:]))
}

func run(out io.Writer, args []string) int {
	if err := execute(out, args); err != nil {
		logrus.Error(err)
		return 1
	}
	return 0
}

func execute(out io.Writer, args []string) error {
	env, err := cmd.LoadEnv(out, args)
	if err != nil {
		return err
	}

	parser := flags.NewNamedParser("o2dq", flags.HelpFlag|flags.PassDoubleDash)
	parser.LongDescription = fmt.Sprintf("o2dq %s: configures and runs the O2Physics DQ workflows", version)
	parser.CompletionHandler = func(items []flags.Completion) {
		for _, item := range items {
			fmt.Fprintln(out, item.Item)
		}
	}
	completing := os.Getenv("GO_FLAGS_COMPLETION") != ""
	parser.AddCommand("update", cmd.UpdateCommandDescription, "", cmd.NewUpdateCommand(env))
	parser.AddCommand("migrate", cmd.MigrateCommandDescription, "", cmd.NewMigrateCommand(env))
	parser.AddCommand("scrape", cmd.ScrapeCommandDescription, "", cmd.NewScrapeCommand(env))
	parser.AddCommand("dqlib", cmd.DQLibCommandDescription, "", cmd.NewDQLibCommand(env))
	parser.AddCommand("info", cmd.InfoCommandDescription, "", cmd.NewInfoCommand(env))
	parser.AddCommand("completion", cmd.CompletionCommandDescription, "", cmd.NewCompletionCommand(env))

	for _, w := range env.Catalogue.Workflows {
		wc := cmd.NewWorkflowCommand(env, w)
		c, err := parser.AddCommand(w.Name, w.Description, "", wc)
		if err != nil {
			return err
		}
		path := configArg(args, w.Name)
		if path == "" {
			continue
		}
		opts, err := wc.Load(path)
		if completing && err != nil {
			continue
		} else if err != nil {
			return err
		}
		if _, err := c.AddGroup("Configurables", "configurables of "+path, opts.Group()); err != nil {
			return err
		}
	}

	if _, err := parser.ParseArgs(args); err != nil {
		if ferr, ok := err.(*flags.Error); ok {
			if ferr.Type == flags.ErrHelp {
				fmt.Fprintln(out, ferr.Message)
				return nil
			}
			parser.WriteHelp(out)
		}
		return err
	}
	return nil
}

// configArg returns the configuration given to a workflow command: the argument right after the
// command name, which must come first.
func configArg(args []string, command string) string {
	for i, a := range args {
		if strings.HasPrefix(a, "-") {
			continue
		}
		if a != command || i+1 >= len(args) || strings.HasPrefix(args[i+1], "-") {
			return ""
		}
		return args[i+1]
	}
	return ""
}
