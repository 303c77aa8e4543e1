package cmd

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dqworkflows/o2dq/cmd"
	"github.com/dqworkflows/o2dq/config"
)

const MigrateCommandDescription = "migrates a configuration to a latest configuration template"

type MigrateCommand struct {
	cmd.Command

	Diff   bool   `long:"diff" description:"print the changes as a unified diff"`
	Output string `long:"output" short:"o" value-name:"FILE" description:"where the migrated configuration is written, the input file by default"`

	Args struct {
		Config string `positional-arg-name:"config" description:"configuration to migrate"`
		Latest string `positional-arg-name:"latest" description:"latest configuration template"`
	} `positional-args:"yes" required:"yes"`

	env *Env
}

func NewMigrateCommand(env *Env) *MigrateCommand {
	return &MigrateCommand{env: env}
}

func (c *MigrateCommand) Execute(args []string) error {
	closer, err := c.SetupLogging("migrate", c.env.Settings.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	old, err := config.Load(c.Args.Config)
	if err != nil {
		return err
	}
	latest, err := config.Load(c.Args.Latest)
	if err != nil {
		return err
	}

	output := c.Output
	if output == "" {
		output = c.Args.Config
	}
	m := migration{out: c.env.Out, keep: c.env.Settings.Migrate, diff: c.Diff}
	return m.run(old, c.Args.Config, output, latest)
}

// migration reports, then writes, the migration of configuration files.
type migration struct {
	out    io.Writer
	keep   config.Keep
	diff   bool
	dryRun bool
}

func (m migration) run(old *config.Object, path, output string, latest *config.Object) error {
	next, report := config.Migrate(old, latest, m.keep)
	for _, k := range report.Added {
		cmd.Notice.Fprintf(m.out, "%s: added %s\n", path, k)
	}
	for _, k := range report.Deprecated {
		cmd.Warning.Fprintf(m.out, "%s: removed %s\n", path, k)
	}

	if m.diff {
		d, err := config.Diff(old, next, path, output)
		if err != nil {
			return err
		}
		fmt.Fprint(m.out, d)
	}

	if output == path {
		same, err := sameEncoding(old, next)
		if err != nil {
			return err
		}
		if same {
			fmt.Fprintf(m.out, "%s is up to date\n", path)
			return nil
		}
	}
	if m.dryRun {
		return nil
	}
	return config.Save(output, next)
}

// sameEncoding tells whether a and b would be saved as the same bytes. Reordered keys count as a
// change.
func sameEncoding(a, b *config.Object) (bool, error) {
	da, err := config.Marshal(a)
	if err != nil {
		return false, err
	}
	db, err := config.Marshal(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(da, db), nil
}
