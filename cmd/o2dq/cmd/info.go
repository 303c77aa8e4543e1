package cmd

import (
	"encoding/json"

	"github.com/dqworkflows/o2dq/cmd"
)

const InfoCommandDescription = "prints the catalogue entries of the workflows"

type InfoCommand struct {
	cmd.Command

	ShowSettings bool `long:"show-settings" description:"print the effective settings instead"`

	Args struct {
		Workflows []string `positional-arg-name:"workflow"`
	} `positional-args:"yes"`

	env *Env
}

func NewInfoCommand(env *Env) *InfoCommand {
	return &InfoCommand{env: env}
}

func (c *InfoCommand) Execute(args []string) error {
	if c.ShowSettings {
		return c.env.Settings.Encode(c.env.Out)
	}
	ws, err := c.env.workflows(c.Args.Workflows)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(c.env.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(ws)
}
