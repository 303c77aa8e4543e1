package cmd

import (
	"fmt"
)

const CompletionCommandDescription = "prints the bash completion script, load it with: source <(o2dq completion)"

const completionScript = `_%[1]s_completion() {
    args=("${COMP_WORDS[@]:1:$COMP_CWORD}")

    local IFS=$'\n'
    COMPREPLY=($(GO_FLAGS_COMPLETION=1 ${COMP_WORDS[0]} "${args[@]}"))
    return 0
}

complete -o default -F _%[1]s_completion %[1]s
`

type CompletionCommand struct {
	Name string `long:"name" default:"o2dq" value-name:"BINARY" description:"name the script completes"`

	env *Env
}

func NewCompletionCommand(env *Env) *CompletionCommand {
	return &CompletionCommand{env: env}
}

func (c *CompletionCommand) Execute(args []string) error {
	_, err := fmt.Fprintf(c.env.Out, completionScript, c.Name)
	return err
}
