package workflow

import (
	"context"
	"io"
	"os"
	"os/exec"

	"gopkg.in/src-d/go-errors.v1"
)

var ErrCommandFailed = errors.NewKind("command failed: %v")

// Runner executes pipelines through bash with the given standard streams.
type Runner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewRunner returns a runner attached to the process streams.
func NewRunner() *Runner {
	return &Runner{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run executes the pipeline and waits for it. A non-zero exit status is an ErrCommandFailed.
func (r *Runner) Run(ctx context.Context, p *Pipeline) error {
	return r.exec(ctx, p.Command())
}

func (r *Runner) exec(ctx context.Context, command string) error {
	cmd := exec.CommandContext(ctx, "bash", "-c", command)
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	if err := cmd.Run(); err != nil {
		return ErrCommandFailed.Wrap(err, command)
	}
	return nil
}
