package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/BonFireWatch/proxflix/internal/config"
	"github.com/BonFireWatch/proxflix/internal/runtime"
	"github.com/BonFireWatch/proxflix/internal/service"
	"github.com/BonFireWatch/proxflix/internal/util"
)

// progress writes a progress message if not in quiet mode.
func progress(w io.Writer, format string, args ...any) {
	if w != nil {
		fmt.Fprintf(w, format, args...)
	}
}

// newOrchestrator wires up the environment, config, and Docker
// supervisor for the lifecycle commands.
func newOrchestrator(ctx context.Context, out io.Writer) (*service.Orchestrator, error) {
	env := util.NewEnv()

	cfg, err := config.Load(env)
	if err != nil {
		return nil, err
	}

	sup := runtime.NewDocker(runtime.NewEnv(env.Cmd))
	if !sup.Available(ctx) {
		return nil, fmt.Errorf("%w: is the docker daemon running?", runtime.ErrNotAvailable)
	}

	return service.New(env, cfg, sup, out), nil
}

// quietWriter maps the --quiet flag to the progress writer convention.
func quietWriter(quiet bool) io.Writer {
	if quiet {
		return nil
	}
	return os.Stdout
}
