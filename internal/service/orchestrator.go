// Package service sequences firewall activation, the backing container's
// lifecycle, and firewall teardown. It is deliberately thin: every
// underlying step is idempotent, so recovery from a partial failure is
// simply running the same operation again.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/BonFireWatch/proxflix/internal/config"
	"github.com/BonFireWatch/proxflix/internal/firewall"
	"github.com/BonFireWatch/proxflix/internal/runtime"
	"github.com/BonFireWatch/proxflix/internal/state"
	"github.com/BonFireWatch/proxflix/internal/util"
)

// Image is the backing service's container image.
const Image = "bonfirewatch/proxflix"

// Orchestrator precondition errors.
var (
	ErrAlreadyRunning = errors.New("service is already running")
	ErrNotRunning     = errors.New("service is not running")
)

// Phase is the orchestrator's lifecycle phase.
type Phase string

const (
	PhaseStopped      Phase = "stopped"
	PhaseActivating   Phase = "activating"
	PhaseRunning      Phase = "running"
	PhaseDeactivating Phase = "deactivating"
)

// Orchestrator drives the service through its lifecycle.
type Orchestrator struct {
	env   *util.Env
	cfg   *config.Config
	fw    *firewall.Controller
	nat   *firewall.NATHandler
	sup   runtime.Supervisor
	phase Phase
	out   io.Writer // progress output, nil for quiet
}

// New creates an Orchestrator over the given environment and config.
func New(env *util.Env, cfg *config.Config, sup runtime.Supervisor, out io.Writer) *Orchestrator {
	return &Orchestrator{
		env:   env,
		cfg:   cfg,
		fw:    firewall.NewController(env),
		nat:   firewall.NewNATHandler(env),
		sup:   sup,
		phase: PhaseStopped,
		out:   out,
	}
}

// Phase returns the current lifecycle phase.
func (o *Orchestrator) Phase() Phase {
	return o.phase
}

// progress writes a progress message if not in quiet mode.
func (o *Orchestrator) progress(format string, args ...any) {
	if o.out != nil {
		fmt.Fprintf(o.out, format, args...)
	}
}

// Start activates the firewall chains, installs the transient NAT rule,
// and starts the backing container. Fails fast with ErrAlreadyRunning
// when the container is up. A failure partway through leaves state that a
// retried Start converges on, because activation always clears its own
// prior effect first.
func (o *Orchestrator) Start(ctx context.Context) error {
	running, err := o.sup.IsRunning(ctx, util.ContainerName)
	if err != nil {
		return err
	}
	if running {
		return ErrAlreadyRunning
	}

	o.phase = PhaseActivating

	if o.cfg.ManageIptables() {
		for _, f := range firewall.Families {
			o.progress("→ Activating %s firewall chains\n", f)
			if err := o.fw.Activate(f); err != nil {
				o.phase = PhaseStopped
				return err
			}
		}
	}

	if o.cfg.IPv6NAT() {
		o.progress("→ Installing IPv6 NAT rule\n")
		if err := o.nat.Install(); err != nil {
			o.phase = PhaseStopped
			return err
		}
	}

	o.progress("→ Starting service container\n")
	err = o.sup.Start(ctx, runtime.StartSpec{
		Name:    util.ContainerName,
		Image:   Image,
		Env:     map[string]string{"DNS_SERVER": strings.Join(o.cfg.DNSServers(), " ")},
		Network: "host",
	})
	if err != nil {
		o.phase = PhaseStopped
		return err
	}

	st, _, err := state.LoadOrCreate(o.env)
	if err != nil {
		return err
	}
	st.LastStartedAt = time.Now().UTC()
	if err := state.Save(o.env, st); err != nil {
		return err
	}

	o.phase = PhaseRunning
	return nil
}

// Stop stops the backing container, removes the transient NAT rule, and
// tears down the firewall chains. Fails with ErrNotRunning when neither
// the container nor any chain group exists, so a plain misuse is
// surfaced while cleanup after a crash still works.
func (o *Orchestrator) Stop(ctx context.Context) error {
	running, err := o.sup.IsRunning(ctx, util.ContainerName)
	if err != nil {
		return err
	}
	if !running {
		active, err := o.anyChainsActive()
		if err != nil {
			return err
		}
		if !active {
			return ErrNotRunning
		}
	}

	o.phase = PhaseDeactivating

	o.progress("→ Stopping service container\n")
	if err := o.sup.Stop(ctx, util.ContainerName); err != nil {
		return err
	}
	if err := o.sup.Remove(ctx, util.ContainerName); err != nil {
		return err
	}

	o.progress("→ Removing IPv6 NAT rule\n")
	if err := o.nat.Remove(); err != nil {
		return err
	}

	if o.cfg.ManageIptables() {
		for _, f := range firewall.Families {
			o.progress("→ Deactivating %s firewall chains\n", f)
			if err := o.fw.Deactivate(f); err != nil {
				return err
			}
		}
	}

	o.phase = PhaseStopped
	return nil
}

// Restart is Stop followed by Start; a not-running service just starts.
func (o *Orchestrator) Restart(ctx context.Context) error {
	if err := o.Stop(ctx); err != nil && !errors.Is(err, ErrNotRunning) {
		return err
	}
	return o.Start(ctx)
}

// Status reports the container status and whether each family's chain
// group is active.
func (o *Orchestrator) Status(ctx context.Context) (runtime.ContainerStatus, map[firewall.Family]bool, error) {
	cs, err := o.sup.Status(ctx, util.ContainerName)
	if err != nil {
		return cs, nil, err
	}
	chains := make(map[firewall.Family]bool, len(firewall.Families))
	for _, f := range firewall.Families {
		active, err := o.fw.Active(f)
		if err != nil {
			return cs, nil, err
		}
		chains[f] = active
	}
	return cs, chains, nil
}

// Firewall exposes the controller for the allow-list commands.
func (o *Orchestrator) Firewall() *firewall.Controller {
	return o.fw
}

func (o *Orchestrator) anyChainsActive() (bool, error) {
	for _, f := range firewall.Families {
		active, err := o.fw.Active(f)
		if err != nil {
			return false, err
		}
		if active {
			return true, nil
		}
	}
	return false, nil
}
