package runtime

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Docker implements the Supervisor interface using the Docker CLI.
type Docker struct {
	env *Env
}

// NewDocker creates a new Docker supervisor.
func NewDocker(env *Env) *Docker {
	return &Docker{env: env}
}

// Available checks if the Docker CLI is installed and the daemon answers.
func (d *Docker) Available(ctx context.Context) bool {
	_, err := d.env.Cmd.Run("docker", "version", "--format", "{{.Server.Version}}")
	return err == nil
}

// IsRunning reports whether the named container is running.
func (d *Docker) IsRunning(ctx context.Context, name string) (bool, error) {
	status, err := d.Status(ctx, name)
	if err != nil {
		return false, err
	}
	return status.State == StateRunning, nil
}

// Start creates and starts the container. Any prior container with the
// same name is removed first so a stale stopped container cannot shadow
// the new one.
func (d *Docker) Start(ctx context.Context, spec StartSpec) error {
	status, err := d.Status(ctx, spec.Name)
	if err != nil {
		return err
	}
	if status.State == StateRunning {
		return nil
	}
	if status.State != StateNotFound {
		if err := d.Remove(ctx, spec.Name); err != nil {
			return fmt.Errorf("failed to remove stale container: %w", err)
		}
	}

	args := []string{"run", "-d", "--name", spec.Name, "--restart", "unless-stopped"}

	if spec.Network != "" {
		args = append(args, "--net", spec.Network)
	}
	for _, p := range spec.Ports {
		args = append(args, "-p", fmt.Sprintf("%s:%s/%s", p.Port, p.Port, p.Proto))
	}

	// Sorted for a deterministic command line.
	keys := make([]string, 0, len(spec.Env))
	for k := range spec.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-e", k+"="+spec.Env[k])
	}

	args = append(args, spec.Image)

	if out, err := d.env.Cmd.Run("docker", args...); err != nil {
		return fmt.Errorf("docker run failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Stop stops the container. A container that does not exist is success.
func (d *Docker) Stop(ctx context.Context, name string) error {
	out, err := d.env.Cmd.Run("docker", "stop", name)
	if err != nil && !strings.Contains(string(out), "No such container") {
		return fmt.Errorf("docker stop failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Remove force-removes the container. A container that does not exist is
// success.
func (d *Docker) Remove(ctx context.Context, name string) error {
	out, err := d.env.Cmd.Run("docker", "rm", "-f", name)
	if err != nil && !strings.Contains(string(out), "No such container") {
		return fmt.Errorf("docker rm failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Status inspects the container by name.
func (d *Docker) Status(ctx context.Context, name string) (ContainerStatus, error) {
	out, err := d.env.Cmd.Run("docker", "inspect",
		"--format", "{{.State.Status}}|{{.Id}}|{{.Name}}|{{.Config.Image}}|{{.State.StartedAt}}",
		name)
	if err != nil {
		// Container not found.
		return ContainerStatus{State: StateNotFound}, nil
	}

	parts := strings.Split(strings.TrimSpace(string(out)), "|")
	if len(parts) < 5 {
		return ContainerStatus{State: StateUnknown}, nil
	}

	st := StateUnknown
	switch parts[0] {
	case "running":
		st = StateRunning
	case "exited", "stopped", "created":
		st = StateStopped
	}

	return ContainerStatus{
		State:     st,
		ID:        parts[1],
		Name:      strings.TrimPrefix(parts[2], "/"),
		Image:     parts[3],
		StartedAt: parts[4],
	}, nil
}
