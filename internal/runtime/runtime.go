// Package runtime controls the backing service container through the
// Docker CLI. The controller treats the container as opaque: it only
// starts, stops, removes and inspects it.
package runtime

import (
	"context"
	"errors"

	"github.com/BonFireWatch/proxflix/internal/util"
)

// Common errors returned by supervisor implementations.
var (
	ErrNotAvailable = errors.New("container runtime not available")
	ErrNotRunning   = errors.New("container is not running")
)

// ContainerState represents the state of a container.
type ContainerState string

const (
	StateUnknown  ContainerState = "unknown"
	StateRunning  ContainerState = "running"
	StateStopped  ContainerState = "stopped"
	StateNotFound ContainerState = "not_found"
)

// ContainerStatus contains status information about a container.
type ContainerStatus struct {
	State     ContainerState
	ID        string
	Name      string
	Image     string
	StartedAt string
}

// PortBinding maps a host port to the same container port.
type PortBinding struct {
	Port  string
	Proto string // "tcp" or "udp"
}

// StartSpec describes the container to start.
type StartSpec struct {
	Name    string
	Image   string
	Env     map[string]string
	Ports   []PortBinding
	Network string // docker network mode, e.g. "host" or "bridge"
}

// Supervisor defines the process/container supervisor operations the
// orchestrator depends on.
type Supervisor interface {
	// Available checks whether the runtime is installed and reachable.
	Available(ctx context.Context) bool

	// IsRunning reports whether the named container is currently running.
	IsRunning(ctx context.Context, name string) (bool, error)

	// Start creates and starts a container. An existing stopped container
	// with the same name is removed first.
	Start(ctx context.Context, spec StartSpec) error

	// Stop stops the named container. A missing container is success.
	Stop(ctx context.Context, name string) error

	// Remove force-removes the named container. A missing container is
	// success.
	Remove(ctx context.Context, name string) error

	// Status returns the current status of the named container.
	Status(ctx context.Context, name string) (ContainerStatus, error)
}

// Env contains runtime environment dependencies, injected for testing.
type Env struct {
	Cmd util.CommandRunner
}

// NewEnv creates a runtime Env with the given CommandRunner.
func NewEnv(cmd util.CommandRunner) *Env {
	return &Env{Cmd: cmd}
}
