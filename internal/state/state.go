// Package state persists controller identity across invocations in
// /var/lib/proxflix/state.json: a stable instance UUID, the managed
// container's name, and when the controller first started it.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/BonFireWatch/proxflix/internal/util"
)

// State is the persisted controller state.
type State struct {
	// InstanceID is a unique UUID for this installation.
	InstanceID string `json:"instance_id"`
	// ContainerName is the name of the managed service container.
	ContainerName string `json:"container_name"`
	// CreatedAt is when the state was first created.
	CreatedAt time.Time `json:"created_at"`
	// LastStartedAt is when the service was last started.
	LastStartedAt time.Time `json:"last_started_at,omitempty"`
}

// Load reads the state file. Returns nil and no error if it does not
// exist yet.
func Load(env *util.Env) (*State, error) {
	data, err := afero.ReadFile(env.Fs, util.StateFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}
	return &st, nil
}

// LoadOrCreate loads the state file, creating and saving a fresh one
// when none exists. The second result reports whether it was created.
func LoadOrCreate(env *util.Env) (*State, bool, error) {
	st, err := Load(env)
	if err != nil {
		return nil, false, err
	}
	if st != nil {
		return st, false, nil
	}

	st = &State{
		InstanceID:    uuid.New().String(),
		ContainerName: util.ContainerName,
		CreatedAt:     time.Now().UTC(),
	}
	if err := Save(env, st); err != nil {
		return nil, false, err
	}
	return st, true, nil
}

// Save writes the state file, creating its directory if needed.
func Save(env *util.Env, st *State) error {
	if err := env.Fs.MkdirAll(filepath.Dir(util.StateFile), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := afero.WriteFile(env.Fs, util.StateFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}
