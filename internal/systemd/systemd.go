// Package systemd generates the boot-time unit for the controller and
// drives systemctl. The unit file is only rewritten when its content
// actually changed, and the manager is reloaded after any rewrite.
package systemd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/afero"

	"github.com/BonFireWatch/proxflix/internal/util"
)

const (
	// UnitName is the systemd unit controlling the service.
	UnitName = "proxflix.service"
	// UnitPath is where the generated unit file lives.
	UnitPath = "/etc/systemd/system/proxflix.service"
)

// executable is overridable in tests; the unit must invoke the binary
// that generated it.
var executable = os.Executable

// UnitContent returns the unit file content. ExecStart and ExecStop call
// back into this binary's container entry points; RemainAfterExit keeps
// the unit "active" between them.
func UnitContent() (string, error) {
	bin, err := executable()
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable path: %w", err)
	}
	return fmt.Sprintf(`[Unit]
Description=Proxflix access-controlled proxy
After=network-online.target docker.service
Requires=docker.service

[Service]
Type=oneshot
RemainAfterExit=yes
ExecStart=%s start-container
ExecStop=%s stop-container

[Install]
WantedBy=multi-user.target
`, bin, bin), nil
}

// Install writes the unit file if its content changed and reloads the
// manager configuration afterwards. Writing an identical file is skipped
// entirely, including the reload.
func Install(env *util.Env) error {
	want, err := UnitContent()
	if err != nil {
		return err
	}

	current, err := afero.ReadFile(env.Fs, UnitPath)
	if err == nil && bytes.Equal(current, []byte(want)) {
		return nil
	}

	if err := afero.WriteFile(env.Fs, UnitPath, []byte(want), 0o644); err != nil {
		return fmt.Errorf("failed to write unit file: %w", err)
	}
	if out, err := env.Cmd.Run("systemctl", "daemon-reload"); err != nil {
		return fmt.Errorf("systemctl daemon-reload failed: %w: %s", err, string(out))
	}
	return nil
}

// Enable installs the unit and enables it at boot.
func Enable(env *util.Env) error {
	if err := Install(env); err != nil {
		return err
	}
	if out, err := env.Cmd.Run("systemctl", "enable", UnitName); err != nil {
		return fmt.Errorf("systemctl enable failed: %w: %s", err, string(out))
	}
	return nil
}

// Disable disables the unit at boot. A unit that was never installed is
// not an error.
func Disable(env *util.Env) error {
	if out, err := env.Cmd.Run("systemctl", "disable", UnitName); err != nil {
		if _, statErr := env.Fs.Stat(UnitPath); os.IsNotExist(statErr) {
			return nil
		}
		return fmt.Errorf("systemctl disable failed: %w: %s", err, string(out))
	}
	return nil
}

// StartUnit starts the unit through the service manager.
func StartUnit(env *util.Env) error {
	if out, err := env.Cmd.Run("systemctl", "start", UnitName); err != nil {
		return fmt.Errorf("systemctl start failed: %w: %s", err, string(out))
	}
	return nil
}

// StopUnit stops the unit through the service manager.
func StopUnit(env *util.Env) error {
	if out, err := env.Cmd.Run("systemctl", "stop", UnitName); err != nil {
		return fmt.Errorf("systemctl stop failed: %w: %s", err, string(out))
	}
	return nil
}
