package firewall

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/BonFireWatch/proxflix/internal/util"
)

// The snapshot file is a cache of the live accept rules, one address per
// line. The live ruleset stays authoritative; the file exists solely so a
// recreated chain group can get its allow-list back.

// RebuildSnapshot overwrites the snapshot file with the current live
// allow-list. The write goes to a temp file in the same directory first
// and is renamed into place, so a crash mid-write never corrupts the
// previous valid snapshot.
func (c *Controller) RebuildSnapshot() error {
	addrs, err := c.List()
	if err != nil {
		return err
	}

	var sb strings.Builder
	for _, a := range addrs {
		sb.WriteString(a)
		sb.WriteByte('\n')
	}

	dir := filepath.Dir(util.AllowListFile)
	if err := c.env.Fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := afero.TempFile(c.env.Fs, dir, ".allowed-ips-*")
	if err != nil {
		return fmt.Errorf("failed to create snapshot temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(sb.String()); err != nil {
		tmp.Close()
		c.env.Fs.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		c.env.Fs.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := c.env.Fs.Rename(tmpName, util.AllowListFile); err != nil {
		c.env.Fs.Remove(tmpName)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// Replay reads the snapshot file and re-applies every entry belonging to
// the given family. A missing file is an empty list. Lines that fail
// classification are skipped with a warning rather than aborting the
// activation; a hand-edited or corrupt snapshot must not block the
// well-formed entries.
func (c *Controller) Replay(f Family) error {
	data, err := afero.ReadFile(c.env.Fs, util.AllowListFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		addr, err := ParseAddress(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: skipping unparseable allow-list entry %q\n", line)
			continue
		}
		if addr.Family != f {
			continue
		}
		if err := c.applyAllow(addr); err != nil {
			return err
		}
	}
	return nil
}
