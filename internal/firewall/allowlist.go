package firewall

import (
	"errors"
	"fmt"
	"sort"
)

// ErrNotActive is returned for allow-list mutations while the address
// family's chain group does not exist.
var ErrNotActive = errors.New("firewall chains are not active")

// maxDeleteIterations bounds the delete-until-gone loops. Exceeding it
// means the rule engine keeps reporting a rule it claims to delete, which
// is an engine bug worth failing loudly on instead of spinning.
const maxDeleteIterations = 64

// acceptSpec builds the accept rule argv for one allow-list entry.
func acceptSpec(addr Address) []string {
	return []string{"-s", addr.Text, "-j", "ACCEPT"}
}

// Allow adds one accept rule for addr to the filter chain of its family
// and rebuilds the persisted snapshot. Idempotent: any existing rule for
// the same address is removed first, so at most one accept rule per
// address ever exists. Fails with ErrNotActive when the family's chain
// group is absent.
func (c *Controller) Allow(addr Address) error {
	if err := c.applyAllow(addr); err != nil {
		return err
	}
	return c.RebuildSnapshot()
}

// applyAllow is Allow without the snapshot rebuild. Snapshot replay uses
// it directly: rebuilding mid-replay would overwrite the file with a
// partial view while the other family is still inactive.
func (c *Controller) applyAllow(addr Address) error {
	active, err := c.Active(addr.Family)
	if err != nil {
		return err
	}
	if !active {
		return fmt.Errorf("%w for %s", ErrNotActive, addr.Family)
	}

	if err := c.deleteAccepts(addr); err != nil {
		return err
	}

	// Insert at the head of the chain so the accept is evaluated before
	// the port reject rules under first-match semantics.
	args := append([]string{"-I", FilterChain, "1"}, acceptSpec(addr)...)
	return c.run(addr.Family, args...)
}

// Disallow removes every accept rule for addr from its family's filter
// chain. Zero matching rules is success, not an error; the chain group
// being absent entirely is also success (there is nothing the rule could
// exist in). Rebuilds the snapshot when anything could have changed.
func (c *Controller) Disallow(addr Address) error {
	active, err := c.Active(addr.Family)
	if err != nil {
		return err
	}
	if !active {
		return nil
	}
	if err := c.deleteAccepts(addr); err != nil {
		return err
	}
	return c.RebuildSnapshot()
}

// deleteAccepts deletes matching accept rules until the engine confirms
// none remain. Duplicates accumulated through prior bugs or races are
// cleaned up along the way.
func (c *Controller) deleteAccepts(addr Address) error {
	spec := acceptSpec(addr)
	for i := 0; i < maxDeleteIterations; i++ {
		if !c.ruleExists(addr.Family, FilterChain, spec...) {
			return nil
		}
		args := append([]string{"-D", FilterChain}, spec...)
		if err := c.run(addr.Family, args...); err != nil {
			return err
		}
	}
	return fmt.Errorf("accept rule for %q still present after %d deletions", addr.Text, maxDeleteIterations)
}

// List returns the allow-listed addresses across both families, merged,
// deduplicated and sorted. Families without an active chain group
// contribute nothing.
func (c *Controller) List() ([]string, error) {
	seen := make(map[string]bool)
	var merged []string
	for _, f := range Families {
		active, err := c.Active(f)
		if err != nil {
			return nil, err
		}
		if !active {
			continue
		}
		addrs, err := c.AcceptAddresses(f)
		if err != nil {
			return nil, err
		}
		for _, a := range addrs {
			if !seen[a] {
				seen[a] = true
				merged = append(merged, a)
			}
		}
	}
	sort.Strings(merged)
	return merged, nil
}
