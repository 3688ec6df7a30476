package firewall

import (
	"fmt"
	"sort"
	"strings"
)

// dumpRuleset lists the whole filter table in rule-specification format
// (one "-N name" or "-A chain ..." line per rule). A listing failure is
// fatal to the calling operation; there is nothing to retry.
func (c *Controller) dumpRuleset(f Family) ([]string, error) {
	out, err := c.env.Cmd.Run(f.Binary(), "-S")
	if err != nil {
		return nil, fmt.Errorf("%s -S: %w: %s", f.Binary(), err, strings.TrimSpace(string(out)))
	}
	var lines []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// OwnedChains returns every chain in the family's ruleset whose name
// carries this controller's prefix, in listed order.
func (c *Controller) OwnedChains(f Family) ([]string, error) {
	lines, err := c.dumpRuleset(f)
	if err != nil {
		return nil, err
	}
	var chains []string
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 2 && fields[0] == "-N" && strings.HasPrefix(fields[1], chainPrefix) {
			chains = append(chains, fields[1])
		}
	}
	return chains, nil
}

// JumpRulesInto returns every rule anywhere in the family's ruleset that
// jumps to the given chain, in listed order. Callers delete these in
// reverse order so earlier deletions cannot shift later matches.
func (c *Controller) JumpRulesInto(f Family, chain string) ([]Rule, error) {
	lines, err := c.dumpRuleset(f)
	if err != nil {
		return nil, err
	}
	var rules []Rule
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 4 || fields[0] != "-A" {
			continue
		}
		if fields[len(fields)-2] == "-j" && fields[len(fields)-1] == chain {
			rules = append(rules, Rule{Chain: fields[1], Spec: fields[2:]})
		}
	}
	return rules, nil
}

// AcceptAddresses returns the bare source address of every accept rule in
// the family's filter chain, deduplicated and sorted. A prefix equal to
// the family's single-host length is stripped so "1.2.3.4/32" and
// "1.2.3.4" list identically.
func (c *Controller) AcceptAddresses(f Family) ([]string, error) {
	out, err := c.env.Cmd.Run(f.Binary(), "-S", FilterChain)
	if err != nil {
		return nil, fmt.Errorf("%s -S %s: %w: %s", f.Binary(), FilterChain, err, strings.TrimSpace(string(out)))
	}

	hostSuffix := fmt.Sprintf("/%d", f.HostPrefixLen())
	seen := make(map[string]bool)
	var addrs []string
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		// -A PROXFLIX -s <addr> -j ACCEPT
		if len(fields) != 6 || fields[0] != "-A" || fields[1] != FilterChain {
			continue
		}
		if fields[2] != "-s" || fields[4] != "-j" || fields[5] != "ACCEPT" {
			continue
		}
		addr := strings.TrimSuffix(fields[3], hostSuffix)
		if !seen[addr] {
			seen[addr] = true
			addrs = append(addrs, addr)
		}
	}
	sort.Strings(addrs)
	return addrs, nil
}
