package firewall

// Chain names. Everything starting with chainPrefix is owned by this
// controller and fair game for teardown; nothing else is ever touched.
const (
	chainPrefix = "PROXFLIX"

	// FilterChain holds the accept rules followed by the port rejects.
	FilterChain = "PROXFLIX"
	// InputChain is spliced into INPUT and forwards to FilterChain.
	InputChain = "PROXFLIX-INPUT"
	// ForwardChain is spliced into FORWARD, scoped to the service
	// interface, and forwards to FilterChain.
	ForwardChain = "PROXFLIX-FORWARD"
)

// ServiceInterface is the virtual network interface of the backing
// service's container bridge.
const ServiceInterface = "docker0"

// protectedPorts are rejected in this fixed order for traffic that no
// accept rule matched first.
var protectedPorts = []struct {
	proto string
	port  string
}{
	{"tcp", "443"},
	{"tcp", "80"},
	{"tcp", "53"},
	{"udp", "53"},
}

// rejectSpec builds the reject rule argv for one protected port. TCP
// gets a connection reset; UDP gets the family's ICMP unreachable.
func rejectSpec(f Family, proto, port string) []string {
	rejectWith := "tcp-reset"
	if proto == "udp" {
		rejectWith = f.UDPRejectWith()
	}
	return []string{"-p", proto, "--dport", port, "-j", "REJECT", "--reject-with", rejectWith}
}

// Active reports whether the family's chain group exists, judged by the
// presence of the filter chain.
func (c *Controller) Active(f Family) (bool, error) {
	chains, err := c.OwnedChains(f)
	if err != nil {
		return false, err
	}
	for _, ch := range chains {
		if ch == FilterChain {
			return true, nil
		}
	}
	return false, nil
}

// Activate brings the family's chain group from any prior state to fully
// active. It is idempotent: it always tears down its own prior rules
// first, so a retry after a partial failure converges.
func (c *Controller) Activate(f Family) error {
	if err := c.Deactivate(f); err != nil {
		return err
	}

	for _, chain := range []string{FilterChain, InputChain, ForwardChain} {
		if err := c.run(f, "-N", chain); err != nil {
			return err
		}
	}

	// Splice the entry chains into the system hooks and wire them to the
	// filter chain.
	if err := c.run(f, "-I", "INPUT", "-j", InputChain); err != nil {
		return err
	}
	if err := c.run(f, "-I", "FORWARD", "-o", ServiceInterface, "-j", ForwardChain); err != nil {
		return err
	}
	if err := c.run(f, "-A", InputChain, "-j", FilterChain); err != nil {
		return err
	}
	if err := c.run(f, "-A", ForwardChain, "-j", FilterChain); err != nil {
		return err
	}

	// Replay persisted allow entries before appending the rejects, so an
	// allowed address is never caught by a reject rule for a protected
	// port. Accept inserts also always go to the head of the chain, which
	// keeps the invariant for entries added later.
	if err := c.Replay(f); err != nil {
		return err
	}

	for _, p := range protectedPorts {
		args := append([]string{"-A", FilterChain}, rejectSpec(f, p.proto, p.port)...)
		if err := c.run(f, args...); err != nil {
			return err
		}
	}
	return nil
}

// Deactivate removes the family's chain group entirely. It discovers
// what actually exists instead of assuming, so it succeeds against a
// fully absent or partially created group; it is the recovery path run
// on every start and stop and must never fail on prior partial state.
func (c *Controller) Deactivate(f Family) error {
	chains, err := c.OwnedChains(f)
	if err != nil {
		return err
	}

	for _, chain := range chains {
		if err := c.run(f, "-F", chain); err != nil {
			return err
		}

		jumps, err := c.JumpRulesInto(f, chain)
		if err != nil {
			return err
		}
		// Reverse listed order keeps remaining rule positions valid while
		// deleting.
		for i := len(jumps) - 1; i >= 0; i-- {
			args := append([]string{"-D", jumps[i].Chain}, jumps[i].Spec...)
			if err := c.run(f, args...); err != nil {
				return err
			}
		}

		if err := c.run(f, "-X", chain); err != nil {
			return err
		}
	}
	return nil
}
