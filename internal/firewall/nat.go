package firewall

import (
	"fmt"
	"net"

	"github.com/vishvananda/netlink"

	"github.com/BonFireWatch/proxflix/internal/util"
)

// ServiceIPv6Subnet is the private IPv6 range the service container uses.
// Outbound traffic from it is masqueraded while the NAT rule is installed.
const ServiceIPv6Subnet = "fd00:f1f1::/64"

// natRuleSpec is the single outbound translation rule, scoped to the
// service subnet and excluding the service's own interface.
var natRuleSpec = []string{"-s", ServiceIPv6Subnet, "!", "-o", ServiceInterface, "-j", "MASQUERADE"}

// IPv6Prober reports whether the host currently has globally routable
// IPv6 connectivity.
type IPv6Prober interface {
	HasGlobalIPv6() (bool, error)
}

// netlinkProber queries the kernel's address tables via netlink.
type netlinkProber struct{}

// HasGlobalIPv6 reports whether any interface carries a global-unicast
// IPv6 address. Unique-local (fc00::/7) addresses do not count: they are
// routable only privately and say nothing about upstream connectivity.
func (netlinkProber) HasGlobalIPv6() (bool, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return false, fmt.Errorf("failed to list network interfaces: %w", err)
	}
	for _, link := range links {
		if link.Attrs().OperState == netlink.OperDown {
			continue
		}
		addrs, err := netlink.AddrList(link, netlink.FAMILY_V6)
		if err != nil {
			return false, fmt.Errorf("failed to list IPv6 addresses on %s: %w", link.Attrs().Name, err)
		}
		for _, a := range addrs {
			if a.IP != nil && a.IP.IsGlobalUnicast() && !isUniqueLocal(a.IP) {
				return true, nil
			}
		}
	}
	return false, nil
}

func isUniqueLocal(ip net.IP) bool {
	ip = ip.To16()
	return ip != nil && ip[0]&0xfe == 0xfc
}

// NATHandler manages the transient outbound IPv6 translation rule that
// dual-stacks the service's private subnet while the service runs.
type NATHandler struct {
	env    *util.Env
	prober IPv6Prober
}

// NewNATHandler creates a NATHandler using the given environment.
func NewNATHandler(env *util.Env) *NATHandler {
	return &NATHandler{env: env, prober: netlinkProber{}}
}

// Install inserts the masquerade rule and enables IPv6 forwarding, but
// only when the host actually has global IPv6 connectivity; without it
// the rule would just blackhole traffic. Idempotent: an already present
// rule is left alone rather than duplicated.
func (h *NATHandler) Install() error {
	global, err := h.prober.HasGlobalIPv6()
	if err != nil {
		return err
	}
	if !global {
		return nil
	}

	if !h.natRuleExists() {
		args := append([]string{"-t", "nat", "-I", "POSTROUTING"}, natRuleSpec...)
		if out, err := h.env.Cmd.Run("ip6tables", args...); err != nil {
			return fmt.Errorf("failed to insert NAT rule: %w: %s", err, string(out))
		}
	}

	if out, err := h.env.Cmd.Run("sysctl", "-w", "net.ipv6.conf.all.forwarding=1"); err != nil {
		return fmt.Errorf("failed to enable IPv6 forwarding: %w: %s", err, string(out))
	}
	return nil
}

// Remove deletes every matching instance of the masquerade rule until the
// engine confirms none remain. This covers duplicate rules left behind by
// repeated installs or a prior unclean shutdown; zero matches is success.
func (h *NATHandler) Remove() error {
	for i := 0; i < maxDeleteIterations; i++ {
		if !h.natRuleExists() {
			return nil
		}
		args := append([]string{"-t", "nat", "-D", "POSTROUTING"}, natRuleSpec...)
		if out, err := h.env.Cmd.Run("ip6tables", args...); err != nil {
			return fmt.Errorf("failed to delete NAT rule: %w: %s", err, string(out))
		}
	}
	return fmt.Errorf("NAT rule still present after %d deletions", maxDeleteIterations)
}

func (h *NATHandler) natRuleExists() bool {
	args := append([]string{"-t", "nat", "-C", "POSTROUTING"}, natRuleSpec...)
	_, err := h.env.Cmd.Run("ip6tables", args...)
	return err == nil
}
