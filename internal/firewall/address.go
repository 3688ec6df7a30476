// Package firewall implements the packet-filter policy controller: a
// default-reject rule set for the protected service ports with an
// allow-list of exempted client addresses, maintained idempotently across
// both address families via the iptables and ip6tables command-line tools.
package firewall

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidAddress is returned when a textual address fails
// classification. It never reaches the rule engine.
var ErrInvalidAddress = errors.New("invalid address")

// Family identifies an address family and carries every family-specific
// detail the rest of the controller needs, so nothing downstream
// re-detects families from string shape.
type Family int

const (
	FamilyIPv4 Family = iota
	FamilyIPv6
)

// Families lists both families in the order mutating operations walk them.
var Families = []Family{FamilyIPv4, FamilyIPv6}

// String returns the family name.
func (f Family) String() string {
	if f == FamilyIPv6 {
		return "IPv6"
	}
	return "IPv4"
}

// Binary returns the rule-engine command for this family.
func (f Family) Binary() string {
	if f == FamilyIPv6 {
		return "ip6tables"
	}
	return "iptables"
}

// HostPrefixLen returns the prefix length of a single-host address.
func (f Family) HostPrefixLen() int {
	if f == FamilyIPv6 {
		return 128
	}
	return 32
}

// UDPRejectWith returns the ICMP unreachable variant used to reject UDP
// traffic for this family.
func (f Family) UDPRejectWith() string {
	if f == FamilyIPv6 {
		return "icmp6-adm-prohibited"
	}
	return "icmp-port-unreachable"
}

// Address is a validated allow-list entry: the original text (with any
// /prefix suffix) plus its classified family. Produce it once with
// ParseAddress and thread it through every subsequent call.
type Address struct {
	Text   string
	Family Family
}

// ParseAddress classifies s and returns it as a tagged Address.
func ParseAddress(s string) (Address, error) {
	family, err := Classify(s)
	if err != nil {
		return Address{}, err
	}
	return Address{Text: s, Family: family}, nil
}

// Classify determines the address family of s, which may carry an
// optional /prefix suffix. IPv4 requires four dot-separated decimal
// octets in [0,255] and a prefix in [0,32]; IPv6 requires 1-8
// colon-separated groups of up to four hex digits and a prefix in
// [0,128]. Anything else is ErrInvalidAddress.
func Classify(s string) (Family, error) {
	addr := s
	prefix := -1

	if slash := strings.IndexByte(s, '/'); slash >= 0 {
		addr = s[:slash]
		p, err := strconv.Atoi(s[slash+1:])
		if err != nil || p < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
		}
		prefix = p
	}

	if isIPv4(addr) {
		if prefix > 32 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
		}
		return FamilyIPv4, nil
	}
	if isIPv6(addr) {
		if prefix > 128 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
		}
		return FamilyIPv6, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
}

func isIPv4(s string) bool {
	octets := strings.Split(s, ".")
	if len(octets) != 4 {
		return false
	}
	for _, o := range octets {
		if len(o) == 0 || len(o) > 3 {
			return false
		}
		n := 0
		for _, c := range o {
			if c < '0' || c > '9' {
				return false
			}
			n = n*10 + int(c-'0')
		}
		if n > 255 {
			return false
		}
	}
	return true
}

func isIPv6(s string) bool {
	groups := strings.Split(s, ":")
	if len(groups) < 1 || len(groups) > 8 {
		return false
	}
	if !strings.Contains(s, ":") {
		return false
	}
	for _, g := range groups {
		// Empty groups come from "::" compression; full RFC compression
		// validation is not needed here, only rejection of obvious garbage.
		if len(g) > 4 {
			return false
		}
		for _, c := range g {
			switch {
			case c >= '0' && c <= '9':
			case c >= 'a' && c <= 'f':
			case c >= 'A' && c <= 'F':
			default:
				return false
			}
		}
	}
	return true
}
