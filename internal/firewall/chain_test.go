package firewall

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivateFreshLayout(t *testing.T) {
	engine := newFakeRuleEngine()
	c := newTestController(engine)

	require.NoError(t, c.Activate(FamilyIPv4))

	// Filter chain: exactly the four rejects, no accepts.
	assert.Equal(t, []string{
		"-p tcp --dport 443 -j REJECT --reject-with tcp-reset",
		"-p tcp --dport 80 -j REJECT --reject-with tcp-reset",
		"-p tcp --dport 53 -j REJECT --reject-with tcp-reset",
		"-p udp --dport 53 -j REJECT --reject-with icmp-port-unreachable",
	}, engine.chainRules("iptables", "filter", FilterChain))

	// Hook splices and entry wiring.
	assert.Contains(t, engine.chainRules("iptables", "filter", "INPUT"), "-j "+InputChain)
	assert.Contains(t, engine.chainRules("iptables", "filter", "FORWARD"), "-o "+ServiceInterface+" -j "+ForwardChain)
	assert.Equal(t, []string{"-j " + FilterChain}, engine.chainRules("iptables", "filter", InputChain))
	assert.Equal(t, []string{"-j " + FilterChain}, engine.chainRules("iptables", "filter", ForwardChain))

	active, err := c.Active(FamilyIPv4)
	require.NoError(t, err)
	assert.True(t, active)
}

func TestActivateIPv6UsesFamilyReject(t *testing.T) {
	engine := newFakeRuleEngine()
	c := newTestController(engine)

	require.NoError(t, c.Activate(FamilyIPv6))

	rules := engine.chainRules("ip6tables", "filter", FilterChain)
	require.Len(t, rules, 4)
	assert.Equal(t, "-p udp --dport 53 -j REJECT --reject-with icmp6-adm-prohibited", rules[3])

	// IPv4 side untouched.
	assert.False(t, engine.hasChain("iptables", "filter", FilterChain))
}

func TestActivateTwiceIsIdempotent(t *testing.T) {
	engine := newFakeRuleEngine()
	c := newTestController(engine)

	require.NoError(t, c.Activate(FamilyIPv4))
	first := append([]string{}, engine.chainRules("iptables", "filter", FilterChain)...)
	firstInput := append([]string{}, engine.chainRules("iptables", "filter", "INPUT")...)

	require.NoError(t, c.Activate(FamilyIPv4))

	assert.Equal(t, first, engine.chainRules("iptables", "filter", FilterChain))
	assert.Equal(t, firstInput, engine.chainRules("iptables", "filter", "INPUT"))

	chains, err := c.OwnedChains(FamilyIPv4)
	require.NoError(t, err)
	assert.Len(t, chains, 3)
}

func TestDeactivateRemovesEverything(t *testing.T) {
	engine := newFakeRuleEngine()
	c := newTestController(engine)

	require.NoError(t, c.Activate(FamilyIPv4))
	require.NoError(t, c.Deactivate(FamilyIPv4))

	chains, err := c.OwnedChains(FamilyIPv4)
	require.NoError(t, err)
	assert.Empty(t, chains)
	assert.Empty(t, engine.chainRules("iptables", "filter", "INPUT"))
	assert.Empty(t, engine.chainRules("iptables", "filter", "FORWARD"))
}

func TestDeactivateOnCleanSystemIsNoop(t *testing.T) {
	engine := newFakeRuleEngine()
	c := newTestController(engine)

	require.NoError(t, c.Deactivate(FamilyIPv4))
	require.NoError(t, c.Deactivate(FamilyIPv4))
}

func TestDeactivateAfterPartialCreation(t *testing.T) {
	engine := newFakeRuleEngine()
	c := newTestController(engine)

	// Simulate a crash mid-activate: only the filter chain exists.
	_, err := engine.Run("iptables", "-N", FilterChain)
	require.NoError(t, err)

	require.NoError(t, c.Deactivate(FamilyIPv4))

	chains, err := c.OwnedChains(FamilyIPv4)
	require.NoError(t, err)
	assert.Empty(t, chains)
}

func TestDeactivateWithDanglingJump(t *testing.T) {
	engine := newFakeRuleEngine()
	c := newTestController(engine)

	// Chain plus hook splice but no rules: another partial-activate shape.
	_, err := engine.Run("iptables", "-N", InputChain)
	require.NoError(t, err)
	_, err = engine.Run("iptables", "-I", "INPUT", "-j", InputChain)
	require.NoError(t, err)

	require.NoError(t, c.Deactivate(FamilyIPv4))

	chains, err := c.OwnedChains(FamilyIPv4)
	require.NoError(t, err)
	assert.Empty(t, chains)
	assert.Empty(t, engine.chainRules("iptables", "filter", "INPUT"))
}
