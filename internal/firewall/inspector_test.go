package firewall

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BonFireWatch/proxflix/internal/util"
)

func newTestController(engine *fakeRuleEngine) *Controller {
	return NewController(&util.Env{Fs: afero.NewMemMapFs(), Cmd: engine})
}

func TestOwnedChains(t *testing.T) {
	engine := newFakeRuleEngine()
	c := newTestController(engine)

	chains, err := c.OwnedChains(FamilyIPv4)
	require.NoError(t, err)
	assert.Empty(t, chains)

	for _, args := range [][]string{
		{"-N", FilterChain},
		{"-N", InputChain},
		{"-N", "DOCKER-USER"}, // foreign chain, must not be listed
	} {
		_, err := engine.Run("iptables", args...)
		require.NoError(t, err)
	}

	chains, err = c.OwnedChains(FamilyIPv4)
	require.NoError(t, err)
	assert.Equal(t, []string{FilterChain, InputChain}, chains)

	// The other family's ruleset is independent.
	chains, err = c.OwnedChains(FamilyIPv6)
	require.NoError(t, err)
	assert.Empty(t, chains)
}

func TestJumpRulesInto(t *testing.T) {
	engine := newFakeRuleEngine()
	c := newTestController(engine)

	_, err := engine.Run("iptables", "-N", FilterChain)
	require.NoError(t, err)
	_, err = engine.Run("iptables", "-N", InputChain)
	require.NoError(t, err)
	_, err = engine.Run("iptables", "-I", "INPUT", "-j", InputChain)
	require.NoError(t, err)
	_, err = engine.Run("iptables", "-A", InputChain, "-j", FilterChain)
	require.NoError(t, err)
	_, err = engine.Run("iptables", "-A", "INPUT", "-j", "DROP")
	require.NoError(t, err)

	jumps, err := c.JumpRulesInto(FamilyIPv4, InputChain)
	require.NoError(t, err)
	require.Len(t, jumps, 1)
	assert.Equal(t, "INPUT", jumps[0].Chain)
	assert.Equal(t, []string{"-j", InputChain}, jumps[0].Spec)

	jumps, err = c.JumpRulesInto(FamilyIPv4, FilterChain)
	require.NoError(t, err)
	require.Len(t, jumps, 1)
	assert.Equal(t, InputChain, jumps[0].Chain)
}

func TestAcceptAddresses(t *testing.T) {
	engine := newFakeRuleEngine()
	c := newTestController(engine)

	_, err := engine.Run("iptables", "-N", FilterChain)
	require.NoError(t, err)
	for _, args := range [][]string{
		{"-A", FilterChain, "-s", "203.0.113.5/32", "-j", "ACCEPT"},
		{"-A", FilterChain, "-s", "198.51.100.0/24", "-j", "ACCEPT"},
		{"-A", FilterChain, "-s", "203.0.113.5/32", "-j", "ACCEPT"}, // duplicate
		{"-A", FilterChain, "-p", "tcp", "--dport", "443", "-j", "REJECT", "--reject-with", "tcp-reset"},
	} {
		_, err := engine.Run("iptables", args...)
		require.NoError(t, err)
	}

	addrs, err := c.AcceptAddresses(FamilyIPv4)
	require.NoError(t, err)
	// Host prefix stripped, deduplicated, sorted; CIDR prefix kept.
	assert.Equal(t, []string{"198.51.100.0/24", "203.0.113.5"}, addrs)
}

func TestAcceptAddressesFailsWithoutChain(t *testing.T) {
	engine := newFakeRuleEngine()
	c := newTestController(engine)

	_, err := c.AcceptAddresses(FamilyIPv4)
	assert.Error(t, err)
}
