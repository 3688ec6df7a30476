package firewall

import (
	"fmt"
	"strings"

	"github.com/BonFireWatch/proxflix/internal/util"
)

// Controller owns the per-family chain group, the allow-list inside it,
// and the persisted allow-list snapshot. All rule-engine access goes
// through env.Cmd so tests can substitute a MockCommandRunner.
type Controller struct {
	env *util.Env
}

// NewController creates a Controller using the given environment.
func NewController(env *util.Env) *Controller {
	return &Controller{env: env}
}

// Rule is the controller's canonical representation of one rule: the
// chain it lives in plus the exact match-and-target argv. The rule engine
// deletes by specification equality, so Spec must reproduce the engine's
// own listing format token for token.
type Rule struct {
	Chain string
	Spec  []string
}

// run executes the family's rule-engine binary and wraps failures with
// the tool's combined output, which carries the useful diagnostic.
func (c *Controller) run(f Family, args ...string) error {
	out, err := c.env.Cmd.Run(f.Binary(), args...)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %s", f.Binary(), strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

// ruleExists probes a rule with the engine's check operation. A non-zero
// exit means "no such rule"; the engine does not distinguish that from
// other failures on the check path.
func (c *Controller) ruleExists(f Family, chain string, spec ...string) bool {
	args := append([]string{"-C", chain}, spec...)
	_, err := c.env.Cmd.Run(f.Binary(), args...)
	return err == nil
}
