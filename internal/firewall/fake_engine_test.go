package firewall

import (
	"fmt"
	"strconv"
	"strings"
)

// fakeRuleEngine is an in-memory stand-in for iptables/ip6tables with the
// semantics the controller relies on: named chains, ordered rules,
// delete/check by exact specification, and -S listing in rule-spec
// format. iptables and ip6tables state are independent, as on a real
// host.
type fakeRuleEngine struct {
	tables map[string]map[string]*fakeTable // binary -> table name -> state
	Calls  []string
}

type fakeTable struct {
	builtin []string
	chains  map[string][]string // chain -> ordered rule specs
	order   []string            // user chain creation order
}

func newFakeRuleEngine() *fakeRuleEngine {
	e := &fakeRuleEngine{tables: make(map[string]map[string]*fakeTable)}
	for _, binary := range []string{"iptables", "ip6tables"} {
		e.tables[binary] = map[string]*fakeTable{
			"filter": newFakeTable("INPUT", "FORWARD", "OUTPUT"),
			"nat":    newFakeTable("PREROUTING", "INPUT", "OUTPUT", "POSTROUTING"),
		}
	}
	return e
}

func newFakeTable(builtins ...string) *fakeTable {
	t := &fakeTable{builtin: builtins, chains: make(map[string][]string)}
	for _, b := range builtins {
		t.chains[b] = nil
	}
	return t
}

func (e *fakeRuleEngine) Run(name string, args ...string) ([]byte, error) {
	e.Calls = append(e.Calls, name+" "+strings.Join(args, " "))

	if name == "sysctl" {
		return nil, nil
	}
	binTables, ok := e.tables[name]
	if !ok {
		return nil, fmt.Errorf("fake engine: unknown binary %q", name)
	}

	table := "filter"
	if len(args) >= 2 && args[0] == "-t" {
		table = args[1]
		args = args[2:]
	}
	t, ok := binTables[table]
	if !ok {
		return nil, fmt.Errorf("fake engine: unknown table %q", table)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("fake engine: no operation")
	}

	op, args := args[0], args[1:]
	switch op {
	case "-N":
		return t.newChain(args[0])
	case "-X":
		return t.deleteChain(args[0])
	case "-F":
		return t.flush(args[0])
	case "-A":
		return t.append(args[0], args[1:])
	case "-I":
		return t.insert(args[0], args[1:])
	case "-D":
		return t.delete(args[0], args[1:])
	case "-C":
		return t.check(args[0], args[1:])
	case "-S":
		if len(args) == 1 {
			return t.list(args[0])
		}
		return t.listAll()
	}
	return nil, fmt.Errorf("fake engine: unsupported operation %q", op)
}

func (e *fakeRuleEngine) RunQuiet(name string, args ...string) (string, error) {
	out, err := e.Run(name, args...)
	if err != nil {
		return string(out), err
	}
	return "", nil
}

func (t *fakeTable) newChain(chain string) ([]byte, error) {
	if _, exists := t.chains[chain]; exists {
		return []byte("Chain already exists."), fmt.Errorf("exit status 1")
	}
	t.chains[chain] = nil
	t.order = append(t.order, chain)
	return nil, nil
}

func (t *fakeTable) deleteChain(chain string) ([]byte, error) {
	rules, exists := t.chains[chain]
	if !exists {
		return []byte("No chain/target/match by that name."), fmt.Errorf("exit status 1")
	}
	if len(rules) > 0 {
		return []byte("Directory not empty."), fmt.Errorf("exit status 1")
	}
	for _, other := range t.chains {
		for _, spec := range other {
			if strings.HasSuffix(spec, "-j "+chain) {
				return []byte("Resource busy."), fmt.Errorf("exit status 1")
			}
		}
	}
	delete(t.chains, chain)
	for i, c := range t.order {
		if c == chain {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil, nil
}

func (t *fakeTable) flush(chain string) ([]byte, error) {
	if _, exists := t.chains[chain]; !exists {
		return []byte("No chain/target/match by that name."), fmt.Errorf("exit status 1")
	}
	t.chains[chain] = nil
	return nil, nil
}

func (t *fakeTable) append(chain string, spec []string) ([]byte, error) {
	if _, exists := t.chains[chain]; !exists {
		return []byte("No chain/target/match by that name."), fmt.Errorf("exit status 1")
	}
	t.chains[chain] = append(t.chains[chain], strings.Join(spec, " "))
	return nil, nil
}

func (t *fakeTable) insert(chain string, spec []string) ([]byte, error) {
	rules, exists := t.chains[chain]
	if !exists {
		return []byte("No chain/target/match by that name."), fmt.Errorf("exit status 1")
	}
	pos := 1
	if len(spec) > 0 {
		if p, err := strconv.Atoi(spec[0]); err == nil {
			pos = p
			spec = spec[1:]
		}
	}
	if pos < 1 || pos > len(rules)+1 {
		return []byte("Index of insertion too big."), fmt.Errorf("exit status 1")
	}
	joined := strings.Join(spec, " ")
	idx := pos - 1
	rules = append(rules[:idx], append([]string{joined}, rules[idx:]...)...)
	t.chains[chain] = rules
	return nil, nil
}

func (t *fakeTable) delete(chain string, spec []string) ([]byte, error) {
	rules, exists := t.chains[chain]
	if !exists {
		return []byte("No chain/target/match by that name."), fmt.Errorf("exit status 1")
	}
	joined := strings.Join(spec, " ")
	for i, r := range rules {
		if r == joined {
			t.chains[chain] = append(rules[:i], rules[i+1:]...)
			return nil, nil
		}
	}
	return []byte("Bad rule (does a matching rule exist in that chain?)."), fmt.Errorf("exit status 1")
}

func (t *fakeTable) check(chain string, spec []string) ([]byte, error) {
	rules, exists := t.chains[chain]
	if !exists {
		return []byte("No chain/target/match by that name."), fmt.Errorf("exit status 1")
	}
	joined := strings.Join(spec, " ")
	for _, r := range rules {
		if r == joined {
			return nil, nil
		}
	}
	return []byte("Bad rule (does a matching rule exist in that chain?)."), fmt.Errorf("exit status 1")
}

func (t *fakeTable) list(chain string) ([]byte, error) {
	if _, exists := t.chains[chain]; !exists {
		return []byte("No chain/target/match by that name."), fmt.Errorf("exit status 1")
	}
	var sb strings.Builder
	t.writeChainHeader(&sb, chain)
	for _, spec := range t.chains[chain] {
		fmt.Fprintf(&sb, "-A %s %s\n", chain, spec)
	}
	return []byte(sb.String()), nil
}

func (t *fakeTable) listAll() ([]byte, error) {
	var sb strings.Builder
	all := append(append([]string{}, t.builtin...), t.order...)
	for _, chain := range all {
		t.writeChainHeader(&sb, chain)
	}
	for _, chain := range all {
		for _, spec := range t.chains[chain] {
			fmt.Fprintf(&sb, "-A %s %s\n", chain, spec)
		}
	}
	return []byte(sb.String()), nil
}

func (t *fakeTable) writeChainHeader(sb *strings.Builder, chain string) {
	for _, b := range t.builtin {
		if chain == b {
			fmt.Fprintf(sb, "-P %s ACCEPT\n", chain)
			return
		}
	}
	fmt.Fprintf(sb, "-N %s\n", chain)
}

// chainRules returns the current rules of a chain, in order.
func (e *fakeRuleEngine) chainRules(binary, table, chain string) []string {
	return e.tables[binary][table].chains[chain]
}

// hasChain reports whether a chain exists.
func (e *fakeRuleEngine) hasChain(binary, table, chain string) bool {
	_, ok := e.tables[binary][table].chains[chain]
	return ok
}
