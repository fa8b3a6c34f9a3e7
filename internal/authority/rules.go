// Package authority implements the delegated-authority resolver: the
// pluggable policy object the guardian consults before letting a
// non-owner trigger a wipe. Policy lives in a YAML rules file and can be
// hot-swapped without touching the guardian.
package authority

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/lineguard/internal/model"
)

// Delegate grants one caller a set of actions, optionally scoped to a
// single target guardian.
type Delegate struct {
	Caller  string   `yaml:"caller"`
	Actions []string `yaml:"actions"`
	// Target restricts the grant to one guardian identity. Empty or "*"
	// matches any target.
	Target string `yaml:"target,omitempty"`
}

// Rules is one loaded revision of the delegation policy. Immutable after
// load; swap a new revision in through a Resolver.
type Rules struct {
	Delegates []Delegate `yaml:"delegates"`

	hash string
}

// DefaultRules returns the empty policy: no delegate is ever authorized.
func DefaultRules() *Rules {
	sum := sha256.Sum256(nil)
	return &Rules{hash: "sha256:" + hex.EncodeToString(sum[:])}
}

// Load reads a rules file. A missing file yields the deny-all default;
// invalid YAML is an error. The file's sha256 is kept for audit entries.
func Load(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultRules(), nil
		}
		return nil, fmt.Errorf("authority: read rules: %w", err)
	}

	sum := sha256.Sum256(data)
	rules := &Rules{hash: "sha256:" + hex.EncodeToString(sum[:])}
	if err := yaml.Unmarshal(data, rules); err != nil {
		return nil, fmt.Errorf("authority: parse rules: %w", err)
	}
	for i, d := range rules.Delegates {
		if d.Caller == "" {
			return nil, fmt.Errorf("authority: delegate %d has no caller", i)
		}
	}
	return rules, nil
}

// CanCall answers the capability query (caller, target, action).
// First matching delegate wins; no match means no.
func (r *Rules) CanCall(caller, target model.Address, action string) bool {
	for _, d := range r.Delegates {
		if d.Caller != string(caller) {
			continue
		}
		if d.Target != "" && d.Target != "*" && d.Target != string(target) {
			continue
		}
		for _, a := range d.Actions {
			if a == action || a == "*" {
				return true
			}
		}
	}
	return false
}

// Hash returns "sha256:<hex>" of the loaded rules file.
func (r *Rules) Hash() string {
	return r.hash
}

// DefaultRulesYAML is the template written by `lineguard init`.
func DefaultRulesYAML() string {
	return `# lineguard delegation rules
#
# Each delegate entry grants one caller identity a set of actions on the
# guardian. The only action the guardian exposes to delegates is "wipe".
# An empty file (or no file) authorizes nobody: only the owner can act.
#
# Fields:
#   caller:  identity the grant applies to
#   actions: actions granted ("wipe", or "*")
#   target:  optional guardian identity scope ("*" or omitted = any)
#
# delegates:
#   - caller: keeper-bot
#     actions: [wipe]
delegates: []
`
}
