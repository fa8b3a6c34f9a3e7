package authority

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/lineguard/internal/model"
)

const testRulesYAML = `delegates:
  - caller: keeper-bot
    actions: [wipe]
  - caller: ops-team
    actions: ["*"]
    target: mom-prod
`

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	return path
}

func TestLoadMissingFileIsDenyAll(t *testing.T) {
	rules, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("expected defaults for missing file, got %v", err)
	}
	if rules.CanCall("anyone", "mom", "wipe") {
		t.Error("expected deny-all defaults")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeRules(t, "delegates: [this is : not yaml")
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadRejectsDelegateWithoutCaller(t *testing.T) {
	path := writeRules(t, "delegates:\n  - actions: [wipe]\n")
	if _, err := Load(path); err == nil {
		t.Error("expected error for delegate without caller")
	}
}

func TestCanCall(t *testing.T) {
	path := writeRules(t, testRulesYAML)
	rules, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	cases := []struct {
		name           string
		caller, target model.Address
		action         string
		want           bool
	}{
		{"granted action", "keeper-bot", "mom", "wipe", true},
		{"ungranted action", "keeper-bot", "mom", "set-owner", false},
		{"unknown caller", "mallory", "mom", "wipe", false},
		{"wildcard actions scoped target", "ops-team", "mom-prod", "wipe", true},
		{"wildcard actions wrong target", "ops-team", "mom-staging", "wipe", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := rules.CanCall(tc.caller, tc.target, tc.action); got != tc.want {
				t.Errorf("CanCall(%s, %s, %s) = %v, want %v", tc.caller, tc.target, tc.action, got, tc.want)
			}
		})
	}
}

func TestHashChangesWithContent(t *testing.T) {
	a, err := Load(writeRules(t, testRulesYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	b, err := Load(writeRules(t, "delegates: []\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if a.Hash() == "" || b.Hash() == "" {
		t.Fatal("expected non-empty hashes")
	}
	if a.Hash() == b.Hash() {
		t.Error("expected different content to hash differently")
	}
}

func TestDefaultRulesYAMLParses(t *testing.T) {
	path := writeRules(t, DefaultRulesYAML())
	rules, err := Load(path)
	if err != nil {
		t.Fatalf("default template must parse: %v", err)
	}
	if rules.CanCall("anyone", "mom", "wipe") {
		t.Error("default template must authorize nobody")
	}
}

func TestResolverSwap(t *testing.T) {
	resolver := NewResolver(nil)
	if resolver.CanCall("keeper-bot", "mom", "wipe") {
		t.Error("expected deny before swap")
	}

	rules, err := Load(writeRules(t, testRulesYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	resolver.Swap(rules)

	if !resolver.CanCall("keeper-bot", "mom", "wipe") {
		t.Error("expected allow after swap")
	}
	if resolver.Hash() != rules.Hash() {
		t.Error("expected resolver hash to track the swapped revision")
	}

	resolver.Swap(nil)
	if resolver.CanCall("keeper-bot", "mom", "wipe") {
		t.Error("expected nil swap to restore deny-all")
	}
}
