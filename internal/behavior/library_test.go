package behavior

import (
	"os"
	"path/filepath"
	"testing"

	"agentmind/core/internal/mind"
)

func TestLoadLibrary_EmbeddedConfigs(t *testing.T) {
	lib, err := LoadLibrary()
	if err != nil {
		t.Fatalf("load embedded configs: %v", err)
	}
	for _, agentType := range []string{"patrol", "seeker"} {
		if lib.ConfigForType(agentType) == nil {
			t.Fatalf("expected embedded config for %q, have %v", agentType, lib.Types())
		}
	}

	patrol := lib.ConfigForType("patrol")
	want := []string{"rest", "outbound", "inbound"}
	names := patrol.StateNames()
	if len(names) != len(want) {
		t.Fatalf("expected states %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected states %v, got %v", want, names)
		}
	}
	if patrol.Initial().Name() != "rest" {
		t.Fatalf("expected initial state rest, got %q", patrol.Initial().Name())
	}
}

func TestLoadLibraryDir_ExternalConfigs(t *testing.T) {
	dir := t.TempDir()
	doc := []byte(`
agent_type: sentry
states:
  - id: watch
`)
	if err := os.WriteFile(filepath.Join(dir, "sentry.yaml"), doc, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	lib, err := LoadLibraryDir(dir)
	if err != nil {
		t.Fatalf("load dir: %v", err)
	}
	if lib.ConfigForType("sentry") == nil {
		t.Fatalf("expected external config to load, have %v", lib.Types())
	}
}

func TestClone_IsolatesOverlays(t *testing.T) {
	dir := t.TempDir()
	doc := []byte(`
agent_type: sentry
states:
  - id: watch
`)
	if err := os.WriteFile(filepath.Join(dir, "sentry.yaml"), doc, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	external, err := LoadLibraryDir(dir)
	if err != nil {
		t.Fatalf("load dir: %v", err)
	}

	base, err := LoadLibrary()
	if err != nil {
		t.Fatalf("load library: %v", err)
	}
	clone := base.Clone()
	clone.Merge(external)

	if clone.ConfigForType("sentry") == nil {
		t.Fatalf("expected the merged config on the clone, have %v", clone.Types())
	}
	if base.ConfigForType("sentry") != nil {
		t.Fatalf("merge leaked into the source library")
	}
	if clone.ConfigForType("patrol") == nil {
		t.Fatalf("expected the clone to keep the bundled configs")
	}
}

func TestCompile_RejectsDuplicateState(t *testing.T) {
	_, err := Compile(Config{
		AgentType: "t",
		States: []StateConfig{
			{ID: "idle"},
			{ID: "Idle"},
		},
	})
	if err == nil {
		t.Fatalf("expected duplicate state names to reject the config")
	}
}

func TestCompile_RejectsUnknownTransitionTarget(t *testing.T) {
	_, err := Compile(Config{
		AgentType: "t",
		States: []StateConfig{
			{ID: "idle", Transitions: []TransitionConfig{{If: "true", To: "missing"}}},
		},
	})
	if err == nil {
		t.Fatalf("expected a dangling transition target to reject the config")
	}
}

func TestCompile_RejectsBadGuard(t *testing.T) {
	_, err := Compile(Config{
		AgentType: "t",
		States: []StateConfig{
			{ID: "a"},
			{ID: "b", Transitions: []TransitionConfig{{If: "NoSuchFn(1)", To: "a"}}},
		},
	})
	if err == nil {
		t.Fatalf("expected a guard compile error to reject the config")
	}
}

func TestCompile_RejectsUnknownAction(t *testing.T) {
	_, err := Compile(Config{
		AgentType: "t",
		States: []StateConfig{
			{ID: "a", Actions: []ActionConfig{{Do: "teleport"}}},
		},
	})
	if err == nil {
		t.Fatalf("expected an unknown action to reject the config")
	}
}

func TestCompile_TransitionNeedsExactlyOneTrigger(t *testing.T) {
	base := func(tr TransitionConfig) Config {
		return Config{
			AgentType: "t",
			States: []StateConfig{
				{ID: "a"},
				{ID: "b", Transitions: []TransitionConfig{tr}},
			},
		}
	}
	if _, err := Compile(base(TransitionConfig{To: "a"})); err == nil {
		t.Fatalf("expected a triggerless transition to reject the config")
	}
	if _, err := Compile(base(TransitionConfig{If: "true", On: "ping", To: "a"})); err == nil {
		t.Fatalf("expected a doubly triggered transition to reject the config")
	}
}

func TestCompile_RejectsUnknownInitial(t *testing.T) {
	_, err := Compile(Config{
		AgentType: "t",
		Initial:   "missing",
		States:    []StateConfig{{ID: "a"}},
	})
	if err == nil {
		t.Fatalf("expected an unknown initial state to reject the config")
	}
}

func TestApplyDefaults_PreservesExistingKeys(t *testing.T) {
	compiled, err := Compile(Config{
		AgentType: "t",
		Defaults: Defaults{
			Timers:   map[string]uint64{"rest": 5},
			Counters: map[string]int{"laps": 2},
		},
		States: []StateConfig{{ID: "a"}},
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	bb := mind.Blackboard{
		Timers:   map[string]uint64{"rest": 9},
		Counters: map[string]int{},
	}
	compiled.ApplyDefaults(&bb)

	if bb.Timers["rest"] != 9 {
		t.Fatalf("defaults must not overwrite an armed timer, got %d", bb.Timers["rest"])
	}
	if bb.Counters["laps"] != 2 {
		t.Fatalf("expected the counter default to apply, got %d", bb.Counters["laps"])
	}
}

func TestParseConfig_DecodesAuthoringYAML(t *testing.T) {
	doc := []byte(`
agent_type: demo
initial: idle
states:
  - id: idle
    on_enter:
      - do: wait
        timer: nap
        ticks: 4
    transitions:
      - if: 'TimerExpired("nap")'
        to: busy
  - id: busy
    actions:
      - do: perform
        kind: work
    transitions:
      - on: stand_down
        to: idle
`)
	cfg, err := ParseConfig(doc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.AgentType != "demo" || len(cfg.States) != 2 {
		t.Fatalf("unexpected decode result: %+v", cfg)
	}
	if cfg.States[0].OnEnter[0].Ticks != 4 {
		t.Fatalf("expected wait ticks to decode, got %d", cfg.States[0].OnEnter[0].Ticks)
	}
	if _, err := Compile(cfg); err != nil {
		t.Fatalf("compile decoded config: %v", err)
	}
}

func TestAuthoringSchema_DescribesConfig(t *testing.T) {
	schema := AuthoringSchema()
	if schema == nil {
		t.Fatalf("expected a schema")
	}
	if schema.Title == "" {
		t.Fatalf("expected the schema to carry a title")
	}
}
