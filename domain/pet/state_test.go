package pet

import (
	"reflect"
	"testing"
)

func TestNewStateDefaults(t *testing.T) {
	m := NewMachine(DefaultConfig())

	state := m.NewState("pet-1")

	if state.SubjectID != "pet-1" {
		t.Errorf("subject id = %q", state.SubjectID)
	}
	if state.Path != "Baby Auditor" {
		t.Errorf("path = %q, want Baby Auditor", state.Path)
	}
	want := Stats{"risk": 50, "compliance": 50, "thriftiness": 50, "anomaly_sensitivity": 50}
	if !reflect.DeepEqual(state.Stats, want) {
		t.Errorf("stats = %v, want %v", state.Stats, want)
	}

	// Each state gets its own stats map.
	state.Stats["risk"] = 0
	if m.NewState("pet-2").Stats["risk"] != 50 {
		t.Error("states must not share the defaults map")
	}
}

func TestApplyDeltas(t *testing.T) {
	m := NewMachine(DefaultConfig())
	state := m.NewState("pet-1")

	m.Apply(&state, "flag")

	want := Stats{"risk": 52, "compliance": 51, "thriftiness": 50, "anomaly_sensitivity": 50}
	if !reflect.DeepEqual(state.Stats, want) {
		t.Errorf("after flag: stats = %v, want %v", state.Stats, want)
	}
}

func TestApplyUnknownActionIsNoOp(t *testing.T) {
	m := NewMachine(DefaultConfig())
	state := m.NewState("pet-1")
	before := make(Stats, len(state.Stats))
	for k, v := range state.Stats {
		before[k] = v
	}

	m.Apply(&state, "shrug")

	if !reflect.DeepEqual(state.Stats, before) {
		t.Errorf("unknown action changed stats: %v", state.Stats)
	}
}

func TestApplyClamps(t *testing.T) {
	m := NewMachine(DefaultConfig())

	t.Run("upper bound", func(t *testing.T) {
		state := State{SubjectID: "p", Stats: Stats{"risk": 99, "compliance": 100}}
		m.Apply(&state, "escalate")
		if state.Stats["risk"] != 100 {
			t.Errorf("risk = %d, want 100", state.Stats["risk"])
		}
		if state.Stats["compliance"] != 100 {
			t.Errorf("compliance = %d, want 100", state.Stats["compliance"])
		}
	})

	t.Run("lower bound", func(t *testing.T) {
		state := State{SubjectID: "p", Stats: Stats{"risk": 0, "thriftiness": 10}}
		m.Apply(&state, "approve")
		if state.Stats["risk"] != 0 {
			t.Errorf("risk = %d, want 0", state.Stats["risk"])
		}
		if state.Stats["thriftiness"] != 12 {
			t.Errorf("thriftiness = %d, want 12", state.Stats["thriftiness"])
		}
	})
}

func TestApplyFillsMissingStatsFromDefaults(t *testing.T) {
	m := NewMachine(DefaultConfig())
	state := State{SubjectID: "p", Stats: Stats{}}

	m.Apply(&state, "flag")

	if state.Stats["risk"] != 52 {
		t.Errorf("risk = %d, want 52 (default 50 + 2)", state.Stats["risk"])
	}
	if state.Stats["compliance"] != 51 {
		t.Errorf("compliance = %d, want 51", state.Stats["compliance"])
	}
}

func TestApplyNilStats(t *testing.T) {
	m := NewMachine(DefaultConfig())
	state := State{SubjectID: "p"}

	m.Apply(&state, "approve")

	if state.Stats == nil {
		t.Fatal("Apply must initialize a nil stats map")
	}
	if state.Stats["thriftiness"] != 52 {
		t.Errorf("thriftiness = %d, want 52", state.Stats["thriftiness"])
	}
}

func TestNextPathThresholds(t *testing.T) {
	m := NewMachine(DefaultConfig())

	cases := []struct {
		name  string
		stats Stats
		path  string
		want  string
	}{
		{"below both tiers", Stats{"risk": 50, "compliance": 50, "thriftiness": 50, "anomaly_sensitivity": 50}, "Baby Auditor", ""},
		{"just under steady", Stats{"risk": 55, "compliance": 55, "thriftiness": 55, "anomaly_sensitivity": 54}, "Baby Auditor", ""},
		{"steady at exactly 220", Stats{"risk": 55, "compliance": 55, "thriftiness": 55, "anomaly_sensitivity": 55}, "Baby Auditor", "Steady Analyst"},
		{"vigilant at exactly 240", Stats{"risk": 60, "compliance": 60, "thriftiness": 60, "anomaly_sensitivity": 60}, "Baby Auditor", "Vigilant Auditor"},
		{"highest eligible tier wins", Stats{"risk": 100, "compliance": 100, "thriftiness": 100, "anomaly_sensitivity": 100}, "Baby Auditor", "Vigilant Auditor"},
		{"steady promotes to vigilant", Stats{"risk": 60, "compliance": 60, "thriftiness": 60, "anomaly_sensitivity": 60}, "Steady Analyst", "Vigilant Auditor"},
		{"already at current tier", Stats{"risk": 55, "compliance": 55, "thriftiness": 55, "anomaly_sensitivity": 55}, "Steady Analyst", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := m.NextPath(State{SubjectID: "p", Stats: tc.stats, Path: tc.path})
			if got != tc.want {
				t.Errorf("NextPath = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNextPathNeverDemotes(t *testing.T) {
	m := NewMachine(DefaultConfig())

	// Stats dropped back below the lower threshold after reaching the top.
	state := State{
		SubjectID: "p",
		Stats:     Stats{"risk": 50, "compliance": 50, "thriftiness": 50, "anomaly_sensitivity": 50},
		Path:      "Vigilant Auditor",
	}
	if got := m.NextPath(state); got != "" {
		t.Errorf("expected no transition, got %q", got)
	}

	// A vigilant subject sitting in the steady band must not fall back.
	state.Stats = Stats{"risk": 55, "compliance": 55, "thriftiness": 55, "anomaly_sensitivity": 55}
	if got := m.NextPath(state); got != "" {
		t.Errorf("expected no demotion to Steady Analyst, got %q", got)
	}
}
