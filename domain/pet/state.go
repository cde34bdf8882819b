package pet

// Stats holds the bounded numeric stats of a subject, each in [0, 100].
type Stats map[string]int

// State is the persisted pet state for one subject.
type State struct {
	SubjectID string `json:"subject_id"`
	Stats     Stats  `json:"stats"`
	Path      string `json:"path"`
}

// Defaults configures the state machine's initial stats and path. Passed
// into the constructor rather than read from package constants so tests
// and deployments can override them.
type Defaults struct {
	Stats Stats
	Path  string
}

// DefaultConfig returns the stock auditor defaults.
func DefaultConfig() Defaults {
	return Defaults{
		Stats: Stats{
			"risk":                50,
			"compliance":          50,
			"thriftiness":         50,
			"anomaly_sensitivity": 50,
		},
		Path: "Baby Auditor",
	}
}

// Evolution ladder, highest tier first. Transitions are promotions only.
var evolutionLadder = []struct {
	threshold int
	path      string
}{
	{240, "Vigilant Auditor"},
	{220, "Steady Analyst"},
}

// Stat deltas per feedback action. Unrecognized actions apply no delta.
var actionDeltas = map[string]map[string]int{
	"approve":  {"thriftiness": 2, "risk": -1},
	"flag":     {"risk": 2, "compliance": 1},
	"escalate": {"risk": 3, "compliance": 2},
	"reject":   {"compliance": 2, "risk": 1},
}

// Machine applies feedback actions to pet state and decides evolutions.
type Machine struct {
	defaults Defaults
}

// NewMachine creates a state machine with the given defaults.
func NewMachine(defaults Defaults) *Machine {
	return &Machine{defaults: defaults}
}

// Defaults exposes the configured defaults for lazily created state.
func (m *Machine) Defaults() Defaults {
	return m.defaults
}

// NewState returns a fresh state for a subject with default stats.
func (m *Machine) NewState(subjectID string) State {
	stats := make(Stats, len(m.defaults.Stats))
	for k, v := range m.defaults.Stats {
		stats[k] = v
	}
	return State{SubjectID: subjectID, Stats: stats, Path: m.defaults.Path}
}

// Apply mutates the state's stats for one feedback action, clamping
// every touched stat to [0, 100].
func (m *Machine) Apply(state *State, action string) {
	if state.Stats == nil {
		state.Stats = make(Stats, len(m.defaults.Stats))
		for k, v := range m.defaults.Stats {
			state.Stats[k] = v
		}
	}
	for stat, delta := range actionDeltas[action] {
		current, ok := state.Stats[stat]
		if !ok {
			current = m.defaults.Stats[stat]
		}
		state.Stats[stat] = clamp(current + delta)
	}
}

// NextPath returns the path the subject should be promoted to given its
// current stats, or "" when no promotion applies. Thresholds are checked
// highest-first so the highest eligible tier wins, and a subject never
// moves down the ladder.
func (m *Machine) NextPath(state State) string {
	score := 0
	for _, v := range state.Stats {
		score += v
	}
	currentRank := pathRank(state.Path)
	for rank, tier := range evolutionLadder {
		if score < tier.threshold {
			continue
		}
		candidateRank := len(evolutionLadder) - rank
		if candidateRank > currentRank && state.Path != tier.path {
			return tier.path
		}
		break
	}
	return ""
}

// pathRank orders the ladder: 0 for the base path, counting up per tier.
func pathRank(path string) int {
	for rank, tier := range evolutionLadder {
		if tier.path == path {
			return len(evolutionLadder) - rank
		}
	}
	return 0
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
