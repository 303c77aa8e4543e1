package workflow

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dqworkflows/o2dq/config"
	"github.com/dqworkflows/o2dq/dqlib"
)

func TestBuiltinCatalogue(t *testing.T) {
	c := Builtin()
	var names []string
	for _, w := range c.Workflows {
		names = append(names, w.Name)
	}
	require.Equal(t, []string{
		"table-maker", "table-maker-mc", "table-reader", "dq-efficiency",
		"filter-pp", "dq-flow", "v0-selector",
	}, names)
	require.Len(t, c.Converters, 5)

	w, err := c.Lookup("table-maker")
	require.NoError(t, err)
	require.Equal(t, "o2-analysis-dq-table-maker", w.Executable)
	require.True(t, w.Writer)
	require.Equal(t, "PWGDQ/TableProducer/tableMaker.cxx", w.AllSources()[0])
	require.Contains(t, w.AllSources(), "Common/TableProducer/eventSelection.cxx")

	kind, ok := w.LibraryKind(config.Key{Task: "table-maker", Name: "cfgEventCuts"})
	require.True(t, ok)
	require.Equal(t, dqlib.Cuts, kind)

	_, err = c.Lookup("nope")
	require.True(t, ErrUnknownWorkflow.Is(err))
}

func TestParseCatalogueErrors(t *testing.T) {
	for _, c := range []struct {
		name string
		data string
		kind interface{ Is(error) bool }
	}{
		{"major", "version: 2.0.0\nworkflows: []\n", ErrCatalogueVersion},
		{"version", "version: one\nworkflows: []\n", ErrInvalidCatalogue},
		{"unknown field", "version: 1.0.0\nflows: []\n", ErrInvalidCatalogue},
		{"no executable", "version: 1.0.0\nworkflows:\n  - name: a\n    config: a.json\n", ErrInvalidCatalogue},
		{"config", "version: 1.0.0\nworkflows:\n  - name: a\n    executable: x\n    config: a.yml\n", ErrInvalidCatalogue},
		{"duplicate", "version: 1.1.0\nworkflows:\n" +
			"  - {name: a, executable: x, config: a.json}\n" +
			"  - {name: a, executable: y, config: b.json}\n", ErrInvalidCatalogue},
		{"kind", "version: 1.0.0\nworkflows:\n" +
			"  - name: a\n    executable: x\n    config: a.json\n    libraries: [{task: t, key: k, kind: cats}]\n", ErrInvalidCatalogue},
	} {
		t.Run(c.name, func(t *testing.T) {
			_, err := ParseCatalogue([]byte(c.data))
			require.Error(t, err)
			require.True(t, c.kind.Is(err), "%v", err)
		})
	}

	_, err := ParseCatalogue([]byte("version: 1.4.2\nworkflows:\n  - {name: a, executable: x, config: a.json}\n"))
	require.NoError(t, err)
}

func TestStateConditions(t *testing.T) {
	cfg := loadFixture(t)
	s := State{
		Config: cfg,
		Flags:  map[string]bool{"add_mc_conv": true},
		Tasks:  []string{"table-maker"},
	}

	require.True(t, s.Holds(Condition{}))
	require.True(t, s.Holds(Condition{Always: true}))
	require.True(t, s.Holds(Condition{Flag: "add_mc_conv"}))
	require.False(t, s.Holds(Condition{Flag: "add_fdd_conv"}))
	require.True(t, s.Holds(Condition{Process: []string{"Full"}}))
	require.False(t, s.Holds(Condition{Process: []string{"Cent"}}))
	require.True(t, s.Holds(Condition{Task: "event-selection-task"}))
	require.False(t, s.Holds(Condition{Task: "missing"}))

	barrel, muon := s.Tracks(&Workflow{})
	require.True(t, barrel)
	require.True(t, muon)

	c := Builtin()
	w, err := c.Lookup("table-maker")
	require.NoError(t, err)

	var exes []string
	for _, d := range s.Enabled(c, w) {
		exes = append(exes, d.Executable)
	}
	require.Equal(t, []string{
		"o2-analysis-timestamp",
		"o2-analysis-event-selection",
		"o2-analysis-trackselection",
		"o2-analysis-pid-tpc-full",
		"o2-analysis-pid-tof-full",
		"o2-analysis-fwdtrackextension",
		"o2-analysis-mc-converter",
	}, exes)
}

func TestStateTracks(t *testing.T) {
	cfg := loadFixture(t)
	require.NoError(t, Apply(cfg, []Assignment{
		{Key: config.Key{Task: "table-maker", Name: "processBarrelOnly"}, Value: "true"},
	}, OnlySelect))

	barrel, muon := State{Config: cfg, Tasks: []string{"table-maker"}}.Tracks(&Workflow{})
	require.True(t, barrel)
	require.False(t, muon)
}

func TestStateTracksSkimmed(t *testing.T) {
	w, err := Builtin().Lookup("table-reader")
	require.NoError(t, err)
	cfg, err := config.Parse([]byte(`{
		"analysis-event-selection": {"processSkimmed": "true"},
		"analysis-track-selection": {"processSkimmed": "true"},
		"analysis-muon-selection": {"processSkimmed": "false"},
		"analysis-same-event-pairing": {"processJpsiToEESkimmed": "true", "processJpsiToMuMuSkimmed": "false"}
	}`))
	require.NoError(t, err)

	s := State{Config: cfg, Tasks: w.Tasks}
	barrel, muon := s.Tracks(w)
	require.True(t, barrel)
	require.False(t, muon)

	require.NoError(t, Apply(cfg, []Assignment{
		{Key: config.Key{Task: "analysis-muon-selection", Name: "processSkimmed"}, Value: "true"},
	}, OverrideOnly))
	barrel, muon = s.Tracks(w)
	require.True(t, barrel)
	require.True(t, muon)
}
