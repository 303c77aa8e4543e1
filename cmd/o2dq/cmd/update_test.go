package cmd

import (
	"io/ioutil"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dqworkflows/o2dq/config"
	"github.com/dqworkflows/o2dq/workflow"
)

const oldTableMaker = `{
	"internal-dpl-aod-reader": {"aod-file": "AO2D.root"},
	"table-maker": {"cfgEventCuts": "eventMine", "cfgRemoved": "1", "processFull": "true"}
}`

func tableMakerFetcher(t *testing.T) mapFetcher {
	t.Helper()
	w, err := workflow.Builtin().Lookup("table-maker")
	require.NoError(t, err)
	f := mapFetcher{}
	for _, p := range w.AllSources() {
		f[p] = ""
	}
	f["PWGDQ/TableProducer/tableMaker.cxx"] = readTestdata(t, "scraper", "tableMaker.cxx")
	return f
}

func TestUpdateCommand(t *testing.T) {
	env := newTestEnv(t, tableMakerFetcher(t))
	writeConfig(t, "config.json", oldTableMaker)

	c := NewUpdateCommand(env.Env)
	c.Workflow = []string{"table-maker"}
	c.Args.Configs = []string{"config.json"}
	require.NoError(t, c.Execute(nil))

	latest := loadConfig(t, workflow.LatestPath(env.Settings.Cache.Dir, "table-maker"))
	require.Equal(t, []string{"table-maker", "d-q-filter-p-p-task"}, latest.Keys())

	out := loadConfig(t, "config.json")
	require.Equal(t, []string{"internal-dpl-aod-reader", "table-maker", "d-q-filter-p-p-task"}, out.Keys())
	require.Equal(t, "eventMine", leaf(t, out, "table-maker:cfgEventCuts"))
	require.Equal(t, "jpsiPID1", leaf(t, out, "table-maker:cfgBarrelTrackCuts"))
	_, ok := config.Leaf(out, config.ParseKey("table-maker:cfgRemoved"))
	require.False(t, ok)

	report := env.out.String()
	require.Contains(t, report, "config.json: added table-maker:cfgBarrelTrackCuts")
	require.Contains(t, report, "config.json: added d-q-filter-p-p-task")
	require.Contains(t, report, "config.json: removed table-maker:cfgRemoved")
}

func TestUpdateCommandDryRun(t *testing.T) {
	env := newTestEnv(t, tableMakerFetcher(t))
	writeConfig(t, "config.json", oldTableMaker)
	before, err := ioutil.ReadFile("config.json")
	require.NoError(t, err)

	c := NewUpdateCommand(env.Env)
	c.Workflow = []string{"table-maker"}
	c.DryRun = true
	c.Args.Configs = []string{"config.json"}
	require.NoError(t, c.Execute(nil))

	after, err := ioutil.ReadFile("config.json")
	require.NoError(t, err)
	require.Equal(t, string(before), string(after))
	require.Contains(t, env.out.String(), "+++ config.json")
	require.Contains(t, env.out.String(), `-    "cfgRemoved": "1",`)

	latest, err := env.latest("table-maker")
	require.NoError(t, err)
	require.Nil(t, latest)
}

func TestUpdateCommandNoWorkflow(t *testing.T) {
	env := newTestEnv(t, tableMakerFetcher(t))
	writeConfig(t, "config.json", `{"unknown-task": {"a": "1"}}`)

	c := NewUpdateCommand(env.Env)
	c.Workflow = []string{"table-maker"}
	c.Args.Configs = []string{"config.json"}
	err := c.Execute(nil)
	require.True(t, ErrNoWorkflow.Is(err), "%v", err)
}

func TestUpdateCommandUnknownWorkflow(t *testing.T) {
	env := newTestEnv(t, mapFetcher{})
	c := NewUpdateCommand(env.Env)
	c.Workflow = []string{"nope"}
	err := c.Execute(nil)
	require.True(t, workflow.ErrUnknownWorkflow.Is(err), "%v", err)
}

func TestMigrateCommand(t *testing.T) {
	env := newTestEnv(t, mapFetcher{})
	writeConfig(t, "old.json", `{"t": {"a": "1", "gone": "x"}, "internal-dpl-clock": {"period": "1"}}`)
	writeConfig(t, "latest.json", `{"t": {"a": "2", "b": "3"}}`)

	c := NewMigrateCommand(env.Env)
	c.Diff = true
	c.Output = "new.json"
	c.Args.Config = "old.json"
	c.Args.Latest = "latest.json"
	require.NoError(t, c.Execute(nil))

	out := loadConfig(t, "new.json")
	data, err := out.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, `{"t":{"a":"1","b":"3"},"internal-dpl-clock":{"period":"1"}}`, string(data))

	report := env.out.String()
	require.Contains(t, report, "old.json: added t:b")
	require.Contains(t, report, "old.json: removed t:gone")
	require.Contains(t, report, "--- old.json")
	require.Contains(t, report, "+++ new.json")

	// untouched input
	require.Equal(t, "x", leaf(t, loadConfig(t, "old.json"), "t:gone"))
}

func TestMigrateCommandUpToDate(t *testing.T) {
	env := newTestEnv(t, mapFetcher{})
	writeConfig(t, "old.json", `{"t": {"a": "1"}}`)
	writeConfig(t, "latest.json", `{"t": {"a": "2"}}`)

	c := NewMigrateCommand(env.Env)
	c.Args.Config = "old.json"
	c.Args.Latest = "latest.json"
	require.NoError(t, c.Execute(nil))
	require.Contains(t, env.out.String(), "old.json is up to date")
}

func TestMigrateCommandReorders(t *testing.T) {
	env := newTestEnv(t, mapFetcher{})
	writeConfig(t, "old.json", `{"t1": {"b": "1", "a": "2"}, "t0": {"x": "1"}}`)
	writeConfig(t, "latest.json", `{"t0": {"x": "1"}, "t1": {"a": "2", "b": "1"}}`)

	c := NewMigrateCommand(env.Env)
	c.Args.Config = "old.json"
	c.Args.Latest = "latest.json"
	require.NoError(t, c.Execute(nil))
	require.NotContains(t, env.out.String(), "up to date")

	data, err := loadConfig(t, "old.json").MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, `{"t0":{"x":"1"},"t1":{"a":"2","b":"1"}}`, string(data))
}
