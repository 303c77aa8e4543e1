package scraper

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/require"

	"github.com/dqworkflows/o2dq/config"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := ioutil.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func TestScrapeFixture(t *testing.T) {
	src := Scrape("PWGDQ/TableProducer/tableMaker.cxx", readFixture(t, "tableMaker.cxx"))

	tm := src.Struct("TableMaker")
	require.NotNil(t, tm)

	var keys []string
	for _, c := range tm.Configurables {
		keys = append(keys, c.Key)
	}
	require.Equal(t, []string{
		"cfgEventCuts", "cfgBarrelTrackCuts", "cfgBarrelLowPt", "cfgQA",
		"cfgBins", "axisPt", "cfgNoDesc", "cfgMinimumPt",
	}, keys)

	bins := tm.Configurables[4]
	require.Equal(t, "std::vector<float>", bins.Type)
	require.Equal(t, "fConfigBins", bins.Variable)
	require.Equal(t, `pt bins "GeV/c"`, bins.Description)

	require.Equal(t, "ConfigurableAxis", tm.Configurables[5].Type)
	require.Equal(t, "", tm.Configurables[6].Description)

	require.Equal(t, []ProcessSwitch{
		{Struct: "TableMaker", Function: "processFull", Description: "Build full DQ skimmed data model"},
		{Struct: "TableMaker", Function: "processBarrelOnly", Description: "Build barrel-only DQ skimmed data model"},
		{Struct: "TableMaker", Function: "processMuonOnlyWithCov", Description: "Build muon-only, with cov", Default: true},
	}, tm.ProcessSwitches)

	require.Equal(t, []Binding{
		{Struct: "TableMaker", Task: "table-maker", DefaultProcesses: map[string]bool{"processFull": true}},
		{Struct: "DQFilterPPTask", Task: "d-q-filter-p-p-task"},
	}, src.Bindings)

	require.NotNil(t, src.Struct("Unbound"))
	require.Contains(t, src.Summary(), "cfgEventCuts")
}

func TestLatestGolden(t *testing.T) {
	src := Scrape("tableMaker.cxx", readFixture(t, "tableMaker.cxx"))
	got, err := config.Marshal(Latest(src))
	require.NoError(t, err)

	exp := readFixture(t, "tableMaker.json")
	if exp != string(got) {
		diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(exp),
			B:        difflib.SplitLines(string(got)),
			FromFile: "expected",
			ToFile:   "actual",
			Context:  3,
		})
		t.Fatalf("latest configuration differs:\n%s", diff)
	}
}

func TestLatestFirstSourceWins(t *testing.T) {
	a := Scrape("a.cxx", `
struct Sel {
  Configurable<int> fA{"cfgA", 1, "a"};
};
WorkflowSpec defineDataProcessing(ConfigContext const& cfgc)
{
  return WorkflowSpec{adaptAnalysisTask<Sel>(cfgc, TaskName{"sel"})};
}`)
	b := Scrape("b.cxx", `
struct Other {
  Configurable<int> fB{"cfgB", 2, "b"};
};
WorkflowSpec defineDataProcessing(ConfigContext const& cfgc)
{
  return WorkflowSpec{adaptAnalysisTask<Other>(cfgc, TaskName{"sel"}), adaptAnalysisTask<Other>(cfgc, TaskName{"other"})};
}`)
	out := Latest(a, b)
	require.Equal(t, []string{"sel", "other"}, out.Keys())
	v, ok := config.Leaf(out, config.Key{Task: "sel", Name: "cfgA"})
	require.True(t, ok)
	require.Equal(t, "1", v)
}

func TestScrapeIgnoresGarbage(t *testing.T) {
	src := Scrape("junk", "Configurable<int> broken{\"x\",\n"+
		"this never closes\n1\n2\n3\n4\n5\n6\n7\n8\n9\n10\n11\n12\n13\n14\n15\n16\n17\n"+
		"struct Late {\n  Configurable<int> fOk{\"cfgOk\", 1, \"ok\"};\n};\n")
	require.Empty(t, src.Bindings)
	late := src.Struct("Late")
	require.NotNil(t, late)
	require.Len(t, late.Configurables, 1)
	require.Equal(t, "cfgOk", late.Configurables[0].Key)
}

func TestTaskName(t *testing.T) {
	for _, c := range []struct {
		in, exp string
	}{
		{"TableMaker", "table-maker"},
		{"DQEventSelectionTask", "d-q-event-selection-task"},
		{"AnalysisTrackSelection", "analysis-track-selection"},
		{"lower", "lower"},
	} {
		t.Run(c.in, func(t *testing.T) {
			require.Equal(t, c.exp, TaskName(c.in))
		})
	}
}

func TestNormalizeDefault(t *testing.T) {
	for _, c := range []struct {
		in  string
		exp interface{}
	}{
		{`"eventStandard"`, "eventStandard"},
		{`"a\"b"`, `a"b`},
		{`std::string("muon")`, "muon"},
		{`0.5f`, "0.5"},
		{`10.f`, "10"},
		{`-3`, "-3"},
		{`1e-3F`, "1e-3"},
		{`100ul`, "100"},
		{`true`, "true"},
		{`o2::aod::track::ITS`, "o2::aod::track::ITS"},
	} {
		t.Run(c.in, func(t *testing.T) {
			require.Equal(t, c.exp, normalizeDefault(c.in))
		})
	}

	obj, ok := normalizeDefault(`{1.f, "x", {2, 3}, }`).(*config.Object)
	require.True(t, ok)
	values, _ := obj.Get("values")
	require.Equal(t, []interface{}{"1", "x", "{2, 3}"}, values)
}

func TestStripComments(t *testing.T) {
	inBlock := false
	require.Equal(t, `a "b // c" `, stripComments(`a "b // c" // d`, &inBlock))
	require.Equal(t, "x ", stripComments("x /* y", &inBlock))
	require.True(t, inBlock)
	require.Equal(t, " z", stripComments("still */ z", &inBlock))
	require.False(t, inBlock)
}
