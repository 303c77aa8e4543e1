package config

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeExample(t *testing.T) {
	old := mustParse(t, `{"t1":{"a":"1"}}`)
	next := mustParse(t, `{"t1":{"a":"2","b":"3"},"t2":{"c":"4"}}`)

	out := Merge(old, next)
	require.Equal(t, `{"t1":{"a":"1","b":"3"},"t2":{"c":"4"}}`, compact(t, out))

	// inputs are untouched
	require.Equal(t, `{"t1":{"a":"1"}}`, compact(t, old))
	require.Equal(t, `{"t1":{"a":"2","b":"3"},"t2":{"c":"4"}}`, compact(t, next))
}

func TestMergeOldLeafWinsOverObject(t *testing.T) {
	old := mustParse(t, `{"t":{"bins":"1,2,3"}}`)
	next := mustParse(t, `{"t":{"bins":{"values":["1","2"]}}}`)
	require.Equal(t, `{"t":{"bins":"1,2,3"}}`, compact(t, Merge(old, next)))
}

func TestRemoveUnmatched(t *testing.T) {
	data := mustParse(t, `{
		"internal-dpl-clock":{"period-timer":"1000"},
		"old-task":{"x":"1"},
		"table-maker":{"cfgEventCuts":"eventStandard","cfgOld":"1","processDummy":"false"}
	}`)
	ref := mustParse(t, `{"table-maker":{"cfgEventCuts":"eventStandard"}}`)

	removed := RemoveUnmatched(data, ref, []string{"internal-dpl-*"}, []string{"processDummy"})
	require.Equal(t, []Key{{Task: "old-task"}, {Task: "table-maker", Name: "cfgOld"}}, removed)
	require.Equal(t,
		`{"internal-dpl-clock":{"period-timer":"1000"},"table-maker":{"cfgEventCuts":"eventStandard","processDummy":"false"}}`,
		compact(t, data))
}

func TestRemoveUnmatchedNested(t *testing.T) {
	data := mustParse(t, `{
		"table-maker":{
			"cfgBins":{"values":["1","2"],"unit":"GeV"},
			"cfgGroup":{"cfgA":"1","cfgOld":"2","inner":{"x":"1","y":"2"}},
			"cfgLeaf":{"stale":"1"}
		}
	}`)
	ref := mustParse(t, `{
		"table-maker":{
			"cfgBins":{"values":["1"]},
			"cfgGroup":{"cfgA":"0","inner":{"x":"0"}},
			"cfgLeaf":"0"
		}
	}`)

	removed := RemoveUnmatched(data, ref, nil, []string{"unit"})
	require.Equal(t, []Key{
		{Task: "table-maker", Name: "cfgGroup.cfgOld"},
		{Task: "table-maker", Name: "cfgGroup.inner.y"},
	}, removed)
	require.Equal(t,
		`{"table-maker":{"cfgBins":{"values":["1","2"],"unit":"GeV"},"cfgGroup":{"cfgA":"1","inner":{"x":"1"}},"cfgLeaf":{"stale":"1"}}}`,
		compact(t, data))
}

func TestAlign(t *testing.T) {
	ref := mustParse(t, `{"a":{"x":"1","y":"2"},"b":"0","c":"0"}`)
	data := mustParse(t, `{"k0":"k","c":"3","k1":"k","a":{"y":"5","extra":"e","x":"4"},"b":"6"}`)

	out := Align(ref, data)
	require.Equal(t, `{"k0":"k","a":{"x":"4","y":"5","extra":"e"},"b":"6","c":"3","k1":"k"}`, compact(t, out))
}

func TestSortAndAddNewTasks(t *testing.T) {
	ref := mustParse(t, `{"a":{"x":"1"},"b":{"y":"2"},"c":{"z":"3"}}`)
	data := mustParse(t, `{"c":{"z":"9"},"kept":{"k":"1"},"a":{"x":"8"}}`)

	out := SortAndAddNewTasks(ref, data)
	require.Equal(t, `{"a":{"x":"8"},"b":{"y":"2"},"c":{"z":"9"},"kept":{"k":"1"}}`, compact(t, out))
}

func TestMigrate(t *testing.T) {
	old := mustParse(t, `{
		"internal-dpl-aod-reader":{"aod-file":"AO2D.root"},
		"table-maker":{"processOld":"true","cfgEventCuts":"eventStandard,eventMy"},
		"removed-task":{"a":"1"}
	}`)
	latest := mustParse(t, `{
		"table-maker":{"cfgEventCuts":"eventStandard","cfgNew":"0.5","processFull":"false"},
		"event-selection-task":{"syst":"pp"}
	}`)

	out, report := Migrate(old, latest, Keep{Parents: []string{"internal-dpl-*"}})
	require.Equal(t,
		`{"internal-dpl-aod-reader":{"aod-file":"AO2D.root"},`+
			`"table-maker":{"cfgEventCuts":"eventStandard,eventMy","cfgNew":"0.5","processFull":"false"},`+
			`"event-selection-task":{"syst":"pp"}}`,
		compact(t, out))
	require.True(t, report.Changed())
	require.Equal(t, []Key{
		{Task: "table-maker", Name: "cfgNew"},
		{Task: "table-maker", Name: "processFull"},
		{Task: "event-selection-task"},
	}, report.Added)
	require.Equal(t, []Key{
		{Task: "table-maker", Name: "processOld"},
		{Task: "removed-task"},
	}, report.Deprecated)
}

func TestMigrateUpToDate(t *testing.T) {
	cfg := mustParse(t, `{"t":{"a":"1","b":"2"}}`)
	out, report := Migrate(cfg, cfg.Clone(), Keep{})
	require.False(t, report.Changed())
	require.Equal(t, compact(t, cfg), compact(t, out))
}

func TestDiff(t *testing.T) {
	a := mustParse(t, `{"t":{"a":"1"}}`)
	b := mustParse(t, `{"t":{"a":"2"}}`)

	d, err := Diff(a, a.Clone(), "old", "new")
	require.NoError(t, err)
	require.Empty(t, d)

	d, err = Diff(a, b, "old", "new")
	require.NoError(t, err)
	require.Contains(t, d, "--- old")
	require.Contains(t, d, "+++ new")
	require.Contains(t, d, `-    "a": "1"`)
	require.Contains(t, d, `+    "a": "2"`)
}

// randomTree builds a task tree over a small key alphabet so that random pairs share keys.
func randomTree(r *rand.Rand) *Object {
	obj := NewObject()
	for i, n := 0, r.Intn(5); i < n; i++ {
		task := NewObject()
		for j, m := 0, r.Intn(5); j < m; j++ {
			task.Set(fmt.Sprintf("k%d", r.Intn(6)), fmt.Sprintf("v%d", r.Intn(100)))
		}
		obj.Set(fmt.Sprintf("t%d", r.Intn(6)), task)
	}
	return obj
}

func TestMergeProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		old, next := randomTree(r), randomTree(r)
		out := Merge(old, next)

		for _, task := range next.Keys() {
			require.True(t, out.Has(task))
			nt, _ := next.Object(task)
			ot, _ := out.Object(task)
			for _, k := range nt.Keys() {
				require.True(t, ot.Has(k), "%s:%s missing", task, k)
			}
		}
		for _, task := range old.Keys() {
			oldTask, _ := old.Object(task)
			outTask, _ := out.Object(task)
			for _, k := range oldTask.Keys() {
				ov, _ := oldTask.Get(k)
				mv, _ := outTask.Get(k)
				require.Equal(t, ov, mv, "%s:%s", task, k)
			}
		}
	}
}

func TestRemoveUnmatchedProperties(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	keepParents := []string{"t0"}
	keepSubkeys := []string{"k0"}
	for i := 0; i < 500; i++ {
		data, ref := randomTree(r), randomTree(r)
		RemoveUnmatched(data, ref, keepParents, keepSubkeys)

		for _, task := range data.Keys() {
			if task == "t0" {
				continue
			}
			require.True(t, ref.Has(task), "task %s", task)
			dt, _ := data.Object(task)
			rt, _ := ref.Object(task)
			for _, k := range dt.Keys() {
				require.True(t, k == "k0" || rt.Has(k), "%s:%s", task, k)
			}
		}
	}
}

func sharedOrder(keys []string, other *Object) []string {
	var out []string
	for _, k := range keys {
		if other.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

func TestAlignProperties(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 500; i++ {
		ref, data := randomTree(r), randomTree(r)
		out := Align(ref, data)

		require.ElementsMatch(t, data.Keys(), out.Keys())
		require.Equal(t, sharedOrder(ref.Keys(), data), sharedOrder(out.Keys(), ref))

		for _, task := range sharedOrder(ref.Keys(), data) {
			rt, _ := ref.Object(task)
			ot, _ := out.Object(task)
			require.Equal(t, sharedOrder(rt.Keys(), ot), sharedOrder(ot.Keys(), rt))
		}
	}
}

func TestRoundTripProperties(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for i := 0; i < 200; i++ {
		obj := randomTree(r)
		obj.Set("quoted", `a "b" \ c`+strings.Repeat("é", r.Intn(3)))

		data, err := Marshal(obj)
		require.NoError(t, err)
		got, err := Parse(data)
		require.NoError(t, err)
		require.Equal(t, compact(t, obj), compact(t, got))
	}
}
