package aod

var (
	eventTables = []string{
		"AOD/REDUCEDEVENT/0",
		"AOD/REDUCEDEVENTEXTENDED/0",
		"AOD/REDUCEDEVENTVTXCOV/0",
	}
	barrelTables = []string{
		"AOD/REDUCEDTRACK/0",
		"AOD/REDUCEDTRACKBARREL/0",
		"AOD/REDUCEDTRACKBARRELCOV/0",
		"AOD/REDUCEDTRACKBARRELPID/0",
	}
	muonTables = []string{
		"AOD/REDUCEDMUON/0",
		"AOD/REDUCEDMUONEXTRA/0",
		"AOD/REDUCEDMUONCOV/0",
	}
	mcEventTables = []string{
		"AOD/REDUCEDMCEVENT/0",
		"AOD/REDUCEDMCEVENTLABEL/0",
		"AOD/REDUCEDMCTRACK/0",
	}
	mcBarrelTables = []string{"AOD/REDUCEDTRACKBARRELLABEL/0"}
	mcMuonTables   = []string{"AOD/REDUCEDMUONLABEL/0"}
)

// ReducedTables lists the tables of the DQ skimmed data model for the selected track types.
func ReducedTables(barrel, muon, mc bool) []string {
	out := append([]string(nil), eventTables...)
	if barrel {
		out = append(out, barrelTables...)
	}
	if muon {
		out = append(out, muonTables...)
	}
	if mc {
		out = append(out, mcEventTables...)
		if barrel {
			out = append(out, mcBarrelTables...)
		}
		if muon {
			out = append(out, mcMuonTables...)
		}
	}
	return out
}

// DefaultWriter writes the DQ skimmed data model into reducedAod.root.
func DefaultWriter(barrel, muon, mc bool) *Writer {
	w := &Writer{OutputDirector: OutputDirector{
		DebugMode:   true,
		ResFile:     DefaultResFile,
		ResFileMode: "RECREATE",
		NTFMerge:    1,
	}}
	for _, t := range ReducedTables(barrel, muon, mc) {
		w.OutputDirector.OutputDescriptors = append(w.OutputDirector.OutputDescriptors, Descriptor{Table: t})
	}
	return w
}

// DefaultReader reads back the tables DefaultWriter writes.
func DefaultReader(barrel, muon, mc bool) *Reader {
	r := &Reader{InputDirector: InputDirector{DebugMode: true}}
	for _, t := range ReducedTables(barrel, muon, mc) {
		r.InputDirector.InputDescriptors = append(r.InputDirector.InputDescriptors, Descriptor{
			Table:    t,
			TreeName: TreeName(t),
		})
	}
	return r
}
