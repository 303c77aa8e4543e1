package config

import (
	"github.com/pmezard/go-difflib/difflib"
)

// Diff returns a unified diff between the canonical encodings of a and b. It is empty when both
// configurations encode identically.
func Diff(a, b *Object, fromName, toName string) (string, error) {
	da, err := Marshal(a)
	if err != nil {
		return "", err
	}
	db, err := Marshal(b)
	if err != nil {
		return "", err
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(da)),
		B:        difflib.SplitLines(string(db)),
		FromFile: fromName,
		ToFile:   toName,
		Context:  3,
	})
}
