package workflow

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dqworkflows/o2dq/config"
)

func loadFixture(t testing.TB) *config.Object {
	t.Helper()
	cfg, err := config.Load(filepath.Join("testdata", "tableMaker.json"))
	require.NoError(t, err)
	return cfg
}

func leaf(t testing.TB, cfg *config.Object, key string) string {
	t.Helper()
	v, ok := config.Leaf(cfg, config.ParseKey(key))
	require.True(t, ok, "%s not found", key)
	return v
}
