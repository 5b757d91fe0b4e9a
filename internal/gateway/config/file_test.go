package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storygraph/internal/topology"
)

func TestLoadDefaultSpecFromHCL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "storygraph.hcl")
	body := `
dag {
  node_count              = 20
  convergence_pattern     = "MultipleConvergence"
  convergence_point_ratio = 0.4
  max_depth               = 10
  branching_factor        = 3
}
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	spec, err := loadDefaultSpec(path)
	require.NoError(t, err)
	assert.Equal(t, 20, spec.NodeCount)
	assert.Equal(t, topology.MultipleConvergence, spec.Pattern)
	require.NotNil(t, spec.ConvergenceRatio)
	assert.Equal(t, 0.4, *spec.ConvergenceRatio)
	assert.Equal(t, 10, spec.MaxDepth)
	assert.Equal(t, 3, spec.BranchingFactor)
	assert.NoError(t, topology.Validate(spec))
}

func TestLoadDefaultSpecMissingFile(t *testing.T) {
	spec, err := loadDefaultSpec(filepath.Join(t.TempDir(), "absent.hcl"))
	require.NoError(t, err)
	assert.Equal(t, builtinDefault(), spec)
	assert.NoError(t, topology.Validate(spec))
}

func TestLoadDefaultSpecMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`dag { node_count = `), 0o644))

	_, err := loadDefaultSpec(path)
	assert.Error(t, err)
}

func TestLoadDefaultSpecNoDagBlock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.hcl")
	require.NoError(t, os.WriteFile(path, []byte("\n"), 0o644))

	spec, err := loadDefaultSpec(path)
	require.NoError(t, err)
	assert.Equal(t, builtinDefault(), spec)
}
