package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serviceDefault() Spec {
	spec, _ := LookupPreset("guided")
	return spec
}

func TestResolvePresetWins(t *testing.T) {
	spec, prov, conflict, err := Resolve("adventure", nil, serviceDefault())
	require.NoError(t, err)
	assert.Equal(t, SourcePreset, prov.Source)
	assert.Equal(t, "adventure", prov.Preset)
	assert.Equal(t, "Preset(adventure)", prov.String())
	assert.Nil(t, conflict)
	assert.Equal(t, 16, spec.NodeCount)
}

func TestResolvePresetCaseInsensitive(t *testing.T) {
	spec, prov, _, err := Resolve("  GUIDED ", nil, serviceDefault())
	require.NoError(t, err)
	assert.Equal(t, "guided", prov.Preset)
	assert.Equal(t, SingleConvergence, spec.Pattern)
}

func TestResolveUnknownPreset(t *testing.T) {
	_, _, _, err := Resolve("mystery", nil, serviceDefault())
	var unknown *UnknownPresetError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "mystery", unknown.Name)
	assert.Contains(t, err.Error(), "guided")
}

func TestResolveConflictDiscardsCustom(t *testing.T) {
	custom := &Spec{NodeCount: 30, Pattern: EndOnly, ConvergenceRatio: Ratio(0.8), MaxDepth: 15, BranchingFactor: 3}
	spec, prov, conflict, err := Resolve("epic", custom, serviceDefault())
	require.NoError(t, err)
	assert.Equal(t, SourcePreset, prov.Source)
	// The preset fully displaces the custom spec.
	assert.Equal(t, 24, spec.NodeCount)
	require.NotNil(t, conflict)
	assert.Equal(t, "epic", conflict.Preset)
	assert.ElementsMatch(t, conflict.Discarded,
		[]string{"node_count", "convergence_pattern", "convergence_point_ratio", "max_depth", "branching_factor"})
}

func TestResolveCustomValidated(t *testing.T) {
	good := &Spec{NodeCount: 10, Pattern: PureBranching, MaxDepth: 6, BranchingFactor: 2}
	spec, prov, conflict, err := Resolve("", good, serviceDefault())
	require.NoError(t, err)
	assert.Equal(t, SourceCustom, prov.Source)
	assert.Equal(t, "Custom", prov.String())
	assert.Nil(t, conflict)
	assert.Equal(t, *good, spec)

	bad := &Spec{NodeCount: 2, Pattern: PureBranching, MaxDepth: 6, BranchingFactor: 2}
	_, _, _, err = Resolve("", bad, serviceDefault())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("node_count"))
}

func TestResolveFallsBackToDefault(t *testing.T) {
	spec, prov, conflict, err := Resolve("", nil, serviceDefault())
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, prov.Source)
	assert.Equal(t, "Default", prov.String())
	assert.Nil(t, conflict)
	assert.Equal(t, serviceDefault(), spec)
}
