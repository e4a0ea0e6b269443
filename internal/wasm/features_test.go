package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeatures_IsEnabled(t *testing.T) {
	f := FeatureSignExtensionOps | FeatureSIMD

	require.True(t, f.IsEnabled(FeatureSignExtensionOps))
	require.True(t, f.IsEnabled(FeatureSIMD))
	require.True(t, f.IsEnabled(FeatureSignExtensionOps|FeatureSIMD))
	require.False(t, f.IsEnabled(FeatureBulkMemoryOperations))
	require.False(t, f.IsEnabled(FeatureSignExtensionOps|FeatureBulkMemoryOperations))
}

func TestFeatures_SetClear(t *testing.T) {
	var f Features
	f = f.Set(FeatureMultiValue)
	require.True(t, f.IsEnabled(FeatureMultiValue))

	f = f.Set(FeatureSIMD)
	require.True(t, f.IsEnabled(FeatureMultiValue | FeatureSIMD))

	f = f.Clear(FeatureMultiValue)
	require.False(t, f.IsEnabled(FeatureMultiValue))
	require.True(t, f.IsEnabled(FeatureSIMD))
}

func TestFeatures_All(t *testing.T) {
	require.True(t, All.IsEnabled(FeatureSignExtensionOps))
	require.True(t, All.IsEnabled(FeatureSaturatingFloatToInt))
	require.True(t, All.IsEnabled(FeatureBulkMemoryOperations))
	require.True(t, All.IsEnabled(FeatureSIMD))
	require.True(t, All.IsEnabled(FeatureMultiValue))
}
