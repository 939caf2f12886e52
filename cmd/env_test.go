package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/catalog-cli/internal/config"
	"github.com/sells-group/catalog-cli/internal/model"
)

func TestSourcesFromConfig(t *testing.T) {
	cfg = &config.Config{
		Sources: config.SourcesConfig{UVP: true, Website: true, Review: false, Keyword: true},
	}

	enabled, err := sourcesFromConfig("")
	require.NoError(t, err)
	assert.True(t, enabled[model.SourceUVP])
	assert.True(t, enabled[model.SourceWebsite])
	assert.False(t, enabled[model.SourceReview])
	assert.True(t, enabled[model.SourceKeyword])
}

func TestSourcesFromConfig_Override(t *testing.T) {
	cfg = &config.Config{
		Sources: config.SourcesConfig{UVP: true, Website: true, Review: true, Keyword: true},
	}

	enabled, err := sourcesFromConfig("uvp, review")
	require.NoError(t, err)
	assert.True(t, enabled[model.SourceUVP])
	assert.True(t, enabled[model.SourceReview])
	assert.False(t, enabled[model.SourceWebsite], "override narrows to the named sources only")
	assert.False(t, enabled[model.SourceKeyword])
}

func TestSourcesFromConfig_BadOverride(t *testing.T) {
	cfg = &config.Config{}
	_, err := sourcesFromConfig("uvp,telepathy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown source")
}
