package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
storage:
  backend: neo4j
  neo4j:
    uri: bolt://localhost:7687
    username: neo4j
    password: secret
embedding:
  provider: openai
  model: text-embedding-3-small
  api_key_env: OPENAI_API_KEY
search:
  top_k: 5
  threshold: 0.3
verify:
  threshold: 0.75
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "neo4j", cfg.Storage.Backend)
	assert.Equal(t, "bolt://localhost:7687", cfg.Storage.Neo4j.URI)
	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, 5, cfg.Search.TopK)
	assert.Equal(t, 0.75, cfg.Verify.Threshold)
}

func TestLoad_PartialFallsBackToDefaults(t *testing.T) {
	path := writeConfig(t, `
storage:
  backend: memory
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	// Everything unspecified keeps its default.
	assert.Equal(t, "hash", cfg.Embedding.Provider)
	assert.Equal(t, 256, cfg.Embedding.Dimension)
	assert.Equal(t, 10, cfg.Search.TopK)
	assert.Equal(t, 0.6, cfg.Verify.Threshold)
}

func TestLoad_UnknownBackend(t *testing.T) {
	path := writeConfig(t, `
storage:
  backend: cassandra
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage backend")
}

func TestLoad_Neo4jRequiresURI(t *testing.T) {
	path := writeConfig(t, `
storage:
  backend: neo4j
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "neo4j backend requires")
}

func TestLoad_UnknownEmbeddingProvider(t *testing.T) {
	path := writeConfig(t, `
embedding:
  provider: word2vec
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown embedding provider")
}

func TestLoad_ThresholdOutOfRange(t *testing.T) {
	path := writeConfig(t, `
verify:
  threshold: 1.5
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verify.threshold")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "storage: [not a mapping")
	_, err := Load(path)
	require.Error(t, err)
}

func TestDefault_Validates(t *testing.T) {
	require.NoError(t, validate(Default()))
}
