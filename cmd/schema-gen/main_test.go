package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateGroupSchema(t *testing.T) {
	for _, group := range schemaGroups() {
		t.Run(group.Name, func(t *testing.T) {
			schema := generateGroupSchema(group)
			defs, ok := schema["$defs"].(map[string]any)
			require.True(t, ok)
			assert.NotEmpty(t, defs)
		})
	}

	schema := generateGroupSchema(schemaGroups()[0])
	defs := schema["$defs"].(map[string]any)
	assert.Contains(t, defs, "QueryRequest")
	assert.Contains(t, defs, "ParseResult")
}

func TestWriteSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.json")
	require.NoError(t, writeSchema(generateGroupSchema(schemaGroups()[0]), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Queries API Types", decoded["title"])
}
