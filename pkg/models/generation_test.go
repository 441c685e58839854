package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(GenerationStatusCompleted))
	assert.True(t, IsTerminal(GenerationStatusFailed))
	assert.False(t, IsTerminal(GenerationStatusPending))
	assert.False(t, IsTerminal("running"))
}

func TestDocument_MarshalVerbatim(t *testing.T) {
	gen := Generation{
		ID:     "gen-1",
		Result: Document(`{"data":[{"url":"https://cdn.example.com/a.png"}]}`),
	}

	out, err := json.Marshal(gen)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"result":{"data":[{"url":"https://cdn.example.com/a.png"}]}`)
}

func TestDocument_EmptyRendersNull(t *testing.T) {
	out, err := json.Marshal(struct {
		Result Document `json:"result"`
	}{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"result":null}`, string(out))
}

func TestDocument_ValueRejectsInvalidJSON(t *testing.T) {
	_, err := Document(`{"broken`).Value()
	assert.Error(t, err)
}

func TestMetadata_NilValueIsEmptyObject(t *testing.T) {
	var m Metadata
	v, err := m.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(v.([]byte)))
}
