//
// Copyright (C) 2026 ThreadStream authors. All rights reserved.
//
// threadstream-go is licensed under the Apache License Version 2.0.
//

package thread

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyStateCanonicalShape(t *testing.T) {
	encoded, err := json.Marshal(EmptyState())
	require.NoError(t, err)
	assert.JSONEq(t, `{"values":{"messages":[]},"next":[],"tasks":[]}`, string(encoded))
}

func TestStateRoundTrip(t *testing.T) {
	input := `{"values":{"messages":[{"content":"hi"}],"scratch":42},"next":["tools"],"tasks":[{"id":"task-1"}]}`
	var state State
	require.NoError(t, json.Unmarshal([]byte(input), &state))
	assert.Equal(t, []string{"tools"}, state.Next)
	assert.JSONEq(t, `42`, string(state.Values["scratch"]))

	encoded, err := json.Marshal(state)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(encoded))
}

func TestDefaultStreamModes(t *testing.T) {
	assert.Equal(t, []string{"events", "values", "updates", "custom"}, DefaultStreamModes)
}
