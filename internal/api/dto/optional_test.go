package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionalUnmarshal(t *testing.T) {
	type payload struct {
		Title    Optional[string]  `json:"title"`
		StatusID Optional[*string] `json:"status_id"`
	}

	t.Run("absent fields stay unset", func(t *testing.T) {
		var p payload
		require.NoError(t, json.Unmarshal([]byte(`{}`), &p))
		assert.False(t, p.Title.Set)
		assert.False(t, p.StatusID.Set)
	})

	t.Run("provided value is captured", func(t *testing.T) {
		var p payload
		require.NoError(t, json.Unmarshal([]byte(`{"title":"New title"}`), &p))
		assert.True(t, p.Title.Set)
		assert.Equal(t, "New title", p.Title.Value)
	})

	t.Run("explicit empty string is provided", func(t *testing.T) {
		var p payload
		require.NoError(t, json.Unmarshal([]byte(`{"title":""}`), &p))
		assert.True(t, p.Title.Set)
		assert.Equal(t, "", p.Title.Value)
	})

	t.Run("explicit null is provided with nil value", func(t *testing.T) {
		var p payload
		require.NoError(t, json.Unmarshal([]byte(`{"status_id":null}`), &p))
		assert.True(t, p.StatusID.Set)
		assert.Nil(t, p.StatusID.Value)
	})
}
