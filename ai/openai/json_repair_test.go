package openai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairJSON(t *testing.T) {
	t.Run("restores missing opening quote on keys", func(t *testing.T) {
		broken := `{"passages": [{category": "indemnity", text": "some clause"}]}`
		repaired := repairJSON(broken)

		var parsed map[string]any
		require.NoError(t, json.Unmarshal([]byte(repaired), &parsed))
	})

	t.Run("leaves valid JSON untouched", func(t *testing.T) {
		valid := `{"passages": [{"category": "other", "text": "a, b\": c"}]}`
		assert.Equal(t, valid, repairJSON(valid))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, "", repairJSON(""))
	})
}
