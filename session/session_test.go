package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryAppendKeepsOrder(t *testing.T) {
	h := New()
	require.NotEmpty(t, h.ID)

	h.Append(UserText("context"), ModelText("Pronto."))
	h.Append(UserText("explain @readme.md"))

	msgs := h.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, RoleModel, msgs[1].Role)
	assert.Equal(t, "explain @readme.md", msgs[2].Content)
}

func TestHistoryMessagesIsACopy(t *testing.T) {
	h := New()
	h.Append(UserText("a"))
	msgs := h.Messages()
	msgs[0].Content = "mutated"
	assert.Equal(t, "a", h.Messages()[0].Content)
	assert.Equal(t, 1, h.Len())
}

func TestNewHistoriesHaveDistinctIDs(t *testing.T) {
	assert.NotEqual(t, New().ID, New().ID)
}
