package session

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindow(t *testing.T) {
	msgs := []Message{{Content: "1"}, {Content: "2"}, {Content: "3"}}

	tests := []struct {
		name     string
		n        int
		expected []string
	}{
		{"smaller window", 2, []string{":2", ":3"}},
		{"exact", 3, []string{":1", ":2", ":3"}},
		{"larger window", 10, []string{":1", ":2", ":3"}},
		{"zero keeps all", 0, []string{":1", ":2", ":3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, contents(Window(msgs, tt.n)))
		})
	}
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	store := NewMockStore()
	h := NewHistory(store, 4)

	for i := range 3 {
		require.NoError(t, h.AppendTurn(ctx, "s1", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i)))
	}
	assert.Equal(t, 3, store.AppendCalls())

	recent, err := h.Recent(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"user:q1", "assistant:a1", "user:q2", "assistant:a2"}, contents(recent))

	store.SetFailures(errors.New("db down"), nil)
	_, err = h.Recent(ctx, "s1")
	var se *SessionStoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "load", se.Op)
	assert.Equal(t, "s1", se.SessionID)
}
