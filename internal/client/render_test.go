package client

import (
	"bytes"
	"chatbox-backend/internal/models"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestVariantOf(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()

	require.Equal(t, VariantOwn, VariantOf(alice, alice))
	require.Equal(t, VariantOther, VariantOf(alice, bob))
	require.Equal(t, VariantOther, VariantOf(bob, alice))
	// Same inputs, same answer.
	for range 3 {
		require.Equal(t, VariantOwn, VariantOf(bob, bob))
	}
	require.Equal(t, "own", VariantOwn.String())
	require.Equal(t, "other", VariantOther.String())
}

func TestTerminalRenderer_AlignsByVariant(t *testing.T) {
	req := require.New(t)
	alice, bob := uuid.New(), uuid.New()
	var out bytes.Buffer
	r := NewTerminalRenderer(&out, 40, false)

	r.Render(Viewer{ID: alice, Name: "Alice"}, []models.MessageResponse{
		{ID: 1, UserID: bob, User: models.MessageAuthor{ID: bob, Name: "Bob"}, Text: "hi", Time: "05 Mar 2024, 17:04:09"},
		{ID: 2, UserID: alice, User: models.MessageAuthor{ID: alice, Name: "Alice"}, Text: "hello", Time: "05 Mar 2024, 17:04:10"},
	})

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	req.Len(lines, 4)
	req.Equal("Bob · 05 Mar 2024, 17:04:09", lines[0])
	req.Equal(" hi ", lines[1])
	req.True(strings.HasSuffix(lines[2], "Alice · 05 Mar 2024, 17:04:10"))
	req.True(strings.HasPrefix(lines[2], " "), "own messages are right-aligned")
	req.Equal(40, len([]rune(lines[3])))
	req.True(strings.HasSuffix(lines[3], " hello "))
}
