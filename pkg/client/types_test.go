package client_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/forum/backend/pkg/client"
)

func TestDocumentsAreNameable(t *testing.T) {
	var post client.Post
	require.NoError(t, json.Unmarshal([]byte(`{"id":"p1","content":"hi","upvotes":["u2"]}`), &post))
	assert.Equal(t, "p1", post.ID)
	assert.Equal(t, []string{"u2"}, []string(post.Upvotes))

	var online client.OnlineResponse
	require.NoError(t, json.Unmarshal([]byte(`{"users":[{"id":"u1"}],"remaining":2}`), &online))
	require.Len(t, online.Users, 1)
	assert.Equal(t, "u1", online.Users[0].UserID)

	assert.Equal(t, client.Direction("up"), client.Up)
	assert.Equal(t, client.Direction("down"), client.Down)
}
