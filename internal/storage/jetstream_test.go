package storage

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/forum/backend/internal/events"
	"github.com/emilythestrangee/forum/backend/internal/logging"
	"github.com/emilythestrangee/forum/backend/internal/testutil"
)

func TestJetStreamStore(t *testing.T) {
	url := testutil.StartNATS(t)

	nc, err := events.Connect(url, logging.Discard())
	require.NoError(t, err)
	defer nc.Close()

	ctx := t.Context()
	store, err := NewJetStreamStore(ctx, nc, "test-images")
	require.NoError(t, err)

	data := pngBytes(t)
	info, err := store.Put(ctx, "posts/u1/1_cat.png", "image/png", bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), info.Size)

	obj, err := store.Get(ctx, "posts/u1/1_cat.png")
	require.NoError(t, err)
	defer obj.Close()

	got, err := io.ReadAll(obj)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, "image/png", obj.Info.ContentType)

	_, err = store.Get(ctx, "posts/u1/missing.png")
	assert.ErrorIs(t, err, ErrNotFound)
}
