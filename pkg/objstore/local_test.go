package objstore

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	store, err := newLocalStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "2024/06/report.pdf", "application/pdf", strings.NewReader("contents")))

	rc, err := store.Get(ctx, "2024/06/report.pdf")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "contents", string(data))

	require.NoError(t, store.Delete(ctx, "2024/06/report.pdf"))
	_, err = store.Get(ctx, "2024/06/report.pdf")
	assert.Error(t, err)
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	store, err := newLocalStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	assert.Error(t, store.Put(ctx, "../outside", "text/plain", strings.NewReader("x")))
	assert.Error(t, store.Put(ctx, "/etc/passwd", "text/plain", strings.NewReader("x")))
}

func TestLocalStoreDeleteIsIdempotent(t *testing.T) {
	store, err := newLocalStore(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Delete(context.Background(), "never-written"))
}
