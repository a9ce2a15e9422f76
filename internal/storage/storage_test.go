package storage_test

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/presaleshub/crm-api/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_UploadDownloadDelete(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	path, size, err := store.Upload(ctx, "rfp", "proposal.pdf", "application/pdf", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)
	assert.Equal(t, "rfp", filepath.Dir(path))
	assert.Equal(t, ".pdf", filepath.Ext(path))
	assert.NotContains(t, path, "proposal", "original filename must not leak into the storage path")

	reader, err := store.Download(ctx, path)
	require.NoError(t, err)
	defer reader.Close()
	content, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))

	require.NoError(t, store.Delete(ctx, path))

	_, err = store.Download(ctx, path)
	assert.Error(t, err)

	// Deleting a missing file is not an error
	assert.NoError(t, store.Delete(ctx, path))
}

func TestLocalStorage_UniqueNamesPerUpload(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	first, _, err := store.Upload(ctx, "sow", "doc.pdf", "application/pdf", strings.NewReader("a"))
	require.NoError(t, err)
	second, _, err := store.Upload(ctx, "sow", "doc.pdf", "application/pdf", strings.NewReader("b"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
