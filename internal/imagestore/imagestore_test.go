package imagestore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Put_ContentAddressing(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	data := []byte("not-really-a-png-but-bytes-are-bytes")

	first, err := store.Put(data, "png")
	require.NoError(t, err)
	second, err := store.Put(data, "png")
	require.NoError(t, err)

	// Same bytes hash identically; the timestamp suffix keeps names distinct
	assert.Equal(t, first.Hash, second.Hash)
	assert.NotEqual(t, first.Filename, second.Filename)
	assert.Equal(t, int64(len(data)), first.Size)
	assert.Equal(t, "image/png", first.ContentType)

	other, err := store.Put([]byte("different bytes"), "png")
	require.NoError(t, err)
	assert.NotEqual(t, first.Hash, other.Hash)
}

func TestStore_Put_Empty(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = store.Put(nil, "png")
	assert.Error(t, err)
}

func TestStore_Open(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	data := []byte("image-bytes")
	img, err := store.Put(data, "jpg")
	require.NoError(t, err)

	reader, contentType, err := store.Open(img.Filename)
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, "image/jpeg", contentType)
	got, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestStore_Open_RejectsUnsafeNames(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	unsafe := []string{
		"../../etc/passwd",
		"..%2f..%2fetc%2fpasswd",
		"/etc/passwd",
		"subdir/file.png",
		"abc.png",
		"deadbeef0000_123.exe",
		"",
	}

	for _, name := range unsafe {
		_, _, err := store.Open(name)
		assert.Error(t, err, "expected %q to be rejected", name)
	}
}

func TestStore_Open_NotFound(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.Open("abcdefabcdef_1234567890.png")
	assert.Error(t, err)
}

func TestStore_DownloadAndStore(t *testing.T) {
	payload := []byte("downloaded-image-bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(payload)
	}))
	defer server.Close()

	store, err := New(t.TempDir())
	require.NoError(t, err)

	img, err := store.DownloadAndStore(context.Background(), server.URL+"/cat.png")
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), img.Size)
	assert.Equal(t, "image/png", img.ContentType)

	reader, _, err := store.Open(img.Filename)
	require.NoError(t, err)
	defer reader.Close()

	got, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestStore_DownloadAndStore_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	store, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = store.DownloadAndStore(context.Background(), server.URL+"/missing.png")
	assert.Error(t, err)
}
