package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_UploadSnapshot(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(filepath.Join(dir, "snaps"), "https://app.example.com")

	url, err := store.UploadSnapshot(42, []byte(`{"completed":true}`))
	require.NoError(t, err)
	assert.Equal(t, "https://app.example.com/snapshots/42.json", url)

	data, err := os.ReadFile(filepath.Join(dir, "snaps", "42.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"completed":true}`, string(data))
}

func TestLocalStore_MissingDir(t *testing.T) {
	store := NewLocalStore("", "https://app.example.com")
	_, err := store.UploadSnapshot(1, []byte("{}"))
	assert.Error(t, err)
}
