package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	key := "audit/user-1/2024-03-01/rec.json"
	require.NoError(t, s.Put(ctx, key, strings.NewReader(`{"ok":true}`), "application/json"))

	rc, err := s.Get(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(data))

	require.NoError(t, s.Delete(ctx, key))
	_, err = s.Get(ctx, key)
	assert.ErrorIs(t, err, ErrObjectNotFound)

	// deleting twice is not an error
	assert.NoError(t, s.Delete(ctx, key))
}

func TestCleanKey(t *testing.T) {
	got, err := cleanKey("audit//a/./b.json")
	require.NoError(t, err)
	assert.Equal(t, "audit/a/b.json", got)

	got, err = cleanKey("../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, "etc/passwd", got)

	_, err = cleanKey("")
	assert.Error(t, err)
	_, err = cleanKey("/")
	assert.Error(t, err)
}

func TestNewStorage_Unknown(t *testing.T) {
	_, err := NewStorage(StorageConfig{Type: "ftp"})
	assert.Error(t, err)

	_, err = NewStorage(StorageConfig{Type: StorageTypeS3})
	assert.Error(t, err)
}
