package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_PutGetOverwrite(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "http://localhost:8080/storage")
	require.NoError(t, err)
	ctx := context.Background()

	key := "logbooks/week_1_TRZ260001.pdf"
	require.NoError(t, s.Put(ctx, key, strings.NewReader("v1"), "application/pdf"))
	require.NoError(t, s.Put(ctx, key, strings.NewReader("v2"), "application/pdf"))

	rc, err := s.Get(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))

	ok, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "http://localhost:8080/storage/logbooks/week_1_TRZ260001.pdf", s.URL(key))
}

func TestLocalStorage_GetMissing(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "/storage")
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "nope.txt")
	assert.True(t, errors.Is(err, ErrNotFound))

	ok, err := s.Exists(context.Background(), "nope.txt")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalStorage_Delete(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "/storage")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "a/b.txt", strings.NewReader("x"), ""))
	require.NoError(t, s.Delete(ctx, "a/b.txt"))
	// 删除不存在的文件不报错
	require.NoError(t, s.Delete(ctx, "a/b.txt"))

	ok, err := s.Exists(ctx, "a/b.txt")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCleanKey_RejectsTraversal(t *testing.T) {
	for _, key := range []string{"", "/etc/passwd", "../x", "a/../../x", "a\\b", "."} {
		_, err := cleanKey(key)
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}

	got, err := cleanKey("attachments/./task/file.txt")
	require.NoError(t, err)
	assert.Equal(t, "attachments/task/file.txt", got)
}
