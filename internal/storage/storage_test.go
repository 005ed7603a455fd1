package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/booktime/booktime-backend/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_PutAndDelete(t *testing.T) {
	root := t.TempDir()
	s := NewLocalStorage(config.MediaConfig{Root: root, URL: "/media/"})
	ctx := context.Background()

	url, err := s.Put(ctx, "product-images/a.jpg", "image/jpeg", []byte("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "/media/product-images/a.jpg", url)

	data, err := os.ReadFile(filepath.Join(root, "product-images", "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	require.NoError(t, s.Delete(ctx, "product-images/a.jpg"))
	_, err = os.Stat(filepath.Join(root, "product-images", "a.jpg"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Delete(ctx, "product-images/missing.jpg"))
}

func TestLocalStorage_RejectsEscapingKeys(t *testing.T) {
	s := NewLocalStorage(config.MediaConfig{Root: t.TempDir(), URL: "/media"})

	_, err := s.Put(context.Background(), "../outside.jpg", "image/jpeg", []byte("x"))
	assert.Error(t, err)
}

func TestMemoryStorage(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	_, err := s.Put(ctx, "k", "image/png", []byte("v"))
	require.NoError(t, err)
	got, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", string(got))

	require.NoError(t, s.Delete(ctx, "k"))
	assert.Zero(t, s.Len())
}

func TestNewKey(t *testing.T) {
	key := NewKey("product-thumbnails", "cover.PNG")
	assert.True(t, strings.HasPrefix(key, "product-thumbnails/"))
	assert.True(t, strings.HasSuffix(key, ".PNG"))
}

func TestValidateContentType(t *testing.T) {
	assert.NoError(t, ValidateContentType("image/png", ImageContentTypes))
	assert.Error(t, ValidateContentType("application/pdf", ImageContentTypes))
}

func TestValidateFileSize(t *testing.T) {
	assert.NoError(t, ValidateFileSize(10, 10))
	assert.Error(t, ValidateFileSize(11, 10))
}

func TestS3Storage_URL(t *testing.T) {
	s := NewS3Storage(config.S3Config{
		Region:          "eu-west-1",
		Bucket:          "booktime",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
	})
	assert.Equal(t, "https://booktime.s3.eu-west-1.amazonaws.com/a/b.jpg", s.URL("a/b.jpg"))

	cdn := NewS3Storage(config.S3Config{Region: "eu-west-1", Bucket: "booktime", AccessKeyID: "k", SecretAccessKey: "s", BaseURL: "https://cdn.test"})
	assert.Equal(t, "https://cdn.test/a/b.jpg", cdn.URL("a/b.jpg"))
}
