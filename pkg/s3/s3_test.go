package s3

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFromURL(t *testing.T) {
	key, err := KeyFromURL("https://facegate.s3.ap-southeast-1.amazonaws.com/face-references/u1/snap%201.jpg")
	require.NoError(t, err)
	assert.Equal(t, "face-references/u1/snap 1.jpg", key)

	key, err = KeyFromURL("face-references/u1/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "face-references/u1/a.jpg", key)

	_, err = KeyFromURL("bad%zzkey")
	assert.Error(t, err)
}

func TestSnapshotKey(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	assert.Equal(t, "face-references/u1/20260304T050607Z.jpg", SnapshotKey("u1", at, ".jpg"))
	assert.Equal(t, "face-references/u1/20260304T050607Z.png", SnapshotKey("u1", at, "png"))
}

func TestNewRequiresBucket(t *testing.T) {
	t.Setenv("AWS_BUCKET_NAME", "")
	_, err := New()
	assert.Error(t, err)
}
