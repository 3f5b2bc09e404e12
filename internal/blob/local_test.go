package blob

import (
	"context"
	"errors"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalPutAndDelete(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	raw, err := store.Put(ctx, "avatars/u1/photo.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "file", u.Scheme)

	data, err := os.ReadFile(u.Path)
	require.NoError(t, err)
	require.Equal(t, "png-bytes", string(data))

	require.NoError(t, store.Delete(ctx, "avatars/u1/photo.png"))
	_, err = os.Stat(u.Path)
	require.True(t, os.IsNotExist(err))

	require.NoError(t, store.Delete(ctx, "avatars/u1/photo.png"))
}

func TestLocalRejectsEscapingKeys(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "/", "../etc/passwd", "a/../../b"} {
		_, err := store.Put(context.Background(), key, "", strings.NewReader("x"))
		require.True(t, errors.Is(err, ErrInvalidKey), "key %q: %v", key, err)
	}
}

func TestCloudinaryRequiresCredentials(t *testing.T) {
	_, err := NewCloudinary(CloudinaryConfig{CloudName: "demo"}, nil)
	require.Error(t, err)
}
