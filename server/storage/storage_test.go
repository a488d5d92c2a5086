package storage

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/require"
)

func TestStorageFS(t *testing.T) {
	st, err := NewStorageFS(logs.NewTestingLog(t), t.TempDir())
	require.NoError(t, err)

	name := ImageBlobName(7, "page1.jpg")
	require.NoError(t, WriteFile(st, name, bytes.NewReader([]byte("hello"))))

	data, err := ReadFile(st, name)
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))

	f, err := st.ReadFile(name)
	require.NoError(t, err)
	require.Equal(t, int64(5), f.Size)
	f.Reader.Close()

	_, err = st.URL(name)
	require.ErrorIs(t, err, ErrNoPublicURL)

	require.NoError(t, st.DeleteFile(name))
	_, err = ReadFile(st, name)
	require.Error(t, err)
}

func TestStorageFSRejectsTraversal(t *testing.T) {
	st, err := NewStorageFS(logs.NewTestingLog(t), t.TempDir())
	require.NoError(t, err)
	_, err = st.WriteFile("../../etc/passwd")
	require.Error(t, err)
	_, err = st.ReadFile("a/../../b")
	require.Error(t, err)
}

func TestThumbnail(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, image.NewRGBA(image.Rect(0, 0, 1200, 800))))

	thumb, err := Thumbnail(buf.Bytes())
	require.NoError(t, err)

	config, format, err := image.DecodeConfig(bytes.NewReader(thumb))
	require.NoError(t, err)
	require.Equal(t, "jpeg", format)
	require.Equal(t, ThumbnailSize, config.Width)
	require.Equal(t, 213, config.Height)
}
