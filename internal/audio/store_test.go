package audio

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "outputs")

	s, err := NewStore(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, s.Dir())

	info, err := os.Stat(filepath.Join(dir, uploadsDir))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Existing directory is fine.
	_, err = NewStore(dir)
	require.NoError(t, err)
}

func TestFileName(t *testing.T) {
	name := FileName("abcdefghijklmnopqrstuvwxyz", "<speak>hi</speak>", "mp3")
	assert.True(t, strings.HasPrefix(name, "abcdefghijkl_"), name)
	assert.True(t, strings.HasSuffix(name, ".mp3"), name)

	assert.Equal(t, name, FileName("abcdefghijklmnopqrstuvwxyz", "<speak>hi</speak>", "mp3"))
	assert.NotEqual(t, name, FileName("abcdefghijklmnopqrstuvwxyz", "hi", "mp3"))

	short := FileName("a/b", "x", "wav")
	assert.True(t, strings.HasPrefix(short, "a_b_"), short)
	assert.NotContains(t, short, "/")
}

func TestWriteBase64(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	payload := []byte("ID3 fake mp3 bytes")
	name, err := s.WriteBase64("voice-1", "hello", "mp3", base64.StdEncoding.EncodeToString(payload))
	require.NoError(t, err)
	assert.Equal(t, FileName("voice-1", "hello", "mp3"), name)

	got, err := os.ReadFile(filepath.Join(s.Dir(), name))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestWriteBase64_Invalid(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.WriteBase64("v", "x", "mp3", "not base64!!")
	require.Error(t, err)

	_, err = s.WriteBase64("v", "x", "mp3", "")
	require.ErrorIs(t, err, ErrEmptyAudio)
}

func TestSaveUpload(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	path, cleanup, err := s.SaveUpload(strings.NewReader("RIFF"), "../../etc/passwd.wav")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(s.Dir(), uploadsDir), filepath.Dir(path))
	assert.True(t, strings.HasSuffix(path, "_passwd.wav"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data))

	cleanup()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	cleanup()
}

func TestSaveUpload_UniqueNames(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	p1, c1, err := s.SaveUpload(strings.NewReader("a"), "same.wav")
	require.NoError(t, err)
	defer c1()
	p2, c2, err := s.SaveUpload(strings.NewReader("b"), "same.wav")
	require.NoError(t, err)
	defer c2()

	assert.NotEqual(t, p1, p2)
}
