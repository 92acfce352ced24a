// Package audio persists synthesized speech and transient upload samples on
// the local filesystem.
package audio

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

const uploadsDir = "_uploads"

// ErrEmptyAudio is returned when the decoded payload has no bytes.
var ErrEmptyAudio = errors.New("audio: decoded payload is empty")

// Store writes files under a single output directory.
type Store struct {
	dir string
}

// NewStore creates dir (and its upload area) if absent.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		dir = "outputs"
	}
	if err := os.MkdirAll(filepath.Join(dir, uploadsDir), 0o755); err != nil {
		return nil, fmt.Errorf("audio: create output dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the output directory served as static content.
func (s *Store) Dir() string { return s.dir }

// Path returns the location of name inside Dir.
func (s *Store) Path(name string) string { return filepath.Join(s.dir, filepath.Base(name)) }

// FileName derives the output file name for a synthesis: the first 12
// characters of the voice id, a hash of the rendered input, and the format.
func FileName(voiceID, input, format string) string {
	safe := voiceID
	if len(safe) > 12 {
		safe = safe[:12]
	}
	safe = strings.ReplaceAll(safe, "/", "_")
	safe = strings.ReplaceAll(safe, `\`, "_")
	return fmt.Sprintf("%s_%d.%s", safe, xxhash.Sum64String(input)%100_000_000, format)
}

// WriteBase64 decodes b64 and writes it to FileName(voiceID, input, format).
// It returns the file name relative to Dir.
func (s *Store) WriteBase64(voiceID, input, format, b64 string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", fmt.Errorf("audio: decode base64: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmptyAudio
	}

	name := FileName(voiceID, input, format)
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("audio: write %s: %w", name, err)
	}
	return name, nil
}

// SaveUpload copies r into a uniquely named file in the upload area. The
// returned cleanup removes it and is safe to call more than once.
func (s *Store) SaveUpload(r io.Reader, originalName string) (path string, cleanup func(), err error) {
	base := filepath.Base(originalName)
	if base == "." || base == string(filepath.Separator) || base == "" {
		base = "sample"
	}
	path = filepath.Join(s.dir, uploadsDir, "_tmp_"+uuid.NewString()+"_"+base)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", nil, fmt.Errorf("audio: create upload: %w", err)
	}
	cleanup = func() { _ = os.Remove(path) }

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("audio: write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("audio: close upload: %w", err)
	}
	return path, cleanup, nil
}
