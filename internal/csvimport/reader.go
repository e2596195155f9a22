package csvimport

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"tradlyst/internal/domain"
	"tradlyst/internal/ports"
)

// Source is one import file loaded into memory.
type Source struct {
	Fingerprint domain.Fingerprint
	Text        string
}

// ReadFile loads the file at path and records its fingerprint.
func ReadFile(path string) (*Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read file '%s': %v", ports.ErrMalformedInput, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: '%s' is a directory", ports.ErrMalformedInput, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read file '%s': %v", ports.ErrMalformedInput, path, err)
	}
	defer f.Close()

	return ReadSource(f, domain.Fingerprint{
		Name:    filepath.Base(path),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	})
}

// ReadSource reads r fully and pairs the text with the given fingerprint.
func ReadSource(r io.Reader, fp domain.Fingerprint) (*Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read file: %v", ports.ErrMalformedInput, err)
	}
	return &Source{Fingerprint: fp, Text: string(data)}, nil
}
