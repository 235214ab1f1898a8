// Package storage keeps uploaded task attachments on local disk. Names are
// sanitized before writing, collisions get a timestamp suffix instead of
// overwriting, and reads fall back to the legacy upload directory so
// attachments saved under the previous layout keep resolving.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var ErrNotFound = errors.New("storage: file not found")

type Store struct {
	Dir       string
	LegacyDir string
}

func New(dir, legacyDir string) *Store {
	return &Store{Dir: dir, LegacyDir: legacyDir}
}

// SanitizeName reduces an uploaded filename to a safe base name. Path
// components and separators are stripped so a crafted name cannot escape
// the upload directory.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	name = strings.Trim(name, "._")
	if name == "" {
		name = "file"
	}
	return name
}

// Save writes src under the sanitized name and returns the name actually
// stored. If a file with that name already exists, a unix-timestamp suffix
// is inserted before the extension rather than overwriting.
func (s *Store) Save(name string, src io.Reader) (string, error) {
	if err := os.MkdirAll(s.Dir, os.ModePerm); err != nil {
		return "", err
	}

	stored := SanitizeName(name)
	target := filepath.Join(s.Dir, stored)
	if _, err := os.Stat(target); err == nil {
		ext := filepath.Ext(stored)
		base := strings.TrimSuffix(stored, ext)
		stored = fmt.Sprintf("%s_%d%s", base, time.Now().UnixNano(), ext)
		target = filepath.Join(s.Dir, stored)
	}

	dst, err := os.Create(target)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(target)
		return "", err
	}
	return stored, nil
}

// Resolve returns the on-disk path for a stored name, checking the current
// upload directory first and the legacy directory second.
func (s *Store) Resolve(name string) (string, error) {
	name = SanitizeName(name)
	primary := filepath.Join(s.Dir, name)
	if _, err := os.Stat(primary); err == nil {
		return primary, nil
	}
	if s.LegacyDir != "" {
		legacy := filepath.Join(s.LegacyDir, name)
		if _, err := os.Stat(legacy); err == nil {
			return legacy, nil
		}
	}
	return "", ErrNotFound
}

// Read loads a stored file's contents.
func (s *Store) Read(name string) ([]byte, error) {
	path, err := s.Resolve(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}
