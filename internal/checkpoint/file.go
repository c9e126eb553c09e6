package checkpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/roach88/skein/internal/rt"
)

// Decode parses a checkpoint and checks that it restores to a valid path.
func Decode(data []byte) (rt.PathSnapshot, error) {
	var snap rt.PathSnapshot
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snap); err != nil {
		return rt.PathSnapshot{}, fmt.Errorf("decode checkpoint: %w", err)
	}
	if _, err := rt.RestorePath(snap); err != nil {
		return rt.PathSnapshot{}, fmt.Errorf("invalid checkpoint: %w", err)
	}
	return snap, nil
}

// Encode renders snap as indented JSON.
func Encode(snap rt.PathSnapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode checkpoint: %w", err)
	}
	return append(data, '\n'), nil
}

// Read loads the checkpoint stored at path.
func Read(path string) (rt.PathSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return rt.PathSnapshot{}, err
	}
	snap, err := Decode(data)
	if err != nil {
		return rt.PathSnapshot{}, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

// Write stores snap at path. The file is replaced atomically so a crash
// mid-write leaves the previous checkpoint intact.
func Write(path string, snap rt.PathSnapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create checkpoint: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}

// File is a checkpoint kept in a single JSON file.
type File struct {
	path string
}

// NewFile returns a checkpoint backed by path. The file need not exist.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the file location.
func (f *File) Path() string {
	return f.path
}

// Load returns the stored path. It reports false when no checkpoint has
// been written yet.
func (f *File) Load(ctx context.Context) (rt.PathSnapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return rt.PathSnapshot{}, false, err
	}
	snap, err := Read(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return rt.PathSnapshot{}, false, nil
	}
	if err != nil {
		return rt.PathSnapshot{}, false, err
	}
	return snap, true, nil
}

// Save overwrites the file with snap. The iteration count is not part of
// the file format.
func (f *File) Save(ctx context.Context, snap rt.PathSnapshot, iteration int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return Write(f.path, snap)
}
