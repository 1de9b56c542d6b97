package common

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteToFile serializes obj (a constraint system, key or proof) to path,
// creating parent directories as needed.
func WriteToFile(path string, obj io.WriterTo) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := obj.WriteTo(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Sync()
}

// ReadFromFile deserializes path into obj.
func ReadFromFile(path string, obj io.ReaderFrom) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := obj.ReadFrom(bufio.NewReader(f)); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return nil
}

func EnsureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
