package codec

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/scraper-sky/2d-scene-editor/internal/core/scene"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Save writes src to path as an indented UTF-8 JSON array. The file is
// written next to the target and renamed into place, so a crash never leaves
// a half-written scene behind.
func Save(path string, src Source) error {
	data, err := EncodeIndent(src)
	if err != nil {
		return fmt.Errorf("encode scene: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("save scene: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err = tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("save scene: %w", err)
	}
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("save scene: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("save scene: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save scene: %w", err)
	}
	return nil
}

// Load reads and decodes a scene file. I/O failures are returned as is;
// content problems are DecodeErrors.
func Load(path string) ([]scene.Entity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load scene: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, malformed(-1, "", "file is not valid UTF-8", nil)
	}
	return Decode(data)
}
