package glossary

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/smartbud-dev/smartbud/internal/model"
)

// Load reads a glossary file from disk.
func Load(path string) (model.Glossary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening glossary: %w", err)
	}
	defer f.Close()

	g, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("loading glossary %s: %w", path, err)
	}
	return g, nil
}

// Save writes g to path. The file is replaced atomically, so a rejected
// glossary leaves any existing file untouched.
func Save(path string, g model.Glossary) error {
	content, err := Marshal(g)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".glossary-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("writing glossary: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("setting glossary permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing glossary: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("moving glossary into place: %w", err)
	}
	return nil
}
