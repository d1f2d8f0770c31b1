package plan

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader loads and validates plan files
type Loader struct{}

// NewLoader creates a new plan loader
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and parses a plan file from the given path. Package paths are
// resolved against the directory holding the file.
func (l *Loader) Load(path string) (*Plan, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	p, err := l.LoadFromBytes(data, filepath.Ext(path))
	if err != nil {
		return nil, err
	}

	base, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve plan directory: %w", err)
	}
	p.ResolvePaths(base)
	return p, nil
}

// LoadFromBytes parses a plan from raw bytes. Package paths are left as written.
func (l *Loader) LoadFromBytes(data []byte, ext string) (*Plan, error) {
	ext = strings.ToLower(ext)

	var p Plan
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExt, ext)
	}

	l.applyDefaults(&p)

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return &p, nil
}

func (l *Loader) applyDefaults(p *Plan) {
	defaults := DefaultOptions()

	if p.Options.Concurrency <= 0 {
		p.Options.Concurrency = defaults.Concurrency
	}
	for i := range p.Checks {
		p.Checks[i].Request = strings.TrimSpace(p.Checks[i].Request)
	}
}
