// Package artifacts reads the backend code template and writes generated
// code and API schema files.
package artifacts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	DefaultCodeTemplatePath = "/web_template/code_template.rs"
	DefaultMainPath         = "/web_template/main.rs"
	DefaultAPISchemaPath    = "/autodevgpt/schemas/api_schema.json"
)

// Paths locates the three artifact files. Empty fields fall back to defaults.
type Paths struct {
	CodeTemplate string
	BackendMain  string
	APISchema    string
}

func (p Paths) withDefaults() Paths {
	if strings.TrimSpace(p.CodeTemplate) == "" {
		p.CodeTemplate = DefaultCodeTemplatePath
	}
	if strings.TrimSpace(p.BackendMain) == "" {
		p.BackendMain = DefaultMainPath
	}
	if strings.TrimSpace(p.APISchema) == "" {
		p.APISchema = DefaultAPISchemaPath
	}
	return p
}

type Store struct {
	fs    afero.Fs
	paths Paths
}

// New returns a Store over fs. A nil fs means the OS filesystem.
func New(fs afero.Fs, paths Paths) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{fs: fs, paths: paths.withDefaults()}
}

func (s *Store) Paths() Paths {
	return s.paths
}

// ReadCodeTemplate returns the contents of the backend code template.
func (s *Store) ReadCodeTemplate() (string, error) {
	b, err := afero.ReadFile(s.fs, s.paths.CodeTemplate)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("artifacts: code template %s not found: %w", s.paths.CodeTemplate, err)
		}
		return "", fmt.Errorf("artifacts: read code template: %w", err)
	}
	return string(b), nil
}

// SaveBackendCode overwrites the backend main file with contents.
func (s *Store) SaveBackendCode(contents string) error {
	if err := s.write(s.paths.BackendMain, contents); err != nil {
		return fmt.Errorf("artifacts: save backend code: %w", err)
	}
	return nil
}

// SaveAPIEndpoints overwrites the API schema file with the endpoint JSON.
func (s *Store) SaveAPIEndpoints(endpoints string) error {
	if err := s.write(s.paths.APISchema, endpoints); err != nil {
		return fmt.Errorf("artifacts: save api endpoints: %w", err)
	}
	return nil
}

func (s *Store) write(path, contents string) error {
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return afero.WriteFile(s.fs, path, []byte(contents), 0o644)
}
