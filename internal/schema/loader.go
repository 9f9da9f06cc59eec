// Package schema compiles the JSON schemas request payloads are checked
// against before they are decoded.
package schema

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/qri-io/jsonschema"
)

const (
	Application        = "application"
	ApplicationContact = "application_contact"
)

//go:embed schemas/*.json
var embedded embed.FS

// Loader loads and caches compiled JSON schemas keyed by file name without
// the .json extension.
type Loader struct {
	fsys  fs.FS
	mu    sync.RWMutex
	cache map[string]*jsonschema.Schema
}

// NewLoader compiles every schema under schemas/ in fsys. A nil fsys selects
// the schemas built into the binary.
func NewLoader(fsys fs.FS) (*Loader, error) {
	if fsys == nil {
		fsys = embedded
	}
	l := &Loader{
		fsys:  fsys,
		cache: make(map[string]*jsonschema.Schema),
	}
	// initial load
	if err := l.Reload(); err != nil {
		return nil, err
	}

	return l, nil
}

// GetSchema returns a compiled schema by name.
func (l *Loader) GetSchema(name string) (*jsonschema.Schema, bool) {
	l.mu.RLock()
	s, ok := l.cache[name]
	l.mu.RUnlock()

	return s, ok
}

// Reload recompiles all schemas.
func (l *Loader) Reload() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	files, err := fs.Glob(l.fsys, "schemas/*.json")
	if err != nil {
		return fmt.Errorf("list schemas: %w", err)
	}

	newCache := make(map[string]*jsonschema.Schema)
	for _, f := range files {
		b, err := fs.ReadFile(l.fsys, f)
		if err != nil {
			return fmt.Errorf("read schema %s: %w", f, err)
		}

		rs := &jsonschema.Schema{}
		if err := json.Unmarshal(b, rs); err != nil {
			return fmt.Errorf("compile schema %s: %w", f, err)
		}

		newCache[strings.TrimSuffix(path.Base(f), ".json")] = rs
	}

	l.cache = newCache
	return nil
}

// Validate checks data against the named schema. It returns one message per
// violation; a non-nil error means the check itself could not run.
func (l *Loader) Validate(ctx context.Context, name string, data []byte) ([]string, error) {
	rs, ok := l.GetSchema(name)
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", name)
	}

	errs, err := rs.ValidateBytes(ctx, data)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(errs))
	for _, e := range errs {
		if e.PropertyPath != "" && e.PropertyPath != "/" {
			out = append(out, strings.TrimPrefix(e.PropertyPath, "/")+": "+e.Message)
			continue
		}
		out = append(out, e.Message)
	}
	return out, nil
}
