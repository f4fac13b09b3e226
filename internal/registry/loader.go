// Package registry discovers GGUF model files on disk.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"textgend/internal/common/fsutil"
	"textgend/pkg/types"
)

// ErrNotFound is returned by Resolve when no model matches.
var ErrNotFound = errors.New("model not found")

const ggufExt = ".gguf"

// LoadDir scans a directory for *.gguf files, sorted by ID.
// ID is the full filename; Name drops the extension; Path is absolute.
func LoadDir(dir string) ([]types.Model, error) {
	abs, err := fsutil.AbsPath(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.Model
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ggufExt) {
			continue
		}
		p := filepath.Join(abs, e.Name())
		size, ok := fsutil.RegularFile(p)
		if !ok {
			continue
		}
		models = append(models, fromPath(p, size))
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}

// Resolve picks the model to serve. ref may be a model ID, a name without
// extension, or a path to a model file (which need not be in models). An
// empty ref selects the first model.
func Resolve(models []types.Model, ref string) (types.Model, error) {
	if ref == "" {
		if len(models) == 0 {
			return types.Model{}, fmt.Errorf("%w: models directory is empty", ErrNotFound)
		}
		return models[0], nil
	}
	for _, m := range models {
		if m.ID == ref || m.Name == ref {
			return m, nil
		}
	}
	if p, err := fsutil.AbsPath(ref); err == nil {
		if size, ok := fsutil.RegularFile(p); ok {
			return fromPath(p, size), nil
		}
	}
	return types.Model{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
}

func fromPath(p string, size int64) types.Model {
	id := filepath.Base(p)
	return types.Model{
		ID:        id,
		Object:    "model",
		Name:      strings.TrimSuffix(id, filepath.Ext(id)),
		Path:      p,
		SizeBytes: size,
	}
}
