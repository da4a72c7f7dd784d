// Package registry discovers local model files and carries the static
// per-model memory estimates used for admission decisions.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"hearthd/internal/common/fsutil"
	"hearthd/pkg/types"
)

// DefaultEstimateMB is used for model names with no known estimate and
// no file to measure.
const DefaultEstimateMB = 1024

// knownEstimates are static footprints (MB) for the bundled model set.
// They are estimates for admission only, never measured live.
var knownEstimates = map[string]int{
	"mistral-7b-quantized": 4096,
	"all-MiniLM-L6-v2":     256,
	"coqui-tts":            512,
}

// LoadDir scans a directory for *.gguf files and builds a registry from
// filenames. ID is the filename without extension; Path is absolute.
func LoadDir(dir string) ([]types.Model, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.Model
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".gguf") {
			continue
		}
		id := strings.TrimSuffix(name, filepath.Ext(name))
		p := filepath.Join(abs, name)
		models = append(models, types.Model{ID: id, Name: id, Path: p, MemoryMB: EstimateMB(id, p)})
	}
	return models, nil
}

// EstimateMB returns the memory estimate for a model name, preferring the
// static table, then the on-disk file size, then the package default.
func EstimateMB(name, path string) int {
	if mb, ok := knownEstimates[name]; ok {
		return mb
	}
	if path != "" {
		if fi, err := os.Stat(path); err == nil {
			if mb := int(fi.Size() / (1024 * 1024)); mb > 0 {
				return mb
			}
		}
	}
	return DefaultEstimateMB
}

// PathFor finds the file path for a model name, or "" when unknown.
func PathFor(models []types.Model, name string) string {
	for _, m := range models {
		if m.ID == name || m.Name == name {
			return m.Path
		}
	}
	return ""
}
