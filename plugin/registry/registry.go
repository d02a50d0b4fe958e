// Package registry is the language-plugin registry: a read-mostly,
// concurrency-safe map from language id, and from file extension, to a
// registered plugin.LanguagePlugin. It is grounded on
// termfx-morfx/internal/registry, generalized from LanguageProvider to
// plugin.LanguagePlugin and stripped of the teacher's dynamic .so plugin
// loading (see DESIGN.md for why).
package registry

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/oxhq/astrograph/plugin"
)

// Registry maps language identifiers and file extensions to plugins.
type Registry struct {
	mu         sync.RWMutex
	plugins    map[string]plugin.LanguagePlugin
	extensions map[string]string // extension -> language id
}

// New creates an empty registry. Plugins must be added explicitly via
// Register; the registry itself has zero knowledge of any concrete
// language.
func New() *Registry {
	return &Registry{
		plugins:    make(map[string]plugin.LanguagePlugin),
		extensions: make(map[string]string),
	}
}

// Register adds a plugin to the registry under its language id and claimed
// extensions. Returns an error if the language id or any extension is
// already registered.
func (r *Registry) Register(p plugin.LanguagePlugin) error {
	if p == nil {
		return fmt.Errorf("registry: plugin cannot be nil")
	}

	lang := p.LanguageID()
	if lang == "" {
		return fmt.Errorf("registry: plugin must have a non-empty language id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[lang]; exists {
		return fmt.Errorf("registry: plugin for language %q already registered", lang)
	}

	for _, ext := range p.FileExtensions() {
		ext = normalizeExt(ext)
		if existing, exists := r.extensions[ext]; exists {
			return fmt.Errorf("registry: extension %q conflicts with existing mapping to %q", ext, existing)
		}
	}

	r.plugins[lang] = p
	for _, ext := range p.FileExtensions() {
		r.extensions[normalizeExt(ext)] = lang
	}
	return nil
}

// Get resolves a plugin by language id or file extension.
func (r *Registry) Get(identifier string) (plugin.LanguagePlugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.plugins[identifier]; ok {
		return p, nil
	}
	if lang, ok := r.extensions[normalizeExt(identifier)]; ok {
		return r.plugins[lang], nil
	}
	return nil, fmt.Errorf("registry: %w: no plugin for identifier %q", plugin.ErrUnsupportedLanguage, identifier)
}

// GetForFile resolves a plugin from a file's extension.
func (r *Registry) GetForFile(filePath string) (plugin.LanguagePlugin, error) {
	ext := filepath.Ext(filePath)
	if ext == "" {
		return nil, fmt.Errorf("registry: %w: file %q has no extension", plugin.ErrUnsupportedLanguage, filePath)
	}
	return r.Get(ext)
}

// List returns all registered language ids.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.plugins))
	for id := range r.plugins {
		ids = append(ids, id)
	}
	return ids
}

// All returns every registered plugin, keyed by language id. Used by the
// engine to fan out a single file-tree walk across every plugin's SkipDirs.
func (r *Registry) All() map[string]plugin.LanguagePlugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]plugin.LanguagePlugin, len(r.plugins))
	for id, p := range r.plugins {
		out[id] = p
	}
	return out
}

func normalizeExt(ext string) string {
	if ext != "" && ext[0] != '.' {
		ext = "." + ext
	}
	return ext
}
