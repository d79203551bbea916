package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// ModelConfig describes one supported product line. DefaultSettings holds
// the versioned settings value objects (keyed by kind: led, buzzer, general)
// that are materialized for a device on first read.
type ModelConfig struct {
	Model                 string                     `json:"model"`
	DisplayName           string                     `json:"display_name"`
	Capabilities          []string                   `json:"capabilities"`
	SettingsSchemaVersion int                        `json:"settings_schema_version"`
	DefaultSettings       map[string]json.RawMessage `json:"default_settings"`
}

type CatalogFile struct {
	Models []ModelConfig `json:"models"`
}

// Registry is the in-memory product catalog loaded once at startup.
type Registry struct {
	mu     sync.RWMutex
	models map[string]*ModelConfig
}

func NewRegistry() *Registry {
	return &Registry{
		models: make(map[string]*ModelConfig),
	}
}

func LoadFromFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var file CatalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	registry := NewRegistry()
	for i := range file.Models {
		registry.Register(&file.Models[i])
	}
	return registry, nil
}

func (r *Registry) Register(cfg *ModelConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[cfg.Model] = cfg
}

func (r *Registry) Get(model string) *ModelConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.models[model]
}

func (r *Registry) Exists(model string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.models[model]
	return ok
}

func (r *Registry) HasCapability(model, capability string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.models[model]
	if !ok {
		return false
	}
	for _, c := range cfg.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

func (r *Registry) All() []*ModelConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*ModelConfig, 0, len(r.models))
	for _, cfg := range r.models {
		result = append(result, cfg)
	}
	return result
}

// DefaultSetting returns the default value object for a settings kind, or
// nil when the model or kind is unknown.
func (r *Registry) DefaultSetting(model, kind string) (json.RawMessage, int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.models[model]
	if !ok {
		return nil, 0
	}
	value, ok := cfg.DefaultSettings[kind]
	if !ok {
		return nil, 0
	}
	return value, cfg.SettingsSchemaVersion
}
