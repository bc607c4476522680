package config

import (
	"encoding/json"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

type RenamePolicyKeys struct {
	TypeScript string `json:"typescript" yaml:"typescript"`
	JavaScript string `json:"javascript" yaml:"javascript"`
}

type Completion struct {
	// CorrelateSelection asks the client for the live cursor before
	// resolving a completion item.
	CorrelateSelection bool `json:"correlateSelection" yaml:"correlateSelection"`
}

type SemanticTokens struct {
	ProgressBatch int `json:"progressBatch" yaml:"progressBatch"`
}

type WorkspaceSymbol struct {
	MaxResults int `json:"maxResults" yaml:"maxResults"`
}

type Config struct {
	TypeScriptExtensions []string         `json:"typescriptExtensions" yaml:"typescriptExtensions"`
	JavaScriptExtensions []string         `json:"javascriptExtensions" yaml:"javascriptExtensions"`
	RenamePolicyKeys     RenamePolicyKeys `json:"renamePolicyKeys"     yaml:"renamePolicyKeys"`
	Completion           Completion       `json:"completion"           yaml:"completion"`
	Projects             []string         `json:"projects"             yaml:"projects"`
	SemanticTokens       SemanticTokens   `json:"semanticTokens"       yaml:"semanticTokens"`
	WorkspaceSymbol      WorkspaceSymbol  `json:"workspaceSymbol"      yaml:"workspaceSymbol"`
}

// Default returns a fresh copy of the built-in configuration.
func Default() Config {
	return Config{
		TypeScriptExtensions: []string{".ts", ".tsx", ".mts", ".cts", ".vue"},
		JavaScriptExtensions: []string{".js", ".jsx", ".mjs", ".cjs"},
		RenamePolicyKeys: RenamePolicyKeys{
			TypeScript: "typescript.updateImportsOnFileMove.enabled",
			JavaScript: "javascript.updateImportsOnFileMove.enabled",
		},
		SemanticTokens:  SemanticTokens{ProgressBatch: 256},
		WorkspaceSymbol: WorkspaceSymbol{MaxResults: 256},
	}
}

// Load overlays v (typically initializationOptions) on base. Only fields
// present in v overwrite.
func Load(base Config, v any) (Config, error) {
	cfg := base.clone()
	if v == nil {
		return cfg, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return Config{}, fmt.Errorf("failed to marshal source: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal into Config: %w", err)
	}

	return cfg, nil
}

// clone copies c so that decoding into the copy leaves c untouched.
func (c Config) clone() Config {
	c.TypeScriptExtensions = slices.Clone(c.TypeScriptExtensions)
	c.JavaScriptExtensions = slices.Clone(c.JavaScriptExtensions)
	c.Projects = slices.Clone(c.Projects)
	return c
}

// LoadFromYAML reads a YAML settings file over the defaults.
func LoadFromYAML(r io.Reader) (Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	return cfg, nil
}

// IsTypeScript reports whether name carries one of the typed-source extensions.
func (c Config) IsTypeScript(name string) bool {
	return hasExtension(name, c.TypeScriptExtensions)
}

// IsJavaScript reports whether name carries one of the plain-script extensions.
func (c Config) IsJavaScript(name string) bool {
	return hasExtension(name, c.JavaScriptExtensions)
}

func hasExtension(name string, extensions []string) bool {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		return false
	}
	for _, e := range extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}
