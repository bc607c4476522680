package rename

import (
	"context"
	"strings"

	"github.com/rottenpen/volar/internal/config"
	"github.com/rottenpen/volar/internal/engine"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Policy is the user's choice for updating imports on file moves.
type Policy int

const (
	Absent Policy = iota
	Never
	Prompt
	Always
)

func (p Policy) String() string {
	switch p {
	case Never:
		return "never"
	case Prompt:
		return "prompt"
	case Always:
		return "always"
	default:
		return "absent"
	}
}

// ParsePolicy maps a configuration value to a Policy. Unknown values are Absent.
func ParsePolicy(value string) Policy {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "never":
		return Never
	case "prompt":
		return Prompt
	case "always":
		return Always
	default:
		return Absent
	}
}

// policyKey picks the settings key for a batch: the typed-source key as soon
// as one file matches it, the plain-script key otherwise.
func policyKey(cfg config.Config, files []protocol.FileRename) (string, protocol.DocumentUri, bool) {
	var jsKey string
	var jsScope protocol.DocumentUri
	for _, f := range files {
		if cfg.IsTypeScript(f.OldURI) || cfg.IsTypeScript(f.NewURI) {
			return cfg.RenamePolicyKeys.TypeScript, f.OldURI, true
		}
		if jsKey == "" && (cfg.IsJavaScript(f.OldURI) || cfg.IsJavaScript(f.NewURI)) {
			jsKey, jsScope = cfg.RenamePolicyKeys.JavaScript, f.OldURI
		}
	}
	return jsKey, jsScope, jsKey != ""
}

// Decide asks the client which policy applies to files.
func Decide(ctx context.Context, client engine.Client, cfg config.Config, files []protocol.FileRename) Policy {
	key, scope, ok := policyKey(cfg, files)
	if !ok || key == "" {
		return Absent
	}
	value, ok := client.Configuration(ctx, key, scope)
	if !ok {
		log.Debugf("%s: %v", key, engine.ErrConfigurationUnavailable)
		return Absent
	}
	return ParsePolicy(value)
}
