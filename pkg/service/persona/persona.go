// Package persona loads the personality prompt served over MCP. The
// prompt text itself is an opaque markdown blob; this package only
// resolves which file to load and reads it.
package persona

import (
	"context"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"

	"github.com/m-mizutani/symbios/pkg/utils/logging"
)

// manifest maps persona variant names to markdown files. File paths are
// resolved relative to the manifest's directory.
type manifest struct {
	Default  string            `yaml:"default"`
	Personas map[string]string `yaml:"personas"`
}

// Persona is a loaded personality prompt.
type Persona struct {
	variant string
	content string
}

// Load reads the manifest and the markdown file for the requested
// variant. An unknown variant falls back to the manifest's default with
// a warning, matching how a misconfigured deployment should degrade.
func Load(ctx context.Context, manifestPath, variant string) (*Persona, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read persona manifest",
			goerr.V("path", manifestPath))
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, goerr.Wrap(err, "failed to parse persona manifest",
			goerr.V("path", manifestPath))
	}
	if m.Default == "" {
		return nil, goerr.New("persona manifest has no default variant",
			goerr.V("path", manifestPath))
	}

	if variant == "" {
		variant = m.Default
	}
	file, ok := m.Personas[variant]
	if !ok {
		logging.From(ctx).Warn("unknown persona variant, using default",
			"variant", variant, "default", m.Default)
		variant = m.Default
		file, ok = m.Personas[variant]
		if !ok {
			return nil, goerr.New("persona manifest default variant is not defined",
				goerr.V("default", m.Default))
		}
	}

	if !filepath.IsAbs(file) {
		file = filepath.Join(filepath.Dir(manifestPath), file)
	}

	content, err := os.ReadFile(file)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read persona file",
			goerr.V("variant", variant), goerr.V("path", file))
	}

	return &Persona{
		variant: variant,
		content: string(content),
	}, nil
}

// Variant returns the resolved variant name.
func (p *Persona) Variant() string {
	return p.variant
}

// Content returns the prompt text.
func (p *Persona) Content() string {
	return p.content
}
